package datastore

import (
	"reflect"
	"strings"
	"unicode"
)

// Rows converts structs into BatchInsert records. Column names come from
// the `db` struct tag, or the snake_case field name when untagged. Fields
// tagged `db:"-"` are skipped.
func Rows[T any](items []T) []map[string]any {
	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, Row(item))
	}
	return rows
}

// Row converts a single struct into a record.
func Row(value any) map[string]any {
	result := make(map[string]any)
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return result
		}
		v = v.Elem()
	}
	appendStructFields(v, result)
	return result
}

func appendStructFields(v reflect.Value, result map[string]any) {
	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)
		if field.Anonymous && value.Kind() == reflect.Struct {
			appendStructFields(value, result)
			continue
		}
		if field.PkgPath != "" {
			continue
		}

		key := toSnakeCase(field.Name)
		if tag, ok := field.Tag.Lookup("db"); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name == "-" {
				continue
			}
			if name != "" {
				key = name
			}
		}

		result[key] = columnValue(value)
	}
}

func columnValue(value reflect.Value) any {
	if value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	return value.Interface()
}

func toSnakeCase(input string) string {
	if input == "" {
		return ""
	}

	runes := []rune(input)
	var builder strings.Builder
	builder.Grow(len(runes) + 4)

	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				var next rune
				if i+1 < len(runes) {
					next = runes[i+1]
				}
				// "URLText" -> "url_text": split before the last capital of an acronym.
				if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
					(unicode.IsUpper(prev) && next != 0 && unicode.IsLower(next)) {
					builder.WriteRune('_')
				}
			}
			builder.WriteRune(unicode.ToLower(r))
			continue
		}
		builder.WriteRune(r)
	}

	return builder.String()
}
