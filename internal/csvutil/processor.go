// Package csvutil reads header-addressed CSV files into typed records.
package csvutil

import (
	"encoding/csv"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ErrSkip tells ProcessCSV to drop a record without treating it as invalid.
var ErrSkip = stdErrors.New("skip record")

// ProcessorOptions configures CSV processing behavior.
type ProcessorOptions struct {
	// Required lists header names that must be present.
	Required []string

	// SkipInvalid controls whether to skip invalid records or return an error.
	SkipInvalid bool
}

// Row is one record addressed by header name. Header names are matched
// case-insensitively after trimming.
type Row struct {
	Line   int
	header map[string]int
	record []string
}

// Get returns the trimmed value of column name, or "" when the column is
// missing or the record is short.
func (r Row) Get(name string) string {
	i, ok := r.header[normalizeHeader(name)]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

// Has reports whether the file has a column called name.
func (r Row) Has(name string) bool {
	_, ok := r.header[normalizeHeader(name)]
	return ok
}

// ProcessCSV reads a CSV file and parses each record into type T.
func ProcessCSV[T any](filename string, parser func(Row) (T, error), opts ProcessorOptions) ([]T, error) {
	csvFile, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = csvFile.Close() }()

	// File existence check
	if fi, err := csvFile.Stat(); err != nil || fi.Size() == 0 {
		return nil, fmt.Errorf("CSV file is empty or cannot be read")
	}

	return Process(csvFile, parser, opts)
}

// Process parses CSV from r. The first record is the header.
func Process[T any](r io.Reader, parser func(Row) (T, error), opts ProcessorOptions) ([]T, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headerRecord, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	header := make(map[string]int, len(headerRecord))
	for i, name := range headerRecord {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if key := normalizeHeader(name); key != "" {
			if _, dup := header[key]; !dup {
				header[key] = i
			}
		}
	}
	for _, name := range opts.Required {
		if _, ok := header[normalizeHeader(name)]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	var items []T
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			slog.Warn("Error reading record", "line", line, "error", err)
			continue
		}

		item, err := parser(Row{Line: line, header: header, record: record})
		if stdErrors.Is(err, ErrSkip) {
			continue
		}
		if err != nil {
			if opts.SkipInvalid {
				slog.Warn("Skipping invalid record", "line", line, "error", err)
				continue
			}
			return nil, fmt.Errorf("invalid record on line %d: %w", line, err)
		}

		items = append(items, item)
	}

	return items, nil
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
