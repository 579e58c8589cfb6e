package output

import (
	"github.com/lepinkainen/ratingsync/internal/fileutil"
)

// WriteJSON writes doc as indented JSON. An existing file is only replaced
// when overwrite is set.
func WriteJSON(path string, doc Document, overwrite bool) error {
	_, err := fileutil.WriteJSONFile(doc, path, overwrite)
	return err
}

// WriteYAML writes doc as YAML. An existing file is only replaced when
// overwrite is set.
func WriteYAML(path string, doc Document, overwrite bool) error {
	_, err := fileutil.WriteYAMLFile(doc, path, overwrite)
	return err
}
