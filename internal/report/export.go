package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File names of the exported data files.
const (
	ExternalResourcesFile = "external_resources.json"
	HyperlinksFile        = "hyperlinks.json"
	WordFrequencyFile     = "word_frequency.json"
)

// exportIndent is the indentation used in exported files.
const exportIndent = "    "

// ExportJSON writes value to path as JSON indented by four spaces, then
// prints "File saved to '<path>'" to w. Missing parent directories are
// created and an existing file is overwritten.
//
// Object field order follows the value: struct field order for structs and
// insertion order for ordered types such as wordfreq.Table.
func ExportJSON(w io.Writer, path string, value any) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", exportIndent)
	// URLs with query strings stay readable.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	_, err = fmt.Fprintf(w, "File saved to '%s'\n", path)
	return err
}
