package rollout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Writer appends selected records to a single append-only JSONL trace file.
// It is driven from one flush path at a time; the curator's mutex provides
// that serialization.
type Writer struct {
	path string
}

// NewWriter creates a writer for the given trace file path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the trace file path.
func (w *Writer) Path() string { return w.path }

// Append writes one compact JSON object per record, newline-terminated, in
// the order given. Parent directories are created as needed. A crash mid
// write may leave a truncated final line; the loader tolerates that.
func (w *Writer) Append(records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("create trace dir: %w", err)
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	for _, r := range records {
		line, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		line = append(line, '\n')
		if _, err := f.Write(line); err != nil {
			return fmt.Errorf("append record: %w", err)
		}
	}
	return nil
}
