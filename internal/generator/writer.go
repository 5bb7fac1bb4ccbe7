package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/invalder/OpenDGAi/internal/pdpa"
)

// WriteOutput serializes the records into records.json and the planted
// counts into stats.json under the provided directory.
func WriteOutput(out Output, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, "records.json"), out.Records); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "stats.json"), out.Stats); err != nil {
		return err
	}
	return nil
}

// ReadRecords decodes either a JSON array of records or an object with a
// "records" array. Numbers are kept as json.Number so long numeric IDs are
// not rounded.
func ReadRecords(r io.Reader) ([]pdpa.Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("decode records: empty input")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if raw[0] == '[' {
		var records []pdpa.Record
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return records, nil
	}

	var wrapped struct {
		Records []pdpa.Record `json:"records"`
	}
	if err := dec.Decode(&wrapped); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return wrapped.Records, nil
}

// ReadRecordsFile is ReadRecords over a file.
func ReadRecordsFile(path string) ([]pdpa.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadRecords(f)
}

func writeJSON(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}
