package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/starford/propscope/internal/models"
)

// Dataset keys rewritten by the maintenance commands.
const (
	FieldImages = "images"
	FieldStatus = "status"
)

type record = orderedmap.OrderedMap[string, json.RawMessage]

// Document is a dataset file held as raw records. Keys the Property type does
// not know about, and the key order of every record, survive a rewrite.
type Document struct {
	records []*record
}

// ReadDocument loads the dataset file at path.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", path, err)
	}

	doc := &Document{records: make([]*record, len(raws))}
	for i, raw := range raws {
		rec := orderedmap.New[string, json.RawMessage]()
		if err := rec.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("catalog: decode %s: record %d: %w", path, i, err)
		}
		doc.records[i] = rec
	}
	return doc, nil
}

// Len returns the number of records.
func (d *Document) Len() int { return len(d.records) }

// Properties decodes every record, in file order.
func (d *Document) Properties() ([]models.Property, error) {
	items := make([]models.Property, len(d.records))
	for i, rec := range d.records {
		raw, err := rec.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("catalog: record %d: %w", i, err)
		}
		if err := json.Unmarshal(raw, &items[i]); err != nil {
			return nil, fmt.Errorf("catalog: record %d: %w", i, err)
		}
	}
	return items, nil
}

// Apply copies the named keys from items into the records at the same
// index. A key the property encodes as empty is removed; every other key of
// the record is left untouched.
func (d *Document) Apply(items []models.Property, fields ...string) error {
	if len(items) != len(d.records) {
		return fmt.Errorf("catalog: apply %d properties to %d records", len(items), len(d.records))
	}
	for i, p := range items {
		raw, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("catalog: encode %s: %w", p.ID, err)
		}
		encoded := orderedmap.New[string, json.RawMessage]()
		if err := encoded.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("catalog: encode %s: %w", p.ID, err)
		}
		for _, f := range fields {
			if v, ok := encoded.Get(f); ok {
				d.records[i].Set(f, v)
			} else {
				d.records[i].Delete(f)
			}
		}
	}
	return nil
}

// Write atomically replaces the file at path with the document.
func (d *Document) Write(path string) error {
	content, err := json.MarshalIndent(d.records, "", "  ")
	if err != nil {
		return fmt.Errorf("catalog: encode dataset: %w", err)
	}
	return writeFile(path, append(content, '\n'))
}

// WriteDataset writes items as a fresh dataset file.
func WriteDataset(path string, items []models.Property) error {
	content, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("catalog: encode dataset: %w", err)
	}
	return writeFile(path, append(content, '\n'))
}

// writeFile atomically replaces path: tmp file → fsync → rename.
// The watcher sees a single create event for the final path.
func writeFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("catalog: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".propscope-tmp-*")
	if err != nil {
		return fmt.Errorf("catalog: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("catalog: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("catalog: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("catalog: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("catalog: rename: %w", err)
	}
	success = true
	return nil
}
