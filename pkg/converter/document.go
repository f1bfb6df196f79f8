package converter

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// Document is a difficulty file held as its top-level fields.
// Fields no schema touches are written back byte-for-byte.
type Document struct {
	fields map[string]json.RawMessage
}

// ParseDocument parses difficulty file data
func ParseDocument(data []byte) (*Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse difficulty: %w", err)
	}
	if fields == nil {
		return nil, errors.New("difficulty document is not an object")
	}
	return &Document{fields: fields}, nil
}

// ReadDocument reads and parses a difficulty file
func ReadDocument(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read difficulty file: %w", err)
	}
	return ParseDocument(data)
}

// Has reports whether the document carries key
func (d *Document) Has(key string) bool {
	_, ok := d.fields[key]
	return ok
}

// Raw returns the undecoded value stored under key
func (d *Document) Raw(key string) (json.RawMessage, bool) {
	v, ok := d.fields[key]
	return v, ok
}

// Decode unmarshals the value stored under key into v
func (d *Document) Decode(key string, v any) error {
	raw, ok := d.fields[key]
	if !ok {
		return fmt.Errorf("missing field %q", key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("bad field %q: %w", key, err)
	}
	return nil
}

// Float returns a numeric field, or 0 when absent or not a number
func (d *Document) Float(key string) float64 {
	var f float64
	if err := d.Decode(key, &f); err != nil {
		return 0
	}
	return f
}

// Text returns a string field, or "" when absent or not a string
func (d *Document) Text(key string) string {
	var s string
	if err := d.Decode(key, &s); err != nil {
		return ""
	}
	return s
}

// Set encodes v under key
func (d *Document) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode field %q: %w", key, err)
	}
	d.fields[key] = data
	return nil
}

// RawList returns the elements of an array field, nil when absent
func (d *Document) RawList(key string) ([]json.RawMessage, error) {
	if !d.Has(key) {
		return nil, nil
	}
	var list []json.RawMessage
	if err := d.Decode(key, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Bytes encodes the document
func (d *Document) Bytes() ([]byte, error) {
	data, err := json.Marshal(d.fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode difficulty: %w", err)
	}
	return data, nil
}
