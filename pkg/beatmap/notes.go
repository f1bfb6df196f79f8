package beatmap

import (
	"bytes"
	"fmt"
	"math"
	"slices"

	json "github.com/goccy/go-json"
)

// NoteKeys names the fields of a raw note record.
// An empty Type means every record is DefaultType; an empty CutDirection means CutAny.
type NoteKeys struct {
	Time         string
	LineIndex    string
	LineLayer    string
	Type         string
	CutDirection string
	DefaultType  NoteType
}

func (k NoteKeys) known(key string) bool {
	if key == "" {
		return false
	}
	switch key {
	case k.Time, k.LineIndex, k.LineLayer, k.Type, k.CutDirection:
		return true
	}
	return false
}

// DecodeNotes parses raw note records. A record without a time or type field, whose
// fields do not hold numbers, or whose type, lane or direction is fractional, fails
// with *MalformedNoteError and no notes are returned.
func DecodeNotes(raws []json.RawMessage, keys NoteKeys) ([]Note, error) {
	notes := make([]Note, 0, len(raws))
	for i, raw := range raws {
		n, err := decodeNote(i, raw, keys)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func decodeNote(i int, raw json.RawMessage, keys NoteKeys) (Note, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Note{}, &MalformedNoteError{Index: i, Field: "record"}
	}

	number := func(key string, required bool) (float64, bool, error) {
		if key == "" {
			return 0, false, nil
		}
		v, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			if required {
				return 0, false, &MalformedNoteError{Index: i, Field: key}
			}
			return 0, false, nil
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return 0, false, &MalformedNoteError{Index: i, Field: key}
		}
		return f, true, nil
	}

	// Type, lane and direction fields are enumerations
	integer := func(key string, required bool) (float64, bool, error) {
		f, ok, err := number(key, required)
		if err == nil && ok && f != math.Trunc(f) {
			return 0, false, &MalformedNoteError{Index: i, Field: key}
		}
		return f, ok, err
	}

	t, _, err := number(keys.Time, true)
	if err != nil {
		return Note{}, err
	}
	n := Note{Time: t, Type: keys.DefaultType, CutDirection: CutAny}

	typ, ok, err := integer(keys.Type, keys.Type != "")
	if err != nil {
		return Note{}, err
	}
	if ok {
		n.Type = NoteType(typ)
	}

	col, _, err := integer(keys.LineIndex, false)
	if err != nil {
		return Note{}, err
	}
	row, _, err := integer(keys.LineLayer, false)
	if err != nil {
		return Note{}, err
	}
	dir, ok, err := integer(keys.CutDirection, false)
	if err != nil {
		return Note{}, err
	}
	n.LineIndex, n.LineLayer = int(col), int(row)
	if ok {
		n.CutDirection = CutDirection(dir)
	} else if keys.CutDirection != "" {
		n.CutDirection = CutUp
	}

	for k, v := range fields {
		if keys.known(k) {
			continue
		}
		if n.Extra == nil {
			n.Extra = make(map[string]json.RawMessage)
		}
		n.Extra[k] = v
	}
	return n, nil
}

// EncodeNotes renders notes as raw records using keys. Known fields come first, extra
// fields follow in key order.
func EncodeNotes(notes []Note, keys NoteKeys) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(notes))
	for i, n := range notes {
		raw, err := encodeNote(n, keys)
		if err != nil {
			return nil, fmt.Errorf("failed to encode note %d: %w", i, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

func encodeNote(n Note, keys NoteKeys) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, v any) error {
		if key == "" {
			return nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(data)
		return nil
	}

	fields := []struct {
		key string
		val any
	}{
		{keys.Time, n.Time},
		{keys.LineIndex, n.LineIndex},
		{keys.LineLayer, n.LineLayer},
		{keys.Type, int(n.Type)},
		{keys.CutDirection, int(n.CutDirection)},
	}
	for _, f := range fields {
		if err := write(f.key, f.val); err != nil {
			return nil, err
		}
	}

	extraKeys := make([]string, 0, len(n.Extra))
	for k := range n.Extra {
		if !keys.known(k) {
			extraKeys = append(extraKeys, k)
		}
	}
	slices.Sort(extraKeys)
	for _, k := range extraKeys {
		if err := write(k, n.Extra[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return json.RawMessage(buf.Bytes()), nil
}
