package model

import (
	"bytes"
	"encoding/json"
)

// Cell is a single named value within a Row.
type Cell struct {
	Key   string
	Value any
}

// Row is an ordered set of named values. Key order is the order of first
// insertion and is kept when the row is marshaled or written as a table.
type Row struct {
	cells []Cell
	index map[string]int
}

// NewRow builds a row from cells, keeping their order. A repeated key
// overwrites the earlier value in place.
func NewRow(cells ...Cell) *Row {
	r := &Row{}
	for _, c := range cells {
		r.Set(c.Key, c.Value)
	}
	return r
}

// Set stores value under key. New keys are appended.
func (r *Row) Set(key string, value any) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[key]; ok {
		r.cells[i].Value = value
		return
	}
	r.index[key] = len(r.cells)
	r.cells = append(r.cells, Cell{Key: key, Value: value})
}

// Get returns the value stored under key.
func (r *Row) Get(key string) (any, bool) {
	if r == nil || r.index == nil {
		return nil, false
	}
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.cells[i].Value, true
}

// Delete removes key from the row, keeping the order of the rest.
func (r *Row) Delete(key string) {
	i, ok := r.index[key]
	if !ok {
		return
	}
	r.cells = append(r.cells[:i], r.cells[i+1:]...)
	delete(r.index, key)
	for j := i; j < len(r.cells); j++ {
		r.index[r.cells[j].Key] = j
	}
}

// Keys returns the keys in insertion order.
func (r *Row) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, len(r.cells))
	for i, c := range r.cells {
		keys[i] = c.Key
	}
	return keys
}

// Cells returns a copy of the row's cells.
func (r *Row) Cells() []Cell {
	if r == nil {
		return nil
	}
	out := make([]Cell, len(r.cells))
	copy(out, r.cells)
	return out
}

// Len returns the number of cells.
func (r *Row) Len() int {
	if r == nil {
		return 0
	}
	return len(r.cells)
}

// Clone returns an independent copy of the row.
func (r *Row) Clone() *Row {
	return NewRow(r.Cells()...)
}

// MarshalJSON encodes the row as a JSON object with keys in row order.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Cells() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := MarshalNoEscape(c.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := MarshalNoEscape(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalNoEscape encodes v as compact JSON without HTML escaping so values
// such as "<" and "&" read as written.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
