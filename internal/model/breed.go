package model

import (
	"math"
	"strconv"
	"strings"
)

// Tracked breed fields, in output order.
const (
	FieldName        = "name"
	FieldOrigin      = "origin"
	FieldEggColor    = "eggColor"
	FieldEggSize     = "eggSize"
	FieldEggNumber   = "eggNumber"
	FieldTemperament = "temperament"
	FieldDescription = "description"
	FieldImageURL    = "imageUrl"
)

// TrackedFields lists every field the reviewer may correct.
var TrackedFields = []string{
	FieldName,
	FieldOrigin,
	FieldEggColor,
	FieldEggSize,
	FieldEggNumber,
	FieldTemperament,
	FieldDescription,
	FieldImageURL,
}

// legacyHeaders maps historical column spellings to their tracked field.
var legacyHeaders = map[string]string{
	"temperment": FieldTemperament,
}

// CanonicalHeader returns the tracked field name for a column header,
// resolving legacy spellings. Unknown headers are returned trimmed.
func CanonicalHeader(h string) string {
	h = strings.TrimSpace(h)
	if canon, ok := legacyHeaders[h]; ok {
		return canon
	}
	return h
}

// BreedRecord is one submitted breed row. Identity is positional.
type BreedRecord struct {
	Index  int
	Fields *Row
}

// NewBreedRecord builds a record from a header and a raw row of cells.
// Cells beyond the header are ignored; missing cells are read as empty.
func NewBreedRecord(index int, header, cells []string) BreedRecord {
	row := &Row{}
	for i, h := range header {
		var raw string
		if i < len(cells) {
			raw = cells[i]
		}
		key := CanonicalHeader(h)
		if key == FieldEggNumber {
			row.Set(key, ParseEggNumber(raw))
			continue
		}
		row.Set(key, raw)
	}
	return BreedRecord{Index: index, Fields: row}
}

// Name returns the record's name for logging, or "Unknown".
func (b BreedRecord) Name() string {
	if v, ok := b.Fields.Get(FieldName); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "Unknown"
}

// Value returns the value of field, if present.
func (b BreedRecord) Value(field string) (any, bool) {
	return b.Fields.Get(field)
}

// ParseEggNumber converts an eggNumber cell into a number. Empty cells
// become nil; cells that are not finite numbers are returned verbatim.
func ParseEggNumber(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return raw
}
