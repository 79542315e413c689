package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/qwex/breedcheck/internal/model"
)

// Columns returns the union of keys across rows, ordered by first
// appearance.
func Columns(rows []*model.Row) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		for _, k := range r.Keys() {
			if seen[k] {
				continue
			}
			seen[k] = true
			cols = append(cols, k)
		}
	}
	return cols
}

// FormatValue renders a cell value for CSV output. Booleans render as
// True/False, nil as an empty cell and floats in their shortest form.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case map[string]any, []any:
		if b, err := model.MarshalNoEscape(x); err == nil {
			return string(b)
		}
		return fmt.Sprint(x)
	default:
		return fmt.Sprint(x)
	}
}

// WriteCSV writes rows to path with a header derived from Columns. Cells
// missing from a row are left empty.
func WriteCSV(path string, rows []*model.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "csv export: create file")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)

	cols := Columns(rows)
	if err := w.Write(cols); err != nil {
		return eris.Wrap(err, "csv export: write header")
	}

	for _, r := range rows {
		record := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := r.Get(c); ok {
				record[i] = FormatValue(v)
			}
		}
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "csv export: write row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "csv export: flush")
	}
	return f.Close()
}
