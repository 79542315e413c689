package tabular

import (
	"path/filepath"
	"strings"

	"github.com/qwex/breedcheck/internal/model"
)

// ReadOptions configures ReadRecords.
type ReadOptions struct {
	Encoding  string // CSV only
	SheetName string // XLSX only
	// DropColumns are removed from every record, e.g. verdict columns left
	// by a previous run when re-processing a failed artifact.
	DropColumns []string
}

// ReadRecords reads breed records from a .csv or .xlsx file. Record
// indexes are zero-based data row positions.
func ReadRecords(path string, opts ReadOptions) ([]model.BreedRecord, error) {
	var (
		header []string
		rows   [][]string
		err    error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		header, rows, err = ReadXLSX(path, XLSXOptions{SheetName: opts.SheetName})
	default:
		header, rows, err = ReadCSV(path, CSVOptions{Encoding: opts.Encoding})
	}
	if err != nil {
		return nil, err
	}

	records := make([]model.BreedRecord, 0, len(rows))
	for i, row := range rows {
		rec := model.NewBreedRecord(i, header, row)
		for _, col := range opts.DropColumns {
			rec.Fields.Delete(col)
		}
		records = append(records, rec)
	}
	return records, nil
}
