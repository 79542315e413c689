// Package tabular reads breed submissions from CSV or XLSX tables and
// writes verification results back out as CSV.
package tabular

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	// Encoding is a WHATWG encoding label such as "windows-1252".
	// Empty or "utf-8" reads the file as UTF-8.
	Encoding  string
	Delimiter rune // default ','
}

// ReadCSV reads a CSV file and returns its header and data rows.
func ReadCSV(path string, opts CSVOptions) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close() //nolint:errcheck

	r, err := decodingReader(f, opts.Encoding)
	if err != nil {
		return nil, nil, err
	}
	return parseCSV(r, opts)
}

func parseCSV(r io.Reader, opts CSVOptions) ([]string, [][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, eris.Wrap(err, "csv: read file")
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow ragged rows
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, eris.Wrap(err, "csv: read rows")
	}
	if len(records) == 0 {
		return nil, nil, eris.New("csv: file has no header row")
	}

	return records[0], records[1:], nil
}

// decodingReader wraps r so it yields UTF-8 for the named encoding.
func decodingReader(r io.Reader, encoding string) (io.Reader, error) {
	label := strings.ToLower(strings.TrimSpace(encoding))
	if label == "" || label == "utf-8" || label == "utf8" {
		return r, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: unsupported encoding %q", encoding)
	}
	return enc.NewDecoder().Reader(r), nil
}
