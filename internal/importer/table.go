package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"

	"attendtrack/internal/apperr"
)

// Format is the encoding of an uploaded table.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DetectFormat decides how to parse an upload. The file name and declared
// content type win; the bytes are sniffed only when both are inconclusive.
func DetectFormat(filename, contentType string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xls":
		return FormatXLSX, nil
	}
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "text/csv", "application/csv":
		return FormatCSV, nil
	case "application/vnd.ms-excel", xlsxMIME:
		return FormatXLSX, nil
	}

	m := mimetype.Detect(data)
	switch {
	case m.Is(xlsxMIME):
		return FormatXLSX, nil
	case m.Is("text/csv"), m.Is("text/plain"):
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", apperr.ErrUnsupportedFormat, m.String())
}

// Table is a parsed upload: the header row in file order and one map per data row.
type Table struct {
	Headers []string
	Rows    []Row
}

// Row maps a header to its trimmed cell value. Line is the 1-based record
// position in the source, header included.
type Row struct {
	Line   int
	Values map[string]string
}

// ParseTable reads the first sheet (XLSX) or the whole document (CSV). Blank
// rows are dropped; a table without data rows fails with apperr.ErrEmptyFile.
func ParseTable(format Format, data []byte) (Table, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = readCSV(data)
	case FormatXLSX:
		records, err = readXLSX(data)
	default:
		return Table{}, fmt.Errorf("%w: %q", apperr.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Table{}, err
	}
	return buildTable(format, records)
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.ValidationError{Field: "file", Message: fmt.Sprintf("malformed CSV: %v", err)}
		}
		records = append(records, rec)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.ValidationError{Field: "file", Message: fmt.Sprintf("unable to read spreadsheet: %v", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets: %w", apperr.ErrEmptyFile)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperr.ValidationError{Field: "file", Message: fmt.Sprintf("unable to read sheet %q: %v", sheets[0], err)}
	}
	return rows, nil
}

func buildTable(format Format, records [][]string) (Table, error) {
	label := "CSV"
	if format == FormatXLSX {
		label = "spreadsheet"
	}

	headerAt := -1
	for i, rec := range records {
		if !blank(rec) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return Table{}, fmt.Errorf("%s has no rows: %w", label, apperr.ErrEmptyFile)
	}

	headers := make([]string, len(records[headerAt]))
	for i, h := range records[headerAt] {
		headers[i] = strings.TrimSpace(h)
	}

	t := Table{Headers: headers}
	for i := headerAt + 1; i < len(records); i++ {
		rec := records[i]
		if blank(rec) {
			continue
		}
		values := make(map[string]string, len(headers))
		for col, h := range headers {
			if h == "" {
				continue
			}
			v := ""
			if col < len(rec) {
				v = strings.TrimSpace(rec[col])
			}
			values[h] = v
		}
		t.Rows = append(t.Rows, Row{Line: i + 1, Values: values})
	}
	if len(t.Rows) == 0 {
		return Table{}, fmt.Errorf("%s has no rows: %w", label, apperr.ErrEmptyFile)
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
