package stip

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// zipMagic opens every XLSX file.
var zipMagic = []byte("PK\x03\x04")

// ReadTable parses a header-first table. XLSX is detected by extension or
// by the zip signature; anything else is read as CSV.
func ReadTable(name string, data []byte) ([]Row, error) {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") || bytes.HasPrefix(data, zipMagic) {
		return ReadXLSX(bytes.NewReader(data))
	}
	return ReadCSV(bytes.NewReader(data))
}

// ReadCSV reads comma-delimited text with a header row. Every cell becomes
// a text cell keyed by its raw header; short rows leave trailing headers
// absent. Rows whose cells are all empty are skipped.
func ReadCSV(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	if lead, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(lead, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if row := makeRow(header, rec); row != nil {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// ReadXLSX reads the first worksheet of a workbook, treating its first row
// as the header.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	var rows []Row
	for _, rec := range records[1:] {
		if row := makeRow(header, rec); row != nil {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// makeRow pairs a record with the header. It returns nil for blank records.
// Columns whose headers clean to the same key share the later column's
// spelling, so the later column wins whenever the record reaches it.
func makeRow(header, rec []string) Row {
	blank := true
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			blank = false
			break
		}
	}
	if blank {
		return nil
	}
	keys := rowKeys(header)
	row := make(Row, len(header))
	for i := range header {
		if i < len(rec) {
			row[keys[i]] = Text(rec[i])
		}
	}
	return row
}

// rowKeys maps each header position to the raw spelling of the last column
// whose header cleans to the same key.
func rowKeys(header []string) []string {
	last := make(map[string]string, len(header))
	for _, h := range header {
		last[collapseSpaces(h)] = h
	}
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = last[collapseSpaces(h)]
	}
	return keys
}
