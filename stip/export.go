package stip

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Export column names. Program and MPO columns follow the fixed ones as
// "program.<name>" and "mpo.<name>".
var exportColumns = []string{
	"job", "termini", "district", "county", "route", "ffy", "workType", "length", "cost",
}

const (
	programPrefix = "program."
	mpoPrefix     = "mpo."
)

// exportLayout collects the program and MPO names present on any record,
// sorted.
func exportLayout(records []ProjectRecord) (programs, mpos []string) {
	ps := make(map[string]bool)
	ms := make(map[string]bool)
	for _, p := range records {
		for k := range p.Programs {
			ps[k] = true
		}
		for k := range p.MPOs {
			ms[k] = true
		}
	}
	for k := range ps {
		programs = append(programs, k)
	}
	for k := range ms {
		mpos = append(mpos, k)
	}
	sort.Strings(programs)
	sort.Strings(mpos)
	return programs, mpos
}

func exportHeader(programs, mpos []string) []string {
	h := append([]string{}, exportColumns...)
	for _, p := range programs {
		h = append(h, programPrefix+p)
	}
	for _, m := range mpos {
		h = append(h, mpoPrefix+m)
	}
	return h
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func exportRecord(p ProjectRecord, programs, mpos []string) []string {
	rec := []string{
		p.Job, p.Termini, p.District, p.County, p.Route, p.FFY, p.WorkType,
		formatFloat(p.Length), formatFloat(p.Cost),
	}
	for _, name := range programs {
		rec = append(rec, formatFloat(p.Programs[name]))
	}
	for _, name := range mpos {
		rec = append(rec, strconv.FormatBool(p.MPOs[name]))
	}
	return rec
}

// WriteCSV serializes records as comma-delimited text with a header row.
// Fields holding commas, quotes or line breaks are quoted with inner
// quotes doubled. Costs stay in whole currency units.
func WriteCSV(w io.Writer, records []ProjectRecord) error {
	programs, mpos := exportLayout(records)
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader(programs, mpos)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, p := range records {
		if err := cw.Write(exportRecord(p, programs, mpos)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV returns WriteCSV output as a string.
func ExportCSV(records []ProjectRecord) string {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = WriteCSV(&buf, records)
	return buf.String()
}

// DecodeExport reads text produced by ExportCSV back into records.
func DecodeExport(r io.Reader) ([]ProjectRecord, error) {
	rows, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	out := make([]ProjectRecord, 0, len(rows))
	for _, row := range rows {
		p := ProjectRecord{
			Job:      row["job"].String(),
			Termini:  row["termini"].String(),
			District: row["district"].String(),
			County:   row["county"].String(),
			Route:    row["route"].String(),
			FFY:      row["ffy"].String(),
			WorkType: row["workType"].String(),
			Length:   Float(row["length"]),
			Cost:     Float(row["cost"]),
		}
		for k, c := range row {
			switch {
			case strings.HasPrefix(k, programPrefix):
				if p.Programs == nil {
					p.Programs = make(map[string]float64)
				}
				p.Programs[strings.TrimPrefix(k, programPrefix)] = Float(c)
			case strings.HasPrefix(k, mpoPrefix):
				if p.MPOs == nil {
					p.MPOs = make(map[string]bool)
				}
				p.MPOs[strings.TrimPrefix(k, mpoPrefix)] = Flag(c)
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// ExportXLSX writes records to a single-sheet workbook with the same
// columns as ExportCSV. Numbers are stored as numeric cells.
func ExportXLSX(w io.Writer, records []ProjectRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Projects"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	programs, mpos := exportLayout(records)
	header := exportHeader(programs, mpos)
	if err := f.SetSheetRow(sheet, "A1", toAny(header)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, p := range records {
		row := []any{
			p.Job, p.Termini, p.District, p.County, p.Route, p.FFY, p.WorkType,
			p.Length, p.Cost,
		}
		for _, name := range programs {
			row = append(row, p.Programs[name])
		}
		for _, name := range mpos {
			row = append(row, p.MPOs[name])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	return f.Write(w)
}

func toAny(ss []string) *[]any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return &out
}
