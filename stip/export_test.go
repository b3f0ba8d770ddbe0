package stip

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportSample() []ProjectRecord {
	return []ProjectRecord{
		{
			Job: "J1", Termini: `Main St, "North"`, District: "1", County: "Pulaski", Route: "10",
			FFY: "2025", WorkType: "Resurfacing", Length: 4.25, Cost: 2_000_000,
			Programs: map[string]float64{"NHPP": 1500, "STATE": 0},
			MPOs:     map[string]bool{"CARTS": true, "NARTS": false},
		},
		{
			Job: "J2", Termini: "Line one\nline two", District: "2", County: "Benton", Route: "I-49",
			FFY: "2026", WorkType: "Widening", Length: 0, Cost: 0,
			Programs: map[string]float64{"NHPP": 0, "STATE": 12.5},
			MPOs:     map[string]bool{"CARTS": false, "NARTS": true},
		},
	}
}

func TestExportCSVHeader(t *testing.T) {
	out := ExportCSV(exportSample())
	header, _, _ := strings.Cut(out, "\n")
	assert.Equal(t,
		"job,termini,district,county,route,ffy,workType,length,cost,program.NHPP,program.STATE,mpo.CARTS,mpo.NARTS",
		header)
	assert.Contains(t, out, `J1,"Main St, ""North""",1,Pulaski,10,2025,Resurfacing,4.25,2000000,1500,0,true,false`)
	assert.Contains(t, out, "\"Line one\nline two\"")
}

func TestExportCSVRoundTrip(t *testing.T) {
	records := exportSample()
	got, err := DecodeExport(strings.NewReader(ExportCSV(records)))
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestExportCSVEmpty(t *testing.T) {
	out := ExportCSV(nil)
	assert.Equal(t, strings.Join(exportColumns, ",")+"\n", out)

	got, err := DecodeExport(strings.NewReader(out))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExportXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(&buf, exportSample()))

	rows, err := ReadTable("projects.bin", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "J1", TextOf(rows[0]["job"]))
	assert.Equal(t, `Main St, "North"`, TextOf(rows[0]["termini"]))
	assert.Equal(t, 2_000_000.0, Float(rows[0]["cost"]))
	assert.Equal(t, 4.25, Float(rows[0]["length"]))
	assert.True(t, Flag(rows[0]["mpo.CARTS"]))
	assert.False(t, Flag(rows[0]["mpo.NARTS"]))
	assert.Equal(t, 12.5, Float(rows[1]["program.STATE"]))
}
