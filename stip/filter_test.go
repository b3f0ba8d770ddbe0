package stip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProjects() []ProjectRecord {
	return []ProjectRecord{
		{Job: "CA0601", Termini: "Hwy. 5 - Cabot", District: "6", County: "Lonoke", Route: "38", FFY: "2025", WorkType: "Resurfacing", Length: 4, Cost: 2_000_000},
		{Job: "040123", Termini: "Fort Smith Bypass", District: "4", County: "Sebastian", Route: "I-49", FFY: "2026", WorkType: "New Location", Length: 10.5, Cost: 50_000_000},
		{Job: "CA0602", Termini: "Main St", District: "6", County: "Pulaski", Route: "10", FFY: "2026", WorkType: "Resurfacing", Length: 1.5, Cost: 750_000},
		{Job: "090555", Termini: "Bridge over White River", District: "9", County: "Baxter", Route: "62", FFY: "2027", WorkType: "Bridge Replacement", Length: 0.3, Cost: 12_000_000},
	}
}

func jobs(records []ProjectRecord) []string {
	out := make([]string, len(records))
	for i, p := range records {
		out[i] = p.Job
	}
	return out
}

func TestFilterProjectsDefaultIsIdentity(t *testing.T) {
	records := sampleProjects()
	got := FilterProjects(records, DefaultFilter())
	require.Len(t, got, len(records))
	assert.Same(t, &records[0], &got[0], "default filter returns the input slice")

	assert.Equal(t, records, FilterProjects(records, FilterState{}))
	assert.Empty(t, FilterProjects(nil, DefaultFilter()))
}

func TestFilterProjects(t *testing.T) {
	records := sampleProjects()
	with := func(mod func(*FilterState)) FilterState {
		f := DefaultFilter()
		mod(&f)
		return f
	}

	tests := []struct {
		name   string
		filter FilterState
		want   []string
	}{
		{"district", with(func(f *FilterState) { f.District = "6" }), []string{"CA0601", "CA0602"}},
		{"ffy", with(func(f *FilterState) { f.FFY = "2026" }), []string{"040123", "CA0602"}},
		{"work type is case sensitive", with(func(f *FilterState) { f.WorkType = "resurfacing" }), []string{}},
		{"county", with(func(f *FilterState) { f.County = "Baxter" }), []string{"090555"}},
		{"and of criteria", FilterState{District: "6", FFY: "2026", WorkType: Wildcard, County: Wildcard}, []string{"CA0602"}},
		{"job substring ignores case", with(func(f *FilterState) { f.Job = "ca06" }), []string{"CA0601", "CA0602"}},
		{"search termini", with(func(f *FilterState) { f.Search = "white river" }), []string{"090555"}},
		{"search route", with(func(f *FilterState) { f.Search = "i-49" }), []string{"040123"}},
		{"search spans field boundary", with(func(f *FilterState) { f.Search = "bypass i-49" }), []string{"040123"}},
		{"search job and termini join", with(func(f *FilterState) { f.Search = "0602 main" }), []string{"CA0602"}},
		{"no match", with(func(f *FilterState) { f.County = "Nowhere" }), []string{}},
		{"funding year does not touch projects", with(func(f *FilterState) { f.FundingYear = "2025" }), []string{"CA0601", "040123", "CA0602", "090555"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, jobs(FilterProjects(records, tt.filter)))
		})
	}
}

func TestFilterProjectsIdempotent(t *testing.T) {
	records := sampleProjects()
	filters := []FilterState{
		DefaultFilter(),
		{District: "6"},
		{FFY: "2026", Search: "st"},
		{Job: "0", County: "Pulaski"},
		{WorkType: "Bridge Replacement"},
	}
	for _, f := range filters {
		once := FilterProjects(records, f)
		twice := FilterProjects(once, f)
		assert.Equal(t, once, twice, "filter %+v", f)
	}
}

func TestEndToEndProjects(t *testing.T) {
	rows := []Row{
		{"STATE JOB NUMBER": Text("J1"), "ARDOT DISTRICT": Text("1"), "FFY": Text("2025"), "TOTAL COST": Text("$2,000")},
		{"STATE JOB NUMBER": Text("J2"), "ARDOT DISTRICT": Text("2"), "FFY": Text("2025"), "TOTAL COST": Text("$0")},
	}
	records := ParseProjects(rows, ParseOptions{})

	f := DefaultFilter()
	f.District = "1"
	got := FilterProjects(records, f)
	assert.Equal(t, []string{"J1"}, jobs(got))
	assert.Equal(t, 2_000_000.0, ComputeProjectKPIs(got).TotalCost)
}
