package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/zalepa/stipboard/stip"
)

func TestCountyKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Pulaski", "PULASKI"},
		{"PULASKI COUNTY", "PULASKI"},
		{"Pulaski Co.", "PULASKI"},
		{"  pulaski  co ", "PULASKI"},
		{"St. Francis", "ST FRANCIS"},
		{"Hot Spring", "HOT SPRING"},
		// "CO" inside a name shouldn't be stripped.
		{"Scott", "SCOTT"},
		{"Franco", "FRANCO"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := countyKey(tt.input); got != tt.want {
			t.Errorf("countyKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeLabel(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Bridge Replacement", "BRIDGE REPLACEMENT"},
		{"bridge  replacement ", "BRIDGE REPLACEMENT"},
		{"Bridge-Replacement", "BRIDGE REPLACEMENT"},
		{"Signals & Lighting", "SIGNALS LIGHTING"},
		{"Widening (4 Lanes)", "WIDENING 4 LANES"},
	}
	for _, tt := range tests {
		if got := normalizeLabel(tt.in); got != tt.want {
			t.Errorf("normalizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func county(c, ffy string) stip.ProjectRecord {
	return stip.ProjectRecord{County: c, FFY: ffy}
}

func byCountyField(p stip.ProjectRecord) string { return p.County }

func TestFindVariants_KeeperIsMostUsed(t *testing.T) {
	records := []stip.ProjectRecord{
		county("Pulaski", "2025"),
		county("Pulaski", "2026"),
		county("PULASKI COUNTY", "2027"),
		county("Lonoke", "2025"),
	}
	got := findVariants(records, "County", byCountyField, countyKey)
	if len(got) != 1 {
		t.Fatalf("got %d variants, want 1", len(got))
	}
	v := got[0]
	if v.keeper != "Pulaski" {
		t.Errorf("keeper = %q, want Pulaski", v.keeper)
	}
	if len(v.others) != 1 || v.others[0] != "PULASKI COUNTY" {
		t.Errorf("others = %v", v.others)
	}
	if v.counts["Pulaski"] != 2 || v.lastFFYs["Pulaski"] != "2026" {
		t.Errorf("keeper use = %d, %q", v.counts["Pulaski"], v.lastFFYs["Pulaski"])
	}
}

func TestFindVariants_TieGoesToMoreRecent(t *testing.T) {
	records := []stip.ProjectRecord{
		county("Saint Francis", "2025"),
		county("St. Francis", "2027"),
		county("ST FRANCIS", "2026"),
	}
	got := findVariants(records, "County", byCountyField, countyKey)
	if len(got) != 1 {
		t.Fatalf("got %d variants, want 1", len(got))
	}
	// "Saint Francis" folds to a different key.
	if got[0].keeper != "St. Francis" {
		t.Errorf("keeper = %q, want St. Francis (more recent)", got[0].keeper)
	}
	if strings.Join(got[0].others, ",") != "ST FRANCIS" {
		t.Errorf("others = %v", got[0].others)
	}
}

func TestFindVariants_NoneWhenConsistent(t *testing.T) {
	records := []stip.ProjectRecord{
		county("Pulaski", "2025"),
		county("Pulaski", "2026"),
		county("", "2026"),
		county("", "2027"),
	}
	if got := findVariants(records, "County", byCountyField, countyKey); len(got) != 0 {
		t.Errorf("got %d variants, want 0", len(got))
	}
}

func TestAuditReport(t *testing.T) {
	tables := []tableAudit{
		{source: "projects", location: "data/stip_projects.csv", rows: 3, unmatched: []string{"NOTES"}},
		{source: "funding", location: "data/Funding.csv", rows: 4},
		{source: "revenue", location: "http://example.test/Revenue.csv", err: errors.New("status 404")},
	}
	projects := []stip.ProjectRecord{
		{Job: "J1", FFY: "2025", County: "Pulaski", WorkType: "Resurfacing"},
		{Job: "J2", FFY: "2026", County: "Pulaski", WorkType: "resurfacing"},
		{County: "PULASKI CO", WorkType: "Resurfacing"},
	}
	md := auditReport(tables, projects)
	for _, want := range []string{
		"| projects | data/stip_projects.csv | 3 | NOTES |",
		"| funding | data/Funding.csv | 4 | - |",
		"| revenue | http://example.test/Revenue.csv | 0 | error: status 404 |",
		"- 1 without a job number",
		"- 1 without a fiscal year",
		"| County | Pulaski | 2 projects, latest FFY 2026 | PULASKI CO | 1 project, FFY - |",
		"| Type of work | Resurfacing | 2 projects, latest FFY 2025 | resurfacing | 1 project, FFY 2026 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q:\n%s", want, md)
		}
	}
}

func TestAuditReportClean(t *testing.T) {
	md := auditReport(nil, []stip.ProjectRecord{{Job: "J1", FFY: "2025", County: "Pulaski"}})
	if !strings.Contains(md, "No spelling variants found.") {
		t.Errorf("clean report:\n%s", md)
	}
}
