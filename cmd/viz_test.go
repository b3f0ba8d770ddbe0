package cmd

import (
	"math"
	"strings"
	"testing"

	"github.com/zalepa/stipboard/stip"
)

func TestSparkline(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		in   []float64
		want string
	}{
		{"rising", []float64{0, 3.5, 7}, "▁▄█"},
		{"flat", []float64{5, 5, 5}, "▅▅▅"},
		{"gap", []float64{1, nan, 2}, "▁ █"},
		{"all missing", []float64{nan, nan}, "  "},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		if got := sparkline(tt.in); got != tt.want {
			t.Errorf("%s: sparkline(%v) = %q, want %q", tt.name, tt.in, got, tt.want)
		}
	}
}

func TestFormatNum(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
		{12.345, "12.3"},
		{math.NaN(), "- -"},
	}
	for _, tt := range tests {
		if got := formatNum(tt.in); got != tt.want {
			t.Errorf("formatNum(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{12, "12"},
		{1000, "1,000"},
		{-1234567, "-1,234,567"},
		{9_000_000_000, "9,000,000,000"},
	}
	for _, tt := range tests {
		if got := formatInt(tt.in); got != tt.want {
			t.Errorf("formatInt(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2_500_000, "2.5M"},
		{12_400, "12k"},
		{412, "412"},
		{3, "3"},
		{2.5, "2.5"},
		{-1500, "-2k"},
	}
	for _, tt := range tests {
		if got := formatCompact(tt.in); got != tt.want {
			t.Errorf("formatCompact(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAlignValues(t *testing.T) {
	vals := alignValues([]dataPoint{{"2025", 1}, {"2027", 3}}, []string{"2025", "2026", "2027"})
	if vals[0] != 1 || !math.IsNaN(vals[1]) || vals[2] != 3 {
		t.Errorf("alignValues = %v, want [1 NaN 3]", vals)
	}
	if got := lastNonNaN([]float64{2, math.NaN()}); got != 2 {
		t.Errorf("lastNonNaN = %v, want 2", got)
	}
}

func TestSortLabels(t *testing.T) {
	got := sortLabels(map[string]bool{"2027": true, "TBD": true, "2025": true, "Future": true})
	want := []string{"2025", "2027", "Future", "TBD"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("sortLabels = %v, want %v", got, want)
	}
}

func TestDistrictSeries(t *testing.T) {
	records := []stip.ProjectRecord{
		{District: "1", FFY: "2026", Cost: 2_000_000},
		{District: "1", FFY: "2025", Cost: 1_000_000},
		{District: "1", FFY: "2025", Cost: 500_000},
		{District: "2", FFY: "2026", Cost: 3_000_000},
		{District: "", FFY: "2025", Cost: 1_000_000},
		{District: "2", FFY: "", Cost: 9_000_000},
	}
	series, labels := districtSeries(records)
	if strings.Join(labels, ",") != "2025,2026" {
		t.Fatalf("labels = %v, want [2025 2026]", labels)
	}
	if len(series) != 3 {
		t.Fatalf("got %d series, want 3", len(series))
	}
	d1 := series["1"]
	if len(d1) != 2 || d1[0].label != "2025" || d1[0].value != 1.5 || d1[1].value != 2 {
		t.Errorf("district 1 = %v, want [{2025 1.5} {2026 2}]", d1)
	}
	if pts := series["(blank)"]; len(pts) != 1 || pts[0].value != 1 {
		t.Errorf("blank district = %v, want [{2025 1}]", pts)
	}
}

func TestRenderBars(t *testing.T) {
	var b strings.Builder
	groups := []stip.Group{{Key: "Resurfacing", Count: 4}, {Key: "", Count: 2}, {Key: "Bridge", Count: 0}}
	renderBars(&b, "Work types", groups, groupCount, formatNum)
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), b.String())
	}
	if got := strings.Count(lines[1], "█"); got != barWidth {
		t.Errorf("largest bar has %d blocks, want %d", got, barWidth)
	}
	if got := strings.Count(lines[2], "█"); got != barWidth/2 {
		t.Errorf("half bar has %d blocks, want %d", got, barWidth/2)
	}
	if !strings.HasPrefix(lines[2], "(blank)") {
		t.Errorf("blank key line = %q", lines[2])
	}
	if strings.Contains(lines[3], "█") {
		t.Errorf("zero bar should be empty: %q", lines[3])
	}

	b.Reset()
	renderBars(&b, "Empty", nil, groupTotal, formatMillions)
	if !strings.Contains(b.String(), "(no data)") {
		t.Errorf("empty chart = %q", b.String())
	}
}

func TestRenderTableTotal(t *testing.T) {
	var b strings.Builder
	series := map[string][]dataPoint{
		"1": {{"2025", 1}, {"2026", 2}},
		"2": {{"2026", 3}},
	}
	renderTable(&b, "Cost", series, []string{"2025", "2026"}, true)
	out := b.String()
	if !strings.Contains(out, "2025 to 2026 (2 periods)") {
		t.Errorf("missing period span:\n%s", out)
	}
	if !strings.Contains(out, "TOTAL") || !strings.Contains(out, "         5") {
		t.Errorf("missing total row with latest 5:\n%s", out)
	}
}

func TestRenderVizCharts(t *testing.T) {
	data := &stip.Dataset{
		Projects: []stip.ProjectRecord{
			{Job: "J1", District: "1", FFY: "2025", WorkType: "Resurfacing", Cost: 2_000_000, Length: 3},
			{Job: "J2", District: "2", FFY: "2026", WorkType: "Bridge", Cost: 1_000_000},
		},
		Funding: []stip.FundingRow{{Type: "Federal", Category: "NHPP", Years: map[int]stip.YearAmounts{2025: {Available: 10, Scheduled: 5}}}},
		Revenue: []stip.RevenueRow{{Type: "Fuel", Years: map[int]float64{2025: 7}}},
		Years:   []int{2025, 2026},
	}
	d := stip.NewDashboard(data)
	m := d.Render()
	for _, chart := range validCharts {
		var b strings.Builder
		renderViz(&b, chart, m, d.Filtered())
		if b.Len() == 0 {
			t.Errorf("chart %q rendered nothing", chart)
		}
	}

	var b strings.Builder
	renderViz(&b, "overview", m, d.Filtered())
	if !strings.Contains(b.String(), "$3,000,000.00") {
		t.Errorf("overview missing total cost:\n%s", b.String())
	}
}
