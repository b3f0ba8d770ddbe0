package stip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleRevenue() []RevenueRow {
	return []RevenueRow{
		{Type: "Motor Fuel Tax", Years: map[int]float64{2025: 500, 2026: 510, 2027: 520}},
		{Type: "Registration Fees", Years: map[int]float64{2025: 100, 2026: 600, 2027: 100}},
		{Type: "", Years: map[int]float64{2025: 9999}},
	}
}

func TestComputeRevenueSummary(t *testing.T) {
	s := ComputeRevenueSummary(sampleRevenue(), []int{2025, 2026, 2027}, Wildcard)

	assert.Equal(t, 2330.0, s.TotalRevenue)
	assert.InDelta(t, 776.666, s.AvgAnnualRevenue, 1e-3)
	assert.Equal(t, []YearTotal{{2025, 600}, {2026, 1110}, {2027, 620}}, s.PerYear)
	assert.Equal(t, YearTotal{Year: 2025, Total: 600}, s.FirstYear)
	assert.Equal(t, YearTotal{Year: 2027, Total: 620}, s.LastYear)
	assert.Equal(t, []Group{
		{Key: "Motor Fuel Tax", Total: 1530, Count: 3},
		{Key: "Registration Fees", Total: 800, Count: 3},
	}, s.SourceBreakdown)
}

func TestComputeRevenueSummarySingleYear(t *testing.T) {
	s := ComputeRevenueSummary(sampleRevenue(), []int{2025, 2026, 2027}, "2026")
	assert.Equal(t, 1110.0, s.TotalRevenue)
	assert.Equal(t, 1110.0, s.AvgAnnualRevenue)
	assert.Equal(t, s.FirstYear, s.LastYear)
	assert.Equal(t, []string{"Registration Fees", "Motor Fuel Tax"}, keys(s.SourceBreakdown))
}

func TestComputeRevenueSummaryEmpty(t *testing.T) {
	s := ComputeRevenueSummary(nil, DefaultYears, Wildcard)
	assert.Zero(t, s.TotalRevenue)
	assert.Zero(t, s.AvgAnnualRevenue)
	assert.Empty(t, s.SourceBreakdown)

	none := ComputeRevenueSummary(sampleRevenue(), DefaultYears, "soon")
	assert.Empty(t, none.Window)
	assert.Zero(t, none.AvgAnnualRevenue)
	assert.Equal(t, YearTotal{}, none.FirstYear)
}
