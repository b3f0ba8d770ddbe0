package stip

// YearTotal is one year's amount in millions.
type YearTotal struct {
	Year  int     `json:"year"`
	Total float64 `json:"total"`
}

// RevenueSummary is the revenue view over a window of years, in millions.
// FirstYear and LastYear are the window's first estimate and last
// projection.
type RevenueSummary struct {
	Window           []int       `json:"window"`
	TotalRevenue     float64     `json:"totalRevenue"`
	AvgAnnualRevenue float64     `json:"avgAnnualRevenue"`
	PerYear          []YearTotal `json:"perYear"`
	SourceBreakdown  []Group     `json:"sourceBreakdown"`
	FirstYear        YearTotal   `json:"firstYear"`
	LastYear         YearTotal   `json:"lastYear"`
}

// ComputeRevenueSummary aggregates revenue rows per tracked year and
// reduces over the window chosen by sel. Rows without a revenue type count
// toward nothing. Sources are ranked by descending total.
func ComputeRevenueSummary(rows []RevenueRow, years []int, sel string) RevenueSummary {
	yearly := make(map[int]float64, len(years))
	sources := make(map[int]*groupSet, len(years))
	for _, y := range years {
		sources[y] = newGroupSet()
	}
	for _, r := range rows {
		if r.Type == "" {
			continue
		}
		for _, y := range years {
			v := r.Years[y]
			yearly[y] += v
			sources[y].add(r.Type, v)
		}
	}

	window := Window(years, sel)
	s := RevenueSummary{Window: window}
	combined := newGroupSet()
	for _, y := range window {
		s.PerYear = append(s.PerYear, YearTotal{Year: y, Total: yearly[y]})
		s.TotalRevenue += yearly[y]
		if set, ok := sources[y]; ok {
			for _, g := range set.list() {
				combined.merge(g)
			}
		}
	}
	s.AvgAnnualRevenue = ratio(s.TotalRevenue, float64(len(window)))
	if len(s.PerYear) > 0 {
		s.FirstYear = s.PerYear[0]
		s.LastYear = s.PerYear[len(s.PerYear)-1]
	}
	s.SourceBreakdown = combined.list()
	SortByTotalDesc(s.SourceBreakdown)
	return s
}
