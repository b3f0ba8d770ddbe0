package stip

import (
	"strconv"
	"strings"
)

// Composition bucket names.
const (
	Federal    = "Federal"
	NonFederal = "Non-Federal"
)

// IsFederal classifies a funding type by a case-insensitive "federal"
// prefix. Everything else, including "Other", is non-federal.
func IsFederal(fundingType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(fundingType)), "federal")
}

// Window resolves a year selector against the tracked years. The wildcard
// (or "") selects every tracked year. A single year is used as given even
// when it is not tracked, and so contributes zeros. A selector that is not a
// year selects nothing.
func Window(years []int, sel string) []int {
	if !selected(sel) {
		return append([]int(nil), years...)
	}
	y, err := strconv.Atoi(strings.TrimSpace(sel))
	if err != nil {
		return nil
	}
	return []int{y}
}

// FundingYear holds one fiscal year's funding totals in millions.
type FundingYear struct {
	Year       int     `json:"year"`
	Available  float64 `json:"available"`
	Scheduled  float64 `json:"scheduled"`
	Federal    float64 `json:"federal"`
	NonFederal float64 `json:"nonFederal"`
}

// FundingSummary is the funding view over a window of years. Amounts are in
// millions; Utilization and the shares are percentages (0..100).
type FundingSummary struct {
	Window               []int         `json:"window"`
	TotalAvailable       float64       `json:"totalAvailable"`
	TotalScheduled       float64       `json:"totalScheduled"`
	Utilization          float64       `json:"utilization"`
	FederalTotal         float64       `json:"federalTotal"`
	NonFederalTotal      float64       `json:"nonFederalTotal"`
	FederalShare         float64       `json:"federalShare"`
	NonFederalShare      float64       `json:"nonFederalShare"`
	PerYear              []FundingYear `json:"perYear"`
	FederalCategories    []Group       `json:"federalCategories"`
	NonFederalCategories []Group       `json:"nonFederalCategories"`
}

// fundingYearAgg is the per-year pass, kept separate from the window
// reduction so a different selection never needs the rows again.
type fundingYearAgg struct {
	FundingYear
	federalCats    *groupSet
	nonFederalCats *groupSet
}

func aggregateFundingYears(rows []FundingRow, years []int) map[int]*fundingYearAgg {
	aggs := make(map[int]*fundingYearAgg, len(years))
	for _, y := range years {
		aggs[y] = &fundingYearAgg{
			FundingYear:    FundingYear{Year: y},
			federalCats:    newGroupSet(),
			nonFederalCats: newGroupSet(),
		}
	}
	isFederal := func(r FundingRow) bool { return IsFederal(r.Type) }
	for _, y := range years {
		a := aggs[y]
		available := func(r FundingRow) float64 { return r.Years[y].Available }
		a.Federal, a.NonFederal = SplitBy(rows, isFederal, available)
		for _, r := range rows {
			amt := r.Years[y]
			a.Available += amt.Available
			a.Scheduled += amt.Scheduled
			if isFederal(r) {
				a.federalCats.add(r.Category, amt.Available)
			} else {
				a.nonFederalCats.add(r.Category, amt.Available)
			}
		}
	}
	return aggs
}

// ComputeFundingSummary aggregates funding rows per tracked year, then
// reduces over the window chosen by sel (Wildcard for all years).
func ComputeFundingSummary(rows []FundingRow, years []int, sel string) FundingSummary {
	aggs := aggregateFundingYears(rows, years)
	window := Window(years, sel)

	s := FundingSummary{Window: window}
	fedCats := newGroupSet()
	nonFedCats := newGroupSet()
	for _, y := range window {
		a, ok := aggs[y]
		if !ok {
			s.PerYear = append(s.PerYear, FundingYear{Year: y})
			continue
		}
		s.PerYear = append(s.PerYear, a.FundingYear)
		s.TotalAvailable += a.Available
		s.TotalScheduled += a.Scheduled
		s.FederalTotal += a.Federal
		s.NonFederalTotal += a.NonFederal
		for _, g := range a.federalCats.list() {
			fedCats.merge(g)
		}
		for _, g := range a.nonFederalCats.list() {
			nonFedCats.merge(g)
		}
	}
	s.Utilization = percent(s.TotalScheduled, s.TotalAvailable)
	s.FederalShare = percent(s.FederalTotal, s.TotalAvailable)
	s.NonFederalShare = percent(s.NonFederalTotal, s.TotalAvailable)
	s.FederalCategories = fedCats.list()
	s.NonFederalCategories = nonFedCats.list()
	return s
}

// merge folds an already aggregated group into the set.
func (s *groupSet) merge(g Group) {
	i, ok := s.index[g.Key]
	if !ok {
		i = len(s.groups)
		s.index[g.Key] = i
		s.groups = append(s.groups, Group{Key: g.Key})
	}
	s.groups[i].Total += g.Total
	s.groups[i].Count += g.Count
}
