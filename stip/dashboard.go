package stip

import (
	"sort"
	"strconv"
)

// TableLimit caps the project rows carried in a RenderModel.
const TableLimit = 500

// Dashboard owns a loaded dataset and the one piece of mutable state, the
// current filter. It is driven from a single goroutine.
type Dashboard struct {
	Data   *Dataset
	Filter FilterState
}

// NewDashboard starts a dashboard over data with the default filter.
func NewDashboard(data *Dataset) *Dashboard {
	return &Dashboard{Data: data, Filter: DefaultFilter()}
}

// ProjectsView is the projects section of a render pass. Chart totals are in
// millions except WorkTypes, which counts projects, and Programs, which is
// in millions converted from the thousands the source carries.
type ProjectsView struct {
	KPIs       ProjectKPIs     `json:"kpis"`
	WorkTypes  []Group         `json:"workTypes"`
	CostByYear []Group         `json:"costByYear"`
	Districts  []Group         `json:"districts"`
	Counties   []Group         `json:"counties"`
	Programs   []Group         `json:"programs"`
	MPOs       []Group         `json:"mpos"`
	Rows       []ProjectRecord `json:"rows"`
	Matched    int             `json:"matched"`
}

// RenderModel is everything a presentation layer draws for one filter
// state.
type RenderModel struct {
	Filter   FilterState    `json:"filter"`
	Projects ProjectsView   `json:"projects"`
	Funding  FundingSummary `json:"funding"`
	Revenue  RevenueSummary `json:"revenue"`
}

// ApplyFilter replaces the current filter and recomputes every view.
func (d *Dashboard) ApplyFilter(f FilterState) RenderModel {
	d.Filter = f
	return d.Render()
}

// Reset restores the default filter and recomputes.
func (d *Dashboard) Reset() RenderModel {
	return d.ApplyFilter(DefaultFilter())
}

// Filtered returns the projects matching the current filter.
func (d *Dashboard) Filtered() []ProjectRecord {
	return FilterProjects(d.Data.Projects, d.Filter)
}

// Render computes the model for the current filter.
func (d *Dashboard) Render() RenderModel {
	projects := d.Filtered()
	rows := projects
	if len(rows) > TableLimit {
		rows = rows[:TableLimit]
	}
	return RenderModel{
		Filter: d.Filter,
		Projects: ProjectsView{
			KPIs:       ComputeProjectKPIs(projects),
			WorkTypes:  WorkTypeCounts(projects),
			CostByYear: scaleGroups(CostByYear(projects), 1e-6),
			Districts:  scaleGroups(CostByDistrict(projects), 1e-6),
			Counties:   scaleGroups(CostByCounty(projects), 1e-6),
			Programs:   scaleGroups(ProgramTotals(projects, d.Data.Programs), 1e-3),
			MPOs:       scaleGroups(MPOCounts(projects, d.Data.MPOs), 1e-6),
			Rows:       rows,
			Matched:    len(projects),
		},
		Funding: ComputeFundingSummary(d.Data.Funding, d.Data.Years, d.Filter.FundingYear),
		Revenue: ComputeRevenueSummary(d.Data.Revenue, d.Data.Years, d.Filter.RevenueYear),
	}
}

func scaleGroups(gs []Group, factor float64) []Group {
	out := make([]Group, len(gs))
	for i, g := range gs {
		g.Total *= factor
		out[i] = g
	}
	return out
}

// FilterOptions lists the values each selector can take.
type FilterOptions struct {
	Districts []string `json:"districts"`
	FFYs      []string `json:"ffys"`
	WorkTypes []string `json:"workTypes"`
	Counties  []string `json:"counties"`
	Years     []int    `json:"years"`
}

// Options collects the sorted distinct non-empty values of each project
// dimension over the full dataset, plus the tracked years.
func (d *Dashboard) Options() FilterOptions {
	return FilterOptions{
		Districts: distinct(d.Data.Projects, byDistrict),
		FFYs:      distinct(d.Data.Projects, byFFY),
		WorkTypes: distinct(d.Data.Projects, byWorkType),
		Counties:  distinct(d.Data.Projects, byCounty),
		Years:     append([]int(nil), d.Data.Years...),
	}
}

func distinct(records []ProjectRecord, key func(ProjectRecord) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range records {
		k := key(p)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// WindowLabel names a year selection for headings: "2025-2028 (4 years)" for
// the wildcard, the year itself otherwise.
func WindowLabel(years []int, sel string) string {
	if selected(sel) {
		return sel
	}
	if len(years) == 0 {
		return "no years"
	}
	return strconv.Itoa(years[0]) + "-" + strconv.Itoa(years[len(years)-1]) +
		" (" + strconv.Itoa(len(years)) + " years)"
}
