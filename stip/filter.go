package stip

import "strings"

// Wildcard is the selector value that disables an exact-match criterion.
const Wildcard = "ALL"

// FilterState is the active query over the dashboard. Selectors hold
// Wildcard (or "") when inactive; Job and Search are substring filters.
type FilterState struct {
	District    string `json:"district"`
	FFY         string `json:"ffy"`
	WorkType    string `json:"workType"`
	County      string `json:"county"`
	FundingYear string `json:"fundingYear"`
	RevenueYear string `json:"revenueYear"`
	Job         string `json:"job"`
	Search      string `json:"search"`
}

// DefaultFilter returns the all-wildcard state used at startup and on reset.
func DefaultFilter() FilterState {
	return FilterState{
		District:    Wildcard,
		FFY:         Wildcard,
		WorkType:    Wildcard,
		County:      Wildcard,
		FundingYear: Wildcard,
		RevenueYear: Wildcard,
	}
}

func selected(v string) bool { return v != "" && v != Wildcard }

// projectCriteriaActive reports whether any project criterion would
// exclude a record.
func (f FilterState) projectCriteriaActive() bool {
	return selected(f.District) || selected(f.FFY) || selected(f.WorkType) ||
		selected(f.County) || f.Job != "" || f.Search != ""
}

// Match reports whether p satisfies every active criterion.
func (f FilterState) Match(p ProjectRecord) bool {
	if selected(f.District) && p.District != f.District {
		return false
	}
	if selected(f.FFY) && p.FFY != f.FFY {
		return false
	}
	if selected(f.WorkType) && p.WorkType != f.WorkType {
		return false
	}
	if selected(f.County) && p.County != f.County {
		return false
	}
	if f.Job != "" && !strings.Contains(strings.ToLower(p.Job), strings.ToLower(f.Job)) {
		return false
	}
	if f.Search != "" {
		// Fields are joined with spaces, so a term may span the boundary
		// between termini and route.
		haystack := strings.ToLower(p.Job + " " + p.Termini + " " + p.Route)
		if !strings.Contains(haystack, strings.ToLower(f.Search)) {
			return false
		}
	}
	return true
}

// FilterProjects returns the records matching f in their original order.
// With no active criteria the input slice itself is returned.
func FilterProjects(records []ProjectRecord, f FilterState) []ProjectRecord {
	if !f.projectCriteriaActive() {
		return records
	}
	out := make([]ProjectRecord, 0, len(records))
	for _, p := range records {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
