package stip

import (
	"sort"
	"strconv"
)

// Group is one bucket of a grouped aggregation.
type Group struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// groupSet accumulates groups in order of first occurrence.
type groupSet struct {
	index  map[string]int
	groups []Group
}

func newGroupSet() *groupSet {
	return &groupSet{index: make(map[string]int)}
}

func (s *groupSet) add(key string, v float64) {
	i, ok := s.index[key]
	if !ok {
		i = len(s.groups)
		s.index[key] = i
		s.groups = append(s.groups, Group{Key: key})
	}
	s.groups[i].Total += v
	s.groups[i].Count++
}

func (s *groupSet) list() []Group {
	return s.groups
}

// GroupSum sums value over items grouped by key. Groups come back in order
// of first occurrence.
func GroupSum[T any](items []T, key func(T) string, value func(T) float64) []Group {
	s := newGroupSet()
	for _, it := range items {
		s.add(key(it), value(it))
	}
	return s.list()
}

// SortByTotalDesc orders groups by descending total. Equal totals keep
// their first-occurrence order.
func SortByTotalDesc(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Total > groups[j].Total
	})
}

// SortByYearAsc orders groups by ascending numeric key. Keys that are not
// numbers sort after the numeric ones, lexically.
func SortByYearAsc(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, errA := strconv.ParseFloat(groups[i].Key, 64)
		b, errB := strconv.ParseFloat(groups[j].Key, 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return groups[i].Key < groups[j].Key
	})
}

// TopN sorts a copy of groups by descending total and keeps the first n.
// With dropZero, groups totalling zero are omitted entirely.
func TopN(groups []Group, n int, dropZero bool) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if dropZero && g.Total == 0 {
			continue
		}
		out = append(out, g)
	}
	SortByTotalDesc(out)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SplitBy partitions the sum of value into the items matching pred and the
// rest. Every item lands in exactly one of the two totals.
func SplitBy[T any](items []T, pred func(T) bool, value func(T) float64) (matched, rest float64) {
	for _, it := range items {
		if pred(it) {
			matched += value(it)
		} else {
			rest += value(it)
		}
	}
	return matched, rest
}

// ratio divides and yields 0 instead of NaN or Inf on a zero denominator.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return finite(num / den)
}

// percent is ratio scaled to 0..100.
func percent(num, den float64) float64 {
	return ratio(num, den) * 100
}

// Work type and funding program chart sizes.
const (
	TopWorkTypes = 8
	TopPrograms  = 7
)

// ProjectKPIs are the headline figures of the projects view. Costs are in
// whole currency units.
type ProjectKPIs struct {
	Count      int     `json:"count"`
	TotalCost  float64 `json:"totalCost"`
	TotalMiles float64 `json:"totalMiles"`
	AvgCost    float64 `json:"avgCost"`
}

// ComputeProjectKPIs totals a record set. An empty set yields zeros.
func ComputeProjectKPIs(records []ProjectRecord) ProjectKPIs {
	k := ProjectKPIs{Count: len(records)}
	for _, p := range records {
		k.TotalCost += p.Cost
		k.TotalMiles += p.Length
	}
	k.AvgCost = ratio(k.TotalCost, float64(k.Count))
	return k
}

func byFFY(p ProjectRecord) string        { return p.FFY }
func byWorkType(p ProjectRecord) string   { return p.WorkType }
func byDistrict(p ProjectRecord) string   { return p.District }
func byCounty(p ProjectRecord) string     { return p.County }
func projectCost(p ProjectRecord) float64 { return p.Cost }
func one(ProjectRecord) float64           { return 1 }

// WorkTypeCounts ranks work types by project count, keeping the top eight.
func WorkTypeCounts(records []ProjectRecord) []Group {
	return TopN(GroupSum(records, byWorkType, one), TopWorkTypes, false)
}

// CostByYear sums cost per fiscal year in ascending year order. Records
// without a year are left out. Totals are in whole currency units.
func CostByYear(records []ProjectRecord) []Group {
	var out []Group
	for _, g := range GroupSum(records, byFFY, projectCost) {
		if g.Key != "" {
			out = append(out, g)
		}
	}
	SortByYearAsc(out)
	return out
}

// CostByDistrict sums cost per district, largest first.
func CostByDistrict(records []ProjectRecord) []Group {
	gs := GroupSum(records, byDistrict, projectCost)
	SortByTotalDesc(gs)
	return gs
}

// CostByCounty sums cost per county, largest first.
func CostByCounty(records []ProjectRecord) []Group {
	gs := GroupSum(records, byCounty, projectCost)
	SortByTotalDesc(gs)
	return gs
}

// ProgramTotals sums program allocations (thousands) across records and
// keeps the seven largest. Programs with a zero total are omitted. The
// programs slice fixes first-occurrence order for ties; when nil the
// program names found on the records are used in sorted order.
func ProgramTotals(records []ProjectRecord, programs []string) []Group {
	if programs == nil {
		programs = programNames(records)
	}
	s := newGroupSet()
	var names []string
	for _, name := range programs {
		if _, dup := s.index[name]; dup {
			continue
		}
		s.index[name] = len(s.groups)
		s.groups = append(s.groups, Group{Key: name})
		names = append(names, name)
	}
	for _, p := range records {
		for _, name := range names {
			if v, ok := p.Programs[name]; ok {
				s.add(name, v)
			}
		}
	}
	return TopN(s.list(), TopPrograms, true)
}

func programNames(records []ProjectRecord) []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range records {
		for k := range p.Programs {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	return names
}

// MPOCounts counts the projects flagged for each MPO area, in the given
// MPO order. Areas with no flagged project are still listed.
func MPOCounts(records []ProjectRecord, mpos []string) []Group {
	out := make([]Group, len(mpos))
	for i, name := range mpos {
		out[i].Key = name
		for _, p := range records {
			if p.MPOs[name] {
				out[i].Count++
				out[i].Total += p.Cost
			}
		}
	}
	return out
}
