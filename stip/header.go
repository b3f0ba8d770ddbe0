package stip

import (
	"sort"
	"strconv"
)

// Header spellings seen in the source exports. Each list is tried in order
// and the first non-empty cell wins. Spellings are given in cleaned form;
// "STATE JOB\nNUMBER" in a file resolves through "STATE JOB NUMBER".
var (
	jobHeaders      = []string{"STATE JOB NUMBER", "Job #"}
	terminiHeaders  = []string{"TERMINI"}
	districtHeaders = []string{"ARDOT DISTRICT", "District"}
	countyHeaders   = []string{"COUNTY"}
	routeHeaders    = []string{"ROUTE"}
	ffyHeaders      = []string{"FFY"}
	workTypeHeaders = []string{"TYPE OF WORK"}
	lengthHeaders   = []string{"LENGTH"}
	costHeaders     = []string{"TOTAL COST"}

	fundingTypeHeaders     = []string{"Funding Type"}
	fundingCategoryHeaders = []string{"Category"}
	revenueTypeHeaders     = []string{"Revenue Type"}
)

// NormalizeRowKeys returns a copy of row keyed by cleaned headers: runs of
// whitespace, including embedded line breaks, collapse to one space and the
// ends are trimmed. Keys that clean to "" are dropped.
//
// The table readers already keep only the later of two columns whose
// headers clean alike. For rows built by hand, colliding keys are visited
// in sorted order and a non-empty cell is never replaced by an empty one.
func NormalizeRowKeys(row Row) Row {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Row, len(row))
	for _, k := range keys {
		clean := collapseSpaces(k)
		if clean == "" {
			continue
		}
		v := row[k]
		if prev, ok := out[clean]; ok && v.IsEmpty() && !prev.IsEmpty() {
			continue
		}
		out[clean] = v
	}
	return out
}

// Resolve returns the first non-empty cell among the header variants, or
// an absent cell when none is present. Variants are cleaned the same way
// NormalizeRowKeys cleans headers so callers may pass either spelling.
func Resolve(row Row, variants ...string) Cell {
	for _, v := range variants {
		c, ok := row[collapseSpaces(v)]
		if ok && !c.IsEmpty() {
			return c
		}
	}
	return Absent()
}

func availableHeader(year int) string { return strconv.Itoa(year) + " Available" }
func scheduledHeader(year int) string { return strconv.Itoa(year) + " Scheduled" }
func revenueHeader(year int) string   { return strconv.Itoa(year) }

// ProjectHeaders lists every cleaned header a project row can consume with
// the given options.
func ProjectHeaders(opts ParseOptions) []string {
	var hs []string
	for _, group := range [][]string{
		jobHeaders, terminiHeaders, districtHeaders, countyHeaders, routeHeaders,
		ffyHeaders, workTypeHeaders, lengthHeaders, costHeaders,
		opts.Programs, opts.MPOs,
	} {
		for _, h := range group {
			hs = append(hs, collapseSpaces(h))
		}
	}
	return hs
}

// FundingHeaders lists the headers a funding row can consume.
func FundingHeaders(years []int) []string {
	hs := append([]string{}, fundingTypeHeaders...)
	hs = append(hs, fundingCategoryHeaders...)
	for _, y := range years {
		hs = append(hs, availableHeader(y), scheduledHeader(y))
	}
	return hs
}

// RevenueHeaders lists the headers a revenue row can consume.
func RevenueHeaders(years []int) []string {
	hs := append([]string{}, revenueTypeHeaders...)
	for _, y := range years {
		hs = append(hs, revenueHeader(y))
	}
	return hs
}

// UnmatchedHeaders returns, sorted, the cleaned headers present in rows that
// none of the known headers consume. Such columns are ignored at ingestion;
// this only surfaces them.
func UnmatchedHeaders(rows []Row, known []string) []string {
	want := make(map[string]bool, len(known))
	for _, k := range known {
		want[collapseSpaces(k)] = true
	}
	seen := make(map[string]bool)
	for _, r := range rows {
		for k := range NormalizeRowKeys(r) {
			if !want[k] {
				seen[k] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
