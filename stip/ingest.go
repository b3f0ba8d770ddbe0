package stip

// ParseOptions selects the optional project columns and the tracked fiscal
// years for funding and revenue tables.
type ParseOptions struct {
	Years []int
	// Programs names the funding-program allocation columns (in thousands).
	Programs []string
	// MPOs names the metropolitan planning organization flag columns.
	MPOs []string
}

// DefaultPrograms are the funding-program columns of the ARDOT STIP export.
var DefaultPrograms = []string{
	"NHPP", "STBGP", "HSIP", "NHFP", "CMAQ", "TAP", "CRP", "PROTECT", "BFP", "STATE", "LOCAL",
}

// DefaultMPOs are the MPO flag columns of the ARDOT STIP export.
var DefaultMPOs = []string{
	"CARTS", "NARTS", "FRONTIER", "JARTS", "TRI-LAKES", "SEARK", "TUTS", "WMATS",
}

// DefaultParseOptions returns options with the default years, programs and
// MPO columns.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		Years:    append([]int(nil), DefaultYears...),
		Programs: append([]string(nil), DefaultPrograms...),
		MPOs:     append([]string(nil), DefaultMPOs...),
	}
}

// ParseProject turns one raw project row into a record. It never fails: a
// missing or malformed field takes its zero value.
func ParseProject(raw Row, opts ParseOptions) ProjectRecord {
	r := NormalizeRowKeys(raw)
	p := ProjectRecord{
		Job:      TextOf(Resolve(r, jobHeaders...)),
		Termini:  TextOf(Resolve(r, terminiHeaders...)),
		District: TextOf(Resolve(r, districtHeaders...)),
		County:   TextOf(Resolve(r, countyHeaders...)),
		Route:    TextOf(Resolve(r, routeHeaders...)),
		FFY:      TextOf(Resolve(r, ffyHeaders...)),
		WorkType: TextOf(Resolve(r, workTypeHeaders...)),
		Length:   nonNegative(Float(Resolve(r, lengthHeaders...))),
		Cost:     finite(Money(Resolve(r, costHeaders...)) * 1000),
	}
	if len(opts.Programs) > 0 {
		p.Programs = make(map[string]float64, len(opts.Programs))
		for _, name := range opts.Programs {
			p.Programs[name] = nonNegative(Money(Resolve(r, name)))
		}
	}
	if len(opts.MPOs) > 0 {
		p.MPOs = make(map[string]bool, len(opts.MPOs))
		for _, name := range opts.MPOs {
			p.MPOs[name] = Flag(Resolve(r, name))
		}
	}
	return p
}

// ParseProjects converts every row, preserving order.
func ParseProjects(rows []Row, opts ParseOptions) []ProjectRecord {
	out := make([]ProjectRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, ParseProject(r, opts))
	}
	return out
}

// ParseFunding converts funding rows. A missing funding type or category
// becomes "Other"; every tracked year gets an entry, zero when absent.
func ParseFunding(rows []Row, years []int) []FundingRow {
	out := make([]FundingRow, 0, len(rows))
	for _, raw := range rows {
		r := NormalizeRowKeys(raw)
		f := FundingRow{
			Type:     orOther(TextOf(Resolve(r, fundingTypeHeaders...))),
			Category: orOther(TextOf(Resolve(r, fundingCategoryHeaders...))),
			Years:    make(map[int]YearAmounts, len(years)),
		}
		for _, y := range years {
			f.Years[y] = YearAmounts{
				Available: Money(Resolve(r, availableHeader(y))),
				Scheduled: Money(Resolve(r, scheduledHeader(y))),
			}
		}
		out = append(out, f)
	}
	return out
}

// ParseRevenue converts revenue rows. Rows without a revenue type are kept
// here and skipped by ComputeRevenueSummary.
func ParseRevenue(rows []Row, years []int) []RevenueRow {
	out := make([]RevenueRow, 0, len(rows))
	for _, raw := range rows {
		r := NormalizeRowKeys(raw)
		rv := RevenueRow{
			Type:  TextOf(Resolve(r, revenueTypeHeaders...)),
			Years: make(map[int]float64, len(years)),
		}
		for _, y := range years {
			rv.Years[y] = Money(Resolve(r, revenueHeader(y)))
		}
		out = append(out, rv)
	}
	return out
}

func orOther(s string) string {
	if s == "" {
		return "Other"
	}
	return s
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
