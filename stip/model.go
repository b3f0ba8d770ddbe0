package stip

import "strconv"

// CellKind tags the representation a raw cell arrived in.
type CellKind int

const (
	CellAbsent CellKind = iota
	CellText
	CellNumber
	CellBool
)

// Cell is one raw value from a source table. Readers of delimited text only
// produce text cells; numbers and booleans come from typed sources and from
// callers building rows by hand.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
	Bool bool
}

func Absent() Cell          { return Cell{} }
func Text(s string) Cell    { return Cell{Kind: CellText, Str: s} }
func Number(f float64) Cell { return Cell{Kind: CellNumber, Num: f} }
func BoolCell(b bool) Cell  { return Cell{Kind: CellBool, Bool: b} }

// IsEmpty reports whether the cell carries no usable value. Whitespace-only
// text counts as empty; a zero number or false does not.
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellAbsent:
		return true
	case CellText:
		return len(collapseSpaces(c.Str)) == 0
	}
	return false
}

// String returns the cell as source text. Numbers use the shortest
// representation, so 2025 becomes "2025" and not "2025.000000".
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Str
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellBool:
		return strconv.FormatBool(c.Bool)
	}
	return ""
}

// Row maps a header to the cell found under it.
type Row map[string]Cell

// ProjectRecord is one STIP project after normalization.
type ProjectRecord struct {
	Job      string  `json:"job"`
	Termini  string  `json:"termini"`
	District string  `json:"district"`
	County   string  `json:"county"`
	Route    string  `json:"route"`
	FFY      string  `json:"ffy"`
	WorkType string  `json:"workType"`
	Length   float64 `json:"length"`
	// Cost is in whole currency units. Source files carry thousands.
	Cost float64 `json:"cost"`
	// Programs holds funding-program allocations in thousands, keyed by
	// program column name. Only configured programs appear.
	Programs map[string]float64 `json:"programs,omitempty"`
	// MPOs flags membership in metropolitan planning organization areas.
	MPOs map[string]bool `json:"mpos,omitempty"`
}

// YearAmounts is one fiscal year of a funding row, in millions.
type YearAmounts struct {
	Available float64 `json:"available"`
	Scheduled float64 `json:"scheduled"`
}

// FundingRow is one funding-type/category line with per-year amounts.
type FundingRow struct {
	Type     string              `json:"fundingType"`
	Category string              `json:"category"`
	Years    map[int]YearAmounts `json:"years"`
}

// RevenueRow is one revenue source with projected amounts per year, in
// millions.
type RevenueRow struct {
	Type  string          `json:"revenueType"`
	Years map[int]float64 `json:"years"`
}

// Dataset holds the three parsed tables. It is filled once by
// LoadDatasets and treated as read-only afterwards.
type Dataset struct {
	Projects []ProjectRecord
	Funding  []FundingRow
	Revenue  []RevenueRow
	// Years lists the tracked fiscal years for funding and revenue, in
	// ascending order.
	Years []int
	// Programs and MPOs are the configured project columns, in display
	// order.
	Programs []string
	MPOs     []string
}

// DefaultYears are the fiscal years tracked by the funding and revenue
// tables when no configuration overrides them.
var DefaultYears = []int{2025, 2026, 2027, 2028}
