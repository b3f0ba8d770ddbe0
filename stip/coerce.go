package stip

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Money coerces a cell holding a currency amount. Numbers pass through;
// text has currency symbols, thousands separators and spaces removed before
// parsing. Absent, empty, "-" and anything unparseable yield 0.
func Money(c Cell) float64 {
	switch c.Kind {
	case CellNumber:
		return finite(c.Num)
	case CellText:
		s := strings.Map(func(r rune) rune {
			if r == ',' || unicode.Is(unicode.Sc, r) || unicode.IsSpace(r) {
				return -1
			}
			return r
		}, c.Str)
		return parseDecimal(s)
	}
	return 0
}

// Float coerces a plain numeric cell such as a length in miles. Unlike
// Money it leaves currency symbols alone, so "$3" is not a number here.
func Float(c Cell) float64 {
	switch c.Kind {
	case CellNumber:
		return finite(c.Num)
	case CellText:
		return parseDecimal(strings.ReplaceAll(strings.TrimSpace(c.Str), ",", ""))
	}
	return 0
}

func parseDecimal(s string) float64 {
	if s == "" || s == "-" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return finite(d.InexactFloat64())
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// truthyTokens are the text spellings Flag accepts as true.
var truthyTokens = map[string]bool{
	"true": true,
	"1":    true,
	"x":    true,
	"yes":  true,
}

// Flag coerces a membership cell. Booleans pass through, numbers are true
// when nonzero, and text is true only for "true", "1", "x" or "yes" in any
// case.
func Flag(c Cell) bool {
	switch c.Kind {
	case CellBool:
		return c.Bool
	case CellNumber:
		return c.Num != 0 && !math.IsNaN(c.Num)
	case CellText:
		return truthyTokens[strings.ToLower(strings.TrimSpace(c.Str))]
	}
	return false
}

// asciiFold maps the Unicode hyphen and dash block (U+2010..U+2015) to "-"
// and every other non-ASCII rune to a space.
func asciiFold(r rune) rune {
	switch {
	case r >= '\u2010' && r <= '\u2015':
		return '-'
	case r > unicode.MaxASCII:
		return ' '
	}
	return r
}

// CleanText normalizes text for display and substring search: dashes become
// hyphens, other non-ASCII characters become spaces, whitespace runs
// collapse and the result is trimmed.
func CleanText(s string) string {
	folded, _, err := transform.String(runes.Map(asciiFold), s)
	if err != nil {
		folded = strings.Map(asciiFold, s)
	}
	return collapseSpaces(folded)
}

// TextOf renders a cell as cleaned text. Absent cells become "".
func TextOf(c Cell) string {
	return CleanText(c.String())
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
