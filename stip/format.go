package stip

import (
	"strconv"

	"github.com/Rhymond/go-money"
)

var usd = money.GetCurrency(money.USD)

func currencySymbol() string {
	if usd == nil {
		return "$"
	}
	return usd.Grapheme
}

// FormatMoney abbreviates whole currency units: "$1.2M", "$350K", "$512".
func FormatMoney(v float64) string {
	sym := currencySymbol()
	switch {
	case v >= 1e6:
		return sym + strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case v >= 1e3:
		return sym + strconv.FormatFloat(v/1e3, 'f', 0, 64) + "K"
	}
	return sym + strconv.FormatFloat(v, 'f', 0, 64)
}

// FormatDollars renders whole currency units in full, e.g. "$2,000,000.00".
func FormatDollars(v float64) string {
	return money.NewFromFloat(v, money.USD).Display()
}

// FormatMillions renders an amount held in millions, e.g. "$412.5M".
func FormatMillions(m float64, decimals int) string {
	return currencySymbol() + strconv.FormatFloat(m, 'f', decimals, 64) + "M"
}

// FormatBillions renders an amount held in millions as billions, e.g.
// "$1.4B".
func FormatBillions(m float64, decimals int) string {
	return currencySymbol() + strconv.FormatFloat(m/1000, 'f', decimals, 64) + "B"
}

// FormatPercent renders a 0..100 percentage.
func FormatPercent(p float64, decimals int) string {
	return strconv.FormatFloat(p, 'f', decimals, 64) + "%"
}

// FormatMiles renders a length, e.g. "12.3 mi".
func FormatMiles(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + " mi"
}
