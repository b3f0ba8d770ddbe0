package stip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1.2M", FormatMoney(1_234_567))
	assert.Equal(t, "$350K", FormatMoney(350_000))
	assert.Equal(t, "$512", FormatMoney(512))
	assert.Equal(t, "$0", FormatMoney(0))
}

func TestFormatDollars(t *testing.T) {
	assert.Equal(t, "$2,000,000.00", FormatDollars(2_000_000))
}

func TestFormatScaled(t *testing.T) {
	assert.Equal(t, "$412.5M", FormatMillions(412.5, 1))
	assert.Equal(t, "$1.4B", FormatBillions(1400, 1))
	assert.Equal(t, "57.8%", FormatPercent(57.777, 1))
	assert.Equal(t, "12.3 mi", FormatMiles(12.34))
}
