// Package money provides fixed-precision helpers for currency amounts.
//
// Amounts are carried as float64 and accumulated unrounded; Round is
// applied once at presentation time so splitting errors never compound.
package money

import (
	"math"
	"strconv"
	"strings"

	"tripsplit/internal/models"
)

// epsilon is half a cent: the smallest difference that matters for a
// two-decimal currency.
const epsilon = 0.005

// Round rounds an amount to currency precision (2 decimal places).
func Round(x float64) float64 {
	return math.Round(x*100) / 100
}

// Equal reports whether two amounts are the same to within half a cent.
func Equal(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// ItemTotal returns an item's effective cost: the explicit line total if
// the parser extracted one, otherwise quantity × unit price with missing
// fields treated as zero.
func ItemTotal(item models.Item) float64 {
	if item.Total != nil {
		return *item.Total
	}
	var q, p float64
	if item.Quantity != nil {
		q = *item.Quantity
	}
	if item.Price != nil {
		p = *item.Price
	}
	return q * p
}

// ParseAmount parses a human-formatted currency amount. It tolerates the
// common European and US notations:
//
//	"1.234,56"  thousands dot, decimal comma
//	"1,234.56"  thousands comma, decimal dot
//	"1234,56"   decimal comma
//	"12.50"     decimal dot
//
// Currency symbols, spaces, and non-breaking spaces are stripped. The
// second return value is false when nothing numeric remains.
func ParseAmount(text string) (float64, bool) {
	raw := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, text)
	if raw == "" || raw == "-" {
		return 0, false
	}

	commas := strings.Count(raw, ",")
	dots := strings.Count(raw, ".")
	switch {
	case commas > 0 && dots > 0:
		// Mixed separators: the rightmost one is the decimal point.
		if strings.LastIndex(raw, ",") > strings.LastIndex(raw, ".") {
			raw = strings.ReplaceAll(raw, ".", "")
			raw = strings.ReplaceAll(raw, ",", ".")
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case commas == 1 && dots == 0:
		raw = strings.ReplaceAll(raw, ",", ".")
	default:
		// Plain decimal dot, or commas as thousands separators.
		raw = strings.ReplaceAll(raw, ",", "")
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
