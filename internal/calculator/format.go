package calculator

import (
	"math"
	"strconv"
)

// significantDigits bounds the precision of non-integral results.
const significantDigits = 8

// FormatNumber renders x the way the display shows it: integral values as
// plain digits, everything else rounded to eight significant digits with
// trailing zeros dropped. Scientific notation never appears.
func FormatNumber(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return ErrorText
	}
	if x == 0 {
		// covers -0
		return "0"
	}
	if x == math.Trunc(x) {
		return strconv.FormatFloat(x, 'f', 0, 64)
	}

	rounded, err := strconv.ParseFloat(strconv.FormatFloat(x, 'e', significantDigits-1, 64), 64)
	if err != nil {
		return ErrorText
	}
	if rounded == 0 {
		return "0"
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// parseDisplay reads the display as a number. Partially typed numerals such
// as "12." parse; the error literal and anything else do not.
func parseDisplay(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// displayValue is parseDisplay with unparseable text read as zero.
func displayValue(s string) float64 {
	v, _ := parseDisplay(s)
	return v
}
