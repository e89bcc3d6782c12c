// Package chainage converts between linear route distance in metres and the
// "km+metres" kilometre-post notation used on construction drawings.
package chainage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxMetres is the largest chainage Format renders and Parse accepts.
// Whole metres up to this value are exact in a float64.
const MaxMetres = 1e15

// Format renders metres as "km+mmm", e.g. 5250 -> "5+250".
// Negative, non-finite or out-of-range input yields an empty string.
func Format(metres float64) string {
	if math.IsNaN(metres) || math.IsInf(metres, 0) || metres < 0 || metres > MaxMetres {
		return ""
	}
	// Round first so 999.6 becomes 1+000, not 0+000.
	r := int64(math.Round(metres))
	return fmt.Sprintf("%d+%03d", r/1000, r%1000)
}

// FormatRange renders a chainage span such as "5+250 - 6+000".
// An unusable bound collapses the span to whichever side is valid.
func FormatRange(start, end float64) string {
	s, e := Format(start), Format(end)
	switch {
	case s == "":
		return e
	case e == "":
		return s
	}
	return s + " - " + e
}

// Parse reads a chainage typed by a person.
//
// "5+250", "KP 5+250" and "5+250.5" are km+metres. Bare numbers such as
// "5250", "250" or "6.5" are taken literally as metres from KP 0.
// The boolean is false for anything that is not a chainage.
func Parse(text string) (float64, bool) {
	s := normalise(text)
	if s == "" {
		return 0, false
	}

	km, m, hasPlus := strings.Cut(s, "+")
	if !hasPlus {
		return parseMetres(s)
	}
	if strings.Contains(m, "+") || km == "" || m == "" {
		return 0, false
	}

	kmVal, err := strconv.ParseUint(km, 10, 64)
	if err != nil || kmVal > MaxMetres/1000 {
		return 0, false
	}
	mVal, ok := parseMetres(m)
	if !ok || mVal >= 1000 {
		return 0, false
	}
	total := float64(kmVal)*1000 + mVal
	if total > MaxMetres {
		return 0, false
	}
	return total, true
}

// normalise strips whitespace, thousands separators and a leading KP tag.
func normalise(text string) string {
	s := strings.TrimSpace(text)
	if len(s) >= 2 && strings.EqualFold(s[:2], "kp") {
		s = s[2:]
	}
	s = strings.NewReplacer(" ", "", "\t", "", ",", "").Replace(s)
	return s
}

func parseMetres(s string) (float64, bool) {
	if s == "" || !isNumeric(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) || v < 0 || v > MaxMetres {
		return 0, false
	}
	return v, true
}

// isNumeric accepts digits with at most one decimal point. ParseFloat alone
// would also take "1e3", "Inf" and hex floats.
func isNumeric(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}
