package stringing

import (
	"strconv"
	"strings"
)

// NominalDiameter extracts inches from sizes written as `24"`, `24 in`,
// `NPS 24`, `24-inch` or `8-5/8"`.
func NominalDiameter(pipeSize string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(pipeSize))
	s = strings.TrimPrefix(s, "nps")
	s = strings.TrimSpace(s)

	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.' || s[end] == '-' || s[end] == '/' || s[end] == ' ') {
		end++
	}
	num := strings.TrimRight(strings.TrimSpace(s[:end]), "-")
	if num == "" {
		return 0, false
	}

	whole, frac, hasFrac := strings.Cut(num, "-")
	if !hasFrac {
		whole, frac, hasFrac = strings.Cut(num, " ")
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(whole), 64)
	if err != nil || w <= 0 {
		return 0, false
	}
	if hasFrac {
		n, d, ok := strings.Cut(strings.TrimSpace(frac), "/")
		if !ok {
			return 0, false
		}
		nv, err1 := strconv.ParseFloat(n, 64)
		dv, err2 := strconv.ParseFloat(d, 64)
		if err1 != nil || err2 != nil || dv == 0 {
			return 0, false
		}
		w += nv / dv
	}
	return w, true
}

// minUsableLength looks the pipe size up in the pup table, first match wins.
func minUsableLength(pups []PupConfig, pipeSize string) float64 {
	d, ok := NominalDiameter(pipeSize)
	if !ok {
		return DefaultMinUsableLengthMetres
	}
	for _, p := range pups {
		if p.MinDiameterInches <= d && d <= p.MaxDiameterInches {
			return p.MinUsableLengthMetres
		}
	}
	return DefaultMinUsableLengthMetres
}
