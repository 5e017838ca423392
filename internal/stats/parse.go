package stats

import (
	"database/sql"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var yearPattern = regexp.MustCompile(`\d{4}`)

// parseYear takes the first four-digit run ("2021-2022" -> 2021). Bare
// numbers from 1900 upwards are accepted as well.
func parseYear(raw sql.NullString) (int, bool) {
	if !raw.Valid {
		return 0, false
	}
	if m := yearPattern.FindString(raw.String); m != "" {
		y, err := strconv.Atoi(m)
		return y, err == nil
	}
	v, ok := parseNumber(raw)
	if !ok || v < 1900 {
		return 0, false
	}
	return int(math.Round(v)), true
}

// parseNumber reads French or plain decimals ("1 234,5", "12.5").
func parseNumber(raw sql.NullString) (float64, bool) {
	if !raw.Valid {
		return 0, false
	}
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		case ',':
			return '.'
		}
		return r
	}, strings.TrimSpace(raw.String))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// optionalNumber treats NULL and blank as zero; other unparseable text fails.
func optionalNumber(raw sql.NullString) (float64, bool) {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return 0, true
	}
	return parseNumber(raw)
}

// recentYears keeps the n most recent keys, ascending.
func recentYears[V any](byYear map[int]V, n int) []int {
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	if len(years) > n {
		years = years[:n]
	}
	sort.Ints(years)
	return years
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
