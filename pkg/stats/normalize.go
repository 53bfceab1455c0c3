package stats

import (
	"regexp"
	"strconv"
	"strings"
)

var groupedRe = regexp.MustCompile(`^[0-9]{1,3}(?:,[0-9]{3})+$`)

// IsValidFormat reports whether s is a well-formed integer string: plain
// digits, or comma-grouped with a 1-3 digit leading group and exactly-3
// digit groups after. Anything else ("12,34", "1,2345") is a malformed
// recognition and is rejected rather than silently coerced.
func IsValidFormat(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if strings.Contains(s, ",") {
		return groupedRe.MatchString(s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseInt parses a formatted integer string. The second return is false
// when the format is invalid.
func ParseInt(s string) (int, bool) {
	if !IsValidFormat(s) {
		return 0, false
	}
	n, err := strconv.Atoi(onlyDigits(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatGrouping renders n with comma thousands separators. For any valid
// grouped string s, FormatGrouping of its parsed value reproduces s.
func FormatGrouping(n int) string {
	ds := strconv.Itoa(n)
	if len(ds) <= 3 {
		return ds
	}
	var parts []string
	for len(ds) > 3 {
		parts = append([]string{ds[len(ds)-3:]}, parts...)
		ds = ds[:len(ds)-3]
	}
	parts = append([]string{ds}, parts...)
	return strings.Join(parts, ",")
}

// onlyDigits extracts decimal digits from a string.
func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
