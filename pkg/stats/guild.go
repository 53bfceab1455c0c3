package stats

import (
	"regexp"
	"strconv"
	"strings"
)

// statKeywords are stat labels and status words that can never be part of a
// guild name or player name.
var statKeywords = []string{
	"net worth", "prestige", "investment", "mastered", "helped",
	"ascension", "bounty", "collection", "active", "level", "officer",
	"online", "guildmaster", "member", "last active",
}

// uiRankTerms are cosmetic player titles and UI labels that the guild-name
// filter must not mistake for a guild.
var uiRankTerms = []string{
	"champion", "hero", "legend", "veteran", "elite", "tycoon", "mogul",
	"apprentice", "novice",
}

func containsStatKeyword(low string) bool {
	for _, k := range statKeywords {
		if strings.Contains(low, k) {
			return true
		}
	}
	return false
}

var (
	// level badge rendered immediately left of the guild name: "98 Hailight".
	// This structural pairing beats any isolated-word heuristic.
	guildOverrideRe = regexp.MustCompile(`\b([1-9][0-9])\s+([A-Z][A-Za-z]+)\b`)
	capitalNoiseRe  = regexp.MustCompile(`^[A-Z] `)
	trailingCapRe   = regexp.MustCompile(`\s+[A-Z]$`)
	trailingDigitRe = regexp.MustCompile(`\s*[0-9]+$`)
	guildWindow     = 10
)

// extractGuild finds the guild name in the lines after the identity line.
// The second return is the level read from the badge-adjacency override, 0
// when the override did not fire.
func extractGuild(lines []string, idLine int, name string) (string, int) {
	overrideName, overrideLevel := "", 0
	limit := len(lines)
	if limit > guildWindow {
		limit = guildWindow
	}
	for i := 0; i < limit; i++ {
		if m := guildOverrideRe.FindStringSubmatch(lines[i]); m != nil {
			word := m[2]
			if containsStatKeyword(strings.ToLower(word)) || strings.EqualFold(word, name) {
				continue
			}
			overrideName = word
			overrideLevel, _ = strconv.Atoi(m[1])
			break
		}
	}

	candidate := guildCandidate(lines, idLine, name, false)
	if candidate == "" {
		candidate = guildCandidate(lines, idLine, name, true)
	}
	chosen := candidate
	if overrideName != "" {
		chosen = overrideName
	}
	return stripBadgeNoise(chosen), overrideLevel
}

// guildCandidate walks the lines strictly after the identity line. The
// relaxed pass drops the cosmetic-title filter when the strict pass leaves
// nothing.
func guildCandidate(lines []string, idLine int, name string, relaxed bool) string {
	for i := idLine + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		// a bare capital letter plus space is a common recognizer artifact
		if capitalNoiseRe.MatchString(line) {
			continue
		}
		low := strings.ToLower(line)
		if containsStatKeyword(low) {
			continue
		}
		if strings.Contains(line, "#") {
			continue
		}
		if name != "" && (strings.Contains(line, name) || strings.Contains(name, line)) {
			continue
		}
		if isPureDigits(line) {
			continue
		}
		if !relaxed && looksLikeCosmeticTitle(line) {
			continue
		}
		return line
	}
	return ""
}

// looksLikeCosmeticTitle rejects known UI/rank terms and short single
// tokens whose casing (all-caps, or mixed interior capitals) marks them as
// decorative titles rather than guild names.
func looksLikeCosmeticTitle(line string) bool {
	for _, t := range uiRankTerms {
		if strings.EqualFold(strings.TrimSpace(line), t) {
			return true
		}
	}
	words := strings.Fields(line)
	if len(words) != 1 {
		return false
	}
	w := words[0]
	if len(w) > 8 {
		return false
	}
	if w == strings.ToUpper(w) && w != strings.ToLower(w) {
		return true
	}
	return hasInteriorCapital(w)
}

func hasInteriorCapital(w string) bool {
	for i, r := range w {
		if i > 0 && r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}

// stripBadgeNoise removes a single trailing capital letter or a trailing
// digit run picked up from an adjacent badge glyph.
func stripBadgeNoise(name string) string {
	name = trailingCapRe.ReplaceAllString(name, "")
	name = trailingDigitRe.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// isPureDigits reports whether the line is only digits plus separator
// punctuation.
func isPureDigits(s string) bool {
	hasDigit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == ' ' || r == ',' || r == '.':
		default:
			return false
		}
	}
	return hasDigit
}
