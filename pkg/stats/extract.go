package stats

import (
	"regexp"
	"strconv"
	"strings"

	"guildtrack/pkg/ocr"
)

// Extract parses merged recognition lines into a Profile. It is a pure
// function of the line sequence and never fails: every field the heuristics
// cannot read stays empty/nil and the validator decides whether the record
// is usable.
func Extract(lines []ocr.Line) Profile {
	texts := make([]string, len(lines))
	confSum := 0.0
	for i, l := range lines {
		texts[i] = strings.TrimSpace(l.Text)
		confSum += l.Confidence
	}
	var p Profile
	if len(lines) > 0 {
		p.Confidence = confSum / float64(len(lines))
	}

	ident := extractIdentity(texts)
	p.Name = ident.Name
	p.Tag = ident.Tag

	guild, badgeLevel := extractGuild(texts, ident.Line, p.Name)
	p.GuildName = guild

	p.Level = extractLevel(texts, p.Tag, badgeLevel)

	extractNumericFields(texts, &p)
	return p
}

// ExtractText is a convenience for feeding plain newline-separated text
// (engine output without geometry) through the same heuristics.
func ExtractText(text string, confidence float64) Profile {
	var lines []ocr.Line
	for _, t := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(t); s != "" {
			lines = append(lines, ocr.Line{Text: s, Confidence: confidence})
		}
	}
	return Extract(lines)
}

var (
	explicitLevelRe = regexp.MustCompile(`(?i)\blevel\s*:?\s*([0-9]{1,3})\b`)
	smallNumberRe   = regexp.MustCompile(`\b[1-9][0-9]?\b`)
)

// extractLevel prefers an explicit "level: N" token, then the level read
// off the guild badge pairing, then a 1-2 digit badge numeral in the first
// 3 lines that is not an echo of the identity tag. Absence is normal: badge
// numerals are frequently unreadable.
func extractLevel(lines []string, tag string, badgeLevel int) *int {
	joined := strings.Join(lines, " ")
	if m := explicitLevelRe.FindStringSubmatch(joined); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 99 {
			return &n
		}
	}
	if badgeLevel >= 1 && badgeLevel <= 99 {
		return &badgeLevel
	}
	limit := len(lines)
	if limit > 3 {
		limit = 3
	}
	for i := 0; i < limit; i++ {
		for _, tok := range smallNumberRe.FindAllString(lines[i], -1) {
			if tag != "" && strings.Contains(tag, tok) {
				continue
			}
			if n, err := strconv.Atoi(tok); err == nil && n >= 1 && n <= 99 {
				return &n
			}
		}
	}
	return nil
}
