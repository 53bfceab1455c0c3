package stats

import (
	"regexp"
	"strings"
)

// The eight numeric stats are located by keyword, then a per-field position
// policy selects among the numbers found near it. The game renders stats
// either as a single row of several columns (header line, then one line
// carrying all the values) or stacked (one value per line, interleaved with
// the next stat's value).

type position int

const (
	posFirst position = iota
	posSecond
	posLast
	posLargest
	posSmallest
)

type fieldSpec struct {
	field    string
	keyword  string
	pos      position
	minValue int  // drop candidates below this; 0 disables
	monetary bool // expect comma grouping; a plain number <= 1000 is noise
}

var fieldSpecs = []fieldSpec{
	{field: "net_worth", keyword: "net worth", pos: posFirst, monetary: true},
	{field: "prestige", keyword: "prestige", pos: posSecond, monetary: true},
	// investments dwarf every other number on the card
	{field: "invested", keyword: "invest", pos: posLargest, monetary: true},
	{field: "mastered", keyword: "master", pos: posSmallest, minValue: 100},
	{field: "helped", keyword: "helped", pos: posFirst},
	{field: "ascensions", keyword: "ascension", pos: posFirst},
	{field: "bounty_trophies", keyword: "bounty", pos: posFirst, minValue: 100},
	{field: "collection_score", keyword: "collection", pos: posFirst},
}

type numToken struct {
	raw   string
	value int
}

// numberTokenRe deliberately swallows whole comma runs ("12,34") so the
// format validator can reject them instead of matching their halves.
var numberTokenRe = regexp.MustCompile(`[0-9]+(?:,[0-9]+)*`)

func extractNumericFields(lines []string, p *Profile) {
	for _, spec := range fieldSpecs {
		tok, ok := findFieldValue(lines, spec)
		if !ok {
			continue
		}
		assignField(p, spec.field, tok)
	}
	// the recognizer sometimes duplicates one number across two labeled
	// slots; an exact bounty/collection match is such a duplicate
	if p.CollectionScore != nil && p.BountyTrophies != nil && *p.CollectionScore == *p.BountyTrophies {
		p.CollectionScore = nil
	}
}

func findFieldValue(lines []string, spec fieldSpec) (numToken, bool) {
	for i, line := range lines {
		low := strings.ToLower(line)
		idx := strings.Index(low, spec.keyword)
		if idx == -1 {
			continue
		}
		// value on the keyword line itself: the stat's own value comes first
		if inline := numbersIn(line[idx+len(spec.keyword):]); len(inline) > 0 {
			inline = filterCandidates(inline, spec)
			if len(inline) == 0 {
				return numToken{}, false
			}
			return inline[0], true
		}
		cands, sharedRow := candidatesBelow(lines, i)
		if sharedRow {
			// one value line carries several columns; the declared
			// positional policy selects among them
			cands = filterCandidates(cands, spec)
			if len(cands) == 0 {
				return numToken{}, false
			}
			return pick(cands, spec.pos)
		}
		// stacked: one value per line. When the keyword sits in a block of
		// label lines the values arrive below in the same order, so the
		// keyword's ordinal within the block selects its line; a lone label
		// (alternating layout) has ordinal 0 and owns the first value.
		ord := labelOrdinal(lines, i)
		if ord >= len(cands) {
			return numToken{}, false
		}
		tok := cands[ord]
		if len(filterCandidates([]numToken{tok}, spec)) == 0 {
			return numToken{}, false
		}
		return tok, true
	}
	return numToken{}, false
}

// labelOrdinal counts the consecutive digit-free stat-label lines directly
// above line i: the keyword's position within its label block.
func labelOrdinal(lines []string, i int) int {
	ord := 0
	for j := i - 1; j >= 0; j-- {
		if len(numberTokenRe.FindAllString(lines[j], -1)) > 0 {
			break
		}
		if !isLabelLine(lines[j]) {
			break
		}
		ord++
	}
	return ord
}

func isLabelLine(line string) bool {
	low := strings.ToLower(line)
	for _, s := range fieldSpecs {
		if strings.Contains(low, s.keyword) {
			return true
		}
	}
	return false
}

// candidatesBelow inspects the 1-3 lines under the keyword line. A first
// digit-bearing line with several numbers is the shared-row layout (second
// return true); one number means the stacked layout, where following lines
// carry the interleaved values. A bare one-digit line is a UI toggle glyph,
// not data, and a line whose only number tokens are malformed is this
// stat's own unreadable value, so the search stops rather than stealing the
// next stat's number.
func candidatesBelow(lines []string, i int) ([]numToken, bool) {
	end := i + 4
	if end > len(lines) {
		end = len(lines)
	}
	for j := i + 1; j < end; j++ {
		toks := numbersIn(lines[j])
		if len(toks) == 0 {
			if len(numberTokenRe.FindAllString(lines[j], -1)) > 0 {
				return nil, false
			}
			continue
		}
		if len(toks) >= 2 {
			return toks, true
		}
		var out []numToken
		for k := j; k < end; k++ {
			trimmed := strings.TrimSpace(lines[k])
			if len(trimmed) == 1 && trimmed[0] >= '0' && trimmed[0] <= '9' {
				continue
			}
			if ts := numbersIn(lines[k]); len(ts) > 0 {
				out = append(out, ts[0])
			}
		}
		return out, false
	}
	return nil, false
}

// numbersIn extracts well-formatted number tokens; malformed comma grouping
// drops the token entirely.
func numbersIn(s string) []numToken {
	var out []numToken
	for _, m := range numberTokenRe.FindAllString(s, -1) {
		v, ok := ParseInt(m)
		if !ok {
			continue
		}
		out = append(out, numToken{raw: m, value: v})
	}
	return out
}

func filterCandidates(cands []numToken, spec fieldSpec) []numToken {
	var out []numToken
	for _, c := range cands {
		if spec.minValue > 0 && c.value < spec.minValue {
			continue
		}
		if spec.monetary && !strings.Contains(c.raw, ",") && c.value <= 1000 {
			continue
		}
		out = append(out, c)
	}
	return out
}

func pick(cands []numToken, pos position) (numToken, bool) {
	switch pos {
	case posFirst:
		return cands[0], true
	case posSecond:
		if len(cands) < 2 {
			return numToken{}, false
		}
		return cands[1], true
	case posLast:
		return cands[len(cands)-1], true
	case posLargest:
		best := cands[0]
		for _, c := range cands[1:] {
			if c.value > best.value {
				best = c
			}
		}
		return best, true
	case posSmallest:
		best := cands[0]
		for _, c := range cands[1:] {
			if c.value < best.value {
				best = c
			}
		}
		return best, true
	}
	return numToken{}, false
}

func assignField(p *Profile, field string, tok numToken) {
	v := tok.value
	switch field {
	case "net_worth":
		p.NetWorth = tok.raw
	case "prestige":
		p.Prestige = tok.raw
	case "invested":
		p.Invested = tok.raw
	case "mastered":
		p.Mastered = &v
	case "helped":
		p.Helped = &v
	case "ascensions":
		p.Ascensions = &v
	case "bounty_trophies":
		p.BountyTrophies = &v
	case "collection_score":
		p.CollectionScore = &v
	}
}
