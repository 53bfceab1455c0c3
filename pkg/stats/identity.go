package stats

import (
	"regexp"
	"strings"
)

// The recognizer frequently reports the same visual identity twice (once
// cleanly, once duplicated or truncated), splits the name from its #tag
// across lines, or wraps the name in decorative brackets. The rules below
// run in priority order; the first match wins.

// identityWindow limits the identity search to the top of the card.
const identityWindow = 5

type identity struct {
	Name string
	Tag  string
	Line int // index of the line the identity was read from, -1 if none
}

var (
	tagAloneRe = regexp.MustCompile(`^#\s*([A-Za-z0-9]+)$`)
	hashRe     = regexp.MustCompile(`^(.*\S)\s*#\s*([A-Za-z0-9]+)`)
	// loose fallback: a letters-then-digits token where the recognizer lost
	// the '#' (e.g. "SuzIa S10234").
	looseTagRe = regexp.MustCompile(`^(.*\S)\s+([A-Za-z]{1,3}([0-9]{3,}))$`)
)

func extractIdentity(lines []string) identity {
	n := len(lines)
	if n > identityWindow {
		n = identityWindow
	}

	// Tag alone on its own line: the name is the previous line verbatim.
	for i := 1; i < n; i++ {
		if m := tagAloneRe.FindStringSubmatch(strings.TrimSpace(lines[i])); m != nil {
			name := stripBrackets(strings.TrimSpace(lines[i-1]))
			if name != "" {
				return identity{Name: name, Tag: m[1], Line: i}
			}
		}
	}

	// name-part # tag on one line, with repetition cleanup.
	for i := 0; i < n; i++ {
		if m := hashRe.FindStringSubmatch(strings.TrimSpace(lines[i])); m != nil {
			name := collapseRepeats(m[1])
			name = crossCheckPrevious(name, lines[:i])
			name, tag := repairConcat(name, m[2])
			return identity{Name: name, Tag: tag, Line: i}
		}
	}

	// Loose letters-then-digits tag token.
	for i := 0; i < n; i++ {
		if m := looseTagRe.FindStringSubmatch(strings.TrimSpace(lines[i])); m != nil {
			name, tag := repairConcat(collapseRepeats(m[1]), m[3])
			return identity{Name: name, Tag: tag, Line: i}
		}
	}

	// Last resort: first short non-keyword line is a bare name with no tag.
	for i := 0; i < n; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || len(line) > 24 {
			continue
		}
		if containsStatKeyword(strings.ToLower(line)) {
			continue
		}
		if onlyDigits(line) == strings.Join(strings.Fields(line), "") {
			continue
		}
		return identity{Name: stripBrackets(line), Line: i}
	}
	return identity{Line: -1}
}

// collapseRepeats reduces a duplicated name part to its single underlying
// name: a 2-word name doubled, a 1-word name doubled, a bracket-delimited
// "< Name >" (possibly repeated), or a fuzzy repeat where one occurrence is
// a truncated variant of the other.
func collapseRepeats(name string) string {
	name = strings.TrimSpace(name)
	if strings.ContainsAny(name, "<>") {
		if inner := bracketGroups(name); len(inner) > 0 && allEqual(inner) {
			return inner[0]
		}
		name = stripBrackets(name)
	}
	words := strings.Fields(name)
	switch {
	case len(words) == 4 && words[0] == words[2] && words[1] == words[3]:
		return words[0] + " " + words[1]
	case len(words) == 2 && words[0] == words[1]:
		return words[0]
	case len(words) == 2:
		if full, ok := fuzzyRepeat(words[0], words[1]); ok {
			return full
		}
	}
	return name
}

// fuzzyRepeat reports whether one word is a truncated or prefixed variant of
// the other (at most 2 characters of length difference) and returns the
// underlying full name.
func fuzzyRepeat(a, b string) (string, bool) {
	if len(a) > len(b) {
		a, b = b, a
	}
	if len(a) < 3 || len(b)-len(a) > 2 {
		return "", false
	}
	if strings.HasPrefix(b, a) || strings.HasSuffix(b, a) {
		return b, true
	}
	return "", false
}

// crossCheckPrevious compares the candidate against the lines above the
// identity line. A shorter previous line that is a suffix of the candidate
// is the cleaner form (the candidate carries leading noise); a longer
// previous line that merely extends the candidate is itself noise.
func crossCheckPrevious(name string, previous []string) string {
	for i := len(previous) - 1; i >= 0; i-- {
		prev := stripBrackets(strings.TrimSpace(previous[i]))
		if prev == "" || prev == name {
			continue
		}
		diff := len(prev) - len(name)
		if diff < -3 || diff > 3 {
			continue
		}
		if len(prev) < len(name) && strings.HasSuffix(name, prev) {
			return prev
		}
	}
	return name
}

// collapseSelfConcat halves a literal self-concatenation ("SuzIaSuzIa").
func collapseSelfConcat(name string) string {
	n := len(name)
	if n >= 4 && n%2 == 0 && name[:n/2] == name[n/2:] {
		return name[:n/2]
	}
	return name
}

// repairConcat halves a self-concatenated name and, when that fires, also
// halves the tag: a recognizer that doubled the name has doubled the whole
// identity line, tag included ("SuzIaSuzIa #1023410234").
func repairConcat(name, tag string) (string, string) {
	halved := collapseSelfConcat(name)
	if halved != name {
		return halved, collapseSelfConcat(tag)
	}
	return name, tag
}

// bracketGroups returns the trimmed contents of every <...> group.
func bracketGroups(s string) []string {
	var out []string
	for {
		open := strings.IndexByte(s, '<')
		if open == -1 {
			break
		}
		close := strings.IndexByte(s[open:], '>')
		if close == -1 {
			break
		}
		inner := strings.TrimSpace(s[open+1 : open+close])
		if inner != "" {
			out = append(out, inner)
		}
		s = s[open+close+1:]
	}
	return out
}

func stripBrackets(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func allEqual(ss []string) bool {
	for _, s := range ss[1:] {
		if s != ss[0] {
			return false
		}
	}
	return true
}
