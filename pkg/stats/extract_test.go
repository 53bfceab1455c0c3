package stats

import "testing"

func TestExtractFullCard(t *testing.T) {
	p := ExtractText(`SuzIa SuzIa #10234
98 Hailight
UvGly
Net Worth Prestige Investment
1,234,567 890,123 12,345,678
Mastered
320
Helped
45`, 82)

	if p.Name != "SuzIa" || p.Tag != "10234" {
		t.Fatalf("identity: got %q #%q", p.Name, p.Tag)
	}
	if p.ID() != "SuzIa#10234" {
		t.Fatalf("id: got %q", p.ID())
	}
	if p.GuildName != "Hailight" {
		t.Fatalf("guild: got %q (badge pairing should beat the cosmetic title)", p.GuildName)
	}
	if p.Level == nil || *p.Level != 98 {
		t.Fatalf("level: got %v", p.Level)
	}
	if p.NetWorth != "1,234,567" {
		t.Fatalf("net worth: got %q", p.NetWorth)
	}
	if p.Prestige != "890,123" {
		t.Fatalf("prestige: got %q", p.Prestige)
	}
	if p.Invested != "12,345,678" {
		t.Fatalf("invested: got %q", p.Invested)
	}
	if p.Mastered == nil || *p.Mastered != 320 {
		t.Fatalf("mastered: got %v", p.Mastered)
	}
	if p.Helped == nil || *p.Helped != 45 {
		t.Fatalf("helped: got %v", p.Helped)
	}
	if ok, missing := Validate(p); !ok {
		t.Fatalf("expected usable record, missing %v", missing)
	}
}

func TestExtractMalformedGroupingDropsField(t *testing.T) {
	p := ExtractText(`SuzIa #10234
Hailight Crew
Net Worth
12,34
Prestige
890,123
Investment
12,345,678`, 70)
	if p.NetWorth != "" {
		t.Fatalf("malformed '12,34' must not yield a net worth, got %q", p.NetWorth)
	}
	if p.Prestige != "890,123" || p.Invested != "12,345,678" {
		t.Fatalf("other fields should survive: prestige=%q invested=%q", p.Prestige, p.Invested)
	}
	// still usable: 2 of 3 key stats present
	if ok, missing := Validate(p); !ok {
		t.Fatalf("expected usable record, missing %v", missing)
	}
}

func TestExtractStackedLabelBlock(t *testing.T) {
	// labels rendered as a block with the values below in the same order:
	// prestige must take the second value line, not duplicate net worth
	p := ExtractText(`SuzIa #10234
Hailight Crew
Net Worth
Prestige
1,234,567
890,123`, 80)
	if p.NetWorth != "1,234,567" {
		t.Fatalf("net worth: got %q", p.NetWorth)
	}
	if p.Prestige != "890,123" {
		t.Fatalf("prestige must take its own value line, got %q", p.Prestige)
	}
	if ok, missing := Validate(p); !ok {
		t.Fatalf("expected usable record, missing %v", missing)
	}
}

func TestExtractAlternatingStackedLayout(t *testing.T) {
	// label/value alternation: each stat owns the value directly below it
	p := ExtractText(`SuzIa #10234
Hailight Crew
Net Worth
1,234,567
Prestige
890,123`, 80)
	if p.NetWorth != "1,234,567" || p.Prestige != "890,123" {
		t.Fatalf("alternating layout: net_worth=%q prestige=%q", p.NetWorth, p.Prestige)
	}
}

func TestExtractIdentityRules(t *testing.T) {
	cases := []struct {
		lines []string
		name  string
		tag   string
	}{
		// tag alone on its own line; name is the previous line
		{[]string{"< SuzIa >", "#10234"}, "SuzIa", "10234"},
		// bracketed repeat split across a previous line
		{[]string{"< SuzIa >", "< SuzIa > #10234"}, "SuzIa", "10234"},
		// doubled name before the tag
		{[]string{"SuzIa SuzIa #10234"}, "SuzIa", "10234"},
		// bracketed repeats
		{[]string{"< SuzIa > < SuzIa > #10234"}, "SuzIa", "10234"},
		// literal self-concatenation
		{[]string{"SuzIaSuzIa #10234"}, "SuzIa", "10234"},
		// a doubled name means the whole identity line doubled, tag included
		{[]string{"SuzIaSuzIa #1023410234"}, "SuzIa", "10234"},
		// truncated fuzzy repeat keeps the longer form
		{[]string{"SuzI SuzIa #10234"}, "SuzIa", "10234"},
		// cleaner form on the previous line wins over a noisy candidate
		{[]string{"SuzIa", "x SuzIa #10234"}, "SuzIa", "10234"},
		// lost '#': letters-then-digits token
		{[]string{"SuzIa S10234"}, "SuzIa", "10234"},
		// bare name, no tag
		{[]string{"SuzIa"}, "SuzIa", ""},
	}
	for _, c := range cases {
		got := extractIdentity(c.lines)
		if got.Name != c.name || got.Tag != c.tag {
			t.Errorf("%v: got %q #%q want %q #%q", c.lines, got.Name, got.Tag, c.name, c.tag)
		}
	}
}

func TestExtractGuildSkipsCosmeticTitle(t *testing.T) {
	lines := []string{"SuzIa #10234", "UvGly", "Thunder Lords"}
	guild, level := extractGuild(lines, 0, "SuzIa")
	if guild != "Thunder Lords" {
		t.Fatalf("expected cosmetic title skipped, got %q", guild)
	}
	if level != 0 {
		t.Fatalf("no badge pairing here, got level %d", level)
	}
}

func TestExtractGuildRelaxedFallback(t *testing.T) {
	// when nothing else qualifies, the relaxed pass accepts a short
	// mixed-case token rather than returning nothing
	lines := []string{"SuzIa #10234", "UvGly", "Net Worth", "1,234,567"}
	guild, _ := extractGuild(lines, 0, "SuzIa")
	if guild != "UvGly" {
		t.Fatalf("expected relaxed fallback, got %q", guild)
	}
}

func TestExtractGuildStripsBadgeNoise(t *testing.T) {
	lines := []string{"SuzIa #10234", "Thunder Lords X"}
	guild, _ := extractGuild(lines, 0, "SuzIa")
	if guild != "Thunder Lords" {
		t.Fatalf("expected trailing badge letter stripped, got %q", guild)
	}
}

func TestCollectionDuplicateOfBountyDropped(t *testing.T) {
	p := ExtractText(`SuzIa #10234
Hailight Crew
Net Worth
1,234,567
Prestige
890,123
Bounty
1,234
Collection
1,234`, 75)
	if p.BountyTrophies == nil || *p.BountyTrophies != 1234 {
		t.Fatalf("bounty: got %v", p.BountyTrophies)
	}
	if p.CollectionScore != nil {
		t.Fatalf("duplicated collection score must be dropped, got %v", p.CollectionScore)
	}
}

func TestExtractExplicitLevelWins(t *testing.T) {
	p := ExtractText(`SuzIa #10234
Level: 42
Hailight Crew
Net Worth
1,234,567
Prestige
890,123`, 75)
	if p.Level == nil || *p.Level != 42 {
		t.Fatalf("level: got %v", p.Level)
	}
}
