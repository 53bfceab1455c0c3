package stats

import (
	"strings"
	"testing"
)

func TestValidateRejectsEmptyExtraction(t *testing.T) {
	ok, missing := Validate(Profile{})
	if ok {
		t.Fatalf("empty profile must be rejected")
	}
	if len(missing) != 3 {
		t.Fatalf("expected all three categories missing, got %v", missing)
	}
	reason := RejectionReason(missing)
	if !strings.Contains(reason, "player identity") || !strings.Contains(reason, "guild name") {
		t.Fatalf("reason should itemize categories: %q", reason)
	}
}

func TestValidateNeedsTwoKeyStats(t *testing.T) {
	p := Profile{Name: "SuzIa", Tag: "10234", GuildName: "Hailight", NetWorth: "1,234,567"}
	if ok, _ := Validate(p); ok {
		t.Fatalf("one key stat is not enough")
	}
	p.Prestige = "890,123"
	if ok, missing := Validate(p); !ok {
		t.Fatalf("two key stats should pass, missing %v", missing)
	}
}

func TestValidateMonotonic(t *testing.T) {
	// adding fields never turns an accepted profile into a rejected one
	p := Profile{Name: "SuzIa", GuildName: "Hailight", NetWorth: "1,234,567", Prestige: "890,123"}
	if ok, _ := Validate(p); !ok {
		t.Fatalf("base profile should pass")
	}
	lvl, m := 98, 320
	p.Tag = "10234"
	p.Level = &lvl
	p.Mastered = &m
	p.Invested = "12,345,678"
	if ok, _ := Validate(p); !ok {
		t.Fatalf("richer profile must still pass")
	}
}
