package stats

import "testing"

func TestIsValidFormat(t *testing.T) {
	valid := []string{"0", "7", "999", "1,234", "12,345", "123,456", "1,234,567", "12345"}
	for _, s := range valid {
		if !IsValidFormat(s) {
			t.Errorf("%q should be valid", s)
		}
	}
	invalid := []string{"", "12,34", "1,2345", ",123", "1234,567", "1,234,56", "12a34", "1 234"}
	for _, s := range invalid {
		if IsValidFormat(s) {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestParseIntRejectsMalformed(t *testing.T) {
	if _, ok := ParseInt("12,34"); ok {
		t.Fatalf("'12,34' must not parse")
	}
	n, ok := ParseInt("12,345")
	if !ok || n != 12345 {
		t.Fatalf("'12,345': got %d ok=%v", n, ok)
	}
}

func TestFormatGroupingRoundTrip(t *testing.T) {
	for _, s := range []string{"1", "999", "1,000", "12,345", "123,456", "1,234,567", "987,654,321"} {
		n, ok := ParseInt(s)
		if !ok {
			t.Fatalf("%q should parse", s)
		}
		if got := FormatGrouping(n); got != s {
			t.Errorf("round trip %q -> %d -> %q", s, n, got)
		}
	}
}
