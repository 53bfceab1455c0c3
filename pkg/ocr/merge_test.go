package ocr

import "testing"

func box(x0, y0, x1, y1 float64) []Point {
	return []Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func TestMergeFragmentsBandsAndGaps(t *testing.T) {
	frags := []Fragment{
		// second band given first; merge must sort by vertical center
		{Text: "Hailight", Confidence: 70, Box: box(0, 300, 90, 312)},
		{Text: "Net", Confidence: 90, Box: box(0, 100, 30, 112)},
		{Text: "Worth", Confidence: 80, Box: box(40, 101, 80, 113)},
		// same band but 120px to the right: separate column, separate line
		{Text: "1,234,567", Confidence: 85, Box: box(200, 100, 290, 112)},
		{Text: "no geometry", Confidence: 50},
	}
	lines := MergeAll(frags)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines got %d: %+v", len(lines), lines)
	}
	if lines[0].Text != "Net Worth" {
		t.Fatalf("expected merged 'Net Worth' got %q", lines[0].Text)
	}
	if lines[0].Confidence != 85 {
		t.Fatalf("expected averaged confidence 85 got %.1f", lines[0].Confidence)
	}
	if lines[1].Text != "1,234,567" {
		t.Fatalf("expected column split, got %q", lines[1].Text)
	}
	if lines[2].Text != "Hailight" {
		t.Fatalf("expected second band third, got %q", lines[2].Text)
	}
	if lines[3].Text != "no geometry" || lines[3].Box != nil {
		t.Fatalf("expected bbox-less passthrough last, got %+v", lines[3])
	}
	// merged box must cover both words
	b := lines[0].Box
	if minX(b) != 0 || maxX(b) != 80 {
		t.Fatalf("union box wrong: %+v", b)
	}
}

func TestMergeFragmentsIdempotent(t *testing.T) {
	frags := []Fragment{
		{Text: "Net", Confidence: 90, Box: box(0, 100, 30, 112)},
		{Text: "Worth", Confidence: 80, Box: box(40, 101, 80, 113)},
		{Text: "890,123", Confidence: 85, Box: box(300, 100, 360, 112)},
		{Text: "Prestige", Confidence: 75, Box: box(0, 200, 70, 212)},
	}
	first := MergeAll(frags)
	asFrags := make([]Fragment, len(first))
	for i, l := range first {
		asFrags[i] = Fragment{Text: l.Text, Confidence: l.Confidence, Box: l.Box}
	}
	second := MergeAll(asFrags)
	if len(first) != len(second) {
		t.Fatalf("re-merge changed line count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Text != second[i].Text {
			t.Fatalf("re-merge changed line %d: %q vs %q", i, first[i].Text, second[i].Text)
		}
	}
}

func TestMergeFragmentsFarBandsStaySeparate(t *testing.T) {
	frags := []Fragment{
		{Text: "a", Confidence: 50, Box: box(0, 100, 10, 110)},
		{Text: "b", Confidence: 50, Box: box(0, 130, 10, 140)}, // 30px below: new band
	}
	lines := MergeAll(frags)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines got %d", len(lines))
	}
}
