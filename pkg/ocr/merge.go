package ocr

import (
	"iter"
	"sort"
	"strings"
)

const (
	// bandTolerancePx is how far apart two fragment centers may sit
	// vertically and still count as the same text line.
	bandTolerancePx = 15.0
	// maxWordGapPx is the widest horizontal gap bridged inside a line;
	// anything wider is a separate column and stays a separate line.
	maxWordGapPx = 50.0
)

// MergeFragments reassembles word-level fragments into reading-order lines:
// fragments whose vertical centers fall within bandTolerancePx of the
// current band and whose horizontal gap to the previous fragment is under
// maxWordGapPx are joined with single spaces. Fragments without geometry
// pass through unmerged, after all positioned lines. The sequence is lazy;
// merging an already-merged output is a no-op because each emitted line is
// a single fragment-free unit.
func MergeFragments(fragments []Fragment) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		positioned := make([]Fragment, 0, len(fragments))
		var loose []Fragment
		for _, f := range fragments {
			if f.Text == "" {
				continue
			}
			if f.HasBox() {
				positioned = append(positioned, f)
			} else {
				loose = append(loose, f)
			}
		}
		sort.SliceStable(positioned, func(i, j int) bool {
			yi, yj := meanY(positioned[i].Box), meanY(positioned[j].Box)
			if abs(yi-yj) > 1e-9 {
				return yi < yj
			}
			return meanX(positioned[i].Box) < meanX(positioned[j].Box)
		})

		i := 0
		for i < len(positioned) {
			// collect the vertical band anchored at positioned[i]
			bandY := meanY(positioned[i].Box)
			j := i + 1
			for j < len(positioned) && abs(meanY(positioned[j].Box)-bandY) < bandTolerancePx {
				j++
			}
			band := append([]Fragment(nil), positioned[i:j]...)
			sort.SliceStable(band, func(a, b int) bool {
				return minX(band[a].Box) < minX(band[b].Box)
			})

			// split the band on horizontal gaps
			cur := band[0]
			text := []string{cur.Text}
			confSum := cur.Confidence
			n := 1
			box := cur.Box
			rightEdge := maxX(cur.Box)
			for _, f := range band[1:] {
				if minX(f.Box)-rightEdge < maxWordGapPx {
					text = append(text, f.Text)
					confSum += f.Confidence
					n++
					box = unionBox(box, f.Box)
				} else {
					if !yield(Line{Text: strings.Join(text, " "), Confidence: confSum / float64(n), Box: box}) {
						return
					}
					text = []string{f.Text}
					confSum = f.Confidence
					n = 1
					box = f.Box
				}
				if e := maxX(f.Box); e > rightEdge {
					rightEdge = e
				}
			}
			if !yield(Line{Text: strings.Join(text, " "), Confidence: confSum / float64(n), Box: box}) {
				return
			}
			i = j
		}

		for _, f := range loose {
			if !yield(Line{Text: f.Text, Confidence: f.Confidence}) {
				return
			}
		}
	}
}

// MergeAll collects the lazy merge into a slice.
func MergeAll(fragments []Fragment) []Line {
	var lines []Line
	for l := range MergeFragments(fragments) {
		lines = append(lines, l)
	}
	return lines
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
