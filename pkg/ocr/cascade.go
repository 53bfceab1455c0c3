package ocr

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"strings"

	"github.com/disintegration/imaging"
)

// acceptConfidence is the score above which a recognition result is taken
// without consulting further engines or variants.
const acceptConfidence = 60.0

// Result is the outcome of one recognition attempt. A failed attempt is a
// zero-confidence Result with Err set, never a raised error, so the cascade
// can keep comparing engines.
type Result struct {
	Text       string
	Confidence float64
	Lines      []Line
	Fragments  []Fragment // word-level output, set by engines that report it
	Engine     string
	Device     string // "gpu" or "cpu" when the engine reports it
	Err        string
}

// Engine recognizes text in an image file.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (Result, error)
}

// Cascade runs the two-engine recognition strategy: a primary out-of-process
// recognizer trusted when confident, and a secondary in-process recognizer
// tried on the plain and contrast-enhanced image otherwise. Engines are
// injected so the selection logic is testable without live recognizers.
type Cascade struct {
	Primary   Engine // optional; nil degrades to secondary-only
	Secondary Engine

	// SkipMask disables the title-region mask; tests use synthetic images
	// with no badge artwork to hide.
	SkipMask bool
}

// Recognize masks the title/badge region once, then drives both engines over
// the identical masked image and returns the higher-confidence result,
// tagged with the engine that produced it. Primary-engine unavailability is
// not fatal; it degrades to secondary-only.
func (c *Cascade) Recognize(ctx context.Context, imagePath string) (Result, error) {
	img, err := imaging.Open(imagePath)
	if err != nil {
		return Result{}, fmt.Errorf("open capture: %w", err)
	}
	masked := img
	if !c.SkipMask {
		masked = MaskTitleRegion(img)
	}
	maskedPath, cleanup, err := saveTemp(masked, "ocr-mask-*.png")
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	var primary Result
	havePrimary := false
	if c.Primary != nil {
		primary = c.attempt(ctx, c.Primary, maskedPath)
		havePrimary = true
		if primary.Err == "" && primary.Confidence > acceptConfidence {
			return primary, nil
		}
	}

	best := c.attempt(ctx, c.Secondary, maskedPath)
	if best.Confidence < acceptConfidence {
		enhancedPath, cleanup2, err := saveTemp(EnhanceVariant(masked), "ocr-enh-*.png")
		if err == nil {
			retry := c.attempt(ctx, c.Secondary, enhancedPath)
			cleanup2()
			if retry.Confidence > best.Confidence {
				best = retry
			}
		} else {
			log.Printf("cascade: enhanced variant skipped: %v", err)
		}
	}

	if havePrimary && primary.Confidence > best.Confidence {
		return primary, nil
	}
	return best, nil
}

// attempt runs one engine and flattens every failure mode into a
// zero-confidence Result. Engines that return word-level fragments get them
// merged into reading-order lines here.
func (c *Cascade) attempt(ctx context.Context, eng Engine, imagePath string) Result {
	res, err := eng.Recognize(ctx, imagePath)
	res.Engine = eng.Name()
	if err != nil {
		log.Printf("cascade: engine %s failed: %v", eng.Name(), err)
		return Result{Engine: eng.Name(), Err: err.Error()}
	}
	if res.Err != "" {
		res.Confidence = 0
		return res
	}
	if len(res.Lines) == 0 && len(res.Fragments) > 0 {
		res.Lines = MergeAll(res.Fragments)
	}
	if res.Text == "" {
		parts := make([]string, 0, len(res.Lines))
		for _, l := range res.Lines {
			parts = append(parts, l.Text)
		}
		res.Text = strings.Join(parts, "\n")
	}
	log.Printf("cascade: engine=%s conf=%.1f lines=%d snippet=%q", eng.Name(), res.Confidence, len(res.Lines), snippet(normalizeText(res.Text), 120))
	return res
}

// saveTemp writes an image to a temp PNG and returns its path plus a cleanup.
func saveTemp(img image.Image, pattern string) (string, func(), error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, fmt.Errorf("temp image: %w", err)
	}
	path := f.Name()
	_ = f.Close()
	if err := imaging.Save(img, path); err != nil {
		_ = os.Remove(path)
		return "", nil, fmt.Errorf("save temp image: %w", err)
	}
	return path, func() { _ = os.Remove(path) }, nil
}
