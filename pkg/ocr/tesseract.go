package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine is the in-process fallback recognizer. It reports
// textline-level results with per-line confidences so the cascade can
// compare it against the primary engine on equal terms.
type TesseractEngine struct {
	Lang string
}

func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{Lang: "eng"}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize runs Tesseract over one image file. The context is accepted for
// interface symmetry; the cgo call itself is not interruptible.
func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	client := gosseract.NewClient()
	defer client.Close()
	lang := e.Lang
	if lang == "" {
		lang = "eng"
	}
	_ = client.SetLanguage(lang)
	// Game UI text is sparse and not dictionary English; disabling the word
	// lists keeps Tesseract from "correcting" player names.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")
	_ = client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT)
	if err := client.SetImage(imagePath); err != nil {
		return Result{}, fmt.Errorf("tesseract set image: %w", err)
	}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return Result{}, fmt.Errorf("tesseract boxes: %w", err)
	}

	var (
		lines   []Line
		texts   []string
		confSum float64
	)
	for _, b := range boxes {
		text := normalizeText(b.Word)
		if text == "" {
			continue
		}
		box := []Point{
			{float64(b.Box.Min.X), float64(b.Box.Min.Y)},
			{float64(b.Box.Max.X), float64(b.Box.Min.Y)},
			{float64(b.Box.Max.X), float64(b.Box.Max.Y)},
			{float64(b.Box.Min.X), float64(b.Box.Max.Y)},
		}
		lines = append(lines, Line{Text: text, Confidence: b.Confidence, Box: box})
		texts = append(texts, text)
		confSum += b.Confidence
	}
	conf := 0.0
	if len(lines) > 0 {
		conf = confSum / float64(len(lines))
	}
	return Result{
		Text:       strings.Join(texts, "\n"),
		Confidence: conf,
		Lines:      lines,
	}, nil
}
