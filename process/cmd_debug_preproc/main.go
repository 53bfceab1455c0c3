package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"guildtrack/pkg/ocr"

	"github.com/disintegration/imaging"
)

// Writes the masked and contrast-enhanced renditions of a capture next to
// /tmp and runs the fallback recognizer on each, so preprocessing changes can
// be eyeballed against real screenshots.
func main() {
	f := flag.String("file", "", "screenshot file")
	flag.Parse()
	if *f == "" {
		log.Fatalf("-file required")
	}
	img, err := imaging.Open(*f)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	base := strings.TrimSuffix(filepath.Base(*f), filepath.Ext(*f))
	masked := ocr.MaskTitleRegion(img)
	enhanced := ocr.EnhanceVariant(masked)

	maskedPath := "/tmp/" + base + ".ocr.masked.png"
	enhancedPath := "/tmp/" + base + ".ocr.enhanced.png"
	if err := imaging.Save(masked, maskedPath); err != nil {
		log.Fatalf("save masked: %v", err)
	}
	if err := imaging.Save(enhanced, enhancedPath); err != nil {
		log.Fatalf("save enhanced: %v", err)
	}

	eng := ocr.NewTesseractEngine()
	for _, p := range []string{maskedPath, enhancedPath} {
		res, err := eng.Recognize(context.Background(), p)
		if err != nil {
			log.Printf("%s: %v", p, err)
			continue
		}
		fmt.Printf("%s conf=%.1f lines=%d\n", p, res.Confidence, len(res.Lines))
	}
}
