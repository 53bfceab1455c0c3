package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"guildtrack/pkg/ocr"
	"guildtrack/pkg/stats"
)

func main() {
	f := flag.String("file", "", "screenshot file to recognize")
	skipMask := flag.Bool("skip-mask", false, "do not mask the title/badge region")
	flag.Parse()
	if *f == "" {
		log.Fatalf("-file required")
	}
	casc := &ocr.Cascade{Secondary: ocr.NewTesseractEngine(), SkipMask: *skipMask}
	if p := ocr.NewPaddleEngineFromEnv(); p != nil {
		casc.Primary = p
	}
	res, err := casc.Recognize(context.Background(), *f)
	if err != nil {
		log.Fatalf("recognize: %v", err)
	}
	var profile stats.Profile
	if len(res.Lines) > 0 {
		profile = stats.Extract(res.Lines)
	} else {
		profile = stats.ExtractText(res.Text, res.Confidence)
	}
	ok, missing := stats.Validate(profile)

	out := map[string]any{
		"engine":     res.Engine,
		"device":     res.Device,
		"confidence": res.Confidence,
		"lines":      res.Lines,
		"profile":    profile,
		"accepted":   ok,
	}
	if !ok {
		out["rejection"] = stats.RejectionReason(missing)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
