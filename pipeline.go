package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"guildtrack/pkg/capture"
	"guildtrack/pkg/ocr"
	"guildtrack/pkg/stats"
)

// statsStore is the persistence collaborator the pipeline writes through.
type statsStore interface {
	SaveMemberStats(p stats.Profile, engine, fileName string) (uint, error)
	LinkCapture(fileName string, statsID uint)
	MarkCaptureFailed(fileName, reason string)
}

// newPipeline composes recognition, extraction, validation and persistence
// into the function the capture queue runs for each item. Every returned
// error becomes the item's Failed reason; recognition-level problems are
// resolved inside the cascade and only an unusable record or a persistence
// failure surfaces here.
func newPipeline(casc *ocr.Cascade, store statsStore) capture.PipelineFunc {
	return func(ctx context.Context, imagePath string, meta capture.Meta) (stats.Profile, error) {
		fileName := filepath.Base(imagePath)

		res, err := casc.Recognize(ctx, imagePath)
		if err != nil {
			store.MarkCaptureFailed(fileName, err.Error())
			return stats.Profile{}, fmt.Errorf("recognition: %w", err)
		}

		var profile stats.Profile
		if len(res.Lines) > 0 {
			profile = stats.Extract(res.Lines)
		} else {
			profile = stats.ExtractText(res.Text, res.Confidence)
		}
		if profile.Confidence == 0 {
			profile.Confidence = res.Confidence
		}

		if ok, missing := stats.Validate(profile); !ok {
			store.MarkCaptureFailed(fileName, stats.RejectionReason(missing))
			return profile, fmt.Errorf("%w: missing %s", stats.ErrUnusable, strings.Join(missing, ", "))
		}

		statsID, err := store.SaveMemberStats(profile, res.Engine, fileName)
		if err != nil {
			store.MarkCaptureFailed(fileName, "persist: "+err.Error())
			return profile, fmt.Errorf("persist: %w", err)
		}
		store.LinkCapture(fileName, statsID)
		log.Printf("pipeline: %s accepted id=%s guild=%s engine=%s conf=%.1f", fileName, profile.ID(), profile.GuildName, res.Engine, profile.Confidence)
		return profile, nil
	}
}
