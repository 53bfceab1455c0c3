package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"guildtrack/models"
	"guildtrack/pkg/capture"
	"guildtrack/pkg/ocr"
	"guildtrack/pkg/stats"
)

// global flags (parsed in main)
var (
	verbose bool
	db      *gorm.DB
)

var extMime = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

// Main: scans a directory of profile-card screenshots, runs recognition and
// extraction on each, records MemberStats + Capture rows, optional watch mode.
func main() {
	dirFlag := flag.String("dir", "captures/batch", "directory to scan for screenshots")
	userID := flag.Uint("user-id", 0, "User ID to assign captures to (if omitted uses admin)")
	source := flag.String("source", "batch", "source label stored on each capture")
	dryRun := flag.Bool("dry-run", false, "Skip all DB writes; recognize and print what would be stored")
	watch := flag.Bool("watch", false, "Watch directory for new files after the initial scan")
	flag.BoolVar(&verbose, "verbose", false, "Verbose per-file logging")
	flag.Parse()

	casc := &ocr.Cascade{Secondary: ocr.NewTesseractEngine()}
	if p := ocr.NewPaddleEngineFromEnv(); p != nil {
		casc.Primary = p
		log.Printf("paddle engine enabled (timeout %s)", p.Timeout)
	}

	if *dryRun {
		files := listImageFiles(*dirFlag)
		log.Printf("Dry-run: %d candidate files in %s (no DB interaction)", len(files), *dirFlag)
		for _, f := range files {
			res, err := casc.Recognize(context.Background(), filepath.Join(*dirFlag, f))
			if err != nil {
				log.Printf("%s: recognize failed: %v", f, err)
				continue
			}
			p := stats.Extract(res.Lines)
			if ok, missing := stats.Validate(p); !ok {
				log.Printf("%s: REJECT %s", f, stats.RejectionReason(missing))
				continue
			}
			log.Printf("%s: %s guild=%s net_worth=%s conf=%.1f engine=%s", f, p.ID(), p.GuildName, p.NetWorth, p.Confidence, res.Engine)
		}
		return
	}

	db = mustInitDBFromEnv()
	user := resolveUser(*userID)
	log.Printf("Storing captures as user %s (id=%d)", user.Username, user.ID)

	pipe := buildPipeline(casc, user)

	// initial sequential scan; already-recorded files are skipped
	files := listImageFiles(*dirFlag)
	log.Printf("Scanning %d files in %s", len(files), *dirFlag)
	done := 0
	skipped := 0
	for _, f := range files {
		if alreadyRecorded(f) {
			skipped++
			continue
		}
		full := filepath.Join(*dirFlag, f)
		ensureCaptureRow(user, f, full, *source)
		if _, err := pipe(context.Background(), full, capture.Meta{SourceLabel: *source}); err != nil {
			log.Printf("%s: %v", f, err)
		} else {
			done++
		}
	}
	log.Printf("Scan finished: stored=%d skipped=%d", done, skipped)

	if *watch {
		q := capture.New(capture.PipelineFunc(func(ctx context.Context, imagePath string, meta capture.Meta) (stats.Profile, error) {
			ensureCaptureRow(user, filepath.Base(imagePath), imagePath, meta.SourceLabel)
			return pipe(ctx, imagePath, meta)
		}))
		if err := capture.WatchDirectory(context.Background(), *dirFlag, q, *source); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

// buildPipeline mirrors the server pipeline: recognize, extract, validate,
// persist, and record the outcome on the capture row.
func buildPipeline(casc *ocr.Cascade, user models.User) capture.PipelineFunc {
	return func(ctx context.Context, imagePath string, meta capture.Meta) (stats.Profile, error) {
		fileName := filepath.Base(imagePath)
		res, err := casc.Recognize(ctx, imagePath)
		if err != nil {
			markFailed(fileName, err.Error())
			return stats.Profile{}, err
		}
		var p stats.Profile
		if len(res.Lines) > 0 {
			p = stats.Extract(res.Lines)
		} else {
			p = stats.ExtractText(res.Text, res.Confidence)
		}
		if ok, missing := stats.Validate(p); !ok {
			reason := stats.RejectionReason(missing)
			markFailed(fileName, reason)
			return p, errors.New(reason)
		}
		rec := models.MemberStats{
			PlayerName: p.Name, PlayerTag: p.Tag, GuildName: p.GuildName,
			Level: p.Level, NetWorth: p.NetWorth, Prestige: p.Prestige, Invested: p.Invested,
			Mastered: p.Mastered, Helped: p.Helped, Ascensions: p.Ascensions,
			BountyTrophies: p.BountyTrophies, CollectionScore: p.CollectionScore,
			Confidence: p.Confidence, Engine: res.Engine, FileName: fileName,
		}
		if err := db.Create(&rec).Error; err != nil {
			markFailed(fileName, "persist: "+err.Error())
			return p, err
		}
		db.Model(&models.Capture{}).Where("file_name = ?", fileName).
			Updates(map[string]any{"member_stats_id": rec.ID, "failed": false, "failed_reason": ""})
		logV("stored %s -> %s guild=%s engine=%s", fileName, p.ID(), p.GuildName, res.Engine)
		return p, nil
	}
}

func ensureCaptureRow(user models.User, fileName, path, source string) {
	var existing models.Capture
	if err := db.Where("user_id = ? AND file_name = ?", user.ID, fileName).First(&existing).Error; err == nil {
		return
	}
	row := models.Capture{
		UserID:      user.ID,
		FileName:    fileName,
		StorePath:   path,
		ContentType: extMime[strings.ToLower(filepath.Ext(fileName))],
		SourceLabel: source,
	}
	if err := db.Create(&row).Error; err != nil {
		log.Printf("capture row for %s: %v", fileName, err)
	}
}

func alreadyRecorded(fileName string) bool {
	var cnt int64
	db.Model(&models.MemberStats{}).Where("file_name = ?", fileName).Count(&cnt)
	return cnt > 0
}

func markFailed(fileName, reason string) {
	if len(reason) > 255 {
		reason = reason[:255]
	}
	db.Model(&models.Capture{}).Where("file_name = ?", fileName).
		Updates(map[string]any{"failed": true, "failed_reason": reason})
}

// resolveUser finds the owning user either by explicit id or the admin user.
func resolveUser(id uint) models.User {
	var u models.User
	if id != 0 {
		if err := db.First(&u, id).Error; err != nil {
			log.Fatalf("failed to find user id %d: %v", id, err)
		}
		return u
	}
	if err := db.Where("username = ?", "admin").First(&u).Error; err != nil {
		log.Fatalf("no --user-id provided and admin user not found: %v", err)
	}
	return u
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := extMime[strings.ToLower(filepath.Ext(e.Name()))]; !ok {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}
