package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"guildtrack/pkg/capture"
	"guildtrack/pkg/ocr"

	"github.com/gin-gonic/gin"
)

var jwtSecret []byte // loaded from env JWT_SECRET (fallback to dev default)

func main() {
	// Auto-load ./.env if present (no external dependency) before reading vars
	loadDotEnv()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)

	// Support a lightweight migrate command: `./guildtrack migrate`
	// It runs AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration and seeding completed")
		return
	}

	initDB()

	casc := newCascadeFromEnv()
	q := capture.New(newPipeline(casc, &gormStore{db: db}))

	if dir := os.Getenv("WATCH_DIR"); dir != "" {
		go func() {
			if err := capture.WatchDirectory(context.Background(), dir, q, "watch"); err != nil {
				log.Printf("watcher stopped: %v", err)
			}
		}()
	}

	r := gin.Default()

	setupRoutes(r, q)

	r.Run(":8081")
}

// newCascadeFromEnv wires both recognition engines. Paddle is optional (needs
// PADDLE_SCRIPT); Tesseract is always present as the fallback.
func newCascadeFromEnv() *ocr.Cascade {
	casc := &ocr.Cascade{Secondary: ocr.NewTesseractEngine()}
	if p := ocr.NewPaddleEngineFromEnv(); p != nil {
		casc.Primary = p
		log.Printf("paddle engine enabled: %s %s (timeout %s)", p.Python, p.Script, p.Timeout)
	} else {
		log.Println("PADDLE_SCRIPT not set; recognition runs tesseract-only")
	}
	return casc
}

// loadDotEnv loads key=value pairs from a local .env file into the environment
// without overwriting variables that are already set. Lines starting with # are ignored.
func loadDotEnv() {
	path := ".env"
	if _, err := os.Stat(path); err != nil {
		return // no .env file
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.TrimSpace(line[eq+1:])
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
