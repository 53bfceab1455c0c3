package capture

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDirectory is the filesystem capture producer: it watches dir for
// newly written screenshots and enqueues each one once its size has settled
// (screenshot writers flush in chunks). Blocks until ctx is done.
func WatchDirectory(ctx context.Context, dir string, q *Queue, sourceLabel string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("watching %s (debounced) ...", dir)

	// simple debounce map of pending files
	pending := map[string]time.Time{}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create == fsnotify.Create || ev.Op&fsnotify.Write == fsnotify.Write {
				if isSupportedExt(ev.Name) {
					pending[ev.Name] = time.Now()
				}
			}
		case <-ticker.C:
			now := time.Now()
			for path, t := range pending {
				if now.Sub(t) > 300*time.Millisecond { // stable
					delete(pending, path)
					q.Enqueue(path, Meta{SourceLabel: sourceLabel, Region: "watch:" + filepath.Base(dir)})
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}

func isSupportedExt(name string) bool {
	// ignore recognizer temp renditions to avoid recursive processing
	if strings.Contains(name, ".ocr.") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return true
	}
	return false
}
