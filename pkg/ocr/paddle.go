package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// defaultPaddleTimeout bounds the out-of-process recognizer call. The
// subprocess occasionally hangs on model download or GPU init; without a
// deadline a single bad capture would stall the whole queue.
const defaultPaddleTimeout = 30 * time.Second

// PaddleEngine invokes the PaddleOCR wrapper script as a subprocess and
// parses its single-line JSON response from stdout. Every failure mode
// (spawn failure, timeout, non-zero exit, malformed JSON) is reported as a
// zero-confidence Result with Err set rather than an error, so the cascade
// can degrade to the secondary engine.
type PaddleEngine struct {
	Python  string
	Script  string
	Timeout time.Duration
}

// NewPaddleEngineFromEnv builds a PaddleEngine from PADDLE_PYTHON,
// PADDLE_SCRIPT and PADDLE_TIMEOUT_SEC. Returns nil when no script is
// configured, which the cascade treats as secondary-only operation.
func NewPaddleEngineFromEnv() *PaddleEngine {
	script := os.Getenv("PADDLE_SCRIPT")
	if script == "" {
		return nil
	}
	python := os.Getenv("PADDLE_PYTHON")
	if python == "" {
		python = "python3"
	}
	timeout := defaultPaddleTimeout
	if v := os.Getenv("PADDLE_TIMEOUT_SEC"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			timeout = time.Duration(sec) * time.Second
		}
	}
	return &PaddleEngine{Python: python, Script: script, Timeout: timeout}
}

func (e *PaddleEngine) Name() string { return "paddle" }

// paddlePayload mirrors the wrapper script's JSON output.
type paddlePayload struct {
	Success    bool    `json:"success"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Lines      []struct {
		Text       string      `json:"text"`
		Confidence float64     `json:"confidence"`
		BBox       [][]float64 `json:"bbox"`
	} `json:"lines"`
	Device string `json:"device"`
	Error  string `json:"error"`
}

// Recognize runs the wrapper script against one image file.
func (e *PaddleEngine) Recognize(ctx context.Context, imagePath string) (Result, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = defaultPaddleTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.Python, e.Script, imagePath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	// The script prints a JSON object on stdout even when it exits non-zero,
	// so try to parse before deciding the attempt failed.
	var payload paddlePayload
	raw := bytes.TrimSpace(stdout.Bytes())
	if len(raw) == 0 || json.Unmarshal(lastJSONLine(raw), &payload) != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Result{Err: fmt.Sprintf("paddle timed out after %s", timeout)}, nil
		}
		if runErr != nil {
			return Result{Err: fmt.Sprintf("paddle spawn: %v: %s", runErr, snippet(stderr.String(), 160))}, nil
		}
		return Result{Err: fmt.Sprintf("paddle malformed output: %s", snippet(string(raw), 160))}, nil
	}
	if !payload.Success {
		msg := payload.Error
		if msg == "" {
			msg = "paddle reported failure"
		}
		return Result{Err: msg, Device: payload.Device}, nil
	}

	frags := make([]Fragment, 0, len(payload.Lines))
	for _, l := range payload.Lines {
		box := make([]Point, 0, len(l.BBox))
		for _, p := range l.BBox {
			if len(p) >= 2 {
				box = append(box, Point{X: p[0], Y: p[1]})
			}
		}
		frags = append(frags, Fragment{Text: l.Text, Confidence: l.Confidence, Box: box})
	}
	return Result{
		Text:       payload.Text,
		Confidence: payload.Confidence,
		Fragments:  frags,
		Device:     payload.Device,
	}, nil
}

// lastJSONLine returns the last non-empty line of the output. The script is
// supposed to keep stdout clean, but stray library prints still slip through
// ahead of the final JSON object.
func lastJSONLine(raw []byte) []byte {
	lines := bytes.Split(raw, []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if l := bytes.TrimSpace(lines[i]); len(l) > 0 && l[0] == '{' {
			return l
		}
	}
	return raw
}
