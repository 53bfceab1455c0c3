package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"guildtrack/pkg/capture"
	"guildtrack/pkg/stats"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) (*gin.Engine, *capture.Queue) {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("integration-test-secret")
	tmp := t.TempDir()
	_ = os.Setenv("CAPTURE_BASE", tmp)
	initDB()

	// canned pipeline: persists a fixed profile so the read endpoints have
	// data without live recognizers
	store := &gormStore{db: db}
	q := capture.New(capture.PipelineFunc(func(ctx context.Context, imagePath string, meta capture.Meta) (stats.Profile, error) {
		p := stats.Profile{Name: "ItUser", Tag: "777", GuildName: "ItGuild", NetWorth: "1,234,567", Prestige: "890,123", Confidence: 88}
		id, err := store.SaveMemberStats(p, "test", "it.png")
		if err != nil {
			return p, err
		}
		store.LinkCapture("it.png", id)
		return p, nil
	}))
	r := gin.Default()
	setupRoutes(r, q)
	return r, q
}

func TestFullFlow(t *testing.T) {
	r, q := setupTestServer(t)

	// 1. Register user
	regBody, _ := json.Marshal(map[string]string{"username": "ituser1", "password": "pass123"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 2. Login
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}
	refresh, _ := loginResp["refresh_token"].(string)
	if refresh == "" {
		t.Fatalf("empty refresh token in login response")
	}

	// 3. Me
	resp = performRequest(r, http.MethodGet, "/me", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("me failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 4. Upload capture (multipart)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "it.png")
	_, _ = fw.Write([]byte("not-really-a-png"))
	_ = mw.WriteField("source", "it")
	_ = mw.Close()
	resp = performRequest(r, http.MethodPost, "/captures", &buf, token, mw.FormDataContentType())
	if resp.Code != 200 {
		t.Fatalf("upload failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var upResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &upResp)
	if upResp["queue_id"] == "" || upResp["queue_id"] == nil {
		t.Fatalf("missing queue id in upload response: %+v", upResp)
	}

	// 5. Queue drains
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		s := q.Snapshot()
		if s.QueueLength == 0 && !s.IsProcessing {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	// 6. Members listing sees the persisted record
	resp = performRequest(r, http.MethodGet, "/members?guild=ItGuild", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("members failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte("ItUser")) {
		t.Fatalf("expected persisted member in listing: %s", resp.Body.String())
	}

	// 7. Guild summary
	resp = performRequest(r, http.MethodGet, "/members/summary?guild=ItGuild", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("summary failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var sum map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &sum)
	if sum["net_worth"] != "1,234,567" {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	// 8. Refresh token rotation
	refBody, _ := json.Marshal(map[string]string{"refresh_token": refresh})
	resp = performRequest(r, http.MethodPost, "/refresh", bytes.NewBuffer(refBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("refresh failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	// the old token is revoked after rotation
	resp = performRequest(r, http.MethodPost, "/refresh", bytes.NewBuffer(refBody), "", "application/json")
	if resp.Code != 401 {
		t.Fatalf("expected rotated-out token to be rejected, got %d", resp.Code)
	}
}
