package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-translator-backend/internal/config"
	"github.com/tbourn/go-translator-backend/internal/repo"
)

// echoTranslator is a deterministic engine stand-in.
type echoTranslator struct{}

func (echoTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	return "[" + target + "] " + text, nil
}

// cannedSpeech returns fixed audio.
type cannedSpeech struct{}

func (cannedSpeech) Synthesize(ctx context.Context, text, languageCode string) (string, error) {
	return "YXVkaW8=", nil
}

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), fmt.Sprintf("router_test_%d.db", time.Now().UnixNano()))
	db, err := repo.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	cfg := config.Config{
		APIBasePath:       "/api/v1",
		HistoryMax:        3,
		MaxTextRunes:      100,
		DefaultTargetLang: "darija",
		ReplayTTL:         time.Hour,
		RateRPS:           1000,
		RateBurst:         1000,
	}

	r := gin.New()
	RegisterRoutes(r, db, echoTranslator{}, cannedSpeech{}, cfg)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	r := newTestServer(t)

	w := do(t, r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", w.Code)
	}

	w = do(t, r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", w.Code)
	}
}

func TestRouter_FallbackEnvelopes(t *testing.T) {
	r := newTestServer(t)

	w := do(t, r, http.MethodGet, "/definitely/not/here", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not_found") {
		t.Fatalf("expected structured 404 body, got %s", w.Body.String())
	}

	w = do(t, r, http.MethodPatch, "/api/v1/translate", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestRouter_RequestIDAndCORSHeaders(t *testing.T) {
	r := newTestServer(t)

	w := do(t, r, http.MethodGet, "/health", "", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected permissive CORS by default, got %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected security headers")
	}
}

// TestRouter_FullAccountAndTranslationFlow drives the API end to end:
// signup, login, translate (recorded), history reads, entry delete,
// account delete with cascading history removal.
func TestRouter_FullAccountAndTranslationFlow(t *testing.T) {
	r := newTestServer(t)

	// Signup
	w := do(t, r, http.MethodPost, "/api/v1/auth/signup",
		`{"username":"alice","password":"s3cret","email":"a@x","phone":"1"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// Duplicate signup conflicts.
	w = do(t, r, http.MethodPost, "/api/v1/auth/signup",
		`{"username":"alice","password":"other","email":"b@x","phone":"2"}`, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d", w.Code)
	}

	// Login
	w = do(t, r, http.MethodPost, "/api/v1/auth/login",
		`{"username":"alice","password":"s3cret"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Wrong password
	w = do(t, r, http.MethodPost, "/api/v1/auth/login",
		`{"username":"alice","password":"wrong"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", w.Code)
	}

	// Translate four times; cap of 3 leaves the three newest.
	var lastEntry string
	for i := 1; i <= 4; i++ {
		w = do(t, r, http.MethodPost, "/api/v1/translate",
			fmt.Sprintf(`{"text":"msg-%d","username":"alice"}`, i), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("translate %d: expected 200, got %d: %s", i, w.Code, w.Body.String())
		}
		var res struct {
			HistoryID string `json:"history_id"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
			t.Fatalf("decode translate %d: %v", i, err)
		}
		lastEntry = res.HistoryID
	}

	// History holds 3 entries, newest first.
	w = do(t, r, http.MethodGet, "/api/v1/history?username=alice", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var page struct {
		History []struct {
			ID           string `json:"id"`
			OriginalText string `json:"original_text"`
		} `json:"history"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if page.Pagination.Total != 3 || len(page.History) != 3 {
		t.Fatalf("expected capped history of 3, got %+v", page)
	}
	if page.History[0].OriginalText != "msg-4" || page.History[2].OriginalText != "msg-2" {
		t.Fatalf("unexpected order/eviction: %+v", page.History)
	}

	// Conditional re-read via ETag.
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag on history listing")
	}
	w = do(t, r, http.MethodGet, "/api/v1/history?username=alice", "", map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusNotModified {
		t.Fatalf("expected 304 for matching ETag, got %d", w.Code)
	}

	// Search finds one entry.
	w = do(t, r, http.MethodGet, "/api/v1/history/search?username=alice&q=MSG-3", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "msg-3") {
		t.Fatalf("search: got %d: %s", w.Code, w.Body.String())
	}

	// Replay: same Idempotency-Key returns the recorded entry without a new row.
	w = do(t, r, http.MethodPost, "/api/v1/translate",
		`{"text":"retry me","username":"alice"}`, map[string]string{"Idempotency-Key": "k1"})
	if w.Code != http.StatusOK {
		t.Fatalf("translate with key: got %d", w.Code)
	}
	w = do(t, r, http.MethodPost, "/api/v1/translate",
		`{"text":"retry me","username":"alice"}`, map[string]string{"Idempotency-Key": "k1"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"replayed":true`) {
		t.Fatalf("replay: got %d: %s", w.Code, w.Body.String())
	}

	// Delete one entry; wrong owner first.
	w = do(t, r, http.MethodDelete, "/api/v1/history/"+lastEntry+"?username=mallory", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("cross-user delete: expected 404, got %d", w.Code)
	}
	w = do(t, r, http.MethodDelete, "/api/v1/history/"+lastEntry+"?username=alice", "", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("owner delete: expected 204, got %d", w.Code)
	}

	// Delete the account (password re-checked); history is gone with it.
	w = do(t, r, http.MethodDelete, "/api/v1/auth/users/alice?password=s3cret", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("account delete: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = do(t, r, http.MethodGet, "/api/v1/auth/users/alice", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("profile after delete: expected 404, got %d", w.Code)
	}
	w = do(t, r, http.MethodGet, "/api/v1/history?username=alice", "", nil)
	var empty struct {
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &empty); err != nil {
		t.Fatalf("decode post-delete history: %v", err)
	}
	if empty.Pagination.Total != 0 {
		t.Fatalf("expected empty history after account delete, got %d", empty.Pagination.Total)
	}
}

func TestRouter_AnonymousTranslateAndSpeech(t *testing.T) {
	r := newTestServer(t)

	w := do(t, r, http.MethodPost, "/api/v1/translate", `{"text":"hello"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous translate: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "history_id") {
		t.Fatalf("anonymous result should not carry a history id: %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"target_lang":"darija"`) {
		t.Fatalf("expected default target, got %s", w.Body.String())
	}

	w = do(t, r, http.MethodPost, "/api/v1/speech", `{"text":"hola amigo"}`, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "YXVkaW8=") {
		t.Fatalf("speech: got %d: %s", w.Code, w.Body.String())
	}
}
