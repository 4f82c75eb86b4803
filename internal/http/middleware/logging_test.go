package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	r := newTestRouter(RequestID())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	rid := w.Header().Get("X-Request-ID")
	if len(rid) != 36 {
		t.Fatalf("expected generated UUID request id, got %q", rid)
	}
}

func TestRequestID_PropagatesIncoming(t *testing.T) {
	r := newTestRouter(RequestID())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "client-chosen-id")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-chosen-id" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

func TestLogger_AttachesRequestScopedLogger(t *testing.T) {
	r := newTestRouter(RequestID(), Logger())
	var attached bool
	r.GET("/x", func(c *gin.Context) {
		attached = LoggerFrom(c) != nil
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if !attached {
		t.Fatalf("expected logger in context")
	}
}

func TestLoggerFrom_FallbackWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatalf("expected fallback logger, got nil")
	}
}

func TestRecovery_TurnsPanicInto500(t *testing.T) {
	r := newTestRouter(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("expected structured error body, got %s", w.Body.String())
	}
}

func TestRedactQuery(t *testing.T) {
	cases := map[string]string{
		"":                                   "",
		"username=alice":                     "username=alice",
		"password=hunter2":                   "password=***",
		"username=alice&password=hunter2":    "username=alice&password=***",
		"PASSWORD=hunter2&page=2":            "PASSWORD=***&page=2",
		"passwordless=1":                     "passwordless=1",
		"password=hunter2&password=hunter3":  "password=***&password=***",
		"flag&password=hunter2":              "flag&password=***",
	}
	for in, want := range cases {
		if got := redactQuery(in); got != want {
			t.Errorf("redactQuery(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Errorf("truncate should not touch short strings: %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Errorf("max <= 0 disables truncation: %q", got)
	}
}
