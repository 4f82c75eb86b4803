package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiter_AllowsWithinBurstThen429(t *testing.T) {
	rl := NewRateLimiter(0, 2, KeyByClientIP()) // no refill, burst of 2

	r := newTestRouter(rl.Handler())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestRateLimiter_BucketsAreIndependent(t *testing.T) {
	calls := 0
	keyed := func(c *gin.Context) string {
		calls++
		if calls > 1 {
			return "second"
		}
		return "first"
	}

	rl := NewRateLimiter(0, 1, keyed)
	r := newTestRouter(rl.Handler())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d should use its own bucket, got %d", i, w.Code)
		}
	}
}

func TestRateLimiter_CoercesBurst(t *testing.T) {
	rl := NewRateLimiter(1, 0, KeyByClientIP())
	if rl.burst != 1 {
		t.Fatalf("expected burst coerced to 1, got %d", rl.burst)
	}
}

func TestRateLimiter_GCEvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, KeyByClientIP())
	rl.ttl = time.Millisecond
	rl.gcEveryN = 2

	rl.getVisitor("stale")
	time.Sleep(5 * time.Millisecond)
	rl.getVisitor("fresh") // second lookup triggers GC

	rl.mu.Lock()
	_, staleAlive := rl.visitors["stale"]
	_, freshAlive := rl.visitors["fresh"]
	rl.mu.Unlock()

	if staleAlive {
		t.Fatalf("expected stale bucket to be evicted")
	}
	if !freshAlive {
		t.Fatalf("fresh bucket should survive GC")
	}
}

func TestKeyByClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.1.2.3:4567"

	if got := KeyByClientIP()(c); got != "ip:10.1.2.3" {
		t.Fatalf("unexpected key: %q", got)
	}
}
