package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveSecurity(t *testing.T, opt SecurityOptions, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	r := newTestRouter(SecurityHeaders(opt))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	w := serveSecurity(t, SecurityOptions{}, nil)

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing nosniff")
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("missing frame deny")
	}
	if w.Header().Get("Referrer-Policy") != "no-referrer" {
		t.Errorf("missing referrer policy")
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Errorf("HSTS must be opt-in")
	}
	if w.Header().Get("Permissions-Policy") != "" {
		t.Errorf("policy headers must be opt-in")
	}
}

func TestSecurityHeaders_PolicyAndNoStore(t *testing.T) {
	w := serveSecurity(t, SecurityOptions{NoStore: true, EnablePolicy: true}, nil)

	if w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("missing no-store")
	}
	if w.Header().Get("Permissions-Policy") == "" {
		t.Errorf("missing permissions policy")
	}
}

func TestSecurityHeaders_HSTSOnlyOverHTTPS(t *testing.T) {
	opt := SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour}

	// Plain HTTP: no HSTS.
	w := serveSecurity(t, opt, nil)
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Errorf("HSTS must not be emitted for plain HTTP")
	}

	// Forwarded HTTPS: HSTS with the configured max-age.
	w = serveSecurity(t, opt, func(r *http.Request) {
		r.Header.Set("X-Forwarded-Proto", "https")
	})
	got := w.Header().Get("Strict-Transport-Security")
	if !strings.Contains(got, "max-age=3600") {
		t.Errorf("unexpected HSTS header: %q", got)
	}
}

func TestIsHTTPS(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTTPS(r) {
		t.Errorf("plain request misread as HTTPS")
	}
	r.Header.Set("X-Forwarded-Proto", "HTTPS")
	if !isHTTPS(r) {
		t.Errorf("forwarded proto not honored case-insensitively")
	}
}
