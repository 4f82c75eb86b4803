// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-translator-backend/internal/config"
	"github.com/tbourn/go-translator-backend/internal/domain"
	"github.com/tbourn/go-translator-backend/internal/http/handlers"
	"github.com/tbourn/go-translator-backend/internal/http/middleware"
	"github.com/tbourn/go-translator-backend/internal/repo"
	"github.com/tbourn/go-translator-backend/internal/services"
)

// accountRepoShim adapts the repository free functions to the
// services.AccountRepo interface expected by the AccountService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type accountRepoShim struct{}

// CreateAccount proxies repo.CreateAccount.
func (accountRepoShim) CreateAccount(ctx context.Context, db *gorm.DB, username, passwordHash, email, phone string) (*domain.Account, error) {
	return repo.CreateAccount(ctx, db, username, passwordHash, email, phone)
}

// GetAccount proxies repo.GetAccount.
func (accountRepoShim) GetAccount(ctx context.Context, db *gorm.DB, username string) (*domain.Account, error) {
	return repo.GetAccount(ctx, db, username)
}

// AccountExists proxies repo.AccountExists.
func (accountRepoShim) AccountExists(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	return repo.AccountExists(ctx, db, username)
}

// UpdateAccountContact proxies repo.UpdateAccountContact.
func (accountRepoShim) UpdateAccountContact(ctx context.Context, db *gorm.DB, username, email, phone string) error {
	return repo.UpdateAccountContact(ctx, db, username, email, phone)
}

// UpdateAccountPassword proxies repo.UpdateAccountPassword.
func (accountRepoShim) UpdateAccountPassword(ctx context.Context, db *gorm.DB, username, passwordHash string) error {
	return repo.UpdateAccountPassword(ctx, db, username, passwordHash)
}

// DeleteAccount proxies repo.DeleteAccount.
func (accountRepoShim) DeleteAccount(ctx context.Context, db *gorm.DB, username string) error {
	return repo.DeleteAccount(ctx, db, username)
}

// historyRepoShim adapts the repository free functions to the
// services.HistoryRepo interface expected by the HistoryService.
type historyRepoShim struct{}

// InsertHistory proxies repo.InsertHistory.
func (historyRepoShim) InsertHistory(ctx context.Context, db *gorm.DB, e *domain.HistoryEntry, max int) error {
	return repo.InsertHistory(ctx, db, e, max)
}

// ListHistory proxies repo.ListHistory.
func (historyRepoShim) ListHistory(ctx context.Context, db *gorm.DB, username string, limit int) ([]domain.HistoryEntry, error) {
	return repo.ListHistory(ctx, db, username, limit)
}

// ListHistoryPage proxies repo.ListHistoryPage (pagination support).
func (historyRepoShim) ListHistoryPage(ctx context.Context, db *gorm.DB, username string, offset, limit int) ([]domain.HistoryEntry, error) {
	return repo.ListHistoryPage(ctx, db, username, offset, limit)
}

// GetHistoryEntry proxies repo.GetHistoryEntry.
func (historyRepoShim) GetHistoryEntry(ctx context.Context, db *gorm.DB, id string) (*domain.HistoryEntry, error) {
	return repo.GetHistoryEntry(ctx, db, id)
}

// SearchHistory proxies repo.SearchHistory.
func (historyRepoShim) SearchHistory(ctx context.Context, db *gorm.DB, username, term string, limit int) ([]domain.HistoryEntry, error) {
	return repo.SearchHistory(ctx, db, username, term, limit)
}

// CountHistory proxies repo.CountHistory (pagination support).
func (historyRepoShim) CountHistory(ctx context.Context, db *gorm.DB, username string) (int64, error) {
	return repo.CountHistory(ctx, db, username)
}

// DeleteHistoryEntry proxies repo.DeleteHistoryEntry.
func (historyRepoShim) DeleteHistoryEntry(ctx context.Context, db *gorm.DB, id, username string) (bool, error) {
	return repo.DeleteHistoryEntry(ctx, db, id, username)
}

// ClearHistory proxies repo.ClearHistory.
func (historyRepoShim) ClearHistory(ctx context.Context, db *gorm.DB, username string) error {
	return repo.ClearHistory(ctx, db, username)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting, CORS
// and security headers, health and metrics endpoints, and then mounts the
// versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with query redaction
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip compression
//  8. Rate limiter (per IP)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, translator services.Translator, speechSvc handlers.SpeechService, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging (password query params are masked)
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compress larger payloads (history pages, audio)
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 8) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/engines
	accountSvc := services.NewAccountService(db, accountRepoShim{})
	historySvc := services.NewHistoryService(db, historyRepoShim{}, cfg.HistoryMax)
	txSvc := &services.TranslationService{
		DB:            db,
		Translator:    translator,
		History:       historySvc,
		DefaultTarget: cfg.DefaultTargetLang,
		MaxTextRunes:  cfg.MaxTextRunes,
		ReplayTTL:     cfg.ReplayTTL,
	}

	h := handlers.New(accountSvc, historySvc, txSvc, speechSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Accounts
		api.POST("/auth/signup", h.Signup)
		api.POST("/auth/login", h.Login)
		api.GET("/auth/users/:username", h.GetUser)
		api.PUT("/auth/users/:username", h.UpdateUser)
		api.PUT("/auth/users/:username/password", h.UpdatePassword)
		api.DELETE("/auth/users/:username", h.DeleteUser)

		// Translation and speech
		api.POST("/translate", h.Translate)
		api.POST("/speech", h.Speak)

		// History
		api.GET("/history", h.ListHistory)
		api.GET("/history/search", h.SearchHistory)
		api.GET("/history/:id", h.GetHistoryEntry)
		api.DELETE("/history/:id", h.DeleteHistoryEntry)
		api.DELETE("/history", h.ClearHistory)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
