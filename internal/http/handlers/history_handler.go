// History HTTP handlers.
//
// This file exposes REST endpoints for the per-user translation history:
//   - GET    /history            (list, paginated, ETag support)
//   - GET    /history/search     (substring search)
//   - GET    /history/{id}       (single entry)
//   - DELETE /history/{id}       (delete one entry, owner-guarded)
//   - DELETE /history            (clear all for a user)
//
// Every endpoint takes the owning username as a query parameter; the
// translation flow records entries under the same identity.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-translator-backend/internal/domain"
	"github.com/tbourn/go-translator-backend/internal/repo"
	"github.com/tbourn/go-translator-backend/internal/services"
	"github.com/tbourn/go-translator-backend/internal/utils"
)

// HistoryService defines history retrieval and deletion operations consumed
// by HTTP handlers. Implementations should be safe for concurrent use and
// must honor the provided context for cancellation and timeouts.
type HistoryService interface {
	// ListPage returns a page of entries for username and the total count.
	ListPage(ctx context.Context, username string, page, pageSize int) ([]domain.HistoryEntry, int64, error)
	// Get fetches an entry by id regardless of owner.
	Get(ctx context.Context, id string) (*domain.HistoryEntry, error)
	// Search returns entries whose texts contain the term, newest first.
	Search(ctx context.Context, username, term string) ([]domain.HistoryEntry, error)
	// Count returns the current entry count for username.
	Count(ctx context.Context, username string) (int64, error)
	// Delete removes an entry iff it belongs to username.
	Delete(ctx context.Context, id, username string) (bool, error)
	// Clear removes every entry for username.
	Clear(ctx context.Context, username string) error
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListHistoryResponse wraps a page of history entries and pagination info.
type ListHistoryResponse struct {
	History    []domain.HistoryEntry `json:"history"`
	Pagination Pagination            `json:"pagination"`
}

// SearchHistoryResponse wraps search results with the match count.
type SearchHistoryResponse struct {
	History []domain.HistoryEntry `json:"history"`
	Count   int                   `json:"count"`
}

// requiredUsername extracts the username query parameter, failing the
// request with 400 when absent.
func requiredUsername(c *gin.Context) (string, bool) {
	u := strings.TrimSpace(c.Query("username"))
	if u == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username is required")
		return "", false
	}
	return u, true
}

// ListHistory godoc
// @ID          listHistory
// @Summary     List translation history (paginated)
// @Description Returns a page of the user's history, newest first. Supports weak ETag via If-None-Match.
// @Tags        History
// @Produce     json
// @Param       username       query   string  true  "Owning username"  example(alice)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"      minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"   minimum(1) default(20)
// @Success     200  {object} handlers.ListHistoryResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /history [get]
func (h *Handlers) ListHistory(c *gin.Context) {
	username, okUser := requiredUsername(c)
	if !okUser {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if db := h.historyDB(); db != nil {
		count, newest, err := repo.HistoryStats(ctx, db, username)
		if err == nil {
			etag := historyETag(username, count, newest)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.historySvc.ListPage(ctx, username, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListHistoryResponse{
		History: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// SearchHistory godoc
// @ID          searchHistory
// @Summary     Search translation history
// @Description Substring match (case-insensitive for ASCII) against original or translated text, newest first.
// @Tags        History
// @Produce     json
// @Param       username  query  string  true  "Owning username"  example(alice)
// @Param       q         query  string  true  "Search term"      example(bonjour)
// @Success     200  {object} handlers.SearchHistoryResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /history/search [get]
func (h *Handlers) SearchHistory(c *gin.Context) {
	username, okUser := requiredUsername(c)
	if !okUser {
		return
	}
	term := c.Query("q")
	if strings.TrimSpace(term) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "search term q is required")
		return
	}

	items, err := h.historySvc.Search(c.Request.Context(), username, term)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, SearchHistoryResponse{History: items, Count: len(items)})
}

// GetHistoryEntry godoc
// @ID          getHistoryEntry
// @Summary     Fetch one history entry
// @Tags        History
// @Produce     json
// @Param       id  path  string  true  "Entry ID (UUID)"  format(uuid)
// @Success     200  {object} domain.HistoryEntry
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Entry not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /history/{id} [get]
func (h *Handlers) GetHistoryEntry(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entry id must be a UUID")
		return
	}

	e, err := h.historySvc.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrEntryNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "history entry not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	default:
		ok(c, http.StatusOK, e)
	}
}

// DeleteHistoryEntry godoc
// @ID          deleteHistoryEntry
// @Summary     Delete one history entry
// @Description Deletes the entry only when it belongs to the given username.
// @Tags        History
// @Produce     json
// @Param       id        path   string  true  "Entry ID (UUID)"  format(uuid)
// @Param       username  query  string  true  "Owning username"  example(alice)
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Entry not found for this user"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /history/{id} [delete]
func (h *Handlers) DeleteHistoryEntry(c *gin.Context) {
	username, okUser := requiredUsername(c)
	if !okUser {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entry id must be a UUID")
		return
	}

	removed, err := h.historySvc.Delete(c.Request.Context(), id, username)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if !removed {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "history entry not found")
		return
	}
	noContent(c)
}

// ClearHistory godoc
// @ID          clearHistory
// @Summary     Clear a user's history
// @Description Removes every entry for the user; clearing an empty history succeeds.
// @Tags        History
// @Produce     json
// @Param       username  query  string  true  "Owning username"  example(alice)
// @Success     200  {object} map[string]string
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /history [delete]
func (h *Handlers) ClearHistory(c *gin.Context) {
	username, okUser := requiredUsername(c)
	if !okUser {
		return
	}
	if err := h.historySvc.Clear(c.Request.Context(), username); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "History cleared successfully"})
}

// historyETag derives a weak validator from the listing's row count and its
// newest timestamp. Nanosecond resolution, so an append that replaces an
// evicted row within the same second still changes the tag.
func historyETag(username string, count int64, newest *time.Time) string {
	var ts int64
	if newest != nil {
		ts = newest.UnixNano()
	}
	return fmt.Sprintf(`W/"history:%s:%d:%d"`, username, count, ts)
}

// historyDB exposes the concrete service's DB handle for the ETag pre-check;
// fakes in tests simply skip it.
func (h *Handlers) historyDB() *gorm.DB {
	if svc, okCast := h.historySvc.(*services.HistoryService); okCast {
		return svc.DB
	}
	return nil
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	pageSize = utils.ClampInt(pageSize, 1, maxPageSize)
	return
}
