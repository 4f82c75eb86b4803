// Package services – HistoryService
//
// This file implements the HistoryService, which owns the bounded, per-user
// translation history. Every append runs insert and cap enforcement in one
// transaction, so the "at most Max entries per user" invariant holds even
// under concurrent writers for the same username. Reads are always
// newest-first.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-translator-backend/internal/domain"
)

// DefaultMaxEntries is the per-user history cap applied when none is configured.
const DefaultMaxEntries = 50

// HistoryRepo defines the repository contract required by HistoryService.
type HistoryRepo interface {
	// InsertHistory inserts the entry and trims the owner to max rows atomically.
	InsertHistory(ctx context.Context, db *gorm.DB, e *domain.HistoryEntry, max int) error

	// ListHistory returns up to limit entries for username, newest first.
	ListHistory(ctx context.Context, db *gorm.DB, username string, limit int) ([]domain.HistoryEntry, error)

	// ListHistoryPage returns a page of entries, newest first.
	ListHistoryPage(ctx context.Context, db *gorm.DB, username string, offset, limit int) ([]domain.HistoryEntry, error)

	// GetHistoryEntry fetches an entry by id regardless of owner.
	GetHistoryEntry(ctx context.Context, db *gorm.DB, id string) (*domain.HistoryEntry, error)

	// SearchHistory returns entries matching term, newest first.
	SearchHistory(ctx context.Context, db *gorm.DB, username, term string, limit int) ([]domain.HistoryEntry, error)

	// CountHistory returns the current entry count for username.
	CountHistory(ctx context.Context, db *gorm.DB, username string) (int64, error)

	// DeleteHistoryEntry removes an entry iff it belongs to username.
	DeleteHistoryEntry(ctx context.Context, db *gorm.DB, id, username string) (bool, error)

	// ClearHistory removes every entry owned by username.
	ClearHistory(ctx context.Context, db *gorm.DB, username string) error
}

// HistoryService provides append, retrieval, search, and deletion over the
// per-user translation history. It is safe for concurrent use.
type HistoryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the history repository used by this service.
	Repo HistoryRepo
	// Max caps retained entries per user; oldest rows are evicted beyond it.
	Max int
}

// NewHistoryService constructs a HistoryService with the given cap.
// A max <= 0 falls back to DefaultMaxEntries.
func NewHistoryService(db *gorm.DB, r HistoryRepo, max int) *HistoryService {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &HistoryService{DB: db, Repo: r, Max: max}
}

// Append records entry under username, evicting the oldest rows beyond the
// cap in the same operation. A missing ID is filled with a fresh UUID and a
// zero CreatedAt with the current UTC time.
func (s *HistoryService) Append(ctx context.Context, username string, e *domain.HistoryEntry) error {
	e.Username = username
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := s.Repo.InsertHistory(ctx, s.DB, e, s.Max); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// List returns up to Max entries for username, newest first. A user without
// history yields an empty slice, not an error.
func (s *HistoryService) List(ctx context.Context, username string) ([]domain.HistoryEntry, error) {
	items, err := s.Repo.ListHistory(ctx, s.DB, username, s.Max)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if items == nil {
		items = []domain.HistoryEntry{}
	}
	return items, nil
}

// ListPage returns a page of entries for username plus the total count.
// Invalid page/pageSize values are clamped to defaults.
func (s *HistoryService) ListPage(ctx context.Context, username string, page, pageSize int) ([]domain.HistoryEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > s.Max {
		pageSize = s.Max
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountHistory(ctx, s.DB, username)
	if err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}
	if total == 0 {
		return []domain.HistoryEntry{}, 0, nil
	}

	items, err := s.Repo.ListHistoryPage(ctx, s.DB, username, offset, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	return items, total, nil
}

// Get fetches an entry by id regardless of owner, or ErrEntryNotFound.
func (s *HistoryService) Get(ctx context.Context, id string) (*domain.HistoryEntry, error) {
	e, err := s.Repo.GetHistoryEntry(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("get history entry: %w", err)
	}
	return e, nil
}

// Search returns entries whose original or translated text contains term,
// newest first, capped like List. Matching is case-insensitive for ASCII
// (SQLite LIKE semantics). An empty term matches everything.
func (s *HistoryService) Search(ctx context.Context, username, term string) ([]domain.HistoryEntry, error) {
	items, err := s.Repo.SearchHistory(ctx, s.DB, username, term, s.Max)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	if items == nil {
		items = []domain.HistoryEntry{}
	}
	return items, nil
}

// Count returns the current entry count for username.
func (s *HistoryService) Count(ctx context.Context, username string) (int64, error) {
	n, err := s.Repo.CountHistory(ctx, s.DB, username)
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

// Delete removes the entry with id iff it belongs to username, reporting
// whether a row was removed.
func (s *HistoryService) Delete(ctx context.Context, id, username string) (bool, error) {
	removed, err := s.Repo.DeleteHistoryEntry(ctx, s.DB, id, username)
	if err != nil {
		return false, fmt.Errorf("delete history entry: %w", err)
	}
	return removed, nil
}

// Clear removes every entry for username; clearing an empty history is a no-op.
func (s *HistoryService) Clear(ctx context.Context, username string) error {
	if err := s.Repo.ClearHistory(ctx, s.DB, username); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
