// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// HistoryEntry model, including the bounded-retention insert.
//
// Ordering: history is always read newest-first. Rows are ordered by
// created_at descending with the SQLite rowid as tie-breaker, so entries
// sharing a timestamp resolve by insertion order (latest insert wins).
package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-translator-backend/internal/domain"
)

// newestFirst is the canonical ordering for history reads. rowid breaks
// timestamp ties by insertion order.
const newestFirst = "created_at DESC, rowid DESC"

// InsertHistory inserts the entry and trims the owner's history down to max
// rows inside a single transaction. Readers never observe more than max rows
// for a user once InsertHistory returns; the oldest rows are evicted first.
// A max <= 0 disables trimming.
func InsertHistory(ctx context.Context, db *gorm.DB, e *domain.HistoryEntry, max int) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(e).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		if max <= 0 {
			return nil
		}
		return tx.Exec(`
			DELETE FROM translation_history
			WHERE username = ? AND id NOT IN (
				SELECT id FROM translation_history
				WHERE username = ?
				ORDER BY created_at DESC, rowid DESC
				LIMIT ?
			)`, e.Username, e.Username, max).Error
	})
}

// ListHistory returns up to limit entries for username, newest first.
// An empty slice (not an error) is returned when the user has none.
func ListHistory(ctx context.Context, db *gorm.DB, username string, limit int) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	q := db.WithContext(ctx).
		Where("username = ?", username).
		Order(newestFirst)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// ListHistoryPage returns a paginated slice ordered newest-first.
func ListHistoryPage(ctx context.Context, db *gorm.DB, username string, offset, limit int) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	err := db.WithContext(ctx).
		Where("username = ?", username).
		Order(newestFirst).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetHistoryEntry fetches an entry by id regardless of owner, or ErrNotFound.
func GetHistoryEntry(ctx context.Context, db *gorm.DB, id string) (*domain.HistoryEntry, error) {
	var e domain.HistoryEntry
	if err := db.WithContext(ctx).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// SearchHistory returns up to limit entries for username whose original or
// translated text contains term, newest first. Matching uses SQLite LIKE,
// which is case-insensitive for ASCII; LIKE wildcards in term are escaped so
// "50%" matches that literal text, not any prefix.
func SearchHistory(ctx context.Context, db *gorm.DB, username, term string, limit int) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	pattern := "%" + escapeLike(term) + "%"
	q := db.WithContext(ctx).
		Where(`username = ? AND (original_text LIKE ? ESCAPE '\' OR translated_text LIKE ? ESCAPE '\')`, username, pattern, pattern).
		Order(newestFirst)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// escapeLike backslash-escapes LIKE wildcards so a term matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// CountHistory uses a raw COUNT so a missing table surfaces as an error
// rather than a silent zero.
func CountHistory(ctx context.Context, db *gorm.DB, username string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM translation_history WHERE username = ?", username).
		Scan(&total).Error
	return total, err
}

// DeleteHistoryEntry removes the entry only when it exists and belongs to
// username, reporting whether a row was removed. The ownership predicate is
// part of the DELETE itself, so a mismatched caller cannot remove another
// user's entry.
func DeleteHistoryEntry(ctx context.Context, db *gorm.DB, id, username string) (bool, error) {
	res := db.WithContext(ctx).
		Where("id = ? AND username = ?", id, username).
		Delete(&domain.HistoryEntry{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ClearHistory removes every entry owned by username. Clearing an empty
// history is a no-op, not an error.
func ClearHistory(ctx context.Context, db *gorm.DB, username string) error {
	return db.WithContext(ctx).
		Where("username = ?", username).
		Delete(&domain.HistoryEntry{}).Error
}

// HistoryStats returns aggregate metadata for a user's history: the total
// number of rows and the newest CreatedAt among them. Used for conditional
// responses (ETag generation) in the HTTP layer. When the user has no
// entries, count is 0 and newest is nil.
func HistoryStats(ctx context.Context, db *gorm.DB, username string) (count int64, newest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.HistoryEntry{}).Where("username = ?", username)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Fetch the newest created_at directly (avoid MAX() -> TEXT in SQLite).
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order(newestFirst).Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
