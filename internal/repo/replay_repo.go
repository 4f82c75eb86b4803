// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the ReplayKey
// model used to implement safe-retry semantics for the translate endpoint.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-translator-backend/internal/domain"
)

// GetReplayKey returns a non-expired record for (username, key), or ErrNotFound.
func GetReplayKey(ctx context.Context, db *gorm.DB, username, key string, now time.Time) (*domain.ReplayKey, error) {
	var rec domain.ReplayKey
	err := db.WithContext(ctx).
		Where("username = ? AND key = ? AND expires_at > ?", username, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateReplayKey inserts a record and returns ErrDuplicate on unique violation.
func CreateReplayKey(ctx context.Context, db *gorm.DB, username, key, entryID string, ttl time.Duration) (*domain.ReplayKey, error) {
	now := time.Now().UTC()
	rec := &domain.ReplayKey{
		ID:        uuid.NewString(),
		Username:  username,
		Key:       key,
		EntryID:   entryID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpiredReplayKeys deletes records whose TTL has lapsed. Called
// opportunistically; losing the race is harmless.
func PurgeExpiredReplayKeys(ctx context.Context, db *gorm.DB, now time.Time) error {
	return db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.ReplayKey{}).Error
}
