package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-translator-backend/internal/domain"
)

func TestCreateReplayKey_AndGet(t *testing.T) {
	db := newRepoDB(t, &domain.ReplayKey{})
	ctx := context.Background()

	rec, err := CreateReplayKey(ctx, db, "u1", "retry-1", "entry-1", time.Hour)
	if err != nil {
		t.Fatalf("CreateReplayKey: %v", err)
	}
	if rec.ID == "" || rec.EntryID != "entry-1" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !rec.ExpiresAt.After(rec.CreatedAt) {
		t.Fatalf("ExpiresAt should be after CreatedAt: %+v", rec)
	}

	got, err := GetReplayKey(ctx, db, "u1", "retry-1", time.Now().UTC())
	if err != nil {
		t.Fatalf("GetReplayKey: %v", err)
	}
	if got.EntryID != "entry-1" {
		t.Fatalf("unexpected entry id: %+v", got)
	}
}

func TestGetReplayKey_ScopedToUser(t *testing.T) {
	db := newRepoDB(t, &domain.ReplayKey{})
	ctx := context.Background()

	if _, err := CreateReplayKey(ctx, db, "u1", "shared-key", "e1", time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := GetReplayKey(ctx, db, "u2", "shared-key", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user's key, got %v", err)
	}
}

func TestCreateReplayKey_DuplicatePerUser(t *testing.T) {
	db := newRepoDB(t, &domain.ReplayKey{})
	ctx := context.Background()

	if _, err := CreateReplayKey(ctx, db, "u1", "k", "e1", time.Hour); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateReplayKey(ctx, db, "u1", "k", "e2", time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// Same key under a different user is fine.
	if _, err := CreateReplayKey(ctx, db, "u2", "k", "e3", time.Hour); err != nil {
		t.Fatalf("other user's create: %v", err)
	}
}

func TestGetReplayKey_Expired(t *testing.T) {
	db := newRepoDB(t, &domain.ReplayKey{})
	ctx := context.Background()

	if _, err := CreateReplayKey(ctx, db, "u1", "old", "e1", time.Millisecond); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Probe well past the TTL; no sleeping needed.
	later := time.Now().UTC().Add(time.Minute)
	if _, err := GetReplayKey(ctx, db, "u1", "old", later); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired key, got %v", err)
	}
}

func TestPurgeExpiredReplayKeys(t *testing.T) {
	db := newRepoDB(t, &domain.ReplayKey{})
	ctx := context.Background()

	if _, err := CreateReplayKey(ctx, db, "u1", "stale", "e1", time.Millisecond); err != nil {
		t.Fatalf("seed stale: %v", err)
	}
	if _, err := CreateReplayKey(ctx, db, "u1", "fresh", "e2", time.Hour); err != nil {
		t.Fatalf("seed fresh: %v", err)
	}

	if err := PurgeExpiredReplayKeys(ctx, db, time.Now().UTC().Add(time.Minute)); err != nil {
		t.Fatalf("PurgeExpiredReplayKeys: %v", err)
	}

	var n int64
	db.Model(&domain.ReplayKey{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected only the fresh key to survive, got %d rows", n)
	}
	if _, err := GetReplayKey(ctx, db, "u1", "fresh", time.Now().UTC()); err != nil {
		t.Fatalf("fresh key should remain readable: %v", err)
	}
}
