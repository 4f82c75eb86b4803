// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Account
// model.
//
// All functions accept a context and a *gorm.DB handle, making them safe for
// use within transactions or connection-scoped operations. They follow the
// "thin repository" approach: no business logic, only CRUD persistence and
// query composition.
//
// Error semantics:
//   - A missing account surfaces as ErrNotFound (gorm.ErrRecordNotFound).
//   - A duplicate username on insert surfaces as ErrDuplicate; the users
//     table's primary key enforces uniqueness atomically, so concurrent
//     signups for the same name cannot both succeed.
//   - Other DB errors (connectivity, corruption) are propagated raw; the
//     service layer wraps them before they reach callers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-translator-backend/internal/domain"
)

// CreateAccount inserts a new account row. The password must already be
// hashed by the caller; this layer never sees plaintext credentials.
// Returns ErrDuplicate when the username is taken.
func CreateAccount(ctx context.Context, db *gorm.DB, username, passwordHash, email, phone string) (*domain.Account, error) {
	a := &domain.Account{
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		Phone:        phone,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return a, nil
}

// GetAccount fetches an account by username, or ErrNotFound.
func GetAccount(ctx context.Context, db *gorm.DB, username string) (*domain.Account, error) {
	var a domain.Account
	if err := db.WithContext(ctx).Where("username = ?", username).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// AccountExists reports whether an account with the given username exists.
func AccountExists(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("username = ?", username).
		Count(&n).Error
	return n > 0, err
}

// UpdateAccountContact overwrites both contact columns for username.
// Merging omitted fields with stored values is the service's job; the
// repository always writes the full pair. Returns ErrNotFound when no row
// was affected.
func UpdateAccountContact(ctx context.Context, db *gorm.DB, username, email, phone string) error {
	res := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("username = ?", username).
		Updates(map[string]any{"email": email, "phone": phone})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAccountPassword replaces the stored password hash for username.
// Returns ErrNotFound when no row was affected.
func UpdateAccountPassword(ctx context.Context, db *gorm.DB, username, passwordHash string) error {
	res := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("username = ?", username).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAccount removes the account and everything it owns (history rows and
// replay keys) in one transaction, so a successful delete can never leave
// orphaned history behind. Returns ErrNotFound when the account is absent.
func DeleteAccount(ctx context.Context, db *gorm.DB, username string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).Delete(&domain.HistoryEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("username = ?", username).Delete(&domain.ReplayKey{}).Error; err != nil {
			return err
		}
		res := tx.Where("username = ?", username).Delete(&domain.Account{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
