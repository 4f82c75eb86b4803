// Package services – AccountService
//
// This file implements the AccountService, which owns user identity: signup,
// credential verification, profile reads and updates, password changes, and
// account deletion (with cascading history removal). Passwords are hashed
// with bcrypt — a deliberate hardening over the legacy unsalted digest —
// and the stored hash never leaves this layer.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/go-translator-backend/internal/domain"
	"github.com/tbourn/go-translator-backend/internal/repo"
)

// AccountRepo defines the repository contract required by AccountService.
// Implementations are responsible for persistence of account rows; the
// uniqueness of usernames must be enforced atomically by the backing store.
type AccountRepo interface {
	// CreateAccount inserts a new account with an already-hashed password.
	CreateAccount(ctx context.Context, db *gorm.DB, username, passwordHash, email, phone string) (*domain.Account, error)

	// GetAccount fetches an account by username.
	GetAccount(ctx context.Context, db *gorm.DB, username string) (*domain.Account, error)

	// AccountExists reports whether the username is registered.
	AccountExists(ctx context.Context, db *gorm.DB, username string) (bool, error)

	// UpdateAccountContact overwrites both contact columns.
	UpdateAccountContact(ctx context.Context, db *gorm.DB, username, email, phone string) error

	// UpdateAccountPassword replaces the stored password hash.
	UpdateAccountPassword(ctx context.Context, db *gorm.DB, username, passwordHash string) error

	// DeleteAccount removes the account and cascades to its history.
	DeleteAccount(ctx context.Context, db *gorm.DB, username string) error
}

// Profile is the non-secret view of an account returned by read paths.
// It carries no password material by construction.
type Profile struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountService provides registration, authentication, and account
// lifecycle operations. It is safe for concurrent use.
type AccountService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the account repository used by this service.
	Repo AccountRepo
	// HashCost is the bcrypt cost used for new password hashes.
	HashCost int
}

// NewAccountService constructs an AccountService with the default bcrypt cost.
func NewAccountService(db *gorm.DB, r AccountRepo) *AccountService {
	return &AccountService{DB: db, Repo: r, HashCost: bcrypt.DefaultCost}
}

// Register creates a new account. Exactly one of any set of concurrent
// Register calls for the same username succeeds; the rest observe
// ErrUsernameTaken and no state changes. Field presence validation is the
// caller's job; this layer only hashes and persists.
func (s *AccountService) Register(ctx context.Context, username, password, email, phone string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.HashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.Repo.CreateAccount(ctx, s.DB, username, string(hash), email, phone); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// Authenticate reports whether password matches the stored hash for
// username. An unknown username yields (false, nil), never an error;
// persistence faults are returned so callers can tell "wrong password"
// apart from "store unreachable".
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	a, err := s.Repo.GetAccount(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load account: %w", err)
	}
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil, nil
}

// Profile returns the non-secret fields for username, or ErrAccountNotFound.
func (s *AccountService) Profile(ctx context.Context, username string) (*Profile, error) {
	a, err := s.Repo.GetAccount(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &Profile{
		Username:  a.Username,
		Email:     a.Email,
		Phone:     a.Phone,
		CreatedAt: a.CreatedAt,
	}, nil
}

// Exists reports whether username is registered.
func (s *AccountService) Exists(ctx context.Context, username string) (bool, error) {
	ok, err := s.Repo.AccountExists(ctx, s.DB, username)
	if err != nil {
		return false, fmt.Errorf("check account: %w", err)
	}
	return ok, nil
}

// UpdateProfile updates the contact fields of an account. A nil email or
// phone retains the currently stored value. Returns ErrAccountNotFound when
// the account is absent.
func (s *AccountService) UpdateProfile(ctx context.Context, username string, email, phone *string) error {
	a, err := s.Repo.GetAccount(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("load account: %w", err)
	}

	newEmail, newPhone := a.Email, a.Phone
	if email != nil {
		newEmail = *email
	}
	if phone != nil {
		newPhone = *phone
	}

	if err := s.Repo.UpdateAccountContact(ctx, s.DB, username, newEmail, newPhone); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

// UpdatePassword re-verifies oldPassword before writing the new hash.
// A mismatch or a missing account yields ErrAuthFailed and leaves the stored
// password unchanged.
func (s *AccountService) UpdatePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	ok, err := s.Authenticate(ctx, username, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAuthFailed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.HashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Repo.UpdateAccountPassword(ctx, s.DB, username, string(hash)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAuthFailed
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Delete removes the account and all of its history atomically.
// Returns ErrAccountNotFound when the account is absent.
func (s *AccountService) Delete(ctx context.Context, username string) error {
	if err := s.Repo.DeleteAccount(ctx, s.DB, username); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
