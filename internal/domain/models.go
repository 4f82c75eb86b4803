// Package domain defines the persistence models for user accounts and
// translation history. These types are mapped with GORM and form the core
// data layer of the translator backend.
package domain

import "time"

// Account represents a registered user. The username is the primary key and
// is immutable after registration; the password is stored only as a bcrypt
// hash and is never serialized into API responses.
//
// Fields:
//   - Username: unique, non-empty identifier (primary key).
//   - PasswordHash: bcrypt digest of the password; excluded from JSON.
//   - Email / Phone: contact fields, required at signup, updatable later.
//   - CreatedAt: set once at registration.
type Account struct {
	Username     string    `json:"username" gorm:"type:varchar(64);primaryKey"`
	PasswordHash string    `json:"-"        gorm:"type:varchar(128);not null"`
	Email        string    `json:"email"    gorm:"type:varchar(255);not null"`
	Phone        string    `json:"phone"    gorm:"type:varchar(32);not null"`
	CreatedAt    time.Time `json:"created_at"`

	// History declares the has-many side so the migrator puts the foreign
	// key on translation_history (referencing users.username), with cascade
	// delete. Declared the other way round the constraint would land on
	// users and reject every insert under foreign_keys=ON.
	History []HistoryEntry `json:"-" gorm:"foreignKey:Username;references:Username;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Account.
func (Account) TableName() string { return "users" }

// HistoryEntry represents one recorded translation owned by an account.
// Entries are immutable after insertion; per user, at most a configured
// maximum is retained and the oldest rows are evicted on overflow.
//
// Fields:
//   - ID: UUID primary key (char(36)), supplied by the caller.
//   - Username: owning account; indexed together with CreatedAt for the
//     newest-first listing queries.
//   - OriginalText / TranslatedText / TargetLang: opaque translation payload.
//   - CreatedAt: insertion timestamp, immutable thereafter.
//
// The owning-account foreign key (with cascade delete) is declared on
// Account.History.
type HistoryEntry struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	Username       string    `json:"username"        gorm:"type:varchar(64);not null;index:idx_history_user,priority:1"`
	OriginalText   string    `json:"original_text"   gorm:"type:text;not null"`
	TranslatedText string    `json:"translated_text" gorm:"type:text;not null"`
	TargetLang     string    `json:"target_lang"     gorm:"type:varchar(35);not null"`
	CreatedAt      time.Time `json:"timestamp"       gorm:"index:idx_history_user,priority:2"`
}

// TableName returns the database table name for HistoryEntry.
func (HistoryEntry) TableName() string { return "translation_history" }
