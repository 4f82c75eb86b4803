package domain

import "time"

// ReplayKey records the history entry produced for a previously processed
// translation request, keyed by (username, key). A client retrying a POST
// /translate with the same Idempotency-Key within the TTL receives the
// recorded entry instead of triggering a second translation.
type ReplayKey struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	Username  string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_replay_user_key,priority:1"`
	Key       string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_replay_user_key,priority:2"`
	EntryID   string    `gorm:"type:char(36);not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (ReplayKey) TableName() string { return "replay_keys" }
