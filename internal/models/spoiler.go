package models

import (
	"time"
)

// SpoilerReveal marks that a user has unlocked spoiler-gated content for one
// episode. Absence of a row means "not revealed"; rows are never removed
// (there is no hide-again operation).
type SpoilerReveal struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_user_reveal" json:"user_id"`
	Key       string    `gorm:"size:128;not null;uniqueIndex:idx_user_reveal" json:"key"`
	CreatedAt time.Time `json:"created_at"`
}
