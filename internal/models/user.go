package models

import (
	"strings"
	"time"
)

// User is a local account row. UID is the stable actor id written into the
// discussion tree; the numeric ID only exists for gorm and sessions.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UID       string    `gorm:"uniqueIndex;size:36;not null" json:"uid"`
	Username  string    `json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"` // Hash
	PhotoURL  string    `json:"photo_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName resolves the author name written into snapshots:
// username, else the email local part, else "Anonym".
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if i := strings.Index(u.Email, "@"); i > 0 {
		return u.Email[:i]
	}
	return "Anonym"
}
