package models

import (
	"time"

	"gorm.io/gorm"
)

const ActivationCodeTTL = 48 * time.Hour

// ActivationCode is a single-use six digit code mailed to a new hire.
type ActivationCode struct {
	gorm.Model
	Email     string     `gorm:"not null;index" json:"email"`
	Code      string     `gorm:"not null;size:6" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// Usable reports whether the code is unused and not yet expired.
func (a *ActivationCode) Usable(now time.Time) bool {
	return a.UsedAt == nil && now.Before(a.ExpiresAt)
}
