package models

import (
	"time"

	"gorm.io/gorm"
)

// SharedWorkflow is a read (and optionally edit) link into an owner's workspace.
type SharedWorkflow struct {
	gorm.Model
	OwnerID    uint       `gorm:"not null;index" json:"owner_id"`
	AccessCode string     `gorm:"not null;uniqueIndex;size:10" json:"access_code"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CanView    bool       `gorm:"default:true" json:"can_view"`
	CanEdit    bool       `gorm:"default:false" json:"can_edit"`
}

func (s *SharedWorkflow) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}
