package models

import "gorm.io/gorm"

// StoreSnapshot is the persisted, versioned state of one client store for one account.
type StoreSnapshot struct {
	gorm.Model
	UserID  uint   `gorm:"not null;uniqueIndex:idx_snapshot_user_key" json:"user_id"`
	Key     string `gorm:"not null;size:64;uniqueIndex:idx_snapshot_user_key" json:"key"` // onboard-buddy-missions, onboard-buddy-gallery, ...
	Version int    `gorm:"not null;default:0" json:"version"`
	Data    []byte `gorm:"type:bytea" json:"-"`
}
