package stores

import (
	"context"
	"errors"

	"onboardbuddy/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBackend stores snapshots in the store_snapshots table.
type GormBackend struct {
	db *gorm.DB
}

func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

func (g *GormBackend) Load(ctx context.Context, accountID uint, key string) (*Snapshot, error) {
	var row models.StoreSnapshot
	err := g.db.WithContext(ctx).Where("user_id = ? AND key = ?", accountID, key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Snapshot{Version: row.Version, Data: row.Data}, nil
}

// Save upserts the snapshot row; the last writer wins.
func (g *GormBackend) Save(ctx context.Context, accountID uint, key string, snap Snapshot) error {
	row := models.StoreSnapshot{
		UserID:  accountID,
		Key:     key,
		Version: snap.Version,
		Data:    snap.Data,
	}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "data", "updated_at"}),
	}).Create(&row).Error
}
