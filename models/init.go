package models

import "gorm.io/gorm"

// CreateDefaultSubscription gives userID a free active subscription unless one exists.
func CreateDefaultSubscription(db *gorm.DB, userID uint) error {
	sub := Subscription{UserID: userID, Plan: PlanFree, Status: SubscriptionActive}
	return db.Where(Subscription{UserID: userID}).FirstOrCreate(&sub).Error
}

// BackfillSubscriptions creates the free subscription row for users that lack one.
func BackfillSubscriptions(db *gorm.DB) error {
	var ids []uint
	err := db.Model(&User{}).
		Where("NOT EXISTS (SELECT 1 FROM subscriptions s WHERE s.user_id = users.id AND s.deleted_at IS NULL)").
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := CreateDefaultSubscription(db, id); err != nil {
			return err
		}
	}
	return nil
}
