package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PlanFree    = "free"
	PlanPremium = "premium"

	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
)

// Subscription mirrors the account's Stripe subscription. The Stripe webhook is
// the only writer after signup.
type Subscription struct {
	gorm.Model
	UserID               uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	Plan                 string     `gorm:"not null;default:'free'" json:"plan"`
	Status               string     `gorm:"not null;default:'active'" json:"status"`
	StripeCustomerID     *string    `gorm:"index" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`
}

// IsPremium is true only for an active premium plan.
func (s *Subscription) IsPremium() bool {
	return s != nil && s.Plan == PlanPremium && s.Status == SubscriptionActive
}
