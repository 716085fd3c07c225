package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	BillingCycleMonthly = "monthly"
	BillingCycleAnnual  = "annual"
)

// Subscription is a restaurant's plan membership. Cancellation is a state,
// not a deletion: cancelled subscriptions stay active until the end of the
// paid period and are deactivated by the renewal pass.
type Subscription struct {
	ID                 string     `gorm:"type:char(36);primaryKey" json:"id"`
	RestaurantID       string     `gorm:"type:char(36);not null;index" json:"restaurant_id"`
	TierID             uint       `gorm:"not null;index" json:"tier_id"`
	BillingCycle       string     `gorm:"type:varchar(10);not null;default:'monthly'" json:"billing_cycle"`
	Active             bool       `gorm:"default:true;index" json:"active"`
	StartedAt          time.Time  `gorm:"not null" json:"started_at"`
	NextBillingDate    *time.Time `gorm:"type:timestamp;default:null" json:"next_billing_date,omitempty"`
	AutoRenew          bool       `gorm:"default:true" json:"auto_renew"`
	CancelledAt        *time.Time `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	CancellationReason string     `gorm:"type:varchar(500)" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// IsCancelledPendingExpiry reports whether the subscription was cancelled
// but service still runs until the end of the current period.
func (s *Subscription) IsCancelledPendingExpiry() bool {
	return s.Active && s.CancelledAt != nil && !s.AutoRenew
}

// NextCycleFrom returns the billing date one cycle after the given time.
func (s *Subscription) NextCycleFrom(from time.Time) time.Time {
	if s.BillingCycle == BillingCycleAnnual {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}
