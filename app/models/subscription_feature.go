package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SubscriptionFeature is a feature attached to a subscription.
// PriceAtPurchase is frozen at add-time (with the tier discount in effect
// then) and never changes afterwards, regardless of catalog price edits.
// Removal sets RemovedAt/IsActive instead of deleting the row.
type SubscriptionFeature struct {
	ID              string          `gorm:"type:char(36);primaryKey" json:"id"`
	SubscriptionID  string          `gorm:"type:char(36);not null;index" json:"subscription_id"`
	FeatureID       uint            `gorm:"not null;index" json:"feature_id"`
	AddedAt         time.Time       `gorm:"not null" json:"added_at"`
	RemovedAt       *time.Time      `gorm:"type:timestamp;default:null" json:"removed_at,omitempty"`
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price_at_purchase"`
	IsActive        bool            `gorm:"default:true;index" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (sf *SubscriptionFeature) BeforeCreate(tx *gorm.DB) error {
	if sf.ID == "" {
		sf.ID = uuid.NewString()
	}
	return nil
}
