package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ChangeTypeTierChange     = "tier_change"
	ChangeTypeFeatureAdded   = "feature_added"
	ChangeTypeFeatureRemoved = "feature_removed"
	ChangeTypeRenewal        = "renewal"
	ChangeTypeCancellation   = "cancellation"
)

// SubscriptionChange is one entry of the append-only audit ledger. Rows are
// never updated or deleted. PreviousValue/NewValue hold the JSON-encoded
// typed payload for the change type (see billing.ChangePayload).
type SubscriptionChange struct {
	ID               string          `gorm:"type:char(36);primaryKey" json:"id"`
	SubscriptionID   string          `gorm:"type:char(36);not null;index:idx_subscription_changes_sub_created,priority:1" json:"subscription_id"`
	ChangeType       string          `gorm:"type:varchar(32);not null" json:"change_type"`
	PreviousValue    string          `gorm:"type:text" json:"previous_value,omitempty"`
	NewValue         string          `gorm:"type:text" json:"new_value,omitempty"`
	AmountAdjustment decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"amount_adjustment"`
	ProratedAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"prorated_amount"`
	Notes            string          `gorm:"type:varchar(500)" json:"notes,omitempty"`
	CreatedAt        time.Time       `gorm:"index:idx_subscription_changes_sub_created,priority:2" json:"created_at"`
}

func (sc *SubscriptionChange) BeforeCreate(tx *gorm.DB) error {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	return nil
}
