package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Feature is an add-on capability purchasable independently of tier.
// Tiers opt features in via TierFeature rows.
type Feature struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Key         string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"key"`
	Name        string          `gorm:"type:varchar(150);not null" json:"name"`
	Description string          `gorm:"type:varchar(500)" json:"description"`
	Category    string          `gorm:"type:varchar(100);not null;default:'general';index" json:"category"`
	BasePrice   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"base_price"`
	Active      bool            `gorm:"default:true;index" json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
