package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	LineItemTypeTierBase       = "tier_base"
	LineItemTypeFeature        = "feature"
	LineItemTypeAdditionalMenu = "additional_menu"
	LineItemTypeAdjustment     = "adjustment"
	LineItemTypeTax            = "tax"
	LineItemTypeDiscount       = "discount"
)

// InvoiceLineItem is one charge on an invoice. The sum of line item totals
// plus the invoice tax must equal Invoice.Total.
type InvoiceLineItem struct {
	ID          string          `gorm:"type:char(36);primaryKey" json:"id"`
	InvoiceID   string          `gorm:"type:char(36);not null;index" json:"invoice_id"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	ItemType    string          `gorm:"type:varchar(20);not null" json:"item_type"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"unit_price"`
	Total       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total"`
	Metadata    string          `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (li *InvoiceLineItem) BeforeCreate(tx *gorm.DB) error {
	if li.ID == "" {
		li.ID = uuid.NewString()
	}
	return nil
}
