package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnlimitedMenus is the sentinel for tiers without a menu cap.
const UnlimitedMenus = -1

// Tier is a subscription plan level. Price and capability flags may be
// edited prospectively by admins; locked-in subscription prices are never
// touched by catalog edits.
type Tier struct {
	ID                     uint            `gorm:"primaryKey" json:"id"`
	Name                   string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Description            string          `gorm:"type:varchar(500)" json:"description"`
	BasePriceMonthly       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"base_price_monthly"`
	MaxMenus               int             `gorm:"not null;default:1" json:"max_menus"`
	PricePerAdditionalMenu decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price_per_additional_menu"`
	AllowsPDF              bool            `gorm:"default:false" json:"allows_pdf"`
	AllowsCustomFonts      bool            `gorm:"default:false" json:"allows_custom_fonts"`
	AllowsImages           bool            `gorm:"default:false" json:"allows_images"`
	AllowsMultipleLocations bool           `gorm:"default:false" json:"allows_multiple_locations"`
	Active                 bool            `gorm:"default:true;index" json:"active"`
	SortOrder              int             `gorm:"not null;default:0;index" json:"sort_order"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// HasUnlimitedMenus reports whether the tier carries the unlimited sentinel.
func (t *Tier) HasUnlimitedMenus() bool {
	return t.MaxMenus == UnlimitedMenus
}
