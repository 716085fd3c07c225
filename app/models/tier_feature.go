package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TierFeature is one cell of the tier-feature matrix: whether a feature is
// included with a tier by default and which discount applies when it is
// purchased under that tier. At most one row per (tier_id, feature_id).
type TierFeature struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	TierID             uint            `gorm:"not null;index:ux_tier_features_tier_feature,unique,priority:1" json:"tier_id"`
	FeatureID          uint            `gorm:"not null;index:ux_tier_features_tier_feature,unique,priority:2" json:"feature_id"`
	IncludedByDefault  bool            `gorm:"default:false" json:"included_by_default"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percentage"`
	CreatedAt          time.Time       `json:"created_at"`
}
