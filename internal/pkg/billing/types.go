package billing

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Input DTOs. Validation runs through go-playground struct tags; failures
// surface as KindValidation errors.

type CreateSubscriptionInput struct {
	RestaurantID string `json:"restaurant_id" validate:"required,uuid"`
	TierID       uint   `json:"tier_id" validate:"required"`
	BillingCycle string `json:"billing_cycle" validate:"omitempty,oneof=monthly annual"`
	FeatureIDs   []uint `json:"feature_ids" validate:"omitempty,dive,gt=0"`
}

type AddFeatureInput struct {
	SubscriptionID string `json:"subscription_id" validate:"required,uuid"`
	FeatureID      uint   `json:"feature_id" validate:"required"`
	Prorated       bool   `json:"prorated"`
}

type RemoveFeatureInput struct {
	SubscriptionID string `json:"subscription_id" validate:"required,uuid"`
	FeatureID      uint   `json:"feature_id" validate:"required"`
	Prorated       bool   `json:"prorated"`
}

type ChangeTierInput struct {
	SubscriptionID string `json:"subscription_id" validate:"required,uuid"`
	NewTierID      uint   `json:"new_tier_id" validate:"required"`
	Prorated       bool   `json:"prorated"`
}

// TierUpdate carries prospective admin edits to a tier. Nil fields are
// left untouched. Edits never reach back into locked-in subscription
// prices.
type TierUpdate struct {
	Name                    *string          `json:"name,omitempty"`
	Description             *string          `json:"description,omitempty"`
	BasePriceMonthly        *decimal.Decimal `json:"base_price_monthly,omitempty"`
	MaxMenus                *int             `json:"max_menus,omitempty"`
	PricePerAdditionalMenu  *decimal.Decimal `json:"price_per_additional_menu,omitempty"`
	AllowsPDF               *bool            `json:"allows_pdf,omitempty"`
	AllowsCustomFonts       *bool            `json:"allows_custom_fonts,omitempty"`
	AllowsImages            *bool            `json:"allows_images,omitempty"`
	AllowsMultipleLocations *bool            `json:"allows_multiple_locations,omitempty"`
	Active                  *bool            `json:"active,omitempty"`
	SortOrder               *int             `json:"sort_order,omitempty"`
}

// Read models.

type AvailableFeature struct {
	FeatureID          uint            `json:"feature_id"`
	FeatureKey         string          `json:"feature_key"`
	FeatureName        string          `json:"feature_name"`
	FeatureCategory    string          `json:"feature_category"`
	BasePrice          decimal.Decimal `json:"base_price"`
	IncludedByDefault  bool            `json:"included_by_default"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	FinalPrice         decimal.Decimal `json:"final_price"`
}

type TierWithFeatures struct {
	TierID          uint               `json:"tier_id"`
	TierName        string             `json:"tier_name"`
	TierDescription string             `json:"tier_description,omitempty"`
	TierBasePrice   decimal.Decimal    `json:"tier_base_price"`
	MaxMenus        int                `json:"max_menus"`
	Features        []AvailableFeature `json:"features"`
}

type ActiveFeature struct {
	FeatureID   uint            `json:"feature_id"`
	FeatureKey  string          `json:"feature_key"`
	FeatureName string          `json:"feature_name"`
	Price       decimal.Decimal `json:"price"`
}

type SubscriptionWithPricing struct {
	SubscriptionID  string          `json:"subscription_id"`
	RestaurantID    string          `json:"restaurant_id"`
	RestaurantName  string          `json:"restaurant_name"`
	TierID          uint            `json:"tier_id"`
	TierName        string          `json:"tier_name"`
	TierBasePrice   decimal.Decimal `json:"tier_base_price"`
	BillingCycle    string          `json:"billing_cycle"`
	StartedAt       time.Time       `json:"started_at"`
	NextBillingDate *time.Time      `json:"next_billing_date,omitempty"`
	Active          bool            `json:"active"`
	AutoRenew       bool            `json:"auto_renew"`
	MonthlyTotal    decimal.Decimal `json:"monthly_total"`
	ActiveFeatures  []ActiveFeature `json:"active_features"`
}

type FeatureDetail struct {
	FeatureName string          `json:"feature_name"`
	Price       decimal.Decimal `json:"price"`
}

type PricingBreakdown struct {
	TierBasePrice       decimal.Decimal `json:"tier_base_price"`
	FeaturesTotal       decimal.Decimal `json:"features_total"`
	AdditionalMenusCost decimal.Decimal `json:"additional_menus_cost"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	Tax                 decimal.Decimal `json:"tax"`
	Total               decimal.Decimal `json:"total"`
	FeaturesDetail      []FeatureDetail `json:"features_detail"`
}

type SubscriptionLimits struct {
	MaxMenus                int             `json:"max_menus"`
	CurrentMenus            int             `json:"current_menus"`
	CanCreateMore           bool            `json:"can_create_more"`
	AdditionalMenuPrice     decimal.Decimal `json:"additional_menu_price"`
	AllowsPDF               bool            `json:"allows_pdf"`
	AllowsCustomFonts       bool            `json:"allows_custom_fonts"`
	AllowsImages            bool            `json:"allows_images"`
	AllowsMultipleLocations bool            `json:"allows_multiple_locations"`
}

type FeatureValidation struct {
	CanAdd          bool            `json:"can_add"`
	Reason          string          `json:"reason,omitempty"`
	EstimatedPrice  decimal.Decimal `json:"estimated_price"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
}

var validate = validator.New()

func checkInput(in interface{}) error {
	if err := validate.Struct(in); err != nil {
		return &Error{Kind: KindValidation, Message: "invalid input: " + err.Error(), Err: err}
	}
	return nil
}
