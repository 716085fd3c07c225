package billing

import (
	"context"

	"github.com/cartamenu/carta/app/models"
	"github.com/cartamenu/carta/internal/pkg/entitlements"
	"github.com/shopspring/decimal"
)

// GetPricingBreakdown computes the current monthly charges for a
// subscription: tier base price, locked-in feature prices, additional
// menu cost and tax.
func (s *Service) GetPricingBreakdown(ctx context.Context, subscriptionID string) (*PricingBreakdown, error) {
	_ = ctx
	sub, err := s.getSubscription(subscriptionID)
	if err != nil {
		return nil, err
	}
	tier, err := s.repo.GetTier(sub.TierID)
	if err != nil {
		return nil, storageErr(err)
	}
	sfs, err := s.repo.ListActiveSubscriptionFeatures(sub.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	menuCount, err := s.repo.CountMenus(sub.RestaurantID)
	if err != nil {
		return nil, storageErr(err)
	}

	names := make(map[uint]string, len(sfs))
	for _, sf := range sfs {
		if feature, err := s.repo.GetFeature(sf.FeatureID); err == nil {
			names[sf.FeatureID] = feature.Name
		}
	}

	return computeBreakdown(tier, sfs, names, menuCount, s.cfg.TaxRate), nil
}

// GetLimits reports the menu limits and capability flags the
// subscription's tier grants right now.
func (s *Service) GetLimits(ctx context.Context, subscriptionID string) (*SubscriptionLimits, error) {
	_ = ctx
	sub, err := s.getSubscription(subscriptionID)
	if err != nil {
		return nil, err
	}
	tier, err := s.repo.GetTier(sub.TierID)
	if err != nil {
		return nil, storageErr(err)
	}
	menuCount, err := s.repo.CountMenus(sub.RestaurantID)
	if err != nil {
		return nil, storageErr(err)
	}

	caps := entitlements.ForTier(tier)
	return &SubscriptionLimits{
		MaxMenus:                tier.MaxMenus,
		CurrentMenus:            int(menuCount),
		CanCreateMore:           entitlements.CanCreateMenu(tier, int(menuCount)),
		AdditionalMenuPrice:     tier.PricePerAdditionalMenu,
		AllowsPDF:               caps.PDFExport,
		AllowsCustomFonts:       caps.CustomFonts,
		AllowsImages:            caps.Images,
		AllowsMultipleLocations: caps.MultipleLocations,
	}, nil
}

// computeBreakdown is the pure pricing core. Arithmetic stays unrounded
// until the stored/displayed edge values.
func computeBreakdown(tier *models.Tier, features []models.SubscriptionFeature, names map[uint]string, menuCount int64, taxRate decimal.Decimal) *PricingBreakdown {
	featuresTotal := decimal.Zero
	detail := make([]FeatureDetail, 0, len(features))
	for _, sf := range features {
		featuresTotal = featuresTotal.Add(sf.PriceAtPurchase)
		detail = append(detail, FeatureDetail{
			FeatureName: names[sf.FeatureID],
			Price:       sf.PriceAtPurchase,
		})
	}

	additionalMenusCost := decimal.Zero
	if !tier.HasUnlimitedMenus() && menuCount > int64(tier.MaxMenus) {
		extra := decimal.NewFromInt(menuCount - int64(tier.MaxMenus))
		additionalMenusCost = extra.Mul(tier.PricePerAdditionalMenu)
	}

	subtotal := tier.BasePriceMonthly.Add(featuresTotal).Add(additionalMenusCost)
	tax := roundMoney(subtotal.Mul(taxRate))
	total := roundMoney(subtotal.Add(tax))

	return &PricingBreakdown{
		TierBasePrice:       roundMoney(tier.BasePriceMonthly),
		FeaturesTotal:       roundMoney(featuresTotal),
		AdditionalMenusCost: roundMoney(additionalMenusCost),
		Subtotal:            roundMoney(subtotal),
		Tax:                 tax,
		Total:               total,
		FeaturesDetail:      detail,
	}
}
