package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cartamenu/carta/app/models"
	"github.com/cartamenu/carta/internal/pkg/cache"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	tierListCacheKey = "billing:tiers"
	tierListCacheTTL = 5 * time.Minute
)

// Catalog serves the read-mostly reference data: tiers, features and the
// tier-feature matrix. A nil cache store disables caching.
type Catalog struct {
	repo  Repository
	cache cache.Store
}

// NewCatalog creates an uncached catalog.
func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

// NewCachedCatalog creates a catalog with a read-through cache for the
// tier list. Admin edits invalidate the cached entry.
func NewCachedCatalog(repo Repository, store cache.Store) *Catalog {
	return &Catalog{repo: repo, cache: store}
}

// ListActiveTiers returns active tiers ordered by sort order, each with
// its available features and tier-discounted final prices.
func (c *Catalog) ListActiveTiers(ctx context.Context) ([]TierWithFeatures, error) {
	_ = ctx
	if c.cache != nil {
		if raw, ok := c.cache.Get(tierListCacheKey); ok {
			var cached []TierWithFeatures
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	tiers, err := c.repo.ListActiveTiers()
	if err != nil {
		return nil, storageErr(err)
	}

	result := make([]TierWithFeatures, 0, len(tiers))
	for i := range tiers {
		features, err := c.featuresForTier(&tiers[i])
		if err != nil {
			return nil, err
		}
		result = append(result, TierWithFeatures{
			TierID:          tiers[i].ID,
			TierName:        tiers[i].Name,
			TierDescription: tiers[i].Description,
			TierBasePrice:   tiers[i].BasePriceMonthly,
			MaxMenus:        tiers[i].MaxMenus,
			Features:        features,
		})
	}

	if c.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			c.cache.Set(tierListCacheKey, string(raw), tierListCacheTTL)
		}
	}
	return result, nil
}

// GetTier returns one active tier with its features.
func (c *Catalog) GetTier(ctx context.Context, tierID uint) (*TierWithFeatures, error) {
	tiers, err := c.ListActiveTiers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tiers {
		if tiers[i].TierID == tierID {
			return &tiers[i], nil
		}
	}
	return nil, notFoundErr("tier %d not found", tierID)
}

// ListFeaturesForTier returns the features available under a tier with
// their discounted prices. An unknown tier yields an empty list.
func (c *Catalog) ListFeaturesForTier(ctx context.Context, tierID uint) ([]AvailableFeature, error) {
	_ = ctx
	tier, err := c.repo.GetTier(tierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []AvailableFeature{}, nil
		}
		return nil, storageErr(err)
	}
	return c.featuresForTier(tier)
}

// ListFeatures returns all active features ordered by category and name.
func (c *Catalog) ListFeatures(ctx context.Context) ([]models.Feature, error) {
	_ = ctx
	features, err := c.repo.ListActiveFeatures()
	if err != nil {
		return nil, storageErr(err)
	}
	return features, nil
}

func (c *Catalog) featuresForTier(tier *models.Tier) ([]AvailableFeature, error) {
	tfs, err := c.repo.ListTierFeatures(tier.ID)
	if err != nil {
		return nil, storageErr(err)
	}

	result := make([]AvailableFeature, 0, len(tfs))
	for _, tf := range tfs {
		feature, err := c.repo.GetFeature(tf.FeatureID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, storageErr(err)
		}
		if !feature.Active {
			continue
		}
		result = append(result, AvailableFeature{
			FeatureID:          feature.ID,
			FeatureKey:         feature.Key,
			FeatureName:        feature.Name,
			FeatureCategory:    feature.Category,
			BasePrice:          feature.BasePrice,
			IncludedByDefault:  tf.IncludedByDefault,
			DiscountPercentage: tf.DiscountPercentage,
			FinalPrice:         finalFeaturePrice(feature.BasePrice, tf.DiscountPercentage),
		})
	}
	return result, nil
}

// UpdateTier applies prospective admin edits to a tier. Locked-in
// subscription prices are untouched.
func (c *Catalog) UpdateTier(ctx context.Context, tierID uint, update TierUpdate) (*models.Tier, error) {
	_ = ctx
	tier, err := c.repo.GetTier(tierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("tier %d not found", tierID)
		}
		return nil, storageErr(err)
	}

	if update.Name != nil {
		tier.Name = *update.Name
	}
	if update.Description != nil {
		tier.Description = *update.Description
	}
	if update.BasePriceMonthly != nil {
		if update.BasePriceMonthly.IsNegative() {
			return nil, validationErr("base price must not be negative")
		}
		tier.BasePriceMonthly = *update.BasePriceMonthly
	}
	if update.MaxMenus != nil {
		if *update.MaxMenus < models.UnlimitedMenus {
			return nil, validationErr("max_menus must be -1 (unlimited) or greater")
		}
		tier.MaxMenus = *update.MaxMenus
	}
	if update.PricePerAdditionalMenu != nil {
		if update.PricePerAdditionalMenu.IsNegative() {
			return nil, validationErr("price per additional menu must not be negative")
		}
		tier.PricePerAdditionalMenu = *update.PricePerAdditionalMenu
	}
	if update.AllowsPDF != nil {
		tier.AllowsPDF = *update.AllowsPDF
	}
	if update.AllowsCustomFonts != nil {
		tier.AllowsCustomFonts = *update.AllowsCustomFonts
	}
	if update.AllowsImages != nil {
		tier.AllowsImages = *update.AllowsImages
	}
	if update.AllowsMultipleLocations != nil {
		tier.AllowsMultipleLocations = *update.AllowsMultipleLocations
	}
	if update.Active != nil {
		tier.Active = *update.Active
	}
	if update.SortOrder != nil {
		tier.SortOrder = *update.SortOrder
	}

	if err := c.repo.SaveTier(tier); err != nil {
		return nil, storageErr(err)
	}
	c.invalidate()
	return tier, nil
}

// UpdateFeaturePrice sets a feature's catalog base price. Existing
// subscriptions keep their locked-in price_at_purchase.
func (c *Catalog) UpdateFeaturePrice(ctx context.Context, featureID uint, basePrice decimal.Decimal) (*models.Feature, error) {
	_ = ctx
	if basePrice.IsNegative() {
		return nil, validationErr("base price must not be negative")
	}
	feature, err := c.repo.GetFeature(featureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("feature %d not found", featureID)
		}
		return nil, storageErr(err)
	}

	feature.BasePrice = basePrice
	if err := c.repo.SaveFeature(feature); err != nil {
		return nil, storageErr(err)
	}
	c.invalidate()
	return feature, nil
}

// SetTierFeature upserts one cell of the tier-feature matrix.
func (c *Catalog) SetTierFeature(ctx context.Context, tierID, featureID uint, includedByDefault bool, discountPercentage decimal.Decimal) error {
	_ = ctx
	hundred := decimal.NewFromInt(100)
	if discountPercentage.IsNegative() || discountPercentage.GreaterThan(hundred) {
		return validationErr("discount percentage must be between 0 and 100")
	}
	if _, err := c.repo.GetTier(tierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("tier %d not found", tierID)
		}
		return storageErr(err)
	}
	if _, err := c.repo.GetFeature(featureID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("feature %d not found", featureID)
		}
		return storageErr(err)
	}

	tf := &models.TierFeature{
		TierID:             tierID,
		FeatureID:          featureID,
		IncludedByDefault:  includedByDefault,
		DiscountPercentage: discountPercentage,
	}
	if err := c.repo.UpsertTierFeature(tf); err != nil {
		return storageErr(err)
	}
	c.invalidate()
	return nil
}

func (c *Catalog) invalidate() {
	if c.cache != nil {
		c.cache.Delete(tierListCacheKey)
	}
}
