package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cartamenu/carta/app/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateSubscription creates an active subscription for a restaurant on
// the given tier. Default-included tier features are attached at price 0;
// extra pre-selected features are attached at their tier-discounted price.
// A restaurant can hold at most one active subscription at a time.
func (s *Service) CreateSubscription(ctx context.Context, in CreateSubscriptionInput) (string, error) {
	_ = ctx
	if err := checkInput(in); err != nil {
		return "", err
	}
	cycle := in.BillingCycle
	if cycle == "" {
		cycle = models.BillingCycleMonthly
	}

	tier, err := s.repo.GetTier(in.TierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", notFoundErr("tier %d not found", in.TierID)
		}
		return "", storageErr(err)
	}
	if !tier.Active {
		return "", notFoundErr("tier %d not found", in.TierID)
	}

	var subID string
	err = s.repo.Transaction(func(repo Repository) error {
		if existing, err := repo.FindActiveSubscriptionByRestaurant(in.RestaurantID); err == nil {
			return conflictErr("restaurant already has an active subscription (%s)", existing.ID)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return storageErr(err)
		}

		now := s.now()
		sub := &models.Subscription{
			RestaurantID: in.RestaurantID,
			TierID:       in.TierID,
			BillingCycle: cycle,
			Active:       true,
			StartedAt:    now,
			AutoRenew:    true,
		}
		next := sub.NextCycleFrom(now)
		sub.NextBillingDate = &next

		if err := repo.CreateSubscription(sub); err != nil {
			return storageErr(err)
		}

		tfs, err := repo.ListTierFeatures(in.TierID)
		if err != nil {
			return storageErr(err)
		}
		for _, tf := range tfs {
			if !tf.IncludedByDefault {
				continue
			}
			if _, err := s.addFeatureTx(repo, sub, tf.FeatureID, false, true); err != nil {
				return err
			}
		}
		for _, featureID := range in.FeatureIDs {
			if _, err := repo.GetActiveSubscriptionFeature(sub.ID, featureID); err == nil {
				continue // already attached as a tier default
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return storageErr(err)
			}
			if _, err := s.addFeatureTx(repo, sub, featureID, false, false); err != nil {
				return err
			}
		}

		subID = sub.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return subID, nil
}

// AddFeature attaches a feature to a subscription at the tier-discounted
// price in effect now, frozen as price_at_purchase. An already-active
// feature is a Conflict, a feature the tier does not offer is NotFound.
func (s *Service) AddFeature(ctx context.Context, in AddFeatureInput) (string, error) {
	_ = ctx
	if err := checkInput(in); err != nil {
		return "", err
	}

	var featureRowID string
	err := s.repo.Transaction(func(repo Repository) error {
		sub, err := lockSubscription(repo, in.SubscriptionID)
		if err != nil {
			return err
		}
		if !sub.Active {
			return invalidStateErr("subscription %s is not active", sub.ID)
		}

		featureRowID, err = s.addFeatureTx(repo, sub, in.FeatureID, in.Prorated, false)
		return err
	})
	if err != nil {
		return "", err
	}
	return featureRowID, nil
}

// addFeatureTx attaches one feature inside the caller's transaction.
// Default-included features are attached at price 0 without proration.
func (s *Service) addFeatureTx(repo Repository, sub *models.Subscription, featureID uint, prorated, includedByDefault bool) (string, error) {
	if _, err := repo.GetActiveSubscriptionFeature(sub.ID, featureID); err == nil {
		return "", conflictErr("feature %d is already active on this subscription", featureID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", storageErr(err)
	}

	tf, err := repo.GetTierFeature(sub.TierID, featureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", notFoundErr("feature %d is not offered by the current tier", featureID)
		}
		return "", storageErr(err)
	}
	feature, err := repo.GetFeature(featureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", notFoundErr("feature %d not found", featureID)
		}
		return "", storageErr(err)
	}
	if !feature.Active {
		return "", notFoundErr("feature %d not found", featureID)
	}

	now := s.now()
	price := decimal.Zero
	if !includedByDefault {
		price = finalFeaturePrice(feature.BasePrice, tf.DiscountPercentage)
	}

	charged := price
	proratedAmount := decimal.Zero
	if prorated && price.IsPositive() {
		fraction := cycleFraction(now, sub.NextBillingDate, sub.BillingCycle, s.cfg.ProrationBasis)
		charged = prorate(price, fraction)
		proratedAmount = charged
	}

	sf := &models.SubscriptionFeature{
		SubscriptionID:  sub.ID,
		FeatureID:       featureID,
		AddedAt:         now,
		PriceAtPurchase: charged,
		IsActive:        true,
	}
	if err := repo.CreateSubscriptionFeature(sf); err != nil {
		return "", storageErr(err)
	}

	payload := &FeaturePayload{FeatureID: feature.ID, FeatureKey: feature.Key, Price: charged}
	if err := recordChange(repo, sub.ID, models.ChangeTypeFeatureAdded, nil, payload, charged, proratedAmount, ""); err != nil {
		return "", err
	}
	return sf.ID, nil
}

// RemoveFeature deactivates a feature on a subscription, keeping the row
// for history. With prorated set, the unused cycle fraction of the locked
// price is recorded as a negative adjustment (a refund).
func (s *Service) RemoveFeature(ctx context.Context, in RemoveFeatureInput) error {
	_ = ctx
	if err := checkInput(in); err != nil {
		return err
	}

	return s.repo.Transaction(func(repo Repository) error {
		sub, err := lockSubscription(repo, in.SubscriptionID)
		if err != nil {
			return err
		}

		sf, err := repo.GetActiveSubscriptionFeature(sub.ID, in.FeatureID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalidStateErr("feature %d is not active on this subscription", in.FeatureID)
			}
			return storageErr(err)
		}

		now := s.now()
		sf.IsActive = false
		sf.RemovedAt = &now
		if err := repo.SaveSubscriptionFeature(sf); err != nil {
			return storageErr(err)
		}

		refund := decimal.Zero
		if in.Prorated && sf.PriceAtPurchase.IsPositive() {
			fraction := cycleFraction(now, sub.NextBillingDate, sub.BillingCycle, s.cfg.ProrationBasis)
			refund = prorate(sf.PriceAtPurchase, fraction)
		}

		var featureKey string
		if feature, err := repo.GetFeature(in.FeatureID); err == nil {
			featureKey = feature.Key
		}
		payload := &FeaturePayload{FeatureID: in.FeatureID, FeatureKey: featureKey, Price: sf.PriceAtPurchase}
		return recordChange(repo, sub.ID, models.ChangeTypeFeatureRemoved, payload, nil, refund.Neg(), refund, "")
	})
}

// ChangeTier moves a subscription to another tier. Default-included
// features of the new tier get attached at price 0, features the new tier
// does not offer are deactivated, and with prorated set the base-price
// delta is weighted by the remaining cycle fraction.
func (s *Service) ChangeTier(ctx context.Context, in ChangeTierInput) error {
	_ = ctx
	if err := checkInput(in); err != nil {
		return err
	}

	newTier, err := s.repo.GetTier(in.NewTierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("tier %d not found", in.NewTierID)
		}
		return storageErr(err)
	}
	if !newTier.Active {
		return notFoundErr("tier %d not found", in.NewTierID)
	}

	return s.repo.Transaction(func(repo Repository) error {
		sub, err := lockSubscription(repo, in.SubscriptionID)
		if err != nil {
			return err
		}
		if !sub.Active {
			return invalidStateErr("subscription %s is not active", sub.ID)
		}
		if sub.TierID == in.NewTierID {
			return conflictErr("subscription is already on tier %d", in.NewTierID)
		}

		oldTier, err := repo.GetTier(sub.TierID)
		if err != nil {
			return storageErr(err)
		}

		newTFs, err := repo.ListTierFeatures(in.NewTierID)
		if err != nil {
			return storageErr(err)
		}
		offered := make(map[uint]models.TierFeature, len(newTFs))
		for _, tf := range newTFs {
			offered[tf.FeatureID] = tf
		}

		now := s.now()

		// Drop active features the new tier does not offer.
		active, err := repo.ListActiveSubscriptionFeatures(sub.ID)
		if err != nil {
			return storageErr(err)
		}
		var dropped []string
		stillActive := make(map[uint]bool, len(active))
		for i := range active {
			sf := &active[i]
			if _, ok := offered[sf.FeatureID]; ok {
				stillActive[sf.FeatureID] = true
				continue
			}
			sf.IsActive = false
			sf.RemovedAt = &now
			if err := repo.SaveSubscriptionFeature(sf); err != nil {
				return storageErr(err)
			}
			dropped = append(dropped, fmt.Sprintf("%d", sf.FeatureID))
		}

		sub.TierID = in.NewTierID
		if err := repo.SaveSubscription(sub); err != nil {
			return storageErr(err)
		}

		// Attach the new tier's defaults that are not already active.
		for _, tf := range newTFs {
			if !tf.IncludedByDefault || stillActive[tf.FeatureID] {
				continue
			}
			if _, err := s.addFeatureTx(repo, sub, tf.FeatureID, false, true); err != nil {
				return err
			}
		}

		adjustment := decimal.Zero
		proratedAmount := decimal.Zero
		if in.Prorated {
			fraction := cycleFraction(now, sub.NextBillingDate, sub.BillingCycle, s.cfg.ProrationBasis)
			adjustment = prorate(newTier.BasePriceMonthly.Sub(oldTier.BasePriceMonthly), fraction)
			proratedAmount = adjustment
		}

		notes := ""
		if len(dropped) > 0 {
			notes = "features no longer offered: " + strings.Join(dropped, ", ")
		}
		return recordChange(repo, sub.ID,
			models.ChangeTypeTierChange,
			&TierPayload{TierID: oldTier.ID, TierName: oldTier.Name},
			&TierPayload{TierID: newTier.ID, TierName: newTier.Name},
			adjustment, proratedAmount, notes)
	})
}

// Cancel turns off auto-renewal and stamps the cancellation. The
// subscription stays active until its next billing date passes; service
// continues until period end.
func (s *Service) Cancel(ctx context.Context, subscriptionID, reason string) error {
	_ = ctx
	return s.repo.Transaction(func(repo Repository) error {
		sub, err := lockSubscription(repo, subscriptionID)
		if err != nil {
			return err
		}
		if !sub.Active {
			return invalidStateErr("subscription %s is not active", sub.ID)
		}
		if sub.CancelledAt != nil {
			return conflictErr("subscription %s is already cancelled", sub.ID)
		}

		now := s.now()
		sub.AutoRenew = false
		sub.CancelledAt = &now
		sub.CancellationReason = reason
		if err := repo.SaveSubscription(sub); err != nil {
			return storageErr(err)
		}

		notes := reason
		if notes == "" {
			notes = "subscription cancelled"
		}
		return recordChange(repo, sub.ID, models.ChangeTypeCancellation,
			nil, &CancellationPayload{Reason: reason},
			decimal.Zero, decimal.Zero, notes)
	})
}

// Reactivate undoes a cancellation while the subscription is still in its
// paid period. Once the period has lapsed the subscription is inactive
// and a new one must be created instead.
func (s *Service) Reactivate(ctx context.Context, subscriptionID string) error {
	_ = ctx
	return s.repo.Transaction(func(repo Repository) error {
		sub, err := lockSubscription(repo, subscriptionID)
		if err != nil {
			return err
		}
		if !sub.IsCancelledPendingExpiry() {
			return invalidStateErr("subscription %s is not pending cancellation", sub.ID)
		}

		sub.AutoRenew = true
		sub.CancelledAt = nil
		sub.CancellationReason = ""
		if err := repo.SaveSubscription(sub); err != nil {
			return storageErr(err)
		}
		return nil
	})
}

// Renew is the period-end entry point called by an external scheduler.
// A cancelled subscription past its billing date is deactivated; anything
// else advances one cycle and gets a renewal ledger entry.
func (s *Service) Renew(ctx context.Context, subscriptionID string) error {
	_ = ctx
	return s.repo.Transaction(func(repo Repository) error {
		sub, err := lockSubscription(repo, subscriptionID)
		if err != nil {
			return err
		}
		if !sub.Active {
			return invalidStateErr("subscription %s is not active", sub.ID)
		}

		now := s.now()
		if sub.CancelledAt != nil && !sub.AutoRenew {
			if sub.NextBillingDate == nil || !sub.NextBillingDate.After(now) {
				sub.Active = false
				if err := repo.SaveSubscription(sub); err != nil {
					return storageErr(err)
				}
				return nil
			}
			return invalidStateErr("subscription %s is cancelled and still within its paid period", sub.ID)
		}

		from := now
		if sub.NextBillingDate != nil {
			from = *sub.NextBillingDate
		}
		next := sub.NextCycleFrom(from)
		sub.NextBillingDate = &next
		if err := repo.SaveSubscription(sub); err != nil {
			return storageErr(err)
		}

		return recordChange(repo, sub.ID, models.ChangeTypeRenewal,
			nil, &RenewalPayload{NextBillingDate: next},
			decimal.Zero, decimal.Zero, "")
	})
}

// ListDueSubscriptions returns the active subscriptions whose billing
// date has passed, for the renewal sweep.
func (s *Service) ListDueSubscriptions(ctx context.Context, asOf time.Time) ([]models.Subscription, error) {
	_ = ctx
	subs, err := s.repo.ListDueSubscriptions(asOf)
	if err != nil {
		return nil, storageErr(err)
	}
	return subs, nil
}

// ValidateFeatureAddition checks whether a feature could be added right
// now and what it would cost, without mutating anything.
func (s *Service) ValidateFeatureAddition(ctx context.Context, subscriptionID string, featureID uint) (*FeatureValidation, error) {
	_ = ctx
	sub, err := s.getSubscription(subscriptionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetActiveSubscriptionFeature(sub.ID, featureID); err == nil {
		return &FeatureValidation{
			CanAdd:         false,
			Reason:         "feature is already active on this subscription",
			EstimatedPrice: decimal.Zero,
		}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storageErr(err)
	}

	tf, err := s.repo.GetTierFeature(sub.TierID, featureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &FeatureValidation{
				CanAdd:         false,
				Reason:         "feature is not offered by the current tier",
				EstimatedPrice: decimal.Zero,
			}, nil
		}
		return nil, storageErr(err)
	}
	feature, err := s.repo.GetFeature(featureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &FeatureValidation{CanAdd: false, Reason: "feature not found", EstimatedPrice: decimal.Zero}, nil
		}
		return nil, storageErr(err)
	}

	return &FeatureValidation{
		CanAdd:          true,
		EstimatedPrice:  finalFeaturePrice(feature.BasePrice, tf.DiscountPercentage),
		DiscountApplied: tf.DiscountPercentage,
	}, nil
}

// GetSubscriptionWithPricing returns a subscription enriched with its
// tier, active features and current monthly total.
func (s *Service) GetSubscriptionWithPricing(ctx context.Context, subscriptionID string) (*SubscriptionWithPricing, error) {
	sub, err := s.getSubscription(subscriptionID)
	if err != nil {
		return nil, err
	}
	return s.subscriptionWithPricing(ctx, sub)
}

// GetActiveSubscription returns the restaurant's active subscription with
// pricing, or NotFound if it has none.
func (s *Service) GetActiveSubscription(ctx context.Context, restaurantID string) (*SubscriptionWithPricing, error) {
	sub, err := s.repo.FindActiveSubscriptionByRestaurant(restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("restaurant %s has no active subscription", restaurantID)
		}
		return nil, storageErr(err)
	}
	return s.subscriptionWithPricing(ctx, sub)
}

// ListRestaurantSubscriptions returns all of a restaurant's subscriptions
// with pricing, newest first.
func (s *Service) ListRestaurantSubscriptions(ctx context.Context, restaurantID string) ([]SubscriptionWithPricing, error) {
	subs, err := s.repo.ListSubscriptionsByRestaurant(restaurantID)
	if err != nil {
		return nil, storageErr(err)
	}

	result := make([]SubscriptionWithPricing, 0, len(subs))
	for i := range subs {
		swp, err := s.subscriptionWithPricing(ctx, &subs[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *swp)
	}
	return result, nil
}

func (s *Service) subscriptionWithPricing(ctx context.Context, sub *models.Subscription) (*SubscriptionWithPricing, error) {
	_ = ctx
	tier, err := s.repo.GetTier(sub.TierID)
	if err != nil {
		return nil, storageErr(err)
	}

	var restaurantName string
	if restaurant, err := s.repo.GetRestaurant(sub.RestaurantID); err == nil {
		restaurantName = restaurant.Name
	}

	sfs, err := s.repo.ListActiveSubscriptionFeatures(sub.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	features := make([]ActiveFeature, 0, len(sfs))
	for _, sf := range sfs {
		af := ActiveFeature{FeatureID: sf.FeatureID, Price: sf.PriceAtPurchase}
		if feature, err := s.repo.GetFeature(sf.FeatureID); err == nil {
			af.FeatureKey = feature.Key
			af.FeatureName = feature.Name
		}
		features = append(features, af)
	}

	menuCount, err := s.repo.CountMenus(sub.RestaurantID)
	if err != nil {
		return nil, storageErr(err)
	}
	breakdown := computeBreakdown(tier, sfs, nil, menuCount, s.cfg.TaxRate)

	return &SubscriptionWithPricing{
		SubscriptionID:  sub.ID,
		RestaurantID:    sub.RestaurantID,
		RestaurantName:  restaurantName,
		TierID:          tier.ID,
		TierName:        tier.Name,
		TierBasePrice:   tier.BasePriceMonthly,
		BillingCycle:    sub.BillingCycle,
		StartedAt:       sub.StartedAt,
		NextBillingDate: sub.NextBillingDate,
		Active:          sub.Active,
		AutoRenew:       sub.AutoRenew,
		MonthlyTotal:    breakdown.Total,
		ActiveFeatures:  features,
	}, nil
}
