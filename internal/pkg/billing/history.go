package billing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cartamenu/carta/app/models"
	"github.com/shopspring/decimal"
)

// ChangePayload is the typed before/after snapshot attached to a history
// entry. Each change type carries a specific shape instead of a free-form
// blob, so consumers can decode exhaustively by change_type.
type ChangePayload interface {
	isChangePayload()
}

// TierPayload snapshots the tier side of a tier_change entry.
type TierPayload struct {
	TierID   uint   `json:"tier_id"`
	TierName string `json:"tier_name,omitempty"`
}

// FeaturePayload snapshots a feature_added/feature_removed entry.
type FeaturePayload struct {
	FeatureID  uint            `json:"feature_id"`
	FeatureKey string          `json:"feature_key"`
	Price      decimal.Decimal `json:"price"`
}

// RenewalPayload snapshots the billing date a renewal advanced to.
type RenewalPayload struct {
	NextBillingDate time.Time `json:"next_billing_date"`
}

// CancellationPayload snapshots a cancellation entry.
type CancellationPayload struct {
	Reason string `json:"reason,omitempty"`
}

func (TierPayload) isChangePayload()         {}
func (FeaturePayload) isChangePayload()      {}
func (RenewalPayload) isChangePayload()      {}
func (CancellationPayload) isChangePayload() {}

func encodeChangePayload(p ChangePayload) string {
	if p == nil {
		return ""
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(raw)
}

// recordChange appends one ledger entry. It runs after the state change
// inside the same transaction: a failed append rolls the whole mutation
// back, so history never silently diverges from state.
func recordChange(repo Repository, subscriptionID, changeType string, previous, next ChangePayload, amountAdjustment, proratedAmount decimal.Decimal, notes string) error {
	change := &models.SubscriptionChange{
		SubscriptionID:   subscriptionID,
		ChangeType:       changeType,
		PreviousValue:    encodeChangePayload(previous),
		NewValue:         encodeChangePayload(next),
		AmountAdjustment: amountAdjustment,
		ProratedAmount:   proratedAmount,
		Notes:            notes,
	}
	if err := repo.AppendChange(change); err != nil {
		return storageErr(err)
	}
	return nil
}

// GetHistory returns the change ledger for a subscription, newest first.
func (s *Service) GetHistory(ctx context.Context, subscriptionID string) ([]models.SubscriptionChange, error) {
	_ = ctx
	changes, err := s.repo.ListChanges(subscriptionID)
	if err != nil {
		return nil, storageErr(err)
	}
	return changes, nil
}
