package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cartamenu/carta/app/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceWithLineItems is an invoice with its charges attached.
type InvoiceWithLineItems struct {
	models.Invoice
	LineItems []models.InvoiceLineItem `json:"line_items"`
}

// GenerateInvoice materializes one billing period into an immutable
// invoice: a tier_base line, one feature line per active feature and an
// additional_menu line when the restaurant is over its cap. Invoice and
// line items are written in one transaction; a second call for the same
// period is a Conflict.
func (s *Service) GenerateInvoice(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) (string, error) {
	_ = ctx
	if !periodEnd.After(periodStart) {
		return "", validationErr("period_end must be after period_start")
	}

	var invoiceID string
	err := s.repo.Transaction(func(repo Repository) error {
		sub, err := lockSubscription(repo, subscriptionID)
		if err != nil {
			return err
		}

		if _, err := repo.GetInvoiceByPeriod(sub.ID, periodStart, periodEnd); err == nil {
			return conflictErr("invoice already exists for this period")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return storageErr(err)
		}

		tier, err := repo.GetTier(sub.TierID)
		if err != nil {
			return storageErr(err)
		}
		sfs, err := repo.ListActiveSubscriptionFeatures(sub.ID)
		if err != nil {
			return storageErr(err)
		}
		menuCount, err := repo.CountMenus(sub.RestaurantID)
		if err != nil {
			return storageErr(err)
		}

		var items []models.InvoiceLineItem
		subtotal := decimal.Zero

		base := roundMoney(tier.BasePriceMonthly)
		items = append(items, models.InvoiceLineItem{
			Description: tier.Name + " plan",
			ItemType:    models.LineItemTypeTierBase,
			Quantity:    1,
			UnitPrice:   base,
			Total:       base,
		})
		subtotal = subtotal.Add(base)

		for _, sf := range sfs {
			description := fmt.Sprintf("feature #%d", sf.FeatureID)
			if feature, err := repo.GetFeature(sf.FeatureID); err == nil {
				description = feature.Name
			}
			items = append(items, models.InvoiceLineItem{
				Description: description,
				ItemType:    models.LineItemTypeFeature,
				Quantity:    1,
				UnitPrice:   sf.PriceAtPurchase,
				Total:       sf.PriceAtPurchase,
			})
			subtotal = subtotal.Add(sf.PriceAtPurchase)
		}

		if !tier.HasUnlimitedMenus() && menuCount > int64(tier.MaxMenus) {
			extra := menuCount - int64(tier.MaxMenus)
			total := roundMoney(decimal.NewFromInt(extra).Mul(tier.PricePerAdditionalMenu))
			items = append(items, models.InvoiceLineItem{
				Description: "additional menus",
				ItemType:    models.LineItemTypeAdditionalMenu,
				Quantity:    int(extra),
				UnitPrice:   tier.PricePerAdditionalMenu,
				Total:       total,
			})
			subtotal = subtotal.Add(total)
		}

		tax := roundMoney(subtotal.Mul(s.cfg.TaxRate))
		total := roundMoney(subtotal.Add(tax))

		n, err := repo.NextInvoiceNumber()
		if err != nil {
			return storageErr(err)
		}

		invoice := &models.Invoice{
			SubscriptionID: sub.ID,
			InvoiceNumber:  fmt.Sprintf("%s-%06d", s.cfg.InvoiceNumberPrefix, n),
			PeriodStart:    periodStart,
			PeriodEnd:      periodEnd,
			Subtotal:       roundMoney(subtotal),
			Tax:            tax,
			Total:          total,
			Status:         models.InvoiceStatusPending,
			DueDate:        periodEnd.AddDate(0, 0, s.cfg.InvoiceGraceDays),
		}
		if err := repo.CreateInvoice(invoice, items); err != nil {
			return storageErr(err)
		}

		invoiceID = invoice.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return invoiceID, nil
}

// MarkInvoiceAsPaid transitions an invoice to paid. Only pending and
// overdue invoices are payable; anything else is a Conflict and leaves
// paid_at untouched.
func (s *Service) MarkInvoiceAsPaid(ctx context.Context, invoiceID, paymentMethod string, metadata map[string]interface{}) error {
	_ = ctx
	return s.repo.Transaction(func(repo Repository) error {
		invoice, err := repo.LockInvoice(invoiceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErr("invoice %s not found", invoiceID)
			}
			return storageErr(err)
		}
		if !invoice.IsPayable() {
			return conflictErr("invoice %s is %s and cannot be paid", invoice.ID, invoice.Status)
		}

		now := s.now()
		invoice.Status = models.InvoiceStatusPaid
		invoice.PaidAt = &now
		invoice.PaymentMethod = paymentMethod
		if len(metadata) > 0 {
			if raw, err := json.Marshal(metadata); err == nil {
				invoice.PaymentMetadata = string(raw)
			}
		}
		if err := repo.SaveInvoice(invoice); err != nil {
			return storageErr(err)
		}
		return nil
	})
}

// MarkOverdueInvoices flips pending invoices past their due date to
// overdue. Called by an external scheduler; returns how many flipped.
func (s *Service) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	_ = ctx
	n, err := s.repo.MarkInvoicesOverdue(asOf)
	if err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}

// GetInvoice returns an invoice with its line items.
func (s *Service) GetInvoice(ctx context.Context, invoiceID string) (*InvoiceWithLineItems, error) {
	_ = ctx
	invoice, err := s.repo.GetInvoice(invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("invoice %s not found", invoiceID)
		}
		return nil, storageErr(err)
	}
	items, err := s.repo.ListInvoiceLineItems(invoice.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	return &InvoiceWithLineItems{Invoice: *invoice, LineItems: items}, nil
}

// ListSubscriptionInvoices returns a subscription's invoices with line
// items, newest period first.
func (s *Service) ListSubscriptionInvoices(ctx context.Context, subscriptionID string) ([]InvoiceWithLineItems, error) {
	_ = ctx
	invoices, err := s.repo.ListInvoicesBySubscription(subscriptionID)
	if err != nil {
		return nil, storageErr(err)
	}

	result := make([]InvoiceWithLineItems, 0, len(invoices))
	for i := range invoices {
		items, err := s.repo.ListInvoiceLineItems(invoices[i].ID)
		if err != nil {
			return nil, storageErr(err)
		}
		result = append(result, InvoiceWithLineItems{Invoice: invoices[i], LineItems: items})
	}
	return result, nil
}
