package billing

import (
	"strconv"

	"github.com/cartamenu/carta/internal/pkg/env"
	"github.com/shopspring/decimal"
)

// Config carries the billing policy knobs. Zero tax and calendar-day
// proration are the defaults when nothing is configured.
type Config struct {
	TaxRate             decimal.Decimal
	ProrationBasis      string
	InvoiceGraceDays    int
	InvoiceNumberPrefix string
}

func DefaultConfig() Config {
	return Config{
		TaxRate:             decimal.Zero,
		ProrationBasis:      ProrationBasisCalendar,
		InvoiceGraceDays:    7,
		InvoiceNumberPrefix: "INV",
	}
}

// ConfigFromEnv reads the billing knobs from the environment, falling back
// to defaults on missing or malformed values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if raw := env.GetEnv("TAX_RATE", ""); raw != "" {
		if rate, err := decimal.NewFromString(raw); err == nil && !rate.IsNegative() {
			cfg.TaxRate = rate
		}
	}
	if basis := env.GetEnv("BILLING_PRORATION_BASIS", ""); basis == ProrationBasisFixed30 {
		cfg.ProrationBasis = ProrationBasisFixed30
	}
	if raw := env.GetEnv("INVOICE_GRACE_DAYS", ""); raw != "" {
		if days, err := strconv.Atoi(raw); err == nil && days >= 0 {
			cfg.InvoiceGraceDays = days
		}
	}
	if prefix := env.GetEnv("INVOICE_NUMBER_PREFIX", ""); prefix != "" {
		cfg.InvoiceNumberPrefix = prefix
	}

	return cfg
}
