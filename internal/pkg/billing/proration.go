package billing

import (
	"time"

	"github.com/cartamenu/carta/app/models"
	"github.com/shopspring/decimal"
)

// Proration day-counting bases. The original product never pinned this
// down, so it is a policy knob: actual calendar days or a 30/360 schedule.
const (
	ProrationBasisCalendar = "calendar"
	ProrationBasisFixed30  = "fixed30"
)

// cycleFraction returns remaining-days / days-in-cycle for the billing
// cycle ending at nextBilling, at whole-day granularity. The result is
// clamped to [0, 1]; a nil or past billing date yields zero (nothing left
// to prorate).
func cycleFraction(now time.Time, nextBilling *time.Time, billingCycle, basis string) decimal.Decimal {
	if nextBilling == nil || !nextBilling.After(now) {
		return decimal.Zero
	}

	var cycleStart time.Time
	if billingCycle == models.BillingCycleAnnual {
		cycleStart = nextBilling.AddDate(-1, 0, 0)
	} else {
		cycleStart = nextBilling.AddDate(0, -1, 0)
	}

	var daysTotal int64
	switch basis {
	case ProrationBasisFixed30:
		if billingCycle == models.BillingCycleAnnual {
			daysTotal = 360
		} else {
			daysTotal = 30
		}
	default:
		daysTotal = int64(nextBilling.Sub(cycleStart).Hours() / 24)
	}
	if daysTotal <= 0 {
		return decimal.Zero
	}

	daysRemaining := int64(nextBilling.Sub(now).Hours() / 24)
	if daysRemaining < 0 {
		daysRemaining = 0
	}
	if daysRemaining > daysTotal {
		daysRemaining = daysTotal
	}

	return decimal.NewFromInt(daysRemaining).Div(decimal.NewFromInt(daysTotal))
}

// prorate applies a cycle fraction to an amount and rounds to cents.
func prorate(amount, fraction decimal.Decimal) decimal.Decimal {
	return roundMoney(amount.Mul(fraction))
}

// roundMoney rounds to 2 decimal places, half up. Intermediate math stays
// unrounded; only values that are stored or displayed go through here.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// finalFeaturePrice applies a tier discount percentage to a feature base
// price: base * (1 - discount/100), floored at zero, rounded to cents.
func finalFeaturePrice(basePrice, discountPercentage decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	price := basePrice.Mul(hundred.Sub(discountPercentage)).Div(hundred)
	if price.IsNegative() {
		return decimal.Zero
	}
	return roundMoney(price)
}
