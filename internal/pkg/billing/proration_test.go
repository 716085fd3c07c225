package billing

import (
	"testing"
	"time"

	"github.com/cartamenu/carta/app/models"
	"github.com/shopspring/decimal"
)

func TestCycleFractionCalendar(t *testing.T) {
	next := time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{name: "full cycle remaining", now: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), want: "1"},
		{name: "half cycle remaining", now: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), want: "0.5"},
		{name: "one day remaining", now: time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), want: "0.0333333333333333"},
		{name: "billing date reached", now: next, want: "0"},
		{name: "past billing date", now: next.AddDate(0, 0, 3), want: "0"},
	}

	for _, tt := range tests {
		got := cycleFraction(tt.now, &next, models.BillingCycleMonthly, ProrationBasisCalendar)
		want, _ := decimal.NewFromString(tt.want)
		if !got.Round(16).Equal(want.Round(16)) {
			t.Fatalf("%s: cycleFraction = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestCycleFractionNilBillingDate(t *testing.T) {
	now := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	if got := cycleFraction(now, nil, models.BillingCycleMonthly, ProrationBasisCalendar); !got.IsZero() {
		t.Fatalf("expected zero fraction without a billing date, got %s", got)
	}
}

func TestCycleFractionFixed30(t *testing.T) {
	// 2025-02-01 -> 2025-03-01 is a 28-day calendar cycle; fixed30 still
	// divides by 30.
	next := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)

	got := cycleFraction(now, &next, models.BillingCycleMonthly, ProrationBasisFixed30)
	want := decimal.NewFromInt(15).Div(decimal.NewFromInt(30))
	if !got.Equal(want) {
		t.Fatalf("fixed30 fraction = %s, want %s", got, want)
	}

	gotCal := cycleFraction(now, &next, models.BillingCycleMonthly, ProrationBasisCalendar)
	wantCal := decimal.NewFromInt(15).Div(decimal.NewFromInt(28))
	if !gotCal.Equal(wantCal) {
		t.Fatalf("calendar fraction = %s, want %s", gotCal, wantCal)
	}
}

func TestCycleFractionAnnual(t *testing.T) {
	next := time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)

	got := cycleFraction(now, &next, models.BillingCycleAnnual, ProrationBasisFixed30)
	want := decimal.NewFromInt(182).Div(decimal.NewFromInt(360))
	if !got.Equal(want) {
		t.Fatalf("annual fixed30 fraction = %s, want %s", got, want)
	}
}

func TestFinalFeaturePrice(t *testing.T) {
	tests := []struct {
		base     string
		discount string
		want     string
	}{
		{base: "9.99", discount: "30", want: "6.99"},
		{base: "9.99", discount: "0", want: "9.99"},
		{base: "9.99", discount: "100", want: "0"},
		{base: "7.99", discount: "25", want: "5.99"},
		{base: "0", discount: "50", want: "0"},
	}

	for _, tt := range tests {
		base, _ := decimal.NewFromString(tt.base)
		discount, _ := decimal.NewFromString(tt.discount)
		want, _ := decimal.NewFromString(tt.want)
		if got := finalFeaturePrice(base, discount); !got.Equal(want) {
			t.Fatalf("finalFeaturePrice(%s, %s%%) = %s, want %s", tt.base, tt.discount, got, tt.want)
		}
	}
}

func TestRoundMoneyHalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "3.495", want: "3.50"},
		{in: "3.494", want: "3.49"},
		{in: "6.993", want: "6.99"},
		{in: "10.005", want: "10.01"},
	}

	for _, tt := range tests {
		in, _ := decimal.NewFromString(tt.in)
		want, _ := decimal.NewFromString(tt.want)
		if got := roundMoney(in); !got.Equal(want) {
			t.Fatalf("roundMoney(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
