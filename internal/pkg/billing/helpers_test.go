package billing

import (
	"context"
	"testing"
	"time"

	"github.com/cartamenu/carta/app/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fixture wires a Service onto the fake repository with a small catalog:
// a "basic" tier (1 menu) and a "pro" tier (5 menus) sharing a few
// features at different discounts.
type fixture struct {
	repo *fakeRepository
	svc  *Service

	restaurantID string
	basic        uint
	pro          uint
	analytics    uint
	domain       uint
	whatsapp     uint

	now time.Time
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeRepository()
	fx := &fixture{repo: repo}

	basic := &models.Tier{
		Name:                   "basic",
		BasePriceMonthly:       dec(t, "9.99"),
		MaxMenus:               1,
		PricePerAdditionalMenu: dec(t, "2.99"),
		AllowsImages:           true,
		Active:                 true,
		SortOrder:              1,
	}
	pro := &models.Tier{
		Name:                    "pro",
		BasePriceMonthly:        dec(t, "29.99"),
		MaxMenus:                5,
		PricePerAdditionalMenu:  dec(t, "4.99"),
		AllowsPDF:               true,
		AllowsCustomFonts:       true,
		AllowsImages:            true,
		AllowsMultipleLocations: true,
		Active:                  true,
		SortOrder:               2,
	}
	if err := repo.SaveTier(basic); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveTier(pro); err != nil {
		t.Fatal(err)
	}
	fx.basic, fx.pro = basic.ID, pro.ID

	analytics := &models.Feature{Key: "advanced_analytics", Name: "Advanced analytics", Category: "analytics", BasePrice: dec(t, "9.99"), Active: true}
	domain := &models.Feature{Key: "custom_domain", Name: "Custom domain", Category: "branding", BasePrice: dec(t, "4.99"), Active: true}
	whatsapp := &models.Feature{Key: "whatsapp_orders", Name: "WhatsApp orders", Category: "orders", BasePrice: dec(t, "7.99"), Active: true}
	for _, ft := range []*models.Feature{analytics, domain, whatsapp} {
		if err := repo.SaveFeature(ft); err != nil {
			t.Fatal(err)
		}
	}
	fx.analytics, fx.domain, fx.whatsapp = analytics.ID, domain.ID, whatsapp.ID

	matrix := []*models.TierFeature{
		{TierID: pro.ID, FeatureID: analytics.ID, DiscountPercentage: dec(t, "30")},
		{TierID: pro.ID, FeatureID: domain.ID, IncludedByDefault: true},
		{TierID: basic.ID, FeatureID: whatsapp.ID},
		{TierID: pro.ID, FeatureID: whatsapp.ID, DiscountPercentage: dec(t, "25")},
	}
	for _, tf := range matrix {
		if err := repo.UpsertTierFeature(tf); err != nil {
			t.Fatal(err)
		}
	}

	fx.restaurantID = uuid.NewString()
	repo.restaurants[fx.restaurantID] = models.Restaurant{
		ID:      fx.restaurantID,
		OwnerID: uuid.NewString(),
		Name:    "La Taqueria",
		Slug:    "la-taqueria",
	}

	fx.now = time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	svc := NewService(repo, NewCatalog(repo), DefaultConfig())
	svc.now = func() time.Time { return fx.now }
	fx.svc = svc
	return fx
}

// createPro creates a pro subscription with advanced analytics attached.
func (fx *fixture) createPro(t *testing.T) string {
	t.Helper()
	subID, err := fx.svc.CreateSubscription(context.Background(), CreateSubscriptionInput{
		RestaurantID: fx.restaurantID,
		TierID:       fx.pro,
		FeatureIDs:   []uint{fx.analytics},
	})
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	return subID
}
