package main

import (
	"log"

	"github.com/cartamenu/carta/app/models"
	"github.com/cartamenu/carta/internal/pkg/billing"
	"github.com/cartamenu/carta/internal/pkg/database"
	"github.com/cartamenu/carta/internal/pkg/env"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// Seeds the default catalog: three tiers, the common add-on features and
// the tier-feature matrix. Safe to run repeatedly.
func main() {
	env.SetupEnvFile()
	database.SetupDatabase()
	db := database.DB

	tiers := []models.Tier{
		{
			Name:                   "basic",
			Description:            "One menu, digital only",
			BasePriceMonthly:       dec("9.99"),
			MaxMenus:               1,
			PricePerAdditionalMenu: dec("2.99"),
			AllowsImages:           true,
			Active:                 true,
			SortOrder:              1,
		},
		{
			Name:                   "standard",
			Description:            "Growing restaurants with several menus",
			BasePriceMonthly:       dec("19.99"),
			MaxMenus:               3,
			PricePerAdditionalMenu: dec("3.99"),
			AllowsPDF:              true,
			AllowsImages:           true,
			Active:                 true,
			SortOrder:              2,
		},
		{
			Name:                    "pro",
			Description:             "Full feature set for restaurant groups",
			BasePriceMonthly:        dec("29.99"),
			MaxMenus:                models.UnlimitedMenus,
			PricePerAdditionalMenu:  decimal.Zero,
			AllowsPDF:               true,
			AllowsCustomFonts:       true,
			AllowsImages:            true,
			AllowsMultipleLocations: true,
			Active:                  true,
			SortOrder:               3,
		},
	}
	for i := range tiers {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "sort_order"}),
		}).Create(&tiers[i]).Error
		if err != nil {
			log.Fatalf("Error seeding tier %s: %v", tiers[i].Name, err)
		}
		if err := db.Where("name = ?", tiers[i].Name).First(&tiers[i]).Error; err != nil {
			log.Fatalf("Error reading back tier %s: %v", tiers[i].Name, err)
		}
	}

	features := []models.Feature{
		{Key: "advanced_analytics", Name: "Advanced analytics", Description: "Views, scans and dish popularity", Category: "analytics", BasePrice: dec("9.99"), Active: true},
		{Key: "custom_domain", Name: "Custom domain", Description: "Serve the menu under your own domain", Category: "branding", BasePrice: dec("4.99"), Active: true},
		{Key: "whatsapp_orders", Name: "WhatsApp orders", Description: "Take orders over WhatsApp", Category: "orders", BasePrice: dec("7.99"), Active: true},
		{Key: "table_reservations", Name: "Table reservations", Description: "Built-in reservation widget", Category: "orders", BasePrice: dec("12.99"), Active: true},
	}
	for i := range features {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "category"}),
		}).Create(&features[i]).Error
		if err != nil {
			log.Fatalf("Error seeding feature %s: %v", features[i].Key, err)
		}
		if err := db.Where("`key` = ?", features[i].Key).First(&features[i]).Error; err != nil {
			log.Fatalf("Error reading back feature %s: %v", features[i].Key, err)
		}
	}

	byKey := map[string]uint{}
	for _, ft := range features {
		byKey[ft.Key] = ft.ID
	}
	byName := map[string]uint{}
	for _, tier := range tiers {
		byName[tier.Name] = tier.ID
	}

	repo := billing.NewRepository(db)
	matrix := []models.TierFeature{
		{TierID: byName["basic"], FeatureID: byKey["whatsapp_orders"]},
		{TierID: byName["standard"], FeatureID: byKey["whatsapp_orders"], DiscountPercentage: dec("10")},
		{TierID: byName["standard"], FeatureID: byKey["advanced_analytics"], DiscountPercentage: dec("15")},
		{TierID: byName["standard"], FeatureID: byKey["custom_domain"]},
		{TierID: byName["pro"], FeatureID: byKey["whatsapp_orders"], DiscountPercentage: dec("25")},
		{TierID: byName["pro"], FeatureID: byKey["advanced_analytics"], DiscountPercentage: dec("30")},
		{TierID: byName["pro"], FeatureID: byKey["custom_domain"], IncludedByDefault: true},
		{TierID: byName["pro"], FeatureID: byKey["table_reservations"], DiscountPercentage: dec("20")},
	}
	for i := range matrix {
		if err := repo.UpsertTierFeature(&matrix[i]); err != nil {
			log.Fatalf("Error seeding tier-feature matrix: %v", err)
		}
	}

	log.Printf("Seed complete: %d tiers, %d features, %d matrix rows", len(tiers), len(features), len(matrix))
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Fatalf("Invalid decimal literal %q: %v", s, err)
	}
	return d
}
