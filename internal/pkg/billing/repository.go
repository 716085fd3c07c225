package billing

import (
	"errors"
	"time"

	"github.com/cartamenu/carta/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the DB operations used by the billing engine.
// Methods return gorm.ErrRecordNotFound for missing rows; the engine maps
// that onto its error taxonomy. Transaction yields a Repository bound to
// the transaction so multi-step mutations commit or roll back as one unit.
type Repository interface {
	Transaction(fn func(Repository) error) error

	ListActiveTiers() ([]models.Tier, error)
	GetTier(id uint) (*models.Tier, error)
	SaveTier(tier *models.Tier) error
	ListActiveFeatures() ([]models.Feature, error)
	GetFeature(id uint) (*models.Feature, error)
	SaveFeature(feature *models.Feature) error
	ListTierFeatures(tierID uint) ([]models.TierFeature, error)
	GetTierFeature(tierID, featureID uint) (*models.TierFeature, error)
	UpsertTierFeature(tf *models.TierFeature) error

	CreateSubscription(sub *models.Subscription) error
	GetSubscription(id string) (*models.Subscription, error)
	// LockSubscription reads the subscription FOR UPDATE. Only meaningful
	// inside Transaction; it is the per-subscription serialization point.
	LockSubscription(id string) (*models.Subscription, error)
	SaveSubscription(sub *models.Subscription) error
	FindActiveSubscriptionByRestaurant(restaurantID string) (*models.Subscription, error)
	ListSubscriptionsByRestaurant(restaurantID string) ([]models.Subscription, error)
	// ListDueSubscriptions returns active subscriptions whose billing date
	// has passed, for the renewal sweep.
	ListDueSubscriptions(asOf time.Time) ([]models.Subscription, error)

	ListActiveSubscriptionFeatures(subscriptionID string) ([]models.SubscriptionFeature, error)
	GetActiveSubscriptionFeature(subscriptionID string, featureID uint) (*models.SubscriptionFeature, error)
	CreateSubscriptionFeature(sf *models.SubscriptionFeature) error
	SaveSubscriptionFeature(sf *models.SubscriptionFeature) error

	AppendChange(change *models.SubscriptionChange) error
	ListChanges(subscriptionID string) ([]models.SubscriptionChange, error)

	CreateInvoice(invoice *models.Invoice, items []models.InvoiceLineItem) error
	GetInvoice(id string) (*models.Invoice, error)
	LockInvoice(id string) (*models.Invoice, error)
	GetInvoiceByPeriod(subscriptionID string, periodStart, periodEnd time.Time) (*models.Invoice, error)
	ListInvoicesBySubscription(subscriptionID string) ([]models.Invoice, error)
	ListInvoiceLineItems(invoiceID string) ([]models.InvoiceLineItem, error)
	SaveInvoice(invoice *models.Invoice) error
	MarkInvoicesOverdue(asOf time.Time) (int64, error)
	// NextInvoiceNumber bumps the locked counter row and returns the value
	// handed out. Call inside Transaction.
	NextInvoiceNumber() (int64, error)

	GetRestaurant(id string) (*models.Restaurant, error)
	CountMenus(restaurantID string) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) ListActiveTiers() ([]models.Tier, error) {
	var tiers []models.Tier
	err := r.db.Where("active = ?", true).Order("sort_order asc").Find(&tiers).Error
	return tiers, err
}

func (r *gormRepository) GetTier(id uint) (*models.Tier, error) {
	var tier models.Tier
	if err := r.db.First(&tier, id).Error; err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *gormRepository) SaveTier(tier *models.Tier) error {
	return r.db.Save(tier).Error
}

func (r *gormRepository) ListActiveFeatures() ([]models.Feature, error) {
	var features []models.Feature
	err := r.db.Where("active = ?", true).Order("category asc, name asc").Find(&features).Error
	return features, err
}

func (r *gormRepository) GetFeature(id uint) (*models.Feature, error) {
	var feature models.Feature
	if err := r.db.First(&feature, id).Error; err != nil {
		return nil, err
	}
	return &feature, nil
}

func (r *gormRepository) SaveFeature(feature *models.Feature) error {
	return r.db.Save(feature).Error
}

func (r *gormRepository) ListTierFeatures(tierID uint) ([]models.TierFeature, error) {
	var tfs []models.TierFeature
	err := r.db.Where("tier_id = ?", tierID).Find(&tfs).Error
	return tfs, err
}

func (r *gormRepository) GetTierFeature(tierID, featureID uint) (*models.TierFeature, error) {
	var tf models.TierFeature
	err := r.db.Where("tier_id = ? AND feature_id = ?", tierID, featureID).First(&tf).Error
	if err != nil {
		return nil, err
	}
	return &tf, nil
}

func (r *gormRepository) UpsertTierFeature(tf *models.TierFeature) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tier_id"},
			{Name: "feature_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"included_by_default",
			"discount_percentage",
		}),
	}).Create(tf).Error; err != nil {
		return err
	}

	return r.db.Where("tier_id = ? AND feature_id = ?", tf.TierID, tf.FeatureID).First(tf).Error
}

func (r *gormRepository) CreateSubscription(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *gormRepository) GetSubscription(id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Where("id = ?", id).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) LockSubscription(id string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) FindActiveSubscriptionByRestaurant(restaurantID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("restaurant_id = ? AND active = ?", restaurantID, true).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) ListSubscriptionsByRestaurant(restaurantID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("restaurant_id = ?", restaurantID).Order("started_at desc").Find(&subs).Error
	return subs, err
}

func (r *gormRepository) ListDueSubscriptions(asOf time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("active = ? AND next_billing_date IS NOT NULL AND next_billing_date <= ?", true, asOf).
		Order("next_billing_date asc").
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) ListActiveSubscriptionFeatures(subscriptionID string) ([]models.SubscriptionFeature, error) {
	var sfs []models.SubscriptionFeature
	err := r.db.Where("subscription_id = ? AND is_active = ?", subscriptionID, true).Find(&sfs).Error
	return sfs, err
}

func (r *gormRepository) GetActiveSubscriptionFeature(subscriptionID string, featureID uint) (*models.SubscriptionFeature, error) {
	var sf models.SubscriptionFeature
	err := r.db.Where("subscription_id = ? AND feature_id = ? AND is_active = ?", subscriptionID, featureID, true).
		First(&sf).Error
	if err != nil {
		return nil, err
	}
	return &sf, nil
}

func (r *gormRepository) CreateSubscriptionFeature(sf *models.SubscriptionFeature) error {
	return r.db.Create(sf).Error
}

func (r *gormRepository) SaveSubscriptionFeature(sf *models.SubscriptionFeature) error {
	return r.db.Save(sf).Error
}

func (r *gormRepository) AppendChange(change *models.SubscriptionChange) error {
	return r.db.Create(change).Error
}

func (r *gormRepository) ListChanges(subscriptionID string) ([]models.SubscriptionChange, error) {
	var changes []models.SubscriptionChange
	err := r.db.Where("subscription_id = ?", subscriptionID).Order("created_at desc").Find(&changes).Error
	return changes, err
}

func (r *gormRepository) CreateInvoice(invoice *models.Invoice, items []models.InvoiceLineItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = invoice.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gormRepository) GetInvoice(id string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.Where("id = ?", id).First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *gormRepository) LockInvoice(id string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *gormRepository) GetInvoiceByPeriod(subscriptionID string, periodStart, periodEnd time.Time) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.Where("subscription_id = ? AND period_start = ? AND period_end = ?", subscriptionID, periodStart, periodEnd).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *gormRepository) ListInvoicesBySubscription(subscriptionID string) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Where("subscription_id = ?", subscriptionID).Order("period_start desc").Find(&invoices).Error
	return invoices, err
}

func (r *gormRepository) ListInvoiceLineItems(invoiceID string) ([]models.InvoiceLineItem, error) {
	var items []models.InvoiceLineItem
	err := r.db.Where("invoice_id = ?", invoiceID).Find(&items).Error
	return items, err
}

func (r *gormRepository) SaveInvoice(invoice *models.Invoice) error {
	return r.db.Save(invoice).Error
}

func (r *gormRepository) MarkInvoicesOverdue(asOf time.Time) (int64, error) {
	tx := r.db.Model(&models.Invoice{}).
		Where("status = ? AND due_date < ?", models.InvoiceStatusPending, asOf).
		Update("status", models.InvoiceStatusOverdue)
	return tx.RowsAffected, tx.Error
}

func (r *gormRepository) NextInvoiceNumber() (int64, error) {
	var seq models.InvoiceSequence
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = models.InvoiceSequence{ID: 1, Next: 1}
		if err := r.db.Create(&seq).Error; err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	n := seq.Next
	seq.Next = n + 1
	if err := r.db.Save(&seq).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *gormRepository) GetRestaurant(id string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.Where("id = ?", id).First(&restaurant).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *gormRepository) CountMenus(restaurantID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Menu{}).Where("restaurant_id = ?", restaurantID).Count(&count).Error
	return count, err
}
