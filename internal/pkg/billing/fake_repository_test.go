package billing

import (
	"sort"
	"sync"
	"time"

	"github.com/cartamenu/carta/app/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeRepository is an in-memory Repository for engine tests. It mimics
// the storage contract (gorm.ErrRecordNotFound for missing rows, uuid ids
// assigned on create) without real transactions or locking.
type fakeRepository struct {
	mu    sync.Mutex
	tiers        map[uint]models.Tier
	features     map[uint]models.Feature
	tierFeatures []models.TierFeature
	subs         map[string]models.Subscription
	subFeatures  map[string]models.SubscriptionFeature
	changes      []models.SubscriptionChange
	invoices     map[string]models.Invoice
	lineItems    map[string][]models.InvoiceLineItem
	restaurants  map[string]models.Restaurant
	menuCounts   map[string]int64

	nextTierID    uint
	nextFeatureID uint
	nextTFID      uint
	nextInvoiceNo int64
	clock         time.Time
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		tiers:         make(map[uint]models.Tier),
		features:      make(map[uint]models.Feature),
		subs:          make(map[string]models.Subscription),
		subFeatures:   make(map[string]models.SubscriptionFeature),
		invoices:      make(map[string]models.Invoice),
		lineItems:     make(map[string][]models.InvoiceLineItem),
		restaurants:   make(map[string]models.Restaurant),
		menuCounts:    make(map[string]int64),
		nextTierID:    1,
		nextFeatureID: 1,
		nextTFID:      1,
		nextInvoiceNo: 1,
		clock:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRepository) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// Transaction serializes like the row lock the real repository takes.
func (f *fakeRepository) Transaction(fn func(Repository) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(f)
}

func (f *fakeRepository) ListActiveTiers() ([]models.Tier, error) {
	var tiers []models.Tier
	for _, t := range f.tiers {
		if t.Active {
			tiers = append(tiers, t)
		}
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].SortOrder < tiers[j].SortOrder })
	return tiers, nil
}

func (f *fakeRepository) GetTier(id uint) (*models.Tier, error) {
	t, ok := f.tiers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (f *fakeRepository) SaveTier(tier *models.Tier) error {
	if tier.ID == 0 {
		tier.ID = f.nextTierID
		f.nextTierID++
	}
	f.tiers[tier.ID] = *tier
	return nil
}

func (f *fakeRepository) ListActiveFeatures() ([]models.Feature, error) {
	var features []models.Feature
	for _, ft := range f.features {
		if ft.Active {
			features = append(features, ft)
		}
	}
	sort.Slice(features, func(i, j int) bool {
		if features[i].Category != features[j].Category {
			return features[i].Category < features[j].Category
		}
		return features[i].Name < features[j].Name
	})
	return features, nil
}

func (f *fakeRepository) GetFeature(id uint) (*models.Feature, error) {
	ft, ok := f.features[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &ft, nil
}

func (f *fakeRepository) SaveFeature(feature *models.Feature) error {
	if feature.ID == 0 {
		feature.ID = f.nextFeatureID
		f.nextFeatureID++
	}
	f.features[feature.ID] = *feature
	return nil
}

func (f *fakeRepository) ListTierFeatures(tierID uint) ([]models.TierFeature, error) {
	var tfs []models.TierFeature
	for _, tf := range f.tierFeatures {
		if tf.TierID == tierID {
			tfs = append(tfs, tf)
		}
	}
	return tfs, nil
}

func (f *fakeRepository) GetTierFeature(tierID, featureID uint) (*models.TierFeature, error) {
	for _, tf := range f.tierFeatures {
		if tf.TierID == tierID && tf.FeatureID == featureID {
			out := tf
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) UpsertTierFeature(tf *models.TierFeature) error {
	for i := range f.tierFeatures {
		if f.tierFeatures[i].TierID == tf.TierID && f.tierFeatures[i].FeatureID == tf.FeatureID {
			f.tierFeatures[i].IncludedByDefault = tf.IncludedByDefault
			f.tierFeatures[i].DiscountPercentage = tf.DiscountPercentage
			*tf = f.tierFeatures[i]
			return nil
		}
	}
	tf.ID = f.nextTFID
	f.nextTFID++
	f.tierFeatures = append(f.tierFeatures, *tf)
	return nil
}

func (f *fakeRepository) CreateSubscription(sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.CreatedAt = f.tick()
	f.subs[sub.ID] = *sub
	return nil
}

func (f *fakeRepository) GetSubscription(id string) (*models.Subscription, error) {
	sub, ok := f.subs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &sub, nil
}

func (f *fakeRepository) LockSubscription(id string) (*models.Subscription, error) {
	return f.GetSubscription(id)
}

func (f *fakeRepository) SaveSubscription(sub *models.Subscription) error {
	f.subs[sub.ID] = *sub
	return nil
}

func (f *fakeRepository) FindActiveSubscriptionByRestaurant(restaurantID string) (*models.Subscription, error) {
	for _, sub := range f.subs {
		if sub.RestaurantID == restaurantID && sub.Active {
			out := sub
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListSubscriptionsByRestaurant(restaurantID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	for _, sub := range f.subs {
		if sub.RestaurantID == restaurantID {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].StartedAt.After(subs[j].StartedAt) })
	return subs, nil
}

func (f *fakeRepository) ListDueSubscriptions(asOf time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	for _, sub := range f.subs {
		if sub.Active && sub.NextBillingDate != nil && !sub.NextBillingDate.After(asOf) {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].NextBillingDate.Before(*subs[j].NextBillingDate) })
	return subs, nil
}

func (f *fakeRepository) ListActiveSubscriptionFeatures(subscriptionID string) ([]models.SubscriptionFeature, error) {
	var sfs []models.SubscriptionFeature
	for _, sf := range f.subFeatures {
		if sf.SubscriptionID == subscriptionID && sf.IsActive {
			sfs = append(sfs, sf)
		}
	}
	sort.Slice(sfs, func(i, j int) bool { return sfs[i].CreatedAt.Before(sfs[j].CreatedAt) })
	return sfs, nil
}

func (f *fakeRepository) GetActiveSubscriptionFeature(subscriptionID string, featureID uint) (*models.SubscriptionFeature, error) {
	for _, sf := range f.subFeatures {
		if sf.SubscriptionID == subscriptionID && sf.FeatureID == featureID && sf.IsActive {
			out := sf
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreateSubscriptionFeature(sf *models.SubscriptionFeature) error {
	if sf.ID == "" {
		sf.ID = uuid.NewString()
	}
	sf.CreatedAt = f.tick()
	f.subFeatures[sf.ID] = *sf
	return nil
}

func (f *fakeRepository) SaveSubscriptionFeature(sf *models.SubscriptionFeature) error {
	f.subFeatures[sf.ID] = *sf
	return nil
}

func (f *fakeRepository) AppendChange(change *models.SubscriptionChange) error {
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	change.CreatedAt = f.tick()
	f.changes = append(f.changes, *change)
	return nil
}

func (f *fakeRepository) ListChanges(subscriptionID string) ([]models.SubscriptionChange, error) {
	var changes []models.SubscriptionChange
	for i := len(f.changes) - 1; i >= 0; i-- {
		if f.changes[i].SubscriptionID == subscriptionID {
			changes = append(changes, f.changes[i])
		}
	}
	return changes, nil
}

func (f *fakeRepository) CreateInvoice(invoice *models.Invoice, items []models.InvoiceLineItem) error {
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	invoice.CreatedAt = f.tick()
	f.invoices[invoice.ID] = *invoice
	stored := make([]models.InvoiceLineItem, len(items))
	for i := range items {
		items[i].InvoiceID = invoice.ID
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		stored[i] = items[i]
	}
	f.lineItems[invoice.ID] = stored
	return nil
}

func (f *fakeRepository) GetInvoice(id string) (*models.Invoice, error) {
	invoice, ok := f.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &invoice, nil
}

func (f *fakeRepository) LockInvoice(id string) (*models.Invoice, error) {
	return f.GetInvoice(id)
}

func (f *fakeRepository) GetInvoiceByPeriod(subscriptionID string, periodStart, periodEnd time.Time) (*models.Invoice, error) {
	for _, invoice := range f.invoices {
		if invoice.SubscriptionID == subscriptionID &&
			invoice.PeriodStart.Equal(periodStart) &&
			invoice.PeriodEnd.Equal(periodEnd) {
			out := invoice
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListInvoicesBySubscription(subscriptionID string) ([]models.Invoice, error) {
	var invoices []models.Invoice
	for _, invoice := range f.invoices {
		if invoice.SubscriptionID == subscriptionID {
			invoices = append(invoices, invoice)
		}
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].PeriodStart.After(invoices[j].PeriodStart) })
	return invoices, nil
}

func (f *fakeRepository) ListInvoiceLineItems(invoiceID string) ([]models.InvoiceLineItem, error) {
	return f.lineItems[invoiceID], nil
}

func (f *fakeRepository) SaveInvoice(invoice *models.Invoice) error {
	f.invoices[invoice.ID] = *invoice
	return nil
}

func (f *fakeRepository) MarkInvoicesOverdue(asOf time.Time) (int64, error) {
	var n int64
	for id, invoice := range f.invoices {
		if invoice.Status == models.InvoiceStatusPending && invoice.DueDate.Before(asOf) {
			invoice.Status = models.InvoiceStatusOverdue
			f.invoices[id] = invoice
			n++
		}
	}
	return n, nil
}

func (f *fakeRepository) NextInvoiceNumber() (int64, error) {
	n := f.nextInvoiceNo
	f.nextInvoiceNo++
	return n, nil
}

func (f *fakeRepository) GetRestaurant(id string) (*models.Restaurant, error) {
	restaurant, ok := f.restaurants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &restaurant, nil
}

func (f *fakeRepository) CountMenus(restaurantID string) (int64, error) {
	return f.menuCounts[restaurantID], nil
}
