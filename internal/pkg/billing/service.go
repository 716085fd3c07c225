package billing

import (
	"errors"
	"time"

	"github.com/cartamenu/carta/app/models"
	"gorm.io/gorm"
)

// Service is the subscription & billing engine: lifecycle mutations,
// pricing, invoicing and history on top of an injected Repository. All
// mutations run inside a transaction holding a row lock on the
// subscription, so concurrent changes to one subscription serialize.
type Service struct {
	repo    Repository
	catalog *Catalog
	cfg     Config
	now     func() time.Time
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository, catalog *Catalog, cfg Config) *Service {
	return &Service{repo: repo, catalog: catalog, cfg: cfg, now: time.Now}
}

// NewServiceFromDB creates a billing service from a GORM DB handle with
// configuration read from the environment.
func NewServiceFromDB(db *gorm.DB) *Service {
	repo := NewRepository(db)
	return NewService(repo, NewCatalog(repo), ConfigFromEnv())
}

// Catalog exposes the catalog component backing this service.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

func (s *Service) getSubscription(id string) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("subscription %s not found", id)
		}
		return nil, storageErr(err)
	}
	return sub, nil
}

func lockSubscription(repo Repository, id string) (*models.Subscription, error) {
	sub, err := repo.LockSubscription(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("subscription %s not found", id)
		}
		return nil, storageErr(err)
	}
	return sub, nil
}
