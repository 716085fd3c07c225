package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Restaurant is the owning entity of menus and subscriptions. Menu CRUD
// lives outside this engine; the model exists so subscriptions have a real
// owner and menus can be counted for tier limits.
type Restaurant struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	OwnerID   string    `gorm:"type:char(36);not null;index" json:"owner_id"`
	Name      string    `gorm:"type:varchar(150);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(150);not null;uniqueIndex" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
