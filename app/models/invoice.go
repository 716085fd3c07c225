package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	InvoiceStatusPending   = "pending"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
	InvoiceStatusRefunded  = "refunded"
)

// Invoice is an immutable record of charges for one billing period.
// Once paid, only the status may transition further. The unique index on
// (subscription_id, period_start, period_end) backs the one-invoice-per-
// period guarantee.
type Invoice struct {
	ID              string          `gorm:"type:char(36);primaryKey" json:"id"`
	SubscriptionID  string          `gorm:"type:char(36);not null;index:ux_invoices_sub_period,unique,priority:1" json:"subscription_id"`
	InvoiceNumber   string          `gorm:"type:varchar(32);not null;uniqueIndex" json:"invoice_number"`
	PeriodStart     time.Time       `gorm:"not null;index:ux_invoices_sub_period,unique,priority:2" json:"period_start"`
	PeriodEnd       time.Time       `gorm:"not null;index:ux_invoices_sub_period,unique,priority:3" json:"period_end"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal"`
	Tax             decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"tax"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total"`
	Status          string          `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	PaidAt          *time.Time      `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	DueDate         time.Time       `gorm:"not null" json:"due_date"`
	PaymentMethod   string          `gorm:"type:varchar(50)" json:"payment_method,omitempty"`
	PaymentMetadata string          `gorm:"type:text" json:"payment_metadata,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// IsPayable reports whether MarkAsPaid may transition this invoice.
func (i *Invoice) IsPayable() bool {
	return i.Status == InvoiceStatusPending || i.Status == InvoiceStatusOverdue
}
