package models

// InvoiceSequence is the single counter row behind sequential invoice
// numbers. It is read and bumped under a row lock so concurrent invoice
// generation never hands out the same number twice.
type InvoiceSequence struct {
	ID   uint  `gorm:"primaryKey" json:"id"`
	Next int64 `gorm:"not null;default:1" json:"next"`
}
