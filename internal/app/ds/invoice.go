package ds

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceStatusOpen = "open"
	InvoiceStatusPaid = "paid"
	InvoiceStatusVoid = "void"
)

// 7. Счета на оплату утвержденных спринтов
type Invoice struct {
	ID              uint            `gorm:"primaryKey"`
	Number          string          `gorm:"type:varchar(30);uniqueIndex;not null"`
	AccountID       uint            `gorm:"not null;index"`
	SprintDraftID   uint            `gorm:"not null;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status          string          `gorm:"type:varchar(20);not null"`
	StripeReference string          `gorm:"type:varchar(100)"`
	IssuedAt        time.Time       `gorm:"not null"`
	PaidAt          *time.Time      `gorm:"default:null"`

	Account     Account     `gorm:"foreignKey:AccountID"`
	SprintDraft SprintDraft `gorm:"foreignKey:SprintDraftID"`
}
