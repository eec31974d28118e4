package ds

import "time"

const (
	SprintStatusDraft     = "draft"
	SprintStatusSubmitted = "submitted"
	SprintStatusApproved  = "approved"
	SprintStatusRejected  = "rejected"
	SprintStatusDeleted   = "deleted"
)

// 3. Черновики спринтов (заявки клиента). Итоги пересчитываются движком pricing
type SprintDraft struct {
	ID          uint       `gorm:"primaryKey"`
	AccountID   uint       `gorm:"not null;index"`
	Title       string     `gorm:"type:varchar(200)"`
	Status      string     `gorm:"type:varchar(20);not null;index"`
	SubmittedAt *time.Time `gorm:"default:null"`
	ReviewedAt  *time.Time `gorm:"default:null"`
	ReviewerID  *uint      `gorm:"default:null"`
	// Рассчитываемые поля
	TotalEstimatePoints float64 `gorm:"type:decimal(10,1);default:0"`
	TotalFixedHours     float64 `gorm:"type:decimal(10,1);default:0"`
	TotalFixedPrice     float64 `gorm:"type:decimal(12,1);default:0"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Account  Account  `gorm:"foreignKey:AccountID"`
	Reviewer *Account `gorm:"foreignKey:ReviewerID"`
}

// 4. Таблица многие-ко-многим (спринты-результаты) + коэффициент сложности
type SprintDraftDeliverable struct {
	ID                   uint     `gorm:"primaryKey"`
	SprintDraftID        uint     `gorm:"not null;index;uniqueIndex:idx_draft_deliverable"`
	DeliverableID        uint     `gorm:"not null;index;uniqueIndex:idx_draft_deliverable"`
	Quantity             float64  `gorm:"type:decimal(8,2);default:1"`
	ComplexityScore      float64  `gorm:"type:decimal(4,2);default:1.0"`
	CustomEstimatePoints *float64 `gorm:"type:decimal(8,2);default:null"` // Переопределение баллов за единицу
	CustomHours          *float64 `gorm:"type:decimal(10,1);default:null"` // Часы по позиции после пересчета

	SprintDraft SprintDraft `gorm:"foreignKey:SprintDraftID"`
	Deliverable Deliverable `gorm:"foreignKey:DeliverableID"`
}
