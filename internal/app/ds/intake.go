package ds

import (
	"time"

	"gorm.io/datatypes"
)

// 9. Ответы на входную анкету (Typeform webhook)
type IntakeSubmission struct {
	ID            uint           `gorm:"primaryKey"`
	FormID        string         `gorm:"type:varchar(50);index"`
	ResponseToken string         `gorm:"type:varchar(100);uniqueIndex;not null"`
	Email         string         `gorm:"type:varchar(255);index"`
	AccountID     *uint          `gorm:"default:null"`
	Answers       datatypes.JSON `gorm:"not null"`
	SubmittedAt   time.Time
	CreatedAt     time.Time
}
