package ds

import "time"

// 8. Загруженные клиентом файлы (бриф, материалы). Сами файлы лежат в объектном хранилище
type Document struct {
	ID            uint   `gorm:"primaryKey"`
	AccountID     uint   `gorm:"not null;index"`
	SprintDraftID *uint  `gorm:"default:null;index"`
	FileName      string `gorm:"type:varchar(255);not null"`
	ObjectKey     string `gorm:"type:varchar(255);uniqueIndex;not null"`
	ContentType   string `gorm:"type:varchar(100)"`
	Size          int64
	CreatedAt     time.Time
}
