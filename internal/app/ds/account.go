package ds

import "time"

// 1. Таблица аккаунтов (клиенты и администраторы), вход по magic link / коду
type Account struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName  string    `gorm:"type:varchar(100)"`
	Company   string    `gorm:"type:varchar(100)"`
	Role      int       `gorm:"type:int;default:0;not null"` // 0 - клиент, 1 - администратор
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time
}
