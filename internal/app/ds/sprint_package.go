package ds

// 5. Готовые пакеты спринтов (шаблоны с набором результатов)
type SprintPackage struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"type:varchar(150);not null"`
	Slug        string `gorm:"type:varchar(150);uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"type:boolean;default:true;not null"`
	// Рассчитываемые поля
	TotalEstimatePoints float64 `gorm:"type:decimal(10,1);default:0"`
	TotalFixedHours     float64 `gorm:"type:decimal(10,1);default:0"`
	TotalFixedPrice     float64 `gorm:"type:decimal(12,1);default:0"`
}

// 6. Таблица многие-ко-многим (пакеты-результаты)
type SprintPackageDeliverable struct {
	ID              uint    `gorm:"primaryKey"`
	SprintPackageID uint    `gorm:"not null;index;uniqueIndex:idx_package_deliverable"`
	DeliverableID   uint    `gorm:"not null;index;uniqueIndex:idx_package_deliverable"`
	Quantity        float64 `gorm:"type:decimal(8,2);default:1"`
	ComplexityScore float64 `gorm:"type:decimal(4,2);default:1.0"`

	SprintPackage SprintPackage `gorm:"foreignKey:SprintPackageID"`
	Deliverable   Deliverable   `gorm:"foreignKey:DeliverableID"`
}
