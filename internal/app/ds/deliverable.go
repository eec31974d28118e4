package ds

// 2. Каталог результатов (deliverables) - справочная информация с номинальными баллами
type Deliverable struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"type:varchar(150);not null"`
	Description string  `gorm:"type:text"`
	Category    string  `gorm:"type:varchar(50);index"`
	Points      float64 `gorm:"column:default_estimate_points;type:decimal(8,2);not null;default:0"` // Баллы за единицу
	ImageKey    *string `gorm:"type:varchar(255)"`                                                   // Nullable, ключ объекта в хранилище
	IsDeleted   bool    `gorm:"type:boolean;default:false;not null"`
}
