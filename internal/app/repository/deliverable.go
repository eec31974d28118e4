package repository

import (
	"strings"

	"sprintdesk/internal/app/ds"
)

// Простая структура результата для отображения
type Deliverable struct {
	ID          uint
	Name        string
	Description string
	Category    string
	Points      float64
	ImageKey    string
}

func toDeliverable(d ds.Deliverable) Deliverable {
	imageKey := ""
	if d.ImageKey != nil {
		imageKey = *d.ImageKey
	}
	return Deliverable{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Points:      d.Points,
		ImageKey:    imageKey,
	}
}

// Методы для работы с каталогом результатов

// GetDeliverables возвращает каталог с фильтрами по названию и категории
func (r *Repository) GetDeliverables(query, category string) ([]Deliverable, error) {
	tx := r.db.Where("is_deleted = ?", false)
	if query != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	if category != "" {
		tx = tx.Where("category = ?", category)
	}

	var dbDeliverables []ds.Deliverable
	err := tx.Order("category, name").Find(&dbDeliverables).Error
	if err != nil {
		return nil, err
	}

	deliverables := make([]Deliverable, len(dbDeliverables))
	for i, d := range dbDeliverables {
		deliverables[i] = toDeliverable(d)
	}
	return deliverables, nil
}

func (r *Repository) GetDeliverableByID(id uint) (*Deliverable, error) {
	var dbDeliverable ds.Deliverable
	err := r.db.Where("id = ? AND is_deleted = ?", id, false).First(&dbDeliverable).Error
	if err != nil {
		return nil, notFound(err)
	}

	deliverable := toDeliverable(dbDeliverable)
	return &deliverable, nil
}

func (r *Repository) CreateDeliverable(name, description, category string, points float64) (*Deliverable, error) {
	dbDeliverable := ds.Deliverable{
		Name:        name,
		Description: description,
		Category:    category,
		Points:      points,
	}
	if err := r.db.Create(&dbDeliverable).Error; err != nil {
		return nil, err
	}

	deliverable := toDeliverable(dbDeliverable)
	return &deliverable, nil
}

// UpdateDeliverable обновляет только переданные поля. Изменение баллов не пересчитывает
// существующие спринты автоматически: итоги обновятся при следующем изменении позиций
func (r *Repository) UpdateDeliverable(id uint, name, description, category *string, points *float64) error {
	updates := map[string]interface{}{}
	if name != nil {
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}
	if category != nil {
		updates["category"] = *category
	}
	if points != nil {
		updates["default_estimate_points"] = *points
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.Model(&ds.Deliverable{}).Where("id = ? AND is_deleted = ?", id, false).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDeliverable - логическое удаление
func (r *Repository) DeleteDeliverable(id uint) error {
	result := r.db.Model(&ds.Deliverable{}).Where("id = ? AND is_deleted = ?", id, false).Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateDeliverableImage(id uint, imageKey string) error {
	return r.db.Model(&ds.Deliverable{}).Where("id = ?", id).Update("image_key", imageKey).Error
}

// GetDeliverableCategories - список категорий для фильтра
func (r *Repository) GetDeliverableCategories() ([]string, error) {
	var categories []string
	err := r.db.Model(&ds.Deliverable{}).
		Where("is_deleted = ? AND category <> ''", false).
		Distinct().Order("category").Pluck("category", &categories).Error
	return categories, err
}
