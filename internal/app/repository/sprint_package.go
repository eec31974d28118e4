package repository

import (
	"errors"

	"sprintdesk/internal/app/ds"
	"sprintdesk/internal/app/pricing"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Позиция пакета
type PackageItem struct {
	DeliverableID   uint
	Name            string
	Category        string
	BasePoints      float64
	Quantity        float64
	ComplexityScore float64
	EffectivePoints float64
}

// Методы для работы с пакетами спринтов

func (r *Repository) GetSprintPackages(activeOnly bool) ([]ds.SprintPackage, error) {
	tx := r.db
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}

	var packages []ds.SprintPackage
	err := tx.Order("total_fixed_price, id").Find(&packages).Error
	return packages, err
}

func (r *Repository) GetSprintPackageByID(id uint) (*ds.SprintPackage, error) {
	var pkg ds.SprintPackage
	err := r.db.First(&pkg, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &pkg, nil
}

func (r *Repository) GetPackageItems(packageID uint) ([]PackageItem, error) {
	var rows []ds.SprintPackageDeliverable
	err := r.db.Joins("Deliverable").
		Where("sprint_package_deliverables.sprint_package_id = ?", packageID).
		Order("sprint_package_deliverables.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]PackageItem, len(rows))
	for i, row := range rows {
		items[i] = PackageItem{
			DeliverableID:   row.DeliverableID,
			Name:            row.Deliverable.Name,
			Category:        row.Deliverable.Category,
			BasePoints:      row.Deliverable.Points,
			Quantity:        row.Quantity,
			ComplexityScore: row.ComplexityScore,
			EffectivePoints: packageLineItem(row).EffectivePoints(),
		}
	}
	return items, nil
}

// CreateSprintPackage создает пакет; slug строится из названия, если не передан
func (r *Repository) CreateSprintPackage(name, packageSlug, description string) (*ds.SprintPackage, error) {
	if packageSlug == "" {
		packageSlug = slug.Make(name)
	}

	var count int64
	if err := r.db.Model(&ds.SprintPackage{}).Where("slug = ?", packageSlug).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyExists
	}

	empty := pricing.CalculateFromDeliverables(nil)
	pkg := ds.SprintPackage{
		Name:            name,
		Slug:            packageSlug,
		Description:     description,
		IsActive:        true,
		TotalFixedPrice: RoundTenth(empty.Price),
	}
	if err := r.db.Create(&pkg).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *Repository) UpdateSprintPackage(id uint, name, description *string, isActive *bool) error {
	updates := map[string]interface{}{}
	if name != nil {
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.Model(&ds.SprintPackage{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSprintPackage удаляет пакет вместе с позициями. Созданные из него спринты не затрагиваются
func (r *Repository) DeleteSprintPackage(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sprint_package_id = ?", id).Delete(&ds.SprintPackageDeliverable{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&ds.SprintPackage{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SetPackageDeliverable добавляет позицию в пакет или обновляет существующую
func (r *Repository) SetPackageDeliverable(packageID, deliverableID uint, quantity, complexity float64) (pricing.Result, error) {
	var result pricing.Result

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var pkg ds.SprintPackage
		if err := tx.First(&pkg, packageID).Error; err != nil {
			return notFound(err)
		}

		var deliverable ds.Deliverable
		err := tx.Where("id = ? AND is_deleted = ?", deliverableID, false).First(&deliverable).Error
		if err != nil {
			return notFound(err)
		}

		var existing ds.SprintPackageDeliverable
		err = tx.Where("sprint_package_id = ? AND deliverable_id = ?", packageID, deliverableID).First(&existing).Error
		switch {
		case err == nil:
			err = tx.Model(&existing).Updates(map[string]interface{}{
				"quantity":         quantity,
				"complexity_score": complexity,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			err = tx.Create(&ds.SprintPackageDeliverable{
				SprintPackageID: packageID,
				DeliverableID:   deliverableID,
				Quantity:        quantity,
				ComplexityScore: complexity,
			}).Error
		}
		if err != nil {
			return err
		}

		result, err = recalculatePackageTotals(tx, packageID)
		return err
	})

	return result, err
}

func (r *Repository) RemovePackageDeliverable(packageID, deliverableID uint) (pricing.Result, error) {
	var result pricing.Result

	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("sprint_package_id = ? AND deliverable_id = ?", packageID, deliverableID).
			Delete(&ds.SprintPackageDeliverable{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		var err error
		result, err = recalculatePackageTotals(tx, packageID)
		return err
	})

	return result, err
}
