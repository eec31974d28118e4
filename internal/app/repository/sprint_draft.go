package repository

import (
	"errors"
	"fmt"
	"time"

	"sprintdesk/internal/app/ds"
	"sprintdesk/internal/app/pricing"

	"gorm.io/gorm"
)

// Структура позиции в спринте (данные из каталога + М-М таблицы)
type SprintItem struct {
	DeliverableID        uint
	Name                 string
	Description          string
	Category             string
	BasePoints           float64  // из каталога
	Quantity             float64  // из таблицы sprint_draft_deliverables
	ComplexityScore      float64  // из таблицы sprint_draft_deliverables
	CustomEstimatePoints *float64 // из таблицы sprint_draft_deliverables
	CustomHours          *float64 // из таблицы sprint_draft_deliverables
	EffectivePoints      float64  // баллы × количество × сложность
}

// SprintDraftFilter - фильтры списка черновиков
type SprintDraftFilter struct {
	Status    string
	DateFrom  *time.Time
	DateTo    *time.Time
	AccountID *uint // nil - все аккаунты (для администратора)
}

// DraftItemUpdate - изменяемые поля позиции. nil - не менять
type DraftItemUpdate struct {
	Quantity             *float64
	ComplexityScore      *float64
	CustomEstimatePoints *float64
	ClearCustomPoints    bool
}

// Методы для работы с черновиками спринтов

func (r *Repository) GetSprintDrafts(filter SprintDraftFilter) ([]ds.SprintDraft, error) {
	tx := r.db.Preload("Account").Preload("Reviewer").
		Where("status != ?", ds.SprintStatusDeleted)

	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != nil {
		tx = tx.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		// включительно до конца дня
		tx = tx.Where("created_at < ?", filter.DateTo.Add(24*time.Hour))
	}
	if filter.AccountID != nil {
		tx = tx.Where("account_id = ?", *filter.AccountID)
	}

	var drafts []ds.SprintDraft
	err := tx.Order("created_at DESC, id DESC").Find(&drafts).Error
	return drafts, err
}

// Получить черновик по ID (только если он не удален)
func (r *Repository) GetSprintDraftByID(id uint) (*ds.SprintDraft, error) {
	var draft ds.SprintDraft
	err := r.db.Preload("Account").Preload("Reviewer").
		Where("id = ? AND status != ?", id, ds.SprintStatusDeleted).
		First(&draft).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &draft, nil
}

// GetSprintItems возвращает позиции спринта в порядке добавления
func (r *Repository) GetSprintItems(draftID uint) ([]SprintItem, error) {
	var rows []ds.SprintDraftDeliverable
	err := r.db.Joins("Deliverable").
		Where("sprint_draft_deliverables.sprint_draft_id = ?", draftID).
		Order("sprint_draft_deliverables.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]SprintItem, len(rows))
	for i, row := range rows {
		items[i] = SprintItem{
			DeliverableID:        row.DeliverableID,
			Name:                 row.Deliverable.Name,
			Description:          row.Deliverable.Description,
			Category:             row.Deliverable.Category,
			BasePoints:           row.Deliverable.Points,
			Quantity:             row.Quantity,
			ComplexityScore:      row.ComplexityScore,
			CustomEstimatePoints: row.CustomEstimatePoints,
			CustomHours:          row.CustomHours,
			EffectivePoints:      draftLineItem(row).EffectivePoints(),
		}
	}
	return items, nil
}

// GetSprintDraftWithItems - черновик вместе с позициями
func (r *Repository) GetSprintDraftWithItems(id uint) (*ds.SprintDraft, []SprintItem, error) {
	draft, err := r.GetSprintDraftByID(id)
	if err != nil {
		return nil, nil, err
	}

	items, err := r.GetSprintItems(draft.ID)
	if err != nil {
		return nil, nil, err
	}
	return draft, items, nil
}

// Создать новый черновик спринта. Пустой спринт стоит базовый сбор
func (r *Repository) CreateSprintDraft(accountID uint, title string) (*ds.SprintDraft, error) {
	empty := pricing.CalculateFromDeliverables(nil)
	draft := ds.SprintDraft{
		AccountID:       accountID,
		Title:           title,
		Status:          ds.SprintStatusDraft,
		TotalFixedPrice: RoundTenth(empty.Price),
	}

	if err := r.db.Create(&draft).Error; err != nil {
		return nil, err
	}
	return &draft, nil
}

// CreateSprintDraftFromPackage копирует позиции активного пакета в новый черновик
func (r *Repository) CreateSprintDraftFromPackage(accountID, packageID uint) (*ds.SprintDraft, error) {
	var draft ds.SprintDraft

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var pkg ds.SprintPackage
		err := tx.Where("id = ? AND is_active = ?", packageID, true).First(&pkg).Error
		if err != nil {
			return notFound(err)
		}

		var rows []ds.SprintPackageDeliverable
		if err := tx.Where("sprint_package_id = ?", pkg.ID).Order("id").Find(&rows).Error; err != nil {
			return err
		}

		draft = ds.SprintDraft{
			AccountID: accountID,
			Title:     pkg.Name,
			Status:    ds.SprintStatusDraft,
		}
		if err := tx.Create(&draft).Error; err != nil {
			return err
		}

		for _, row := range rows {
			item := ds.SprintDraftDeliverable{
				SprintDraftID:   draft.ID,
				DeliverableID:   row.DeliverableID,
				Quantity:        row.Quantity,
				ComplexityScore: row.ComplexityScore,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		_, err = recalculateSprintTotals(tx, draft.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return r.GetSprintDraftByID(draft.ID)
}

func (r *Repository) UpdateSprintDraftTitle(id uint, title string) error {
	result := r.db.Model(&ds.SprintDraft{}).
		Where("id = ? AND status != ?", id, ds.SprintStatusDeleted).
		Update("title", title)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Логическое удаление - только из статуса черновик
func (r *Repository) DeleteSprintDraft(id uint) error {
	result := r.db.Model(&ds.SprintDraft{}).
		Where("id = ? AND status = ?", id, ds.SprintStatusDraft).
		Update("status", ds.SprintStatusDeleted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("черновик нельзя удалить - неверный статус или ID: %w", ErrInvalidStatus)
	}
	return nil
}

// Методы для М-М связей (спринт - результат)

// AddDeliverableToDraft добавляет результат в спринт и пересчитывает итоги.
// Повторное добавление того же результата увеличивает количество
func (r *Repository) AddDeliverableToDraft(draftID, deliverableID uint, quantity, complexity float64) (pricing.Result, error) {
	var result pricing.Result

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var deliverable ds.Deliverable
		err := tx.Where("id = ? AND is_deleted = ?", deliverableID, false).First(&deliverable).Error
		if err != nil {
			return notFound(err)
		}

		var existing ds.SprintDraftDeliverable
		err = tx.Where("sprint_draft_id = ? AND deliverable_id = ?", draftID, deliverableID).First(&existing).Error
		switch {
		case err == nil:
			err = tx.Model(&existing).Update("quantity", existing.Quantity+quantity).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			err = tx.Create(&ds.SprintDraftDeliverable{
				SprintDraftID:   draftID,
				DeliverableID:   deliverableID,
				Quantity:        quantity,
				ComplexityScore: complexity,
			}).Error
		}
		if err != nil {
			return err
		}

		result, err = recalculateSprintTotals(tx, draftID)
		return err
	})

	return result, err
}

// UpdateDraftDeliverable меняет количество, сложность или переопределенные баллы позиции
func (r *Repository) UpdateDraftDeliverable(draftID, deliverableID uint, upd DraftItemUpdate) (pricing.Result, error) {
	updates := map[string]interface{}{}
	if upd.Quantity != nil {
		updates["quantity"] = *upd.Quantity
	}
	if upd.ComplexityScore != nil {
		updates["complexity_score"] = *upd.ComplexityScore
	}
	if upd.ClearCustomPoints {
		updates["custom_estimate_points"] = nil
	} else if upd.CustomEstimatePoints != nil {
		updates["custom_estimate_points"] = *upd.CustomEstimatePoints
	}

	var result pricing.Result
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var row ds.SprintDraftDeliverable
		err := tx.Where("sprint_draft_id = ? AND deliverable_id = ?", draftID, deliverableID).First(&row).Error
		if err != nil {
			return notFound(err)
		}

		if len(updates) > 0 {
			if err := tx.Model(&row).Updates(updates).Error; err != nil {
				return err
			}
		}

		result, err = recalculateSprintTotals(tx, draftID)
		return err
	})

	return result, err
}

// Удалить результат из спринта
func (r *Repository) RemoveDeliverableFromDraft(draftID, deliverableID uint) (pricing.Result, error) {
	var result pricing.Result

	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("sprint_draft_id = ? AND deliverable_id = ?", draftID, deliverableID).
			Delete(&ds.SprintDraftDeliverable{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		var err error
		result, err = recalculateSprintTotals(tx, draftID)
		return err
	})

	return result, err
}

func (r *Repository) CountSprintItems(draftID uint) int {
	var count int64
	err := r.db.Model(&ds.SprintDraftDeliverable{}).Where("sprint_draft_id = ?", draftID).Count(&count).Error
	if err != nil {
		return 0
	}
	return int(count)
}

// SubmitSprintDraft переводит черновик в статус "отправлен" (действие клиента)
func (r *Repository) SubmitSprintDraft(id uint) error {
	if r.CountSprintItems(id) == 0 {
		return fmt.Errorf("нельзя отправить пустой спринт: %w", ErrInvalidStatus)
	}

	now := time.Now()
	result := r.db.Model(&ds.SprintDraft{}).
		Where("id = ? AND status = ?", id, ds.SprintStatusDraft).
		Updates(map[string]interface{}{
			"status":       ds.SprintStatusSubmitted,
			"submitted_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("спринт не в статусе черновик: %w", ErrInvalidStatus)
	}
	return nil
}

// ReviewSprintDraft - утверждение или отклонение отправленного спринта администратором
func (r *Repository) ReviewSprintDraft(id, reviewerID uint, approve bool) error {
	status := ds.SprintStatusRejected
	if approve {
		status = ds.SprintStatusApproved
	}

	now := time.Now()
	result := r.db.Model(&ds.SprintDraft{}).
		Where("id = ? AND status = ?", id, ds.SprintStatusSubmitted).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_at": now,
			"reviewer_id": reviewerID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("спринт не отправлен на рассмотрение: %w", ErrInvalidStatus)
	}
	return nil
}
