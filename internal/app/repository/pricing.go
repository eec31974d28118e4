package repository

import (
	"fmt"

	"sprintdesk/internal/app/ds"
	"sprintdesk/internal/app/metrics"
	"sprintdesk/internal/app/pricing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RoundTenth округляет до одного знака перед сохранением в БД
func RoundTenth(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

// draftLineItem переводит строку М-М в позицию расчета.
// Переопределенные администратором баллы имеют приоритет над баллами из каталога
func draftLineItem(row ds.SprintDraftDeliverable) pricing.LineItem {
	points := row.Deliverable.Points
	quantity := row.Quantity
	complexity := row.ComplexityScore

	return pricing.ItemInput{
		Points:                row.CustomEstimatePoints,
		DefaultEstimatePoints: &points,
		Quantity:              &quantity,
		ComplexityScore:       &complexity,
	}.Normalize()
}

func packageLineItem(row ds.SprintPackageDeliverable) pricing.LineItem {
	points := row.Deliverable.Points
	quantity := row.Quantity
	complexity := row.ComplexityScore

	return pricing.ItemInput{
		DefaultEstimatePoints: &points,
		Quantity:              &quantity,
		ComplexityScore:       &complexity,
	}.Normalize()
}

// RecalculateSprintTotals пересчитывает итоги черновика спринта и часы по каждой позиции.
// Пересчитываются только черновики и отправленные спринты
func (r *Repository) RecalculateSprintTotals(draftID uint) (pricing.Result, error) {
	var result pricing.Result
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var draft ds.SprintDraft
		if err := tx.Select("id", "status").Where("id = ? AND status != ?", draftID, ds.SprintStatusDeleted).
			First(&draft).Error; err != nil {
			return notFound(err)
		}
		if draft.Status != ds.SprintStatusDraft && draft.Status != ds.SprintStatusSubmitted {
			return fmt.Errorf("спринт %d в статусе %s: %w", draftID, draft.Status, ErrInvalidStatus)
		}

		var err error
		result, err = recalculateSprintTotals(tx, draftID)
		return err
	})
	return result, err
}

func recalculateSprintTotals(tx *gorm.DB, draftID uint) (pricing.Result, error) {
	var rows []ds.SprintDraftDeliverable
	err := tx.Joins("Deliverable").
		Where("sprint_draft_deliverables.sprint_draft_id = ?", draftID).
		Order("sprint_draft_deliverables.id").
		Find(&rows).Error
	if err != nil {
		return pricing.Result{}, err
	}

	items := make([]pricing.LineItem, len(rows))
	for i, row := range rows {
		items[i] = draftLineItem(row)
	}

	result := pricing.CalculateFromDeliverables(items)
	if !result.Finite() {
		return pricing.Result{}, fmt.Errorf("sprint draft %d: %w", draftID, pricing.ErrNonFinite)
	}

	for i, row := range rows {
		hours := RoundTenth(pricing.HoursFromPoints(items[i].EffectivePoints()))
		err := tx.Model(&ds.SprintDraftDeliverable{}).Where("id = ?", row.ID).Update("custom_hours", hours).Error
		if err != nil {
			return pricing.Result{}, err
		}
	}

	err = tx.Model(&ds.SprintDraft{}).Where("id = ?", draftID).Updates(map[string]interface{}{
		"total_estimate_points": RoundTenth(result.Points),
		"total_fixed_hours":     RoundTenth(result.Hours),
		"total_fixed_price":     RoundTenth(result.Price),
	}).Error
	if err != nil {
		return pricing.Result{}, err
	}

	metrics.RecordPricingRun("sprint_draft")
	return result, nil
}

// RecalculatePackageTotals пересчитывает итоги пакета
func (r *Repository) RecalculatePackageTotals(packageID uint) (pricing.Result, error) {
	var result pricing.Result
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = recalculatePackageTotals(tx, packageID)
		return err
	})
	return result, err
}

func recalculatePackageTotals(tx *gorm.DB, packageID uint) (pricing.Result, error) {
	var rows []ds.SprintPackageDeliverable
	err := tx.Joins("Deliverable").
		Where("sprint_package_deliverables.sprint_package_id = ?", packageID).
		Order("sprint_package_deliverables.id").
		Find(&rows).Error
	if err != nil {
		return pricing.Result{}, err
	}

	items := make([]pricing.LineItem, len(rows))
	for i, row := range rows {
		items[i] = packageLineItem(row)
	}

	result := pricing.CalculateFromDeliverables(items)
	if !result.Finite() {
		return pricing.Result{}, fmt.Errorf("sprint package %d: %w", packageID, pricing.ErrNonFinite)
	}

	err = tx.Model(&ds.SprintPackage{}).Where("id = ?", packageID).Updates(map[string]interface{}{
		"total_estimate_points": RoundTenth(result.Points),
		"total_fixed_hours":     RoundTenth(result.Hours),
		"total_fixed_price":     RoundTenth(result.Price),
	}).Error
	if err != nil {
		return pricing.Result{}, err
	}

	metrics.RecordPricingRun("sprint_package")
	return result, nil
}
