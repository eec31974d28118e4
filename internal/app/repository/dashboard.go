package repository

import (
	"sprintdesk/internal/app/ds"

	"github.com/shopspring/decimal"
)

// DashboardStats - сводка для панели администратора
type DashboardStats struct {
	DraftsByStatus    map[string]int64
	OpenInvoices      int64
	OutstandingAmount decimal.Decimal
	PaidAmount        decimal.Decimal
	DeliverableCount  int64
	AccountCount      int64
	RecentSubmissions []ds.IntakeSubmission
	PipelineValue     float64 // сумма total_fixed_price отправленных и утвержденных спринтов
}

func (r *Repository) GetDashboardStats(recent int) (*DashboardStats, error) {
	stats := &DashboardStats{DraftsByStatus: map[string]int64{}}

	var byStatus []struct {
		Status string
		Count  int64
	}
	err := r.db.Model(&ds.SprintDraft{}).
		Select("status, COUNT(*) AS count").
		Where("status != ?", ds.SprintStatusDeleted).
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, err
	}
	for _, s := range byStatus {
		stats.DraftsByStatus[s.Status] = s.Count
	}

	var invoices []ds.Invoice
	if err := r.db.Where("status != ?", ds.InvoiceStatusVoid).Find(&invoices).Error; err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		switch inv.Status {
		case ds.InvoiceStatusOpen:
			stats.OpenInvoices++
			stats.OutstandingAmount = stats.OutstandingAmount.Add(inv.Amount)
		case ds.InvoiceStatusPaid:
			stats.PaidAmount = stats.PaidAmount.Add(inv.Amount)
		}
	}

	var pipeline []float64
	err = r.db.Model(&ds.SprintDraft{}).
		Where("status IN ?", []string{ds.SprintStatusSubmitted, ds.SprintStatusApproved}).
		Pluck("total_fixed_price", &pipeline).Error
	if err != nil {
		return nil, err
	}
	for _, p := range pipeline {
		stats.PipelineValue += p
	}
	stats.PipelineValue = RoundTenth(stats.PipelineValue)

	if err := r.db.Model(&ds.Deliverable{}).Where("is_deleted = ?", false).Count(&stats.DeliverableCount).Error; err != nil {
		return nil, err
	}
	if stats.AccountCount, err = r.CountAccounts(); err != nil {
		return nil, err
	}

	stats.RecentSubmissions, err = r.GetIntakeSubmissions("", recent)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
