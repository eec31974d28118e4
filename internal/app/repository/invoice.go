package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sprintdesk/internal/app/ds"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Методы для работы со счетами

const invoiceNumberAttempts = 3

// CreateInvoiceForSprint выставляет счет на утвержденный спринт на сумму total_fixed_price.
// На один спринт допускается только один не аннулированный счет
func (r *Repository) CreateInvoiceForSprint(draftID uint, now time.Time) (*ds.Invoice, error) {
	var (
		invoice *ds.Invoice
		err     error
	)
	// параллельно выставленный счет мог занять тот же номер - берем следующий
	for attempt := 0; attempt < invoiceNumberAttempts; attempt++ {
		invoice, err = r.createInvoiceForSprint(draftID, now)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	return invoice, err
}

func (r *Repository) createInvoiceForSprint(draftID uint, now time.Time) (*ds.Invoice, error) {
	var invoice ds.Invoice

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var draft ds.SprintDraft
		if err := tx.Where("id = ? AND status != ?", draftID, ds.SprintStatusDeleted).First(&draft).Error; err != nil {
			return notFound(err)
		}
		if draft.Status != ds.SprintStatusApproved {
			return fmt.Errorf("счет выставляется только на утвержденный спринт: %w", ErrInvalidStatus)
		}

		var existing int64
		err := tx.Model(&ds.Invoice{}).
			Where("sprint_draft_id = ? AND status != ?", draftID, ds.InvoiceStatusVoid).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyExists
		}

		number, err := nextInvoiceNumber(tx, now)
		if err != nil {
			return err
		}

		invoice = ds.Invoice{
			Number:        number,
			AccountID:     draft.AccountID,
			SprintDraftID: draft.ID,
			Amount:        decimal.NewFromFloat(draft.TotalFixedPrice).Round(2),
			Status:        ds.InvoiceStatusOpen,
			IssuedAt:      now,
		}
		return tx.Create(&invoice).Error
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// nextInvoiceNumber - номер вида INV-YYYYMM-0001, нумерация внутри месяца
// продолжает последний выставленный номер
func nextInvoiceNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := fmt.Sprintf("INV-%s-", now.Format("200601"))

	var numbers []string
	err := tx.Model(&ds.Invoice{}).
		Where("number LIKE ?", prefix+"%").
		Order("number DESC").Limit(1).
		Pluck("number", &numbers).Error
	if err != nil {
		return "", err
	}

	seq := 0
	if len(numbers) > 0 {
		seq, err = strconv.Atoi(strings.TrimPrefix(numbers[0], prefix))
		if err != nil {
			return "", fmt.Errorf("invalid invoice number %q: %w", numbers[0], err)
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq+1), nil
}

func (r *Repository) GetInvoices(status string, accountID *uint) ([]ds.Invoice, error) {
	tx := r.db.Preload("Account").Preload("SprintDraft")
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	if accountID != nil {
		tx = tx.Where("account_id = ?", *accountID)
	}

	var invoices []ds.Invoice
	err := tx.Order("issued_at DESC, id DESC").Find(&invoices).Error
	return invoices, err
}

func (r *Repository) GetInvoiceByID(id uint) (*ds.Invoice, error) {
	var invoice ds.Invoice
	err := r.db.Preload("Account").Preload("SprintDraft").First(&invoice, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &invoice, nil
}

// MarkInvoicePaid отмечает открытый счет оплаченным. Повторная отметка оплаченного счета не ошибка
func (r *Repository) MarkInvoicePaid(number, stripeReference string, paidAt time.Time) (*ds.Invoice, error) {
	result := r.db.Model(&ds.Invoice{}).
		Where("number = ? AND status = ?", number, ds.InvoiceStatusOpen).
		Updates(map[string]interface{}{
			"status":           ds.InvoiceStatusPaid,
			"stripe_reference": stripeReference,
			"paid_at":          paidAt,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	var invoice ds.Invoice
	if err := r.db.Where("number = ?", number).First(&invoice).Error; err != nil {
		return nil, notFound(err)
	}
	if result.RowsAffected > 0 {
		return &invoice, nil
	}

	// счет уже не открыт: оплачен раньше или аннулирован
	if invoice.Status == ds.InvoiceStatusVoid {
		return nil, fmt.Errorf("счет %s аннулирован: %w", number, ErrInvalidStatus)
	}
	return &invoice, nil
}

// VoidInvoice аннулирует только открытый счет
func (r *Repository) VoidInvoice(id uint) error {
	result := r.db.Model(&ds.Invoice{}).
		Where("id = ? AND status = ?", id, ds.InvoiceStatusOpen).
		Update("status", ds.InvoiceStatusVoid)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("аннулировать можно только открытый счет: %w", ErrInvalidStatus)
	}
	return nil
}
