package repository

import (
	"errors"

	"sprintdesk/internal/app/ds"
)

// SaveIntakeSubmission сохраняет ответ анкеты. Повторная доставка того же ответа
// (тот же response token) возвращает уже сохраненную запись
func (r *Repository) SaveIntakeSubmission(sub *ds.IntakeSubmission) (bool, error) {
	var existing ds.IntakeSubmission
	err := r.db.Where("response_token = ?", sub.ResponseToken).First(&existing).Error
	if err == nil {
		*sub = existing
		return false, nil
	}
	if err = notFound(err); !errors.Is(err, ErrNotFound) {
		return false, err
	}

	if sub.Email != "" && sub.AccountID == nil {
		if account, err := r.GetAccountByEmail(sub.Email); err == nil {
			sub.AccountID = &account.ID
		}
	}

	if err := r.db.Create(sub).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) GetIntakeSubmissions(formID string, limit int) ([]ds.IntakeSubmission, error) {
	tx := r.db
	if formID != "" {
		tx = tx.Where("form_id = ?", formID)
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var subs []ds.IntakeSubmission
	err := tx.Order("submitted_at DESC, id DESC").Find(&subs).Error
	return subs, err
}

func (r *Repository) GetIntakeSubmissionByID(id uint) (*ds.IntakeSubmission, error) {
	var sub ds.IntakeSubmission
	if err := r.db.First(&sub, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}
