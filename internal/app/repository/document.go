package repository

import (
	"sprintdesk/internal/app/ds"
)

// Методы для работы с документами

func (r *Repository) CreateDocument(doc *ds.Document) error {
	return r.db.Create(doc).Error
}

func (r *Repository) GetDocuments(accountID *uint, sprintDraftID *uint) ([]ds.Document, error) {
	tx := r.db
	if accountID != nil {
		tx = tx.Where("account_id = ?", *accountID)
	}
	if sprintDraftID != nil {
		tx = tx.Where("sprint_draft_id = ?", *sprintDraftID)
	}

	var docs []ds.Document
	err := tx.Order("created_at DESC, id DESC").Find(&docs).Error
	return docs, err
}

func (r *Repository) GetDocumentByID(id uint) (*ds.Document, error) {
	var doc ds.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &doc, nil
}

func (r *Repository) DeleteDocument(id uint) error {
	result := r.db.Delete(&ds.Document{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
