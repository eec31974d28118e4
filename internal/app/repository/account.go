package repository

import (
	"errors"
	"strings"

	"sprintdesk/internal/app/ds"
	"sprintdesk/internal/app/role"
)

// Методы для аккаунтов (ORM)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *Repository) GetAccountByID(id uint) (*ds.Account, error) {
	var account ds.Account
	err := r.db.First(&account, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

func (r *Repository) GetAccountByEmail(email string) (*ds.Account, error) {
	var account ds.Account
	err := r.db.Where("email = ?", normalizeEmail(email)).First(&account).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

// GetOrCreateAccount находит аккаунт по email или регистрирует нового клиента
func (r *Repository) GetOrCreateAccount(email string) (*ds.Account, bool, error) {
	account, err := r.GetAccountByEmail(email)
	if err == nil {
		return account, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	account = &ds.Account{
		Email: normalizeEmail(email),
		Role:  int(role.Client),
	}
	if err := r.db.Create(account).Error; err != nil {
		return nil, false, err
	}
	return account, true, nil
}

func (r *Repository) CreateAccount(email, fullName string, accountRole role.Role) (*ds.Account, error) {
	account := ds.Account{
		Email:    normalizeEmail(email),
		FullName: fullName,
		Role:     int(accountRole),
	}

	err := r.db.Create(&account).Error
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// UpdateAccount обновляет только переданные поля профиля
func (r *Repository) UpdateAccount(id uint, fullName, company *string) error {
	updates := map[string]interface{}{}
	if fullName != nil {
		updates["full_name"] = *fullName
	}
	if company != nil {
		updates["company"] = *company
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.Model(&ds.Account{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) CountAccounts() (int64, error) {
	var count int64
	err := r.db.Model(&ds.Account{}).Count(&count).Error
	return count, err
}

// SetAccountRole меняет роль аккаунта (назначение администратора по списку email)
func (r *Repository) SetAccountRole(id uint, accountRole role.Role) error {
	result := r.db.Model(&ds.Account{}).Where("id = ?", id).Update("role", int(accountRole))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
