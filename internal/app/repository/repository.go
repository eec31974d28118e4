package repository

import (
	"errors"
	"fmt"

	"sprintdesk/internal/app/ds"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("запись не найдена")
	ErrInvalidStatus = errors.New("действие недоступно в текущем статусе")
	ErrAlreadyExists = errors.New("запись уже существует")
)

type Repository struct {
	db *gorm.DB
}

func New(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	return NewFromDB(db), nil
}

// NewFromDB оборачивает уже открытое соединение (используется в тестах с sqlite)
func NewFromDB(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Models - все таблицы приложения в порядке миграции
func Models() []interface{} {
	return []interface{}{
		&ds.Account{},
		&ds.Deliverable{},
		&ds.SprintDraft{},
		&ds.SprintDraftDeliverable{},
		&ds.SprintPackage{},
		&ds.SprintPackageDeliverable{},
		&ds.Invoice{},
		&ds.Document{},
		&ds.IntakeSubmission{},
	}
}

// Migrate выполняет автоматическую миграцию всех таблиц
func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Ping проверяет доступность БД
func (r *Repository) Ping() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// notFound переводит gorm.ErrRecordNotFound в ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
