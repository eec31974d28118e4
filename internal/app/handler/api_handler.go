package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"sprintdesk/internal/app/config"
	"sprintdesk/internal/app/dto"
	"sprintdesk/internal/app/mailer"
	"sprintdesk/internal/app/middleware"
	"sprintdesk/internal/app/repository"
	"sprintdesk/internal/app/webhook"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ObjectStorage - хранилище файлов (MinIO / S3)
type ObjectStorage interface {
	UploadFile(ctx context.Context, key string, data []byte) (string, error)
	DeleteFile(ctx context.Context, key string) error
	GetFileURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// presignTTL - срок жизни ссылок на файлы
const presignTTL = time.Hour

// APIHandler содержит обработчики для REST API
type APIHandler struct {
	Repository  *repository.Repository
	Storage     ObjectStorage
	Config      *config.Config
	AuthHandler *AuthHandler
	Stripe      *webhook.StripeVerifier
}

func NewAPIHandler(r *repository.Repository, storage ObjectStorage, tokens TokenStore, m mailer.Mailer, cfg *config.Config) *APIHandler {
	return &APIHandler{
		Repository:  r,
		Storage:     storage,
		Config:      cfg,
		AuthHandler: NewAuthHandler(r, tokens, m, cfg),
		Stripe:      webhook.NewStripeVerifier(cfg.Webhooks.StripeSecret),
	}
}

// ============ Вспомогательные функции ============

func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.ErrorResponse{
		Status:  "fail",
		Message: message,
	})
}

func successResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	response := dto.SuccessResponse{
		Status:  "success",
		Message: message,
	}
	if data != nil {
		response.Data = data
	}
	c.JSON(statusCode, response)
}

// repositoryError переводит ошибки репозитория в HTTP-ответ
func repositoryError(c *gin.Context, err error, notFoundMessage string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		errorResponse(c, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, repository.ErrInvalidStatus):
		errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrAlreadyExists):
		errorResponse(c, http.StatusConflict, err.Error())
	default:
		logrus.Error(err)
		errorResponse(c, http.StatusInternalServerError, "Внутренняя ошибка сервера")
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// currentAccount возвращает аккаунт из контекста или отвечает 401
func currentAccount(c *gin.Context) (middleware.CurrentAccount, bool) {
	account, ok := middleware.GetAccountFromContext(c)
	if !ok {
		logrus.Warn("account not found in context")
		errorResponse(c, http.StatusUnauthorized, "Ошибка авторизации")
		return account, false
	}
	return account, true
}

// fileURL строит временную ссылку на объект; пустая строка, если хранилище недоступно
func (h *APIHandler) fileURL(ctx context.Context, key string) string {
	if key == "" || h.Storage == nil {
		return ""
	}
	url, err := h.Storage.GetFileURL(ctx, key, presignTTL)
	if err != nil {
		logrus.Warnf("failed to presign %s: %v", key, err)
		return ""
	}
	return url
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &parsed
}
