package handler

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"sprintdesk/internal/app/config"
	"sprintdesk/internal/app/ds"
	"sprintdesk/internal/app/dto"
	"sprintdesk/internal/app/mailer"
	"sprintdesk/internal/app/middleware"
	"sprintdesk/internal/app/redis"
	"sprintdesk/internal/app/repository"
	"sprintdesk/internal/app/role"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TokenStore - одноразовые ссылки, коды входа и blacklist JWT (Redis)
type TokenStore interface {
	SaveMagicLink(ctx context.Context, token, email string, ttl time.Duration) error
	ConsumeMagicLink(ctx context.Context, token string) (string, error)
	SaveLoginCode(ctx context.Context, email, code string, ttl time.Duration) error
	VerifyLoginCode(ctx context.Context, email, code string, maxAttempts int) error
	WriteJWTToBlacklist(ctx context.Context, jwtStr string, jwtTTL time.Duration) error
	IsJWTBlacklisted(ctx context.Context, jwtStr string) (bool, error)
}

type AuthHandler struct {
	Repository *repository.Repository
	Tokens     TokenStore
	Mailer     mailer.Mailer
	Config     *config.Config
}

func NewAuthHandler(r *repository.Repository, tokens TokenStore, m mailer.Mailer, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		Repository: r,
		Tokens:     tokens,
		Mailer:     m,
		Config:     cfg,
	}
}

// generateLoginCode - шестизначный код для входа
func generateLoginCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toAccountResponse(a *ds.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:       a.ID,
		Email:    a.Email,
		FullName: a.FullName,
		Company:  a.Company,
		Role:     role.Role(a.Role).String(),
	}
}

// RequestMagicLink отправляет ссылку и код для входа
// @Summary Запрос ссылки для входа
// @Description Создает аккаунт при первом входе и отправляет на email одноразовую ссылку и шестизначный код
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.MagicLinkRequest true "Email"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/auth/magic-link [post]
func (h *AuthHandler) RequestMagicLink(ctx *gin.Context) {
	var request dto.MagicLinkRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		errorResponse(ctx, http.StatusBadRequest, "Неверный email")
		return
	}
	email := normalizeEmail(request.Email)

	account, created, err := h.Repository.GetOrCreateAccount(email)
	if err != nil {
		logrus.Error("Error getting account: ", err)
		errorResponse(ctx, http.StatusInternalServerError, "Ошибка создания аккаунта")
		return
	}
	if created {
		logrus.Infof("account %d created for %s", account.ID, email)
	}
	if h.Config.IsAdminEmail(email) && role.Role(account.Role) != role.Admin {
		if err := h.Repository.SetAccountRole(account.ID, role.Admin); err != nil {
			logrus.Error("Error promoting account: ", err)
		}
	}

	code, err := generateLoginCode()
	if err != nil {
		logrus.Error("Error generating code: ", err)
		errorResponse(ctx, http.StatusInternalServerError, "Ошибка отправки ссылки")
		return
	}
	token := uuid.New().String()

	reqCtx := ctx.Request.Context()
	if err := h.Tokens.SaveMagicLink(reqCtx, token, email, h.Config.Auth.MagicLinkTTL); err != nil {
		logrus.Error("Error saving magic link: ", err)
		errorResponse(ctx, http.StatusInternalServerError, "Ошибка отправки ссылки")
		return
	}
	if err := h.Tokens.SaveLoginCode(reqCtx, email, code, h.Config.Auth.LoginCodeTTL); err != nil {
		logrus.Error("Error saving login code: ", err)
		errorResponse(ctx, http.StatusInternalServerError, "Ошибка отправки ссылки")
		return
	}

	link := strings.TrimRight(h.Config.AppBaseURL, "/") + "/api/auth/magic/" + token
	text := fmt.Sprintf("Ссылка для входа: %s\nКод для входа: %s\nСсылка действует %s.",
		link, code, h.Config.Auth.MagicLinkTTL)
	if err := h.Mailer.Send(reqCtx, email, "Вход в личный кабинет", text); err != nil {
		logrus.Error("Error sending email: ", err)
		errorResponse(ctx, http.StatusInternalServerError, "Ошибка отправки письма")
		return
	}

	successResponse(ctx, http.StatusOK, "ссылка для входа отправлена", nil)
}

// ConsumeMagicLink вход по одноразовой ссылке
// @Summary Вход по ссылке
// @Description Проверяет одноразовый токен из письма и возвращает JWT
// @Tags Authentication
// @Produce json
// @Param token path string true "Токен из письма"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/auth/magic/{token} [get]
func (h *AuthHandler) ConsumeMagicLink(ctx *gin.Context) {
	email, err := h.Tokens.ConsumeMagicLink(ctx.Request.Context(), ctx.Param("token"))
	if err != nil {
		if !errors.Is(err, redis.ErrTokenNotFound) {
			logrus.Error("Error consuming magic link: ", err)
		}
		errorResponse(ctx, http.StatusUnauthorized, redis.ErrTokenNotFound.Error())
		return
	}

	h.issueToken(ctx, email)
}

// VerifyCode вход по коду из письма
// @Summary Вход по коду
// @Description Проверяет шестизначный код. После исчерпания попыток код аннулируется
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.VerifyCodeRequest true "Email и код"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /api/auth/verify-code [post]
func (h *AuthHandler) VerifyCode(ctx *gin.Context) {
	var request dto.VerifyCodeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		errorResponse(ctx, http.StatusBadRequest, "Неверные данные запроса")
		return
	}
	email := normalizeEmail(request.Email)

	err := h.Tokens.VerifyLoginCode(ctx.Request.Context(), email, request.Code, h.Config.Auth.MaxCodeAttempts)
	switch {
	case err == nil:
	case errors.Is(err, redis.ErrTooManyAttempts):
		errorResponse(ctx, http.StatusTooManyRequests, err.Error())
		return
	case errors.Is(err, redis.ErrCodeNotFound):
		errorResponse(ctx, http.StatusUnauthorized, err.Error())
		return
	default:
		logrus.Error("Error verifying code: ", err)
		errorResponse(ctx, http.StatusInternalServerError, "Ошибка проверки кода")
		return
	}

	h.issueToken(ctx, email)
}

// issueToken выдает JWT для аккаунта с указанным email
func (h *AuthHandler) issueToken(ctx *gin.Context, email string) {
	account, err := h.Repository.GetAccountByEmail(email)
	if err != nil {
		repositoryError(ctx, err, "Аккаунт не найден")
		return
	}

	now := time.Now()
	expiresAt := now.Add(h.Config.JWT.ExpiresIn)
	token := jwt.NewWithClaims(h.Config.JWT.SigningMethod, &ds.JWTClaims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    "sprintdesk",
			Subject:   account.Email,
		},
		AccountID: account.ID,
		Role:      role.Role(account.Role),
	})

	accessToken, err := token.SignedString([]byte(h.Config.JWT.Token))
	if err != nil {
		logrus.Error("Error signing token: ", err)
		errorResponse(ctx, http.StatusInternalServerError, "Ошибка выдачи токена")
		return
	}

	ctx.JSON(http.StatusOK, dto.AuthResponse{
		Token:     accessToken,
		ExpiresAt: time.Unix(expiresAt.Unix(), 0).UTC(),
		Account:   toAccountResponse(account),
	})
}

// LogoutUser выход пользователя из системы
// @Summary Выход из системы
// @Description Завершение сеанса пользователя с добавлением токена в blacklist
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SuccessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/auth/logout [post]
func (h *AuthHandler) LogoutUser(ctx *gin.Context) {
	tokenString := middleware.BearerToken(ctx)
	if tokenString == "" {
		errorResponse(ctx, http.StatusUnauthorized, "Отсутствует токен")
		return
	}

	claims := &ds.JWTClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(h.Config.JWT.Token), nil
	})
	if err != nil {
		errorResponse(ctx, http.StatusUnauthorized, "Неверный токен")
		return
	}

	// Вычисление TTL до истечения токена
	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	if ttl > 0 {
		if err := h.Tokens.WriteJWTToBlacklist(ctx.Request.Context(), tokenString, ttl); err != nil {
			logrus.Error("Error writing token to blacklist: ", err)
			errorResponse(ctx, http.StatusInternalServerError, "Ошибка выхода из системы")
			return
		}
	}

	successResponse(ctx, http.StatusOK, "пользователь успешно вышел из системы", nil)
}

// GetProfile получение профиля
// @Summary Получение профиля
// @Description Возвращает информацию о текущем аккаунте
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/auth/profile [get]
func (h *AuthHandler) GetProfile(ctx *gin.Context) {
	current, ok := currentAccount(ctx)
	if !ok {
		return
	}

	account, err := h.Repository.GetAccountByID(current.ID)
	if err != nil {
		repositoryError(ctx, err, "Аккаунт не найден")
		return
	}

	ctx.JSON(http.StatusOK, toAccountResponse(account))
}

// UpdateProfile обновление профиля
// @Summary Обновление профиля
// @Description Обновляет имя и компанию текущего аккаунта
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Данные профиля"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/auth/profile [put]
func (h *AuthHandler) UpdateProfile(ctx *gin.Context) {
	current, ok := currentAccount(ctx)
	if !ok {
		return
	}

	var request dto.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		errorResponse(ctx, http.StatusBadRequest, "Неверные данные запроса")
		return
	}

	if err := h.Repository.UpdateAccount(current.ID, request.FullName, request.Company); err != nil {
		repositoryError(ctx, err, "Аккаунт не найден")
		return
	}

	h.GetProfile(ctx)
}
