package middleware

import (
	"context"
	"net/http"
	"strings"

	"sprintdesk/internal/app/ds"
	"sprintdesk/internal/app/role"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/sirupsen/logrus"
)

// TokenBlacklist - хранилище отозванных JWT (Redis)
type TokenBlacklist interface {
	IsJWTBlacklisted(ctx context.Context, jwtStr string) (bool, error)
}

type AuthMiddleware struct {
	blacklist TokenBlacklist
	secret    []byte
}

func NewAuthMiddleware(blacklist TokenBlacklist, jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		blacklist: blacklist,
		secret:    []byte(jwtSecret),
	}
}

// WithAuthCheck middleware для проверки авторизации с ролями
func (am *AuthMiddleware) WithAuthCheck(assignedRoles ...role.Role) gin.HandlerFunc {
	return func(gCtx *gin.Context) {
		jwtStr := BearerToken(gCtx)
		if jwtStr == "" {
			gCtx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		// Проверяем токен в blacklist Redis
		blacklisted, err := am.blacklist.IsJWTBlacklisted(gCtx.Request.Context(), jwtStr)
		if err != nil {
			logrus.Errorf("blacklist check failed: %v", err)
			gCtx.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		if blacklisted {
			gCtx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := am.ParseToken(jwtStr)
		if err != nil {
			gCtx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		if len(assignedRoles) > 0 && !hasRequiredRole(claims.Role, assignedRoles) {
			gCtx.AbortWithStatus(http.StatusForbidden)
			return
		}

		gCtx.Set(ContextAccountID, claims.AccountID)
		gCtx.Set(ContextAccountRole, claims.Role)

		gCtx.Next()
	}
}

// OptionalAuth сохраняет аккаунт в контексте, если передан валидный токен, и никогда не прерывает запрос
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(gCtx *gin.Context) {
		jwtStr := BearerToken(gCtx)
		if jwtStr == "" {
			gCtx.Next()
			return
		}

		blacklisted, err := am.blacklist.IsJWTBlacklisted(gCtx.Request.Context(), jwtStr)
		if err != nil || blacklisted {
			gCtx.Next()
			return
		}

		if claims, err := am.ParseToken(jwtStr); err == nil {
			gCtx.Set(ContextAccountID, claims.AccountID)
			gCtx.Set(ContextAccountRole, claims.Role)
		}
		gCtx.Next()
	}
}

// ParseToken парсит и валидирует JWT токен
func (am *AuthMiddleware) ParseToken(tokenString string) (*ds.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ds.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return am.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*ds.JWTClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// BearerToken достает токен из заголовка Authorization (префикс "Bearer " необязателен)
func BearerToken(gCtx *gin.Context) string {
	header := strings.TrimSpace(gCtx.GetHeader("Authorization"))
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func hasRequiredRole(accountRole role.Role, requiredRoles []role.Role) bool {
	for _, requiredRole := range requiredRoles {
		if accountRole == requiredRole {
			return true
		}
	}
	return false
}
