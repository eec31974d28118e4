package ds

import (
	"sprintdesk/internal/app/role"

	"github.com/golang-jwt/jwt"
)

type JWTClaims struct {
	jwt.StandardClaims
	AccountID uint      `json:"account_id"`
	Role      role.Role `json:"role"`
}
