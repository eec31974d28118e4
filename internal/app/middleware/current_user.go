package middleware

import (
	"sprintdesk/internal/app/role"

	"github.com/gin-gonic/gin"
)

const (
	ContextAccountID   = "accountID"
	ContextAccountRole = "accountRole"
)

// CurrentAccount - аккаунт, от имени которого выполняется запрос
type CurrentAccount struct {
	ID   uint
	Role role.Role
}

func (a CurrentAccount) IsAdmin() bool {
	return a.Role == role.Admin
}

// GetAccountFromContext извлекает аккаунт, сохраненный WithAuthCheck
func GetAccountFromContext(c *gin.Context) (CurrentAccount, bool) {
	id, ok := c.Get(ContextAccountID)
	if !ok {
		return CurrentAccount{}, false
	}
	accountID, ok := id.(uint)
	if !ok {
		return CurrentAccount{}, false
	}

	accountRole := role.Client
	if r, ok := c.Get(ContextAccountRole); ok {
		if rr, ok := r.(role.Role); ok {
			accountRole = rr
		}
	}

	return CurrentAccount{ID: accountID, Role: accountRole}, true
}
