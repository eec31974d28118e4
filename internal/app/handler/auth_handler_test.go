package handler

import (
	"net/http"
	"testing"

	"sprintdesk/internal/app/dto"
	"sprintdesk/internal/app/role"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagicLinkFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/auth/magic-link", dto.MagicLinkRequest{Email: " Client@Example.com "}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, env.mailer.sent, 1)
	mail := env.mailer.sent[0]
	assert.Equal(t, "client@example.com", mail.To)
	linkToken := env.tokens.lastLink
	require.NotEmpty(t, linkToken)
	assert.Contains(t, mail.Text, "http://localhost:3000/api/auth/magic/"+linkToken)
	assert.Contains(t, mail.Text, env.tokens.codes["client@example.com"])

	w = env.do(http.MethodGet, "/api/auth/magic/"+linkToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	auth := decode[dto.AuthResponse](t, w)
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, "client@example.com", auth.Account.Email)
	assert.Equal(t, "client", auth.Account.Role)

	// ссылка одноразовая
	w = env.do(http.MethodGet, "/api/auth/magic/"+linkToken, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/auth/profile", nil, auth.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "client@example.com", decode[dto.AccountResponse](t, w).Email)
}

func TestMagicLinkValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/auth/magic-link", dto.MagicLinkRequest{Email: "not-an-email"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.mailer.sent)
}

func TestVerifyCode(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/auth/magic-link", dto.MagicLinkRequest{Email: "client@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	code := env.tokens.codes["client@example.com"]
	require.Len(t, code, 6)

	w = env.do(http.MethodPost, "/api/auth/verify-code", dto.VerifyCodeRequest{Email: "Client@Example.com", Code: code}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode[dto.AuthResponse](t, w).Token)

	// код уже использован
	w = env.do(http.MethodPost, "/api/auth/verify-code", dto.VerifyCodeRequest{Email: "client@example.com", Code: code}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyCodeAttemptsLimit(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/auth/magic-link", dto.MagicLinkRequest{Email: "client@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	code := env.tokens.codes["client@example.com"]

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for range 4 {
		w = env.do(http.MethodPost, "/api/auth/verify-code", dto.VerifyCodeRequest{Email: "client@example.com", Code: wrong}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w = env.do(http.MethodPost, "/api/auth/verify-code", dto.VerifyCodeRequest{Email: "client@example.com", Code: wrong}, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// после исчерпания попыток верный код тоже не принимается
	w = env.do(http.MethodPost, "/api/auth/verify-code", dto.VerifyCodeRequest{Email: "client@example.com", Code: code}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminEmailPromotion(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/auth/magic-link", dto.MagicLinkRequest{Email: testAdminEmail}, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/auth/magic/"+env.tokens.lastLink, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	auth := decode[dto.AuthResponse](t, w)
	assert.Equal(t, role.Admin.String(), auth.Account.Role)

	w = env.do(http.MethodGet, "/api/admin/dashboard", nil, auth.Token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.account(t, "client@example.com", role.Client)

	w := env.do(http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.tokens.blacklist[token])

	w = env.do(http.MethodGet, "/api/auth/profile", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.account(t, "client@example.com", role.Client)

	name := "Jane Client"
	company := "Acme"
	w := env.do(http.MethodPut, "/api/auth/profile", dto.UpdateProfileRequest{FullName: &name, Company: &company}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	profile := decode[dto.AccountResponse](t, w)
	assert.Equal(t, "Jane Client", profile.FullName)
	assert.Equal(t, "Acme", profile.Company)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/auth/profile", nil, "").Code)
}
