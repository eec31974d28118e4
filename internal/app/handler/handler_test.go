package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"sprintdesk/internal/app/config"
	"sprintdesk/internal/app/ds"
	"sprintdesk/internal/app/middleware"
	"sprintdesk/internal/app/redis"
	"sprintdesk/internal/app/repository"
	"sprintdesk/internal/app/role"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testJWTSecret      = "test-secret"
	testStripeSecret   = "whsec_test"
	testTypeformSecret = "tf_secret"
	testAdminEmail     = "admin@studio.test"
)

// fakeTokens - хранилище токенов в памяти вместо Redis
type fakeTokens struct {
	mu        sync.Mutex
	links     map[string]string
	codes     map[string]string
	attempts  map[string]int
	blacklist map[string]bool
	lastLink  string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{
		links:     map[string]string{},
		codes:     map[string]string{},
		attempts:  map[string]int{},
		blacklist: map[string]bool{},
	}
}

func (f *fakeTokens) SaveMagicLink(_ context.Context, token, email string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[token] = email
	f.lastLink = token
	return nil
}

func (f *fakeTokens) ConsumeMagicLink(_ context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.links[token]
	if !ok {
		return "", redis.ErrTokenNotFound
	}
	delete(f.links, token)
	return email, nil
}

func (f *fakeTokens) SaveLoginCode(_ context.Context, email, code string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[email] = code
	delete(f.attempts, email)
	return nil
}

func (f *fakeTokens) VerifyLoginCode(_ context.Context, email, code string, maxAttempts int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.codes[email]
	if !ok {
		return redis.ErrCodeNotFound
	}
	if stored == code {
		delete(f.codes, email)
		delete(f.attempts, email)
		return nil
	}
	f.attempts[email]++
	if f.attempts[email] >= maxAttempts {
		delete(f.codes, email)
		delete(f.attempts, email)
		return redis.ErrTooManyAttempts
	}
	return redis.ErrCodeNotFound
}

func (f *fakeTokens) WriteJWTToBlacklist(_ context.Context, jwtStr string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blacklist[jwtStr] = true
	return nil
}

func (f *fakeTokens) IsJWTBlacklisted(_ context.Context, jwtStr string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blacklist[jwtStr], nil
}

type sentMail struct {
	To, Subject, Text string
}

type fakeMailer struct {
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, text string) error {
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Text: text})
	return nil
}

type fakeStorage struct {
	objects map[string][]byte
	deleted []string
}

func (s *fakeStorage) UploadFile(_ context.Context, key string, data []byte) (string, error) {
	s.objects[key] = data
	return "application/pdf", nil
}

func (s *fakeStorage) DeleteFile(_ context.Context, key string) error {
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStorage) GetFileURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.test/" + key, nil
}

type testEnv struct {
	router  *gin.Engine
	repo    *repository.Repository
	tokens  *fakeTokens
	mailer  *fakeMailer
	storage *fakeStorage
	cfg     *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := repository.NewFromDB(db)
	require.NoError(t, repo.Migrate())

	cfg := &config.Config{
		AppBaseURL: "http://localhost:3000",
		Auth: config.AuthConfig{
			MagicLinkTTL:    15 * time.Minute,
			LoginCodeTTL:    10 * time.Minute,
			MaxCodeAttempts: 5,
			AdminEmails:     []string{testAdminEmail},
		},
		Upload: config.UploadConfig{MaxDocumentSize: 1 << 20},
		JWT: config.JWTConfig{
			Token:         testJWTSecret,
			ExpiresIn:     time.Hour,
			SigningMethod: jwt.SigningMethodHS256,
		},
		Webhooks: config.WebhooksConfig{
			StripeSecret:   testStripeSecret,
			TypeformSecret: testTypeformSecret,
		},
	}

	env := &testEnv{
		repo:    repo,
		tokens:  newFakeTokens(),
		mailer:  &fakeMailer{},
		storage: &fakeStorage{objects: map[string][]byte{}},
		cfg:     cfg,
	}

	h := NewAPIHandler(repo, env.storage, env.tokens, env.mailer, cfg)
	env.router = gin.New()
	h.RegisterAPIRoutes(env.router, middleware.NewAuthMiddleware(env.tokens, testJWTSecret))
	return env
}

func (e *testEnv) account(t *testing.T, email string, r role.Role) (*ds.Account, string) {
	t.Helper()
	account, err := e.repo.CreateAccount(email, "", r)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &ds.JWTClaims{
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
		AccountID:      account.ID,
		Role:           r,
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return account, signed
}

func (e *testEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (e *testEnv) doWithHeader(method, path string, body []byte, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(header, value)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
