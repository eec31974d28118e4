package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	magicLinkPrefix = "auth.link."
	loginCodePrefix = "auth.code."
	attemptsPrefix  = "auth.attempts."
)

var (
	ErrTokenNotFound   = errors.New("ссылка недействительна или устарела")
	ErrCodeNotFound    = errors.New("код недействителен или устарел")
	ErrTooManyAttempts = errors.New("превышено число попыток ввода кода")
)

// SaveMagicLink сохраняет одноразовый токен ссылки для входа
func (c *Client) SaveMagicLink(ctx context.Context, token, email string, ttl time.Duration) error {
	return c.client.Set(ctx, servicePrefix+magicLinkPrefix+token, email, ttl).Err()
}

// ConsumeMagicLink возвращает email и сразу удаляет токен (одноразовый)
func (c *Client) ConsumeMagicLink(ctx context.Context, token string) (string, error) {
	email, err := c.client.GetDel(ctx, servicePrefix+magicLinkPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	return email, err
}

// SaveLoginCode сохраняет код для email и сбрасывает счетчик попыток
func (c *Client) SaveLoginCode(ctx context.Context, email, code string, ttl time.Duration) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, servicePrefix+loginCodePrefix+email, code, ttl)
		pipe.Del(ctx, servicePrefix+attemptsPrefix+email)
		return nil
	})
	return err
}

// verifyCodeScript атомарно считает попытку и сверяет код.
// KEYS[1] - код, KEYS[2] - счетчик попыток; ARGV[1] - введенный код, ARGV[2] - лимит попыток.
// Результат: 1 - код верный, 0 - неверный, -1 - кода нет, -2 - попытки исчерпаны
var verifyCodeScript = redis.NewScript(`
local stored = redis.call("GET", KEYS[1])
if not stored then
	return -1
end

local attempts = redis.call("INCR", KEYS[2])
local ttl = redis.call("PTTL", KEYS[1])
if ttl > 0 then
	redis.call("PEXPIRE", KEYS[2], ttl)
end

if stored == ARGV[1] then
	redis.call("DEL", KEYS[1], KEYS[2])
	return 1
end

if attempts >= tonumber(ARGV[2]) then
	redis.call("DEL", KEYS[1], KEYS[2])
	return -2
end
return 0
`)

// VerifyLoginCode проверяет код. После maxAttempts неудачных попыток код удаляется.
// Попытка учитывается до сравнения, поэтому параллельные запросы не обходят лимит
func (c *Client) VerifyLoginCode(ctx context.Context, email, code string, maxAttempts int) error {
	keys := []string{servicePrefix + loginCodePrefix + email, servicePrefix + attemptsPrefix + email}

	res, err := verifyCodeScript.Run(ctx, c.client, keys, code, maxAttempts).Int()
	if err != nil {
		return fmt.Errorf("verify login code: %w", err)
	}

	switch res {
	case 1:
		return nil
	case -1:
		return ErrCodeNotFound
	case -2:
		return ErrTooManyAttempts
	default:
		return ErrCodeNotFound
	}
}
