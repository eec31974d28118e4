package redis

import (
	"context"
	"time"
)

const jwtPrefix = "jwt."

func getJWTKey(token string) string {
	return servicePrefix + jwtPrefix + token
}

// WriteJWTToBlacklist добавляет токен в blacklist до истечения его срока
func (c *Client) WriteJWTToBlacklist(ctx context.Context, jwtStr string, jwtTTL time.Duration) error {
	return c.client.Set(ctx, getJWTKey(jwtStr), true, jwtTTL).Err()
}

// IsJWTBlacklisted проверяет токен в blacklist
func (c *Client) IsJWTBlacklisted(ctx context.Context, jwtStr string) (bool, error) {
	n, err := c.client.Exists(ctx, getJWTKey(jwtStr)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
