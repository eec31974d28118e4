// Package webhook проверяет подписи и разбирает входящие вебхуки Stripe и Typeform.
package webhook

import "errors"

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrEventIgnored     = errors.New("webhook event ignored")
)
