package mailer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"sprintdesk/internal/app/config"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/sirupsen/logrus"
)

// Mailer отправляет письма пользователям (ссылки и коды входа)
type Mailer interface {
	Send(ctx context.Context, to, subject, text string) error
}

// New возвращает Mailgun-клиент, а если ключ не задан - LogMailer
func New(cfg config.MailgunConfig) Mailer {
	if cfg.APIKey == "" || cfg.Domain == "" {
		logrus.Warn("mailgun is not configured, emails will be written to log")
		return LogMailer{}
	}
	return NewMailgun(cfg, &http.Client{Timeout: 10 * time.Second})
}

type Mailgun struct {
	from string
	mg   *mailgun.MailgunImpl
}

// NewMailgun создает отправителя поверх mailgun-go. APIURL переопределяет адрес API (EU-регион, тесты)
func NewMailgun(cfg config.MailgunConfig, client *http.Client) *Mailgun {
	mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIURL != "" {
		mg.SetAPIBase(cfg.APIURL)
	}
	if client != nil {
		mg.SetClient(client)
	}
	return &Mailgun{from: cfg.From, mg: mg}
}

func (m *Mailgun) Send(ctx context.Context, to, subject, text string) error {
	message := m.mg.NewMessage(m.from, subject, text, to)

	_, id, err := m.mg.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("send mailgun message (status %d): %w", mailgun.GetStatusFromErr(err), err)
	}

	logrus.WithFields(logrus.Fields{"to": to, "id": id}).Info("email sent")
	return nil
}

// LogMailer пишет письма в лог (локальная разработка)
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, text string) error {
	logrus.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info(text)
	return nil
}
