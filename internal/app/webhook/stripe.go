package webhook

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	stripewebhook "github.com/stripe/stripe-go/v76/webhook"
)

// StripeTolerance - допустимый возраст подписи
const StripeTolerance = 5 * time.Minute

const (
	eventCheckoutCompleted = "checkout.session.completed"
	eventPaymentSucceeded  = "payment_intent.succeeded"
)

// PaymentEvent - оплата счета, пришедшая от Stripe
type PaymentEvent struct {
	EventID       string
	Type          string
	InvoiceNumber string
	Reference     string
	PaidAt        time.Time
}

type StripeVerifier struct {
	secret    string
	tolerance time.Duration
}

func NewStripeVerifier(secret string) *StripeVerifier {
	return &StripeVerifier{
		secret:    strings.TrimSpace(secret),
		tolerance: StripeTolerance,
	}
}

// Verify проверяет заголовок Stripe-Signature (схема v1)
func (v *StripeVerifier) Verify(payload []byte, header string) error {
	if v.secret == "" {
		return ErrInvalidSignature
	}
	if err := stripewebhook.ValidatePayloadWithTolerance(payload, strings.TrimSpace(header), v.secret, v.tolerance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

// SignStripe собирает заголовок Stripe-Signature для payload (тесты и локальная отладка)
func SignStripe(secret string, at time.Time, payload []byte) string {
	signature := stripewebhook.ComputeSignature(at, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(signature))
}

// ParseStripeEvent извлекает номер счета из checkout.session.completed
// и payment_intent.succeeded. Остальные события - ErrEventIgnored
func ParseStripeEvent(payload []byte) (*PaymentEvent, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, ErrInvalidPayload
	}

	eventType := string(event.Type)
	if eventType != eventCheckoutCompleted && eventType != eventPaymentSucceeded {
		return nil, ErrEventIgnored
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, ErrInvalidPayload
	}

	var (
		metadata  map[string]string
		reference string
		created   int64
	)
	switch eventType {
	case eventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, ErrInvalidPayload
		}
		if session.PaymentStatus != "" && session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			return nil, ErrEventIgnored
		}
		metadata = session.Metadata
		reference = session.ID
		if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
			reference = session.PaymentIntent.ID
		}
		created = session.Created

	case eventPaymentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, ErrInvalidPayload
		}
		metadata = intent.Metadata
		reference = intent.ID
		created = intent.Created
	}

	number := strings.TrimSpace(metadata["invoice_number"])
	if number == "" {
		return nil, ErrEventIgnored
	}

	if created == 0 {
		created = event.Created
	}
	paidAt := time.Now().UTC()
	if created > 0 {
		paidAt = time.Unix(created, 0).UTC()
	}

	return &PaymentEvent{
		EventID:       event.ID,
		Type:          eventType,
		InvoiceNumber: number,
		Reference:     reference,
		PaidAt:        paidAt,
	}, nil
}
