package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

const typeformSignaturePrefix = "sha256="

// IntakeEvent - ответ на форму Typeform
type IntakeEvent struct {
	FormID        string
	ResponseToken string
	Email         string
	SubmittedAt   time.Time
	Answers       json.RawMessage
}

// VerifyTypeform проверяет заголовок Typeform-Signature: "sha256=" + base64(HMAC-SHA256(body))
func VerifyTypeform(secret string, payload []byte, header string) error {
	if secret == "" || !strings.HasPrefix(header, typeformSignaturePrefix) {
		return ErrInvalidSignature
	}

	expected := SignTypeform(secret, payload)
	if !hmac.Equal([]byte(header), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

func SignTypeform(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	return typeformSignaturePrefix + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type typeformPayload struct {
	EventID      string `json:"event_id"`
	EventType    string `json:"event_type"`
	FormResponse struct {
		FormID      string            `json:"form_id"`
		Token       string            `json:"token"`
		SubmittedAt time.Time         `json:"submitted_at"`
		Hidden      map[string]string `json:"hidden"`
		Answers     json.RawMessage   `json:"answers"`
	} `json:"form_response"`
}

type typeformAnswer struct {
	Type  string `json:"type"`
	Email string `json:"email"`
}

// ParseTypeform разбирает событие form_response. Email берется из ответа
// типа email, иначе из скрытого поля email
func ParseTypeform(payload []byte) (*IntakeEvent, error) {
	var p typeformPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, ErrInvalidPayload
	}
	if p.EventType != "" && p.EventType != "form_response" {
		return nil, ErrEventIgnored
	}

	resp := p.FormResponse
	if resp.Token == "" || resp.FormID == "" {
		return nil, ErrInvalidPayload
	}

	answers := resp.Answers
	if len(answers) == 0 {
		answers = json.RawMessage("[]")
	}

	var email string
	var parsed []typeformAnswer
	if err := json.Unmarshal(answers, &parsed); err != nil {
		return nil, ErrInvalidPayload
	}
	for _, a := range parsed {
		if a.Type == "email" && a.Email != "" {
			email = a.Email
			break
		}
	}
	if email == "" {
		email = resp.Hidden["email"]
	}

	submittedAt := resp.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	return &IntakeEvent{
		FormID:        resp.FormID,
		ResponseToken: resp.Token,
		Email:         strings.ToLower(strings.TrimSpace(email)),
		SubmittedAt:   submittedAt,
		Answers:       answers,
	}, nil
}
