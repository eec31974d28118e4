package handler

import (
	"fmt"
	"net/http"
	"testing"

	"sprintdesk/internal/app/dto"
	"sprintdesk/internal/app/role"
	"sprintdesk/internal/app/webhook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const intakePayload = `{
	"event_id": "01H",
	"event_type": "form_response",
	"form_response": {
		"form_id": "intake",
		"token": "resp-1",
		"submitted_at": "2026-03-01T10:00:00Z",
		"answers": [
			{"type": "text", "text": "Rebrand", "field": {"id": "goal"}},
			{"type": "email", "email": "client@example.com", "field": {"id": "email"}}
		]
	}
}`

func TestTypeformWebhook(t *testing.T) {
	env := newTestEnv(t)
	client, _ := env.account(t, "client@example.com", role.Client)
	_, adminToken := env.account(t, "admin@example.com", role.Admin)

	payload := []byte(intakePayload)
	signature := webhook.SignTypeform(testTypeformSecret, payload)

	w := env.doWithHeader(http.MethodPost, "/api/webhooks/typeform", payload, "Typeform-Signature", "sha256=bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.doWithHeader(http.MethodPost, "/api/webhooks/typeform", payload, "Typeform-Signature", signature)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// повторная доставка
	w = env.doWithHeader(http.MethodPost, "/api/webhooks/typeform", payload, "Typeform-Signature", signature)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	list := decode[dto.IntakeListResponse](t, env.do(http.MethodGet, "/api/intake?form_id=intake", nil, adminToken))
	require.Equal(t, 1, list.Total)
	sub := list.Submissions[0]
	assert.Equal(t, "client@example.com", sub.Email)
	require.NotNil(t, sub.AccountID)
	assert.Equal(t, client.ID, *sub.AccountID)

	w = env.do(http.MethodGet, fmt.Sprintf("/api/intake/%d", sub.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode[dto.IntakeSubmissionResponse](t, w).Answers), "Rebrand")

	dashboard := decode[dto.DashboardResponse](t, env.do(http.MethodGet, "/api/admin/dashboard", nil, adminToken))
	require.Len(t, dashboard.RecentSubmissions, 1)
	assert.Equal(t, "resp-1", dashboard.RecentSubmissions[0].ResponseToken)
}

func TestIntakeRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, clientToken := env.account(t, "client@example.com", role.Client)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/intake", nil, clientToken).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/admin/dashboard", nil, clientToken).Code)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	client, _ := env.account(t, "client@example.com", role.Client)
	admin, adminToken := env.account(t, "admin@example.com", role.Admin)

	logo, err := env.repo.CreateDeliverable("Logo", "", "brand", 2)
	require.NoError(t, err)
	draft, err := env.repo.CreateSprintDraft(client.ID, "Sprint")
	require.NoError(t, err)
	_, err = env.repo.AddDeliverableToDraft(draft.ID, logo.ID, 1, 1)
	require.NoError(t, err)
	require.NoError(t, env.repo.SubmitSprintDraft(draft.ID))
	require.NoError(t, env.repo.ReviewSprintDraft(draft.ID, admin.ID, true))

	w := env.do(http.MethodPost, "/api/invoices", dto.CreateInvoiceRequest{SprintDraftID: draft.ID}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	_, err = env.repo.CreateSprintDraft(client.ID, "Another")
	require.NoError(t, err)

	w = env.do(http.MethodGet, "/api/admin/dashboard", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stats := decode[dto.DashboardResponse](t, w)
	assert.Equal(t, map[string]int64{"approved": 1, "draft": 1}, stats.DraftsByStatus)
	assert.Equal(t, int64(1), stats.OpenInvoices)
	assert.Equal(t, "10000.00", stats.OutstandingAmount)
	assert.Equal(t, "0.00", stats.PaidAmount)
	assert.Equal(t, 10000.0, stats.PipelineValue)
	assert.Equal(t, int64(1), stats.DeliverableCount)
	assert.Equal(t, int64(2), stats.AccountCount)
	assert.Empty(t, stats.RecentSubmissions)
}
