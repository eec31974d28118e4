package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"sprintdesk/internal/app/ds"
	"sprintdesk/internal/app/dto"
	"sprintdesk/internal/app/repository"
	"sprintdesk/internal/app/role"
	"sprintdesk/internal/app/webhook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestSprintDraftPricingFlow(t *testing.T) {
	env := newTestEnv(t)
	_, clientToken := env.account(t, "client@example.com", role.Client)
	_, adminToken := env.account(t, "admin@example.com", role.Admin)

	logo, err := env.repo.CreateDeliverable("Logo", "Logo design", "brand", 3)
	require.NoError(t, err)
	site, err := env.repo.CreateDeliverable("Landing page", "One page site", "web", 2)
	require.NoError(t, err)

	w := env.do(http.MethodPost, "/api/sprint-drafts", dto.CreateSprintDraftRequest{Title: "Brand sprint"}, clientToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decode[dto.SprintDraftResponse](t, w)
	assert.Equal(t, ds.SprintStatusDraft, draft.Status)
	assert.Equal(t, 5000.0, draft.Price)
	base := fmt.Sprintf("/api/sprint-drafts/%d", draft.ID)

	w = env.do(http.MethodPost, base+"/items", dto.AddSprintItemRequest{DeliverableID: logo.ID, Quantity: ptr(3.0)}, clientToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	draft = decode[dto.SprintDraftResponse](t, w)
	assert.Equal(t, 9.0, draft.Points)
	assert.Equal(t, 135.0, draft.Hours)
	assert.Equal(t, 27500.0, draft.Price)
	require.Len(t, draft.Items, 1)
	require.NotNil(t, draft.Items[0].Hours)
	assert.Equal(t, 135.0, *draft.Items[0].Hours)

	w = env.do(http.MethodPost, base+"/items", dto.AddSprintItemRequest{DeliverableID: site.ID, ComplexityScore: ptr(1.5)}, clientToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	draft = decode[dto.SprintDraftResponse](t, w)
	assert.Equal(t, 12.0, draft.Points)
	assert.Equal(t, 180.0, draft.Hours)
	assert.Equal(t, 35000.0, draft.Price)
	assert.Equal(t, 2, draft.ItemsCount)

	// переопределение баллов доступно только администратору
	logoItem := fmt.Sprintf("%s/items/%d", base, logo.ID)
	w = env.do(http.MethodPut, logoItem, dto.UpdateSprintItemRequest{CustomEstimatePoints: ptr(2.0)}, clientToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPut, base+"/submit", nil, clientToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, ds.SprintStatusSubmitted, decode[dto.SprintDraftResponse](t, w).Status)

	// после отправки клиент не может менять позиции
	w = env.do(http.MethodDelete, fmt.Sprintf("%s/items/%d", base, site.ID), nil, clientToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, logoItem, dto.UpdateSprintItemRequest{CustomEstimatePoints: ptr(2.0)}, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	draft = decode[dto.SprintDraftResponse](t, w)
	assert.Equal(t, 9.0, draft.Points)
	assert.Equal(t, 135.0, draft.Hours)
	assert.Equal(t, 27500.0, draft.Price)

	w = env.do(http.MethodPut, base+"/approve", nil, clientToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPut, base+"/approve", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	draft = decode[dto.SprintDraftResponse](t, w)
	assert.Equal(t, ds.SprintStatusApproved, draft.Status)
	assert.Equal(t, "admin@example.com", draft.Reviewer)

	// счет и оплата через Stripe
	w = env.do(http.MethodPost, "/api/invoices", dto.CreateInvoiceRequest{SprintDraftID: draft.ID}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	invoice := decode[dto.InvoiceResponse](t, w)
	assert.Equal(t, "27500.00", invoice.Amount)
	assert.Equal(t, ds.InvoiceStatusOpen, invoice.Status)
	assert.Equal(t, "client@example.com", invoice.AccountEmail)

	w = env.do(http.MethodPost, "/api/invoices", dto.CreateInvoiceRequest{SprintDraftID: draft.ID}, adminToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	payload := []byte(fmt.Sprintf(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","payment_intent":"pi_1","payment_status":"paid","metadata":{"invoice_number":%q}}}}`, invoice.Number))
	w = env.do(http.MethodPost, "/api/webhooks/stripe", payload, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.doWithHeader(http.MethodPost, "/api/webhooks/stripe", payload,
		"Stripe-Signature", webhook.SignStripe(testStripeSecret, time.Now(), payload))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, fmt.Sprintf("/api/invoices/%d", invoice.ID), nil, clientToken)
	require.Equal(t, http.StatusOK, w.Code)
	invoice = decode[dto.InvoiceResponse](t, w)
	assert.Equal(t, ds.InvoiceStatusPaid, invoice.Status)
	assert.Equal(t, "pi_1", invoice.StripeReference)
}

func TestSprintDraftOwnership(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.account(t, "owner@example.com", role.Client)
	_, otherToken := env.account(t, "other@example.com", role.Client)
	_, adminToken := env.account(t, "admin@example.com", role.Admin)

	w := env.do(http.MethodPost, "/api/sprint-drafts", dto.CreateSprintDraftRequest{}, ownerToken)
	require.Equal(t, http.StatusCreated, w.Code)
	draft := decode[dto.SprintDraftResponse](t, w)
	assert.Equal(t, "Новый спринт", draft.Title)
	path := fmt.Sprintf("/api/sprint-drafts/%d", draft.ID)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, path, nil, otherToken).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, path, nil, adminToken).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, path, nil, "").Code)

	list := decode[dto.SprintDraftListResponse](t, env.do(http.MethodGet, "/api/sprint-drafts", nil, otherToken))
	assert.Equal(t, 0, list.Total)
	list = decode[dto.SprintDraftListResponse](t, env.do(http.MethodGet, "/api/sprint-drafts", nil, adminToken))
	assert.Equal(t, 1, list.Total)

	// пустой спринт нельзя отправить
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPut, path+"/submit", nil, ownerToken).Code)

	w = env.do(http.MethodPut, path, dto.UpdateSprintDraftRequest{Title: "Renamed"}, ownerToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", decode[dto.SprintDraftResponse](t, w).Title)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, path, nil, otherToken).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodDelete, path, nil, ownerToken).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, path, nil, ownerToken).Code)
}

func TestSprintDraftFromPackage(t *testing.T) {
	env := newTestEnv(t)
	_, clientToken := env.account(t, "client@example.com", role.Client)
	_, adminToken := env.account(t, "admin@example.com", role.Admin)

	logo, err := env.repo.CreateDeliverable("Logo", "", "brand", 3)
	require.NoError(t, err)

	w := env.do(http.MethodPost, "/api/sprint-packages", dto.CreateSprintPackageRequest{Name: "Brand Starter"}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pkg := decode[dto.SprintPackageResponse](t, w)
	assert.Equal(t, "brand-starter", pkg.Slug)

	w = env.do(http.MethodPut, fmt.Sprintf("/api/sprint-packages/%d/items/%d", pkg.ID, logo.ID),
		dto.SetPackageItemRequest{Quantity: ptr(2.0)}, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	totals := decode[dto.TotalsResponse](t, w)
	assert.Equal(t, 6.0, totals.Points)
	assert.Equal(t, 90.0, totals.Hours)
	assert.Equal(t, 20000.0, totals.Price)

	w = env.do(http.MethodPost, "/api/sprint-drafts", dto.CreateSprintDraftRequest{PackageID: &pkg.ID}, clientToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decode[dto.SprintDraftResponse](t, w)
	assert.Equal(t, "Brand Starter", draft.Title)
	assert.Equal(t, 20000.0, draft.Price)
	require.Len(t, draft.Items, 1)
	assert.Equal(t, 2.0, draft.Items[0].Quantity)

	missing := uint(9999)
	w = env.do(http.MethodPost, "/api/sprint-drafts", dto.CreateSprintDraftRequest{PackageID: &missing}, clientToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecalculateSprintDraft(t *testing.T) {
	env := newTestEnv(t)
	client, clientToken := env.account(t, "client@example.com", role.Client)

	logo, err := env.repo.CreateDeliverable("Logo", "", "brand", 3)
	require.NoError(t, err)
	draft, err := env.repo.CreateSprintDraft(client.ID, "Sprint")
	require.NoError(t, err)
	_, err = env.repo.AddDeliverableToDraft(draft.ID, logo.ID, 1, 1)
	require.NoError(t, err)

	// изменение каталога не пересчитывает спринт до явного пересчета
	require.NoError(t, env.repo.UpdateDeliverable(logo.ID, nil, nil, nil, ptr(4.0)))
	path := fmt.Sprintf("/api/sprint-drafts/%d", draft.ID)
	assert.Equal(t, 12500.0, decode[dto.SprintDraftResponse](t, env.do(http.MethodGet, path, nil, clientToken)).Price)

	w := env.do(http.MethodPost, path+"/recalculate", nil, clientToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[dto.SprintDraftResponse](t, w)
	assert.Equal(t, 4.0, result.Points)
	assert.Equal(t, 60.0, result.Hours)
	assert.Equal(t, 15000.0, result.Price)
}

func TestRecalculateApprovedDraftIsRejected(t *testing.T) {
	env := newTestEnv(t)
	client, clientToken := env.account(t, "client@example.com", role.Client)
	admin, adminToken := env.account(t, "admin@example.com", role.Admin)

	logo, err := env.repo.CreateDeliverable("Logo", "", "brand", 3)
	require.NoError(t, err)
	draft, err := env.repo.CreateSprintDraft(client.ID, "Sprint")
	require.NoError(t, err)
	_, err = env.repo.AddDeliverableToDraft(draft.ID, logo.ID, 1, 1)
	require.NoError(t, err)
	require.NoError(t, env.repo.SubmitSprintDraft(draft.ID))
	path := fmt.Sprintf("/api/sprint-drafts/%d", draft.ID)

	// отправленный спринт клиент уже не пересчитывает
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, path+"/recalculate", nil, clientToken).Code)

	require.NoError(t, env.repo.ReviewSprintDraft(draft.ID, admin.ID, true))
	invoice, err := env.repo.CreateInvoiceForSprint(draft.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 12500.0, invoice.Amount.InexactFloat64())

	require.NoError(t, env.repo.UpdateDeliverable(logo.ID, nil, nil, nil, ptr(10.0)))

	w := env.do(http.MethodPost, path+"/recalculate", nil, clientToken)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	w = env.do(http.MethodPost, path+"/recalculate", nil, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	_, err = env.repo.RecalculateSprintTotals(draft.ID)
	assert.ErrorIs(t, err, repository.ErrInvalidStatus)

	got := decode[dto.SprintDraftResponse](t, env.do(http.MethodGet, path, nil, clientToken))
	assert.Equal(t, 12500.0, got.Price)
	assert.Equal(t, ds.SprintStatusApproved, got.Status)
}
