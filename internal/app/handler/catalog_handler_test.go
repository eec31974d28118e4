package handler

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"sprintdesk/internal/app/dto"
	"sprintdesk/internal/app/role"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverablesCatalog(t *testing.T) {
	env := newTestEnv(t)
	_, clientToken := env.account(t, "client@example.com", role.Client)
	_, adminToken := env.account(t, "admin@example.com", role.Admin)

	req := dto.CreateDeliverableRequest{Name: "Logo", Category: "brand", Points: 3}
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/deliverables", req, "").Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/deliverables", req, clientToken).Code)

	w := env.do(http.MethodPost, "/api/deliverables", req, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	logo := decode[dto.DeliverableResponse](t, w)
	assert.Equal(t, 3.0, logo.Points)

	w = env.do(http.MethodPost, "/api/deliverables", dto.CreateDeliverableRequest{Name: "Landing page", Category: "web", Points: 2}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code)

	list := decode[dto.DeliverableListResponse](t, env.do(http.MethodGet, "/api/deliverables?category=brand", nil, ""))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Logo", list.Deliverables[0].Name)
	assert.Equal(t, []string{"brand", "web"}, list.Categories)

	list = decode[dto.DeliverableListResponse](t, env.do(http.MethodGet, "/api/deliverables?query=LAND", nil, ""))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Landing page", list.Deliverables[0].Name)

	points := 4.5
	w = env.do(http.MethodPut, fmt.Sprintf("/api/deliverables/%d", logo.ID), dto.UpdateDeliverableRequest{Points: &points}, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 4.5, decode[dto.DeliverableResponse](t, w).Points)

	w = env.do(http.MethodPost, "/api/deliverables", dto.CreateDeliverableRequest{Name: "Bad", Points: -1}, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusOK, env.do(http.MethodDelete, fmt.Sprintf("/api/deliverables/%d", logo.ID), nil, adminToken).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, fmt.Sprintf("/api/deliverables/%d", logo.ID), nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/deliverables/abc", nil, "").Code)
}

func TestUploadDeliverableImage(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.account(t, "admin@example.com", role.Admin)

	logo, err := env.repo.CreateDeliverable("Logo", "", "brand", 3)
	require.NoError(t, err)

	upload := func() dto.DeliverableResponse {
		body, contentType := multipartBody(t, "image", "logo.PNG", []byte("\x89PNG\r\n\x1a\n"), nil)
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/deliverables/%d/image", logo.ID), body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return decode[dto.DeliverableResponse](t, w)
	}

	first := upload()
	assert.Contains(t, first.ImageURL, "https://files.test/deliverables/")
	assert.Len(t, env.storage.objects, 1)

	second := upload()
	assert.NotEqual(t, first.ImageURL, second.ImageURL)
	assert.Len(t, env.storage.objects, 1)
	assert.Len(t, env.storage.deleted, 1)
}

func TestSprintPackagesVisibility(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.account(t, "admin@example.com", role.Admin)

	active, err := env.repo.CreateSprintPackage("Brand Starter", "", "")
	require.NoError(t, err)
	hidden, err := env.repo.CreateSprintPackage("Legacy", "", "")
	require.NoError(t, err)

	inactive := false
	w := env.do(http.MethodPut, fmt.Sprintf("/api/sprint-packages/%d", hidden.ID), dto.UpdateSprintPackageRequest{IsActive: &inactive}, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	list := decode[dto.SprintPackageListResponse](t, env.do(http.MethodGet, "/api/sprint-packages", nil, ""))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, active.ID, list.Packages[0].ID)

	list = decode[dto.SprintPackageListResponse](t, env.do(http.MethodGet, "/api/sprint-packages", nil, adminToken))
	assert.Equal(t, 2, list.Total)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, fmt.Sprintf("/api/sprint-packages/%d", hidden.ID), nil, "").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, fmt.Sprintf("/api/sprint-packages/%d", hidden.ID), nil, adminToken).Code)

	w = env.do(http.MethodPost, "/api/sprint-packages", dto.CreateSprintPackageRequest{Name: "Brand Starter"}, adminToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, http.StatusOK, env.do(http.MethodDelete, fmt.Sprintf("/api/sprint-packages/%d", hidden.ID), nil, adminToken).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, fmt.Sprintf("/api/sprint-packages/%d", hidden.ID), nil, adminToken).Code)
}

func multipartBody(t *testing.T, field, fileName string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	part, err := writer.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}
