package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"sprintdesk/internal/app/ds"
	"sprintdesk/internal/app/dto"
	"sprintdesk/internal/app/webhook"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

func toIntakeResponse(sub ds.IntakeSubmission, withAnswers bool) dto.IntakeSubmissionResponse {
	response := dto.IntakeSubmissionResponse{
		ID:            sub.ID,
		FormID:        sub.FormID,
		ResponseToken: sub.ResponseToken,
		Email:         sub.Email,
		AccountID:     sub.AccountID,
		SubmittedAt:   sub.SubmittedAt,
	}
	if withAnswers {
		response.Answers = json.RawMessage(sub.Answers)
	}
	return response
}

// TypeformWebhook принимает ответы входной анкеты
// @Summary Вебхук Typeform
// @Description Проверяет Typeform-Signature и сохраняет ответ. Повторная доставка не создает дубликат
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Typeform-Signature header string true "Подпись Typeform"
// @Success 200 {object} dto.SuccessResponse
// @Success 201 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/webhooks/typeform [post]
func (h *APIHandler) TypeformWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "Ошибка чтения запроса")
		return
	}

	if err := webhook.VerifyTypeform(h.Config.Webhooks.TypeformSecret, payload, c.GetHeader("Typeform-Signature")); err != nil {
		logrus.Warn("typeform webhook: invalid signature")
		errorResponse(c, http.StatusUnauthorized, "Неверная подпись")
		return
	}

	event, err := webhook.ParseTypeform(payload)
	switch {
	case errors.Is(err, webhook.ErrEventIgnored):
		successResponse(c, http.StatusOK, "событие пропущено", nil)
		return
	case err != nil:
		errorResponse(c, http.StatusBadRequest, "Неверное тело события")
		return
	}

	sub := ds.IntakeSubmission{
		FormID:        event.FormID,
		ResponseToken: event.ResponseToken,
		Email:         event.Email,
		Answers:       datatypes.JSON(event.Answers),
		SubmittedAt:   event.SubmittedAt,
	}
	created, err := h.Repository.SaveIntakeSubmission(&sub)
	if err != nil {
		repositoryError(c, err, "Анкета не найдена")
		return
	}

	if !created {
		successResponse(c, http.StatusOK, "ответ уже сохранен", toIntakeResponse(sub, false))
		return
	}
	logrus.Infof("intake submission %d saved for form %s", sub.ID, sub.FormID)
	successResponse(c, http.StatusCreated, "ответ сохранен", toIntakeResponse(sub, false))
}

// GetIntakeSubmissions список ответов анкеты
// @Summary Ответы анкеты
// @Tags Intake
// @Produce json
// @Security BearerAuth
// @Param form_id query string false "ID формы"
// @Param limit query int false "Количество (по умолчанию 50)"
// @Success 200 {object} dto.IntakeListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/intake [get]
func (h *APIHandler) GetIntakeSubmissions(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	subs, err := h.Repository.GetIntakeSubmissions(c.Query("form_id"), limit)
	if err != nil {
		logrus.Error("Error getting intake submissions: ", err)
		errorResponse(c, http.StatusInternalServerError, "Ошибка получения анкет")
		return
	}

	response := dto.IntakeListResponse{Submissions: make([]dto.IntakeSubmissionResponse, len(subs))}
	for i, sub := range subs {
		response.Submissions[i] = toIntakeResponse(sub, false)
	}
	response.Total = len(response.Submissions)

	c.JSON(http.StatusOK, response)
}

// GetIntakeSubmission ответ анкеты с ответами на вопросы
// @Summary Ответ анкеты по ID
// @Tags Intake
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID ответа"
// @Success 200 {object} dto.IntakeSubmissionResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/intake/{id} [get]
func (h *APIHandler) GetIntakeSubmission(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID ответа")
		return
	}

	sub, err := h.Repository.GetIntakeSubmissionByID(id)
	if err != nil {
		repositoryError(c, err, "Ответ не найден")
		return
	}

	c.JSON(http.StatusOK, toIntakeResponse(*sub, true))
}
