package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"sprintdesk/internal/app/ds"
	"sprintdesk/internal/app/dto"
	"sprintdesk/internal/app/repository"
	"sprintdesk/internal/app/webhook"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// maxWebhookBody - ограничение размера тела вебхука
const maxWebhookBody = 1 << 20

func toInvoiceResponse(inv ds.Invoice) dto.InvoiceResponse {
	return dto.InvoiceResponse{
		ID:              inv.ID,
		Number:          inv.Number,
		SprintDraftID:   inv.SprintDraftID,
		AccountEmail:    inv.Account.Email,
		Amount:          inv.Amount.StringFixed(2),
		Status:          inv.Status,
		StripeReference: inv.StripeReference,
		IssuedAt:        inv.IssuedAt,
		PaidAt:          inv.PaidAt,
	}
}

// GetInvoices список счетов
// @Summary Список счетов
// @Description Клиент видит только свои счета
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param status query string false "Статус (open, paid, void)"
// @Success 200 {object} dto.InvoiceListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/invoices [get]
func (h *APIHandler) GetInvoices(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	var accountID *uint
	if !account.IsAdmin() {
		accountID = &account.ID
	}

	invoices, err := h.Repository.GetInvoices(c.Query("status"), accountID)
	if err != nil {
		logrus.Error("Error getting invoices: ", err)
		errorResponse(c, http.StatusInternalServerError, "Ошибка получения счетов")
		return
	}

	response := dto.InvoiceListResponse{Invoices: make([]dto.InvoiceResponse, len(invoices))}
	for i, inv := range invoices {
		response.Invoices[i] = toInvoiceResponse(inv)
	}
	response.Total = len(response.Invoices)

	c.JSON(http.StatusOK, response)
}

// GetInvoice счет по ID
// @Summary Счет по ID
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID счета"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/invoices/{id} [get]
func (h *APIHandler) GetInvoice(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID счета")
		return
	}

	invoice, err := h.Repository.GetInvoiceByID(id)
	if err != nil {
		repositoryError(c, err, "Счет не найден")
		return
	}
	if !account.IsAdmin() && invoice.AccountID != account.ID {
		errorResponse(c, http.StatusNotFound, "Счет не найден")
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(*invoice))
}

// CreateInvoice выставляет счет по утвержденному спринту
// @Summary Выставление счета
// @Description Сумма счета равна итоговой стоимости спринта. Один действующий счет на спринт
// @Tags Invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateInvoiceRequest true "ID спринта"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/invoices [post]
func (h *APIHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Неверные данные запроса")
		return
	}

	invoice, err := h.Repository.CreateInvoiceForSprint(req.SprintDraftID, time.Now())
	if err != nil {
		repositoryError(c, err, "Спринт не найден")
		return
	}

	created, err := h.Repository.GetInvoiceByID(invoice.ID)
	if err != nil {
		repositoryError(c, err, "Счет не найден")
		return
	}

	c.JSON(http.StatusCreated, toInvoiceResponse(*created))
}

// VoidInvoice аннулирует счет
// @Summary Аннулирование счета
// @Description Только для неоплаченных счетов
// @Tags Invoices
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID счета"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/invoices/{id}/void [put]
func (h *APIHandler) VoidInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID счета")
		return
	}

	if err := h.Repository.VoidInvoice(id); err != nil {
		repositoryError(c, err, "Счет не найден")
		return
	}

	successResponse(c, http.StatusOK, "Счет аннулирован", nil)
}

// StripeWebhook принимает события оплаты от Stripe
// @Summary Вебхук Stripe
// @Description Проверяет Stripe-Signature и отмечает счет из metadata.invoice_number оплаченным
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Подпись Stripe"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/webhooks/stripe [post]
func (h *APIHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "Ошибка чтения запроса")
		return
	}

	if err := h.Stripe.Verify(payload, c.GetHeader("Stripe-Signature")); err != nil {
		logrus.Warn("stripe webhook: invalid signature")
		errorResponse(c, http.StatusBadRequest, "Неверная подпись")
		return
	}

	event, err := webhook.ParseStripeEvent(payload)
	switch {
	case errors.Is(err, webhook.ErrEventIgnored):
		successResponse(c, http.StatusOK, "событие пропущено", nil)
		return
	case err != nil:
		errorResponse(c, http.StatusBadRequest, "Неверное тело события")
		return
	}

	invoice, err := h.Repository.MarkInvoicePaid(event.InvoiceNumber, event.Reference, event.PaidAt)
	if err != nil {
		// Stripe повторяет доставку при ответе не 2xx; неизвестный или аннулированный счет повтор не исправит
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidStatus) {
			logrus.Warnf("stripe webhook %s: invoice %s: %v", event.EventID, event.InvoiceNumber, err)
			successResponse(c, http.StatusOK, "событие пропущено", nil)
			return
		}
		repositoryError(c, err, "Счет не найден")
		return
	}

	logrus.Infof("invoice %s paid via %s", invoice.Number, event.Reference)
	successResponse(c, http.StatusOK, "счет оплачен", nil)
}
