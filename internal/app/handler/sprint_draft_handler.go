package handler

import (
	"net/http"

	"sprintdesk/internal/app/ds"
	"sprintdesk/internal/app/dto"
	"sprintdesk/internal/app/middleware"
	"sprintdesk/internal/app/pricing"
	"sprintdesk/internal/app/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func toSprintDraftResponse(d ds.SprintDraft, itemsCount int, items []repository.SprintItem) dto.SprintDraftResponse {
	response := dto.SprintDraftResponse{
		ID:           d.ID,
		Title:        d.Title,
		Status:       d.Status,
		AccountEmail: d.Account.Email,
		CreatedAt:    d.CreatedAt,
		SubmittedAt:  d.SubmittedAt,
		ReviewedAt:   d.ReviewedAt,
		TotalsResponse: dto.TotalsResponse{
			Points: d.TotalEstimatePoints,
			Hours:  d.TotalFixedHours,
			Price:  d.TotalFixedPrice,
		},
		ItemsCount: itemsCount,
	}
	if d.Reviewer != nil {
		response.Reviewer = d.Reviewer.Email
	}

	for _, item := range items {
		response.Items = append(response.Items, dto.SprintItemResponse{
			DeliverableID:        item.DeliverableID,
			Name:                 item.Name,
			Description:          item.Description,
			Category:             item.Category,
			BasePoints:           item.BasePoints,
			Quantity:             item.Quantity,
			ComplexityScore:      item.ComplexityScore,
			CustomEstimatePoints: item.CustomEstimatePoints,
			Hours:                item.CustomHours,
			EffectivePoints:      repository.RoundTenth(item.EffectivePoints),
		})
	}
	return response
}

// loadDraft находит спринт, доступный текущему аккаунту. Чужие спринты клиенту не видны
func (h *APIHandler) loadDraft(c *gin.Context) (*ds.SprintDraft, middleware.CurrentAccount, bool) {
	account, ok := currentAccount(c)
	if !ok {
		return nil, account, false
	}

	id, ok := parseID(c, "id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID спринта")
		return nil, account, false
	}

	draft, err := h.Repository.GetSprintDraftByID(id)
	if err != nil {
		repositoryError(c, err, "Спринт не найден")
		return nil, account, false
	}
	if !account.IsAdmin() && draft.AccountID != account.ID {
		errorResponse(c, http.StatusNotFound, "Спринт не найден")
		return nil, account, false
	}

	return draft, account, true
}

// canEditItems - клиент меняет позиции только в черновике, администратор еще и в отправленном спринте
func canEditItems(draft *ds.SprintDraft, account middleware.CurrentAccount) bool {
	switch draft.Status {
	case ds.SprintStatusDraft:
		return true
	case ds.SprintStatusSubmitted:
		return account.IsAdmin()
	default:
		return false
	}
}

// loadEditableDraft - loadDraft + проверка, что позиции можно менять
func (h *APIHandler) loadEditableDraft(c *gin.Context) (*ds.SprintDraft, middleware.CurrentAccount, bool) {
	draft, account, ok := h.loadDraft(c)
	if !ok {
		return nil, account, false
	}
	if !canEditItems(draft, account) {
		errorResponse(c, http.StatusBadRequest, "Спринт нельзя изменить в текущем статусе")
		return nil, account, false
	}
	return draft, account, true
}

// GetSprintDrafts список спринтов
// @Summary Список спринтов
// @Description Клиент видит только свои спринты, администратор - все. Фильтры по статусу и дате создания
// @Tags SprintDrafts
// @Produce json
// @Security BearerAuth
// @Param status query string false "Статус (draft, submitted, approved, rejected)"
// @Param date_from query string false "Дата начала (YYYY-MM-DD)"
// @Param date_to query string false "Дата окончания (YYYY-MM-DD)"
// @Success 200 {object} dto.SprintDraftListResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/sprint-drafts [get]
func (h *APIHandler) GetSprintDrafts(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	filter := repository.SprintDraftFilter{
		Status:   c.Query("status"),
		DateFrom: parseDate(c.Query("date_from")),
		DateTo:   parseDate(c.Query("date_to")),
	}
	if !account.IsAdmin() {
		filter.AccountID = &account.ID
	}

	drafts, err := h.Repository.GetSprintDrafts(filter)
	if err != nil {
		logrus.Error("Error getting sprint drafts: ", err)
		errorResponse(c, http.StatusInternalServerError, "Ошибка получения спринтов")
		return
	}

	response := dto.SprintDraftListResponse{Drafts: make([]dto.SprintDraftResponse, len(drafts))}
	for i, d := range drafts {
		response.Drafts[i] = toSprintDraftResponse(d, h.Repository.CountSprintItems(d.ID), nil)
	}
	response.Total = len(response.Drafts)

	c.JSON(http.StatusOK, response)
}

// GetSprintDraft спринт с позициями
// @Summary Спринт по ID
// @Tags SprintDrafts
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID спринта"
// @Success 200 {object} dto.SprintDraftResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-drafts/{id} [get]
func (h *APIHandler) GetSprintDraft(c *gin.Context) {
	draft, _, ok := h.loadDraft(c)
	if !ok {
		return
	}

	h.respondWithDraft(c, draft.ID, http.StatusOK)
}

func (h *APIHandler) respondWithDraft(c *gin.Context, id uint, status int) {
	draft, items, err := h.Repository.GetSprintDraftWithItems(id)
	if err != nil {
		repositoryError(c, err, "Спринт не найден")
		return
	}

	c.JSON(status, toSprintDraftResponse(*draft, len(items), items))
}

// CreateSprintDraft создает спринт
// @Summary Создание спринта
// @Description Пустой спринт или копия активного пакета (package_id)
// @Tags SprintDrafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSprintDraftRequest true "Название или пакет"
// @Success 201 {object} dto.SprintDraftResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-drafts [post]
func (h *APIHandler) CreateSprintDraft(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	var req dto.CreateSprintDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Неверные данные запроса")
		return
	}

	var draft *ds.SprintDraft
	var err error
	if req.PackageID != nil {
		draft, err = h.Repository.CreateSprintDraftFromPackage(account.ID, *req.PackageID)
		if err == nil && req.Title != "" {
			err = h.Repository.UpdateSprintDraftTitle(draft.ID, req.Title)
		}
	} else {
		title := req.Title
		if title == "" {
			title = "Новый спринт"
		}
		draft, err = h.Repository.CreateSprintDraft(account.ID, title)
	}
	if err != nil {
		repositoryError(c, err, "Пакет не найден")
		return
	}

	h.respondWithDraft(c, draft.ID, http.StatusCreated)
}

// UpdateSprintDraft изменяет название спринта
// @Summary Изменение названия
// @Tags SprintDrafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID спринта"
// @Param request body dto.UpdateSprintDraftRequest true "Название"
// @Success 200 {object} dto.SprintDraftResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-drafts/{id} [put]
func (h *APIHandler) UpdateSprintDraft(c *gin.Context) {
	draft, _, ok := h.loadEditableDraft(c)
	if !ok {
		return
	}

	var req dto.UpdateSprintDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Неверные данные запроса")
		return
	}

	if err := h.Repository.UpdateSprintDraftTitle(draft.ID, req.Title); err != nil {
		repositoryError(c, err, "Спринт не найден")
		return
	}

	h.respondWithDraft(c, draft.ID, http.StatusOK)
}

// DeleteSprintDraft удаляет спринт
// @Summary Удаление спринта
// @Description Доступно только для черновика
// @Tags SprintDrafts
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID спринта"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-drafts/{id} [delete]
func (h *APIHandler) DeleteSprintDraft(c *gin.Context) {
	draft, _, ok := h.loadDraft(c)
	if !ok {
		return
	}

	if err := h.Repository.DeleteSprintDraft(draft.ID); err != nil {
		repositoryError(c, err, "Спринт не найден")
		return
	}

	successResponse(c, http.StatusOK, "Спринт удален", nil)
}

// AddSprintItem добавляет результат в спринт
// @Summary Добавление результата
// @Description Повторное добавление того же результата увеличивает количество. Итоги пересчитываются
// @Tags SprintDrafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID спринта"
// @Param request body dto.AddSprintItemRequest true "Результат, количество и сложность"
// @Success 200 {object} dto.SprintDraftResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-drafts/{id}/items [post]
func (h *APIHandler) AddSprintItem(c *gin.Context) {
	draft, _, ok := h.loadEditableDraft(c)
	if !ok {
		return
	}

	var req dto.AddSprintItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Неверные данные запроса")
		return
	}
	item := pricing.ItemInput{Quantity: req.Quantity, ComplexityScore: req.ComplexityScore}.Normalize()

	_, err := h.Repository.AddDeliverableToDraft(draft.ID, req.DeliverableID, item.Quantity, item.ComplexityScore)
	if err != nil {
		repositoryError(c, err, "Результат не найден")
		return
	}

	h.respondWithDraft(c, draft.ID, http.StatusOK)
}

// UpdateSprintItem изменяет позицию спринта
// @Summary Изменение позиции
// @Description Количество и сложность; переопределение баллов (custom_estimate_points) доступно только администратору
// @Tags SprintDrafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID спринта"
// @Param deliverable_id path int true "ID результата"
// @Param request body dto.UpdateSprintItemRequest true "Изменяемые поля"
// @Success 200 {object} dto.SprintDraftResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-drafts/{id}/items/{deliverable_id} [put]
func (h *APIHandler) UpdateSprintItem(c *gin.Context) {
	draft, account, ok := h.loadEditableDraft(c)
	if !ok {
		return
	}
	deliverableID, ok := parseID(c, "deliverable_id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID результата")
		return
	}

	var req dto.UpdateSprintItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Неверные данные запроса")
		return
	}
	if (req.CustomEstimatePoints != nil || req.ClearCustomPoints) && !account.IsAdmin() {
		errorResponse(c, http.StatusForbidden, "Переопределять баллы может только администратор")
		return
	}

	_, err := h.Repository.UpdateDraftDeliverable(draft.ID, deliverableID, repository.DraftItemUpdate{
		Quantity:             req.Quantity,
		ComplexityScore:      req.ComplexityScore,
		CustomEstimatePoints: req.CustomEstimatePoints,
		ClearCustomPoints:    req.ClearCustomPoints,
	})
	if err != nil {
		repositoryError(c, err, "Позиция не найдена")
		return
	}

	h.respondWithDraft(c, draft.ID, http.StatusOK)
}

// RemoveSprintItem удаляет позицию из спринта
// @Summary Удаление позиции
// @Tags SprintDrafts
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID спринта"
// @Param deliverable_id path int true "ID результата"
// @Success 200 {object} dto.SprintDraftResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-drafts/{id}/items/{deliverable_id} [delete]
func (h *APIHandler) RemoveSprintItem(c *gin.Context) {
	draft, _, ok := h.loadEditableDraft(c)
	if !ok {
		return
	}
	deliverableID, ok := parseID(c, "deliverable_id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID результата")
		return
	}

	if _, err := h.Repository.RemoveDeliverableFromDraft(draft.ID, deliverableID); err != nil {
		repositoryError(c, err, "Позиция не найдена")
		return
	}

	h.respondWithDraft(c, draft.ID, http.StatusOK)
}

// SubmitSprintDraft отправляет спринт на рассмотрение
// @Summary Отправка спринта
// @Description Черновик с хотя бы одной позицией переходит в статус submitted
// @Tags SprintDrafts
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID спринта"
// @Success 200 {object} dto.SprintDraftResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-drafts/{id}/submit [put]
func (h *APIHandler) SubmitSprintDraft(c *gin.Context) {
	draft, _, ok := h.loadDraft(c)
	if !ok {
		return
	}

	if err := h.Repository.SubmitSprintDraft(draft.ID); err != nil {
		repositoryError(c, err, "Спринт не найден")
		return
	}

	h.respondWithDraft(c, draft.ID, http.StatusOK)
}

// ApproveSprintDraft утверждает спринт
// @Summary Утверждение спринта
// @Tags SprintDrafts
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID спринта"
// @Success 200 {object} dto.SprintDraftResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-drafts/{id}/approve [put]
func (h *APIHandler) ApproveSprintDraft(c *gin.Context) {
	h.reviewSprintDraft(c, true)
}

// RejectSprintDraft отклоняет спринт
// @Summary Отклонение спринта
// @Tags SprintDrafts
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID спринта"
// @Success 200 {object} dto.SprintDraftResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-drafts/{id}/reject [put]
func (h *APIHandler) RejectSprintDraft(c *gin.Context) {
	h.reviewSprintDraft(c, false)
}

func (h *APIHandler) reviewSprintDraft(c *gin.Context, approve bool) {
	draft, account, ok := h.loadDraft(c)
	if !ok {
		return
	}

	if err := h.Repository.ReviewSprintDraft(draft.ID, account.ID, approve); err != nil {
		repositoryError(c, err, "Спринт не найден")
		return
	}

	h.respondWithDraft(c, draft.ID, http.StatusOK)
}

// RecalculateSprintDraft пересчитывает итоги спринта
// @Summary Пересчет итогов
// @Description Пересчитывает баллы, часы и стоимость по текущим данным каталога
// @Tags SprintDrafts
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID спринта"
// @Success 200 {object} dto.SprintDraftResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-drafts/{id}/recalculate [post]
func (h *APIHandler) RecalculateSprintDraft(c *gin.Context) {
	draft, _, ok := h.loadEditableDraft(c)
	if !ok {
		return
	}

	if _, err := h.Repository.RecalculateSprintTotals(draft.ID); err != nil {
		repositoryError(c, err, "Спринт не найден")
		return
	}

	h.respondWithDraft(c, draft.ID, http.StatusOK)
}
