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

func toSprintPackageResponse(p ds.SprintPackage, items []repository.PackageItem) dto.SprintPackageResponse {
	response := dto.SprintPackageResponse{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		IsActive:    p.IsActive,
		TotalsResponse: dto.TotalsResponse{
			Points: p.TotalEstimatePoints,
			Hours:  p.TotalFixedHours,
			Price:  p.TotalFixedPrice,
		},
	}

	for _, item := range items {
		response.Items = append(response.Items, dto.PackageItemResponse{
			DeliverableID:   item.DeliverableID,
			Name:            item.Name,
			Category:        item.Category,
			BasePoints:      item.BasePoints,
			Quantity:        item.Quantity,
			ComplexityScore: item.ComplexityScore,
			EffectivePoints: repository.RoundTenth(item.EffectivePoints),
		})
	}
	return response
}

func totalsFromResult(result pricing.Result) dto.TotalsResponse {
	return dto.TotalsResponse{
		Points: repository.RoundTenth(result.Points),
		Hours:  repository.RoundTenth(result.Hours),
		Price:  repository.RoundTenth(result.Price),
	}
}

// isAdminRequest - запрос от администратора с валидным токеном (для публичных маршрутов)
func isAdminRequest(c *gin.Context) bool {
	account, ok := middleware.GetAccountFromContext(c)
	return ok && account.IsAdmin()
}

// GetSprintPackages список пакетов
// @Summary Список пакетов спринтов
// @Description Клиентам возвращаются только активные пакеты
// @Tags SprintPackages
// @Produce json
// @Success 200 {object} dto.SprintPackageListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/sprint-packages [get]
func (h *APIHandler) GetSprintPackages(c *gin.Context) {
	packages, err := h.Repository.GetSprintPackages(!isAdminRequest(c))
	if err != nil {
		logrus.Error("Error getting packages: ", err)
		errorResponse(c, http.StatusInternalServerError, "Ошибка получения пакетов")
		return
	}

	response := dto.SprintPackageListResponse{Packages: make([]dto.SprintPackageResponse, len(packages))}
	for i, p := range packages {
		response.Packages[i] = toSprintPackageResponse(p, nil)
	}
	response.Total = len(response.Packages)

	c.JSON(http.StatusOK, response)
}

// GetSprintPackage пакет с позициями
// @Summary Пакет спринта по ID
// @Tags SprintPackages
// @Produce json
// @Param id path int true "ID пакета"
// @Success 200 {object} dto.SprintPackageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-packages/{id} [get]
func (h *APIHandler) GetSprintPackage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID пакета")
		return
	}

	pkg, err := h.Repository.GetSprintPackageByID(id)
	if err != nil {
		repositoryError(c, err, "Пакет не найден")
		return
	}
	if !pkg.IsActive && !isAdminRequest(c) {
		errorResponse(c, http.StatusNotFound, "Пакет не найден")
		return
	}

	items, err := h.Repository.GetPackageItems(pkg.ID)
	if err != nil {
		repositoryError(c, err, "Пакет не найден")
		return
	}

	c.JSON(http.StatusOK, toSprintPackageResponse(*pkg, items))
}

// CreateSprintPackage создает пакет
// @Summary Создание пакета
// @Description Slug строится из названия, если не передан
// @Tags SprintPackages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSprintPackageRequest true "Данные пакета"
// @Success 201 {object} dto.SprintPackageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/sprint-packages [post]
func (h *APIHandler) CreateSprintPackage(c *gin.Context) {
	var req dto.CreateSprintPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Неверные данные запроса")
		return
	}

	pkg, err := h.Repository.CreateSprintPackage(req.Name, req.Slug, req.Description)
	if err != nil {
		repositoryError(c, err, "Пакет не найден")
		return
	}

	c.JSON(http.StatusCreated, toSprintPackageResponse(*pkg, nil))
}

// UpdateSprintPackage изменяет пакет
// @Summary Изменение пакета
// @Tags SprintPackages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID пакета"
// @Param request body dto.UpdateSprintPackageRequest true "Изменяемые поля"
// @Success 200 {object} dto.SprintPackageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-packages/{id} [put]
func (h *APIHandler) UpdateSprintPackage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID пакета")
		return
	}

	var req dto.UpdateSprintPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Неверные данные запроса")
		return
	}

	if err := h.Repository.UpdateSprintPackage(id, req.Name, req.Description, req.IsActive); err != nil {
		repositoryError(c, err, "Пакет не найден")
		return
	}

	h.GetSprintPackage(c)
}

// DeleteSprintPackage удаляет пакет
// @Summary Удаление пакета
// @Description Спринты, созданные из пакета, не затрагиваются
// @Tags SprintPackages
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID пакета"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-packages/{id} [delete]
func (h *APIHandler) DeleteSprintPackage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID пакета")
		return
	}

	if err := h.Repository.DeleteSprintPackage(id); err != nil {
		repositoryError(c, err, "Пакет не найден")
		return
	}

	successResponse(c, http.StatusOK, "Пакет удален", nil)
}

// SetPackageItem добавляет или изменяет позицию пакета
// @Summary Позиция пакета
// @Description Добавляет результат в пакет или меняет количество и сложность, итоги пересчитываются
// @Tags SprintPackages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID пакета"
// @Param deliverable_id path int true "ID результата"
// @Param request body dto.SetPackageItemRequest true "Количество и сложность"
// @Success 200 {object} dto.TotalsResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-packages/{id}/items/{deliverable_id} [put]
func (h *APIHandler) SetPackageItem(c *gin.Context) {
	packageID, ok := parseID(c, "id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID пакета")
		return
	}
	deliverableID, ok := parseID(c, "deliverable_id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID результата")
		return
	}

	var req dto.SetPackageItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Неверные данные запроса")
		return
	}
	item := pricing.ItemInput{Quantity: req.Quantity, ComplexityScore: req.ComplexityScore}.Normalize()

	result, err := h.Repository.SetPackageDeliverable(packageID, deliverableID, item.Quantity, item.ComplexityScore)
	if err != nil {
		repositoryError(c, err, "Пакет или результат не найден")
		return
	}

	c.JSON(http.StatusOK, totalsFromResult(result))
}

// RemovePackageItem удаляет позицию пакета
// @Summary Удаление позиции пакета
// @Tags SprintPackages
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID пакета"
// @Param deliverable_id path int true "ID результата"
// @Success 200 {object} dto.TotalsResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/sprint-packages/{id}/items/{deliverable_id} [delete]
func (h *APIHandler) RemovePackageItem(c *gin.Context) {
	packageID, ok := parseID(c, "id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID пакета")
		return
	}
	deliverableID, ok := parseID(c, "deliverable_id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID результата")
		return
	}

	result, err := h.Repository.RemovePackageDeliverable(packageID, deliverableID)
	if err != nil {
		repositoryError(c, err, "Позиция не найдена")
		return
	}

	c.JSON(http.StatusOK, totalsFromResult(result))
}
