package handler

import (
	"io"
	"net/http"

	"sprintdesk/internal/app/dto"
	"sprintdesk/internal/app/repository"
	"sprintdesk/internal/app/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func (h *APIHandler) toDeliverableResponse(c *gin.Context, d repository.Deliverable) dto.DeliverableResponse {
	return dto.DeliverableResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Points:      d.Points,
		ImageURL:    h.fileURL(c.Request.Context(), d.ImageKey),
	}
}

// GetDeliverables получает каталог результатов
// @Summary Каталог результатов
// @Description Возвращает результаты с поиском по названию и фильтром по категории
// @Tags Deliverables
// @Produce json
// @Param query query string false "Поиск по названию"
// @Param category query string false "Категория"
// @Success 200 {object} dto.DeliverableListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/deliverables [get]
func (h *APIHandler) GetDeliverables(c *gin.Context) {
	deliverables, err := h.Repository.GetDeliverables(c.Query("query"), c.Query("category"))
	if err != nil {
		logrus.Error("Error getting deliverables: ", err)
		errorResponse(c, http.StatusInternalServerError, "Ошибка получения каталога")
		return
	}

	categories, err := h.Repository.GetDeliverableCategories()
	if err != nil {
		logrus.Error("Error getting categories: ", err)
		errorResponse(c, http.StatusInternalServerError, "Ошибка получения каталога")
		return
	}

	items := make([]dto.DeliverableResponse, len(deliverables))
	for i, d := range deliverables {
		items[i] = h.toDeliverableResponse(c, d)
	}

	c.JSON(http.StatusOK, dto.DeliverableListResponse{
		Deliverables: items,
		Categories:   categories,
		Total:        len(items),
	})
}

// GetDeliverable получает один результат
// @Summary Результат по ID
// @Tags Deliverables
// @Produce json
// @Param id path int true "ID результата"
// @Success 200 {object} dto.DeliverableResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/deliverables/{id} [get]
func (h *APIHandler) GetDeliverable(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID результата")
		return
	}

	deliverable, err := h.Repository.GetDeliverableByID(id)
	if err != nil {
		repositoryError(c, err, "Результат не найден")
		return
	}

	c.JSON(http.StatusOK, h.toDeliverableResponse(c, *deliverable))
}

// CreateDeliverable создает результат в каталоге
// @Summary Создание результата
// @Description Добавляет результат в каталог (только для администраторов)
// @Tags Deliverables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateDeliverableRequest true "Данные результата"
// @Success 201 {object} dto.DeliverableResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/deliverables [post]
func (h *APIHandler) CreateDeliverable(c *gin.Context) {
	var req dto.CreateDeliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Неверные данные запроса")
		return
	}

	deliverable, err := h.Repository.CreateDeliverable(req.Name, req.Description, req.Category, req.Points)
	if err != nil {
		repositoryError(c, err, "Результат не найден")
		return
	}

	c.JSON(http.StatusCreated, h.toDeliverableResponse(c, *deliverable))
}

// UpdateDeliverable изменяет результат
// @Summary Изменение результата
// @Description Изменение баллов не пересчитывает уже созданные спринты до их следующего изменения
// @Tags Deliverables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID результата"
// @Param request body dto.UpdateDeliverableRequest true "Изменяемые поля"
// @Success 200 {object} dto.DeliverableResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/deliverables/{id} [put]
func (h *APIHandler) UpdateDeliverable(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID результата")
		return
	}

	var req dto.UpdateDeliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Неверные данные запроса")
		return
	}

	if err := h.Repository.UpdateDeliverable(id, req.Name, req.Description, req.Category, req.Points); err != nil {
		repositoryError(c, err, "Результат не найден")
		return
	}

	h.GetDeliverable(c)
}

// DeleteDeliverable удаляет результат из каталога
// @Summary Удаление результата
// @Description Логическое удаление; позиции существующих спринтов сохраняются
// @Tags Deliverables
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID результата"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/deliverables/{id} [delete]
func (h *APIHandler) DeleteDeliverable(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID результата")
		return
	}

	if err := h.Repository.DeleteDeliverable(id); err != nil {
		repositoryError(c, err, "Результат не найден")
		return
	}

	successResponse(c, http.StatusOK, "Результат удален", nil)
}

// UploadDeliverableImage загружает изображение результата
// @Summary Загрузка изображения
// @Tags Deliverables
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID результата"
// @Param image formData file true "Изображение"
// @Success 200 {object} dto.DeliverableResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/deliverables/{id}/image [post]
func (h *APIHandler) UploadDeliverableImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID результата")
		return
	}
	if h.Storage == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Хранилище файлов недоступно")
		return
	}

	deliverable, err := h.Repository.GetDeliverableByID(id)
	if err != nil {
		repositoryError(c, err, "Результат не найден")
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "Файл не найден в запросе")
		return
	}

	openedFile, err := file.Open()
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Ошибка чтения файла")
		return
	}
	defer openedFile.Close()

	fileData, err := io.ReadAll(openedFile)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Ошибка чтения файла")
		return
	}

	ctx := c.Request.Context()
	key := storage.ObjectKey("deliverables", file.Filename)
	if _, err := h.Storage.UploadFile(ctx, key, fileData); err != nil {
		logrus.Error("Error uploading image: ", err)
		errorResponse(c, http.StatusInternalServerError, "Ошибка загрузки изображения")
		return
	}

	if err := h.Repository.UpdateDeliverableImage(id, key); err != nil {
		repositoryError(c, err, "Результат не найден")
		return
	}

	// Удаляем старое изображение
	if deliverable.ImageKey != "" {
		if err := h.Storage.DeleteFile(ctx, deliverable.ImageKey); err != nil {
			logrus.Warnf("Failed to delete old image %s: %v", deliverable.ImageKey, err)
		}
	}

	deliverable.ImageKey = key
	c.JSON(http.StatusOK, h.toDeliverableResponse(c, *deliverable))
}
