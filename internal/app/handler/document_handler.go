package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"sprintdesk/internal/app/ds"
	"sprintdesk/internal/app/dto"
	"sprintdesk/internal/app/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func toDocumentResponse(doc ds.Document, url string) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:            doc.ID,
		FileName:      doc.FileName,
		ContentType:   doc.ContentType,
		Size:          doc.Size,
		SprintDraftID: doc.SprintDraftID,
		CreatedAt:     doc.CreatedAt,
		URL:           url,
	}
}

// loadDocument возвращает документ, если он принадлежит аккаунту или запрос от администратора
func (h *APIHandler) loadDocument(c *gin.Context) (*ds.Document, bool) {
	account, ok := currentAccount(c)
	if !ok {
		return nil, false
	}
	id, ok := parseID(c, "id")
	if !ok {
		errorResponse(c, http.StatusBadRequest, "Неверный ID документа")
		return nil, false
	}

	doc, err := h.Repository.GetDocumentByID(id)
	if err != nil {
		repositoryError(c, err, "Документ не найден")
		return nil, false
	}
	if !account.IsAdmin() && doc.AccountID != account.ID {
		errorResponse(c, http.StatusNotFound, "Документ не найден")
		return nil, false
	}
	return doc, true
}

// UploadDocument загружает документ клиента
// @Summary Загрузка документа
// @Description Файл сохраняется в объектном хранилище, опционально привязывается к спринту
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Документ"
// @Param sprint_draft_id formData int false "ID спринта"
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/documents [post]
func (h *APIHandler) UploadDocument(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}
	if h.Storage == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Хранилище файлов недоступно")
		return
	}

	maxSize := h.Config.Upload.MaxDocumentSize
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+1<<20)

	file, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "Файл не найден в запросе")
		return
	}
	if file.Size > maxSize {
		errorResponse(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("Размер файла превышает %d МБ", maxSize>>20))
		return
	}

	var sprintDraftID *uint
	if raw := c.PostForm("sprint_draft_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			errorResponse(c, http.StatusBadRequest, "Неверный ID спринта")
			return
		}
		draft, err := h.Repository.GetSprintDraftByID(uint(id))
		if err != nil || (!account.IsAdmin() && draft.AccountID != account.ID) {
			errorResponse(c, http.StatusNotFound, "Спринт не найден")
			return
		}
		draftID := draft.ID
		sprintDraftID = &draftID
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
	key := storage.ObjectKey(fmt.Sprintf("documents/%d", account.ID), file.Filename)
	contentType, err := h.Storage.UploadFile(ctx, key, fileData)
	if err != nil {
		logrus.Error("Error uploading document: ", err)
		errorResponse(c, http.StatusInternalServerError, "Ошибка загрузки документа")
		return
	}

	doc := ds.Document{
		AccountID:     account.ID,
		SprintDraftID: sprintDraftID,
		FileName:      file.Filename,
		ObjectKey:     key,
		ContentType:   contentType,
		Size:          int64(len(fileData)),
	}
	if err := h.Repository.CreateDocument(&doc); err != nil {
		if delErr := h.Storage.DeleteFile(ctx, key); delErr != nil {
			logrus.Warnf("Failed to delete orphan object %s: %v", key, delErr)
		}
		repositoryError(c, err, "Документ не найден")
		return
	}

	c.JSON(http.StatusCreated, toDocumentResponse(doc, h.fileURL(ctx, key)))
}

// GetDocuments список документов
// @Summary Список документов
// @Description Клиент видит свои документы, администратор - все
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param sprint_draft_id query int false "ID спринта"
// @Success 200 {object} dto.DocumentListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/documents [get]
func (h *APIHandler) GetDocuments(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	var accountID, sprintDraftID *uint
	if !account.IsAdmin() {
		accountID = &account.ID
	}
	if raw := c.Query("sprint_draft_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			draftID := uint(id)
			sprintDraftID = &draftID
		}
	}

	docs, err := h.Repository.GetDocuments(accountID, sprintDraftID)
	if err != nil {
		logrus.Error("Error getting documents: ", err)
		errorResponse(c, http.StatusInternalServerError, "Ошибка получения документов")
		return
	}

	response := dto.DocumentListResponse{Documents: make([]dto.DocumentResponse, len(docs))}
	for i, doc := range docs {
		response.Documents[i] = toDocumentResponse(doc, "")
	}
	response.Total = len(response.Documents)

	c.JSON(http.StatusOK, response)
}

// GetDocument документ со ссылкой на скачивание
// @Summary Документ по ID
// @Description Возвращает временную ссылку на файл (1 час)
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID документа"
// @Success 200 {object} dto.DocumentResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/documents/{id} [get]
func (h *APIHandler) GetDocument(c *gin.Context) {
	doc, ok := h.loadDocument(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, toDocumentResponse(*doc, h.fileURL(c.Request.Context(), doc.ObjectKey)))
}

// DeleteDocument удаляет документ
// @Summary Удаление документа
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID документа"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/documents/{id} [delete]
func (h *APIHandler) DeleteDocument(c *gin.Context) {
	doc, ok := h.loadDocument(c)
	if !ok {
		return
	}

	if err := h.Repository.DeleteDocument(doc.ID); err != nil {
		repositoryError(c, err, "Документ не найден")
		return
	}

	if h.Storage != nil {
		if err := h.Storage.DeleteFile(c.Request.Context(), doc.ObjectKey); err != nil {
			logrus.Warnf("Failed to delete object %s: %v", doc.ObjectKey, err)
		}
	}

	successResponse(c, http.StatusOK, "Документ удален", nil)
}
