package handler

import (
	"sprintdesk/internal/app/middleware"
	"sprintdesk/internal/app/role"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes регистрирует все REST API маршруты с авторизацией
func (h *APIHandler) RegisterAPIRoutes(router *gin.Engine, authMiddleware *middleware.AuthMiddleware) {
	api := router.Group("/api")

	anyAccount := authMiddleware.WithAuthCheck(role.Client, role.Admin)
	adminOnly := authMiddleware.WithAuthCheck(role.Admin)

	// ============ Аутентификация ============
	auth := api.Group("/auth")
	{
		auth.POST("/magic-link", h.AuthHandler.RequestMagicLink)
		auth.GET("/magic/:token", h.AuthHandler.ConsumeMagicLink)
		auth.POST("/verify-code", h.AuthHandler.VerifyCode)

		auth.POST("/logout", anyAccount, h.AuthHandler.LogoutUser)
		auth.GET("/profile", anyAccount, h.AuthHandler.GetProfile)
		auth.PUT("/profile", anyAccount, h.AuthHandler.UpdateProfile)
	}

	// ============ Каталог результатов - публичный, изменение только для администраторов ============
	deliverables := api.Group("/deliverables")
	{
		deliverables.GET("", h.GetDeliverables)
		deliverables.GET("/:id", h.GetDeliverable)

		deliverables.POST("", adminOnly, h.CreateDeliverable)
		deliverables.PUT("/:id", adminOnly, h.UpdateDeliverable)
		deliverables.DELETE("/:id", adminOnly, h.DeleteDeliverable)
		deliverables.POST("/:id/image", adminOnly, h.UploadDeliverableImage)
	}

	// ============ Пакеты спринтов ============
	packages := api.Group("/sprint-packages")
	{
		// Администратор с токеном видит и неактивные пакеты
		packages.GET("", authMiddleware.OptionalAuth(), h.GetSprintPackages)
		packages.GET("/:id", authMiddleware.OptionalAuth(), h.GetSprintPackage)

		packages.POST("", adminOnly, h.CreateSprintPackage)
		packages.PUT("/:id", adminOnly, h.UpdateSprintPackage)
		packages.DELETE("/:id", adminOnly, h.DeleteSprintPackage)
		packages.PUT("/:id/items/:deliverable_id", adminOnly, h.SetPackageItem)
		packages.DELETE("/:id/items/:deliverable_id", adminOnly, h.RemovePackageItem)
	}

	// ============ Черновики спринтов ============
	drafts := api.Group("/sprint-drafts")
	drafts.Use(anyAccount)
	{
		drafts.GET("", h.GetSprintDrafts)
		drafts.POST("", h.CreateSprintDraft)
		drafts.GET("/:id", h.GetSprintDraft)
		drafts.PUT("/:id", h.UpdateSprintDraft)
		drafts.DELETE("/:id", h.DeleteSprintDraft)
		drafts.PUT("/:id/submit", h.SubmitSprintDraft)
		drafts.POST("/:id/recalculate", h.RecalculateSprintDraft)

		// М-М связь (спринт - результат)
		drafts.POST("/:id/items", h.AddSprintItem)
		drafts.PUT("/:id/items/:deliverable_id", h.UpdateSprintItem)
		drafts.DELETE("/:id/items/:deliverable_id", h.RemoveSprintItem)

		// Только для администраторов
		drafts.PUT("/:id/approve", adminOnly, h.ApproveSprintDraft)
		drafts.PUT("/:id/reject", adminOnly, h.RejectSprintDraft)
	}

	// ============ Расчет стоимости (публичный) ============
	pricing := api.Group("/pricing")
	{
		pricing.POST("/estimate", h.EstimatePrice)
		pricing.GET("/formula", h.GetPricingFormula)
	}

	// ============ Счета ============
	invoices := api.Group("/invoices")
	invoices.Use(anyAccount)
	{
		invoices.GET("", h.GetInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.POST("", adminOnly, h.CreateInvoice)
		invoices.PUT("/:id/void", adminOnly, h.VoidInvoice)
	}

	// ============ Документы ============
	documents := api.Group("/documents")
	documents.Use(anyAccount)
	{
		documents.GET("", h.GetDocuments)
		documents.POST("", h.UploadDocument)
		documents.GET("/:id", h.GetDocument)
		documents.DELETE("/:id", h.DeleteDocument)
	}

	// ============ Анкеты и панель администратора ============
	intake := api.Group("/intake")
	intake.Use(adminOnly)
	{
		intake.GET("", h.GetIntakeSubmissions)
		intake.GET("/:id", h.GetIntakeSubmission)
	}

	api.GET("/admin/dashboard", adminOnly, h.GetDashboard)

	// Вебхуки (авторизация по подписи)
	webhooks := api.Group("/webhooks")
	{
		webhooks.POST("/stripe", h.StripeWebhook)
		webhooks.POST("/typeform", h.TypeformWebhook)
	}

	router.GET("/ping", h.Ping)
}

// Ping проверяет работоспособность API и БД
// @Summary Проверка работоспособности
// @Description Возвращает простой ответ для проверки работы сервера
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} dto.ErrorResponse
// @Router /ping [get]
func (h *APIHandler) Ping(ctx *gin.Context) {
	if err := h.Repository.Ping(); err != nil {
		errorResponse(ctx, 503, "База данных недоступна")
		return
	}
	ctx.JSON(200, gin.H{"message": "pong"})
}
