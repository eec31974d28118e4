package handler

import (
	"net/http"

	"sprintdesk/internal/app/dto"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// recentSubmissions - сколько последних анкет показывать на панели
const recentSubmissions = 5

// GetDashboard сводка для администратора
// @Summary Панель администратора
// @Description Спринты по статусам, открытые и оплаченные счета, объем воронки, последние анкеты
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.DashboardResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/admin/dashboard [get]
func (h *APIHandler) GetDashboard(c *gin.Context) {
	stats, err := h.Repository.GetDashboardStats(recentSubmissions)
	if err != nil {
		logrus.Error("Error getting dashboard stats: ", err)
		errorResponse(c, http.StatusInternalServerError, "Ошибка получения сводки")
		return
	}

	response := dto.DashboardResponse{
		DraftsByStatus:    stats.DraftsByStatus,
		OpenInvoices:      stats.OpenInvoices,
		OutstandingAmount: stats.OutstandingAmount.StringFixed(2),
		PaidAmount:        stats.PaidAmount.StringFixed(2),
		PipelineValue:     stats.PipelineValue,
		DeliverableCount:  stats.DeliverableCount,
		AccountCount:      stats.AccountCount,
		RecentSubmissions: make([]dto.IntakeSubmissionResponse, len(stats.RecentSubmissions)),
	}
	for i, sub := range stats.RecentSubmissions {
		response.RecentSubmissions[i] = toIntakeResponse(sub, false)
	}

	c.JSON(http.StatusOK, response)
}
