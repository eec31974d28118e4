package handler

import (
	"net/http"

	"sprintdesk/internal/app/dto"
	"sprintdesk/internal/app/metrics"
	"sprintdesk/internal/app/pricing"
	"sprintdesk/internal/app/repository"

	"github.com/gin-gonic/gin"
)

// EstimatePrice считает стоимость произвольного набора позиций без сохранения
// @Summary Предварительный расчет
// @Description Для каждой позиции: баллы = points (или default_estimate_points) × quantity × complexity_score
// @Tags Pricing
// @Accept json
// @Produce json
// @Param request body dto.PricingEstimateRequest true "Позиции"
// @Success 200 {object} dto.PricingEstimateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/pricing/estimate [post]
func (h *APIHandler) EstimatePrice(c *gin.Context) {
	var req dto.PricingEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Неверные данные запроса")
		return
	}

	result := pricing.Calculate(req.Items)
	if !result.Finite() {
		errorResponse(c, http.StatusBadRequest, "Некорректные значения позиций")
		return
	}
	metrics.RecordPricingRun("estimate")

	response := dto.PricingEstimateResponse{
		TotalsResponse: totalsFromResult(result),
		Items:          make([]dto.EstimateItemResponse, len(req.Items)),
	}
	for i, in := range req.Items {
		effective := in.Normalize().EffectivePoints()
		response.Items[i] = dto.EstimateItemResponse{
			EffectivePoints: repository.RoundTenth(effective),
			Hours:           repository.RoundTenth(pricing.HoursFromPoints(effective)),
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetPricingFormula возвращает формулу расчета
// @Summary Формула расчета
// @Tags Pricing
// @Produce json
// @Success 200 {object} dto.FormulaResponse
// @Router /api/pricing/formula [get]
func (h *APIHandler) GetPricingFormula(c *gin.Context) {
	c.JSON(http.StatusOK, dto.FormulaResponse{
		Formula:       pricing.FormulaText(),
		BaseFee:       pricing.BaseFee,
		PricePerPoint: pricing.PricePerPoint,
		HoursPerPoint: pricing.HoursPerPoint,
	})
}
