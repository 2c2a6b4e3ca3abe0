package handler

import (
	"github.com/gin-gonic/gin"
	appanalytics "github.com/hydrospark/backend/internal/application/analytics"
	"github.com/hydrospark/backend/internal/interfaces/http/dto"
)

// AnalyticsHandler serves per-customer usage analytics
type AnalyticsHandler struct {
	BaseHandler
	service *appanalytics.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(service *appanalytics.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// GetCustomerAnalytics returns profile, anomaly summary, pattern analysis and
// recommendations. ?days= or ?from=&to= narrow the window; neither means all history.
//
// GET /analytics/customers/:id
func (h *AnalyticsHandler) GetCustomerAnalytics(c *gin.Context) {
	customerID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var q dto.AnalyticsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	from, ok := h.parseDate(c, "from", q.From)
	if !ok {
		return
	}
	to, ok := h.parseDate(c, "to", q.To)
	if !ok {
		return
	}

	result, err := h.service.GetAnalytics(c.Request.Context(), customerID, appanalytics.Window{
		LastDays: q.Days,
		From:     from,
		To:       to,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.CustomerAnalyticsResponse{
		CustomerID:      result.Customer.ID.String(),
		CustomerName:    result.Customer.Name,
		Profile:         dto.ToProfileResponse(result.Profile),
		AnomalySummary:  dto.ToAnomalySummaryResponse(result.AnomalySummary),
		PatternAnalysis: dto.ToPatternResponse(result.Pattern),
		Recommendations: dto.ToRecommendationResponses(result.Recommendations),
	})
}
