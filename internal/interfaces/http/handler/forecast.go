package handler

import (
	"github.com/gin-gonic/gin"
	appanalytics "github.com/hydrospark/backend/internal/application/analytics"
	"github.com/hydrospark/backend/internal/interfaces/http/dto"
)

// ForecastHandler serves usage and bill forecasts
type ForecastHandler struct {
	BaseHandler
	service *appanalytics.ForecastService
}

// NewForecastHandler creates a new ForecastHandler
func NewForecastHandler(service *appanalytics.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

// GetForecast projects daily usage for ?days= days (default 30) after the
// customer's last reading.
//
// GET /forecasts/customers/:id
func (h *ForecastHandler) GetForecast(c *gin.Context) {
	customerID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var q dto.ForecastQuery
	if !h.BindQuery(c, &q) {
		return
	}

	f, err := h.service.GetForecast(c.Request.Context(), customerID, q.Days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToForecastResponse(f.UsageForecast, f.Charge))
}

// GetForecastedBill estimates the bill of a calendar month, next month by
// default.
//
// GET /forecasts/customers/:id/bill
func (h *ForecastHandler) GetForecastedBill(c *gin.Context) {
	customerID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var q dto.ForecastedBillQuery
	if !h.BindQuery(c, &q) {
		return
	}

	fb, err := h.service.GetForecastedBill(c.Request.Context(), customerID, q.Month, q.Year)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToForecastedBillResponse(fb.Forecast, fb.Month, fb.Year, fb.Charge))
}
