package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appanalytics "github.com/hydrospark/backend/internal/application/analytics"
	"github.com/hydrospark/backend/internal/domain/analytics"
	"github.com/hydrospark/backend/internal/interfaces/http/dto"
)

// AnomalyHandler lists, detects and reviews usage anomalies
type AnomalyHandler struct {
	BaseHandler
	service *appanalytics.AnomalyService
}

// NewAnomalyHandler creates a new AnomalyHandler
func NewAnomalyHandler(service *appanalytics.AnomalyService) *AnomalyHandler {
	return &AnomalyHandler{service: service}
}

// List returns anomalies, newest first.
//
// GET /anomalies?reviewed=&customer_id=
func (h *AnomalyHandler) List(c *gin.Context) {
	var q dto.AnomalyListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	var filter analytics.AnomalyFilter
	if q.Reviewed != nil {
		filter = filter.WithReviewed(*q.Reviewed)
	}
	if q.CustomerID != "" {
		filter = filter.WithCustomer(uuid.MustParse(q.CustomerID))
	}

	anomalies, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToAnomalyResponses(anomalies))
}

// Detect runs detection over every customer. Per-customer failures are
// reported in the body; the call itself succeeds.
//
// POST /anomalies/detect
func (h *AnomalyHandler) Detect(c *gin.Context) {
	result, err := h.service.DetectAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	failures := make([]dto.FailureResponse, len(result.Failures))
	for i, f := range result.Failures {
		failures[i] = dto.FailureResponse{CustomerID: f.CustomerID.String(), Code: f.Code, Error: f.Error}
	}
	h.Success(c, dto.DetectionResponse{
		CreatedCount:     result.CreatedCount,
		CustomersScanned: result.CustomersScanned,
		Failures:         failures,
	})
}

// Review marks an anomaly reviewed with optional notes.
//
// POST /anomalies/:id/review
func (h *AnomalyHandler) Review(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ReviewAnomalyRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	anomaly, err := h.service.Review(c.Request.Context(), id, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToAnomalyResponse(anomaly))
}
