package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appusage "github.com/hydrospark/backend/internal/application/usage"
	"github.com/hydrospark/backend/internal/interfaces/http/dto"
)

// UsageHandler ingests and lists daily meter readings
type UsageHandler struct {
	BaseHandler
	service *appusage.Service
}

// NewUsageHandler creates a new UsageHandler
func NewUsageHandler(service *appusage.Service) *UsageHandler {
	return &UsageHandler{service: service}
}

// Record stores the initial reading of a day.
//
// POST /usage
func (h *UsageHandler) Record(c *gin.Context) {
	var req dto.RecordReadingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, _ := time.Parse(dto.DateLayout, req.Date)

	rec, err := h.service.RecordReading(c.Request.Context(), appusage.RecordReadingInput{
		CustomerID: uuid.MustParse(req.CustomerID),
		Date:       date,
		UsageCCF:   *req.UsageCCF,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToUsageRecordResponse(rec))
}

// Correct appends a new revision for a day that is not yet billed.
//
// POST /usage/correct
func (h *UsageHandler) Correct(c *gin.Context) {
	var req dto.CorrectReadingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, _ := time.Parse(dto.DateLayout, req.Date)

	rec, err := h.service.CorrectReading(c.Request.Context(), appusage.CorrectReadingInput{
		CustomerID: uuid.MustParse(req.CustomerID),
		Date:       date,
		UsageCCF:   *req.UsageCCF,
		Reason:     req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToUsageRecordResponse(rec))
}

// List returns a customer's effective readings, oldest first.
//
// GET /usage/customers/:id?from=&to=
func (h *UsageHandler) List(c *gin.Context) {
	customerID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var q dto.ListReadingsQuery
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

	records, err := h.service.ListReadings(c.Request.Context(), customerID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToUsageRecordResponses(records))
}
