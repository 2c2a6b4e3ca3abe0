package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appbilling "github.com/hydrospark/backend/internal/application/billing"
	"github.com/hydrospark/backend/internal/domain/billing"
	"github.com/hydrospark/backend/internal/interfaces/http/dto"
)

// BillingHandler runs bill generation and bill lifecycle endpoints
type BillingHandler struct {
	BaseHandler
	service *appbilling.Service
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(service *appbilling.Service) *BillingHandler {
	return &BillingHandler{service: service}
}

// Generate bills every customer whose next period has closed.
//
// POST /bills/generate
func (h *BillingHandler) Generate(c *gin.Context) {
	result, err := h.service.GenerateAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	lines := make([]dto.BillRunLineResponse, len(result.Results))
	for i, r := range result.Results {
		line := dto.BillRunLineResponse{
			CustomerID: r.CustomerID.String(),
			Outcome:    string(r.Outcome),
			Code:       r.Code,
			Error:      r.Error,
		}
		if r.BillID != nil {
			id := r.BillID.String()
			line.BillID = &id
		}
		lines[i] = line
	}
	h.Success(c, dto.BillRunResponse{
		Message:            result.Message,
		Generated:          result.Generated,
		Skipped:            result.Skipped,
		Failed:             result.Failed,
		PerCustomerResults: lines,
	})
}

// Send moves a pending bill to sent.
//
// POST /bills/:id/send
func (h *BillingHandler) Send(c *gin.Context) {
	h.transition(c, h.service.Send)
}

// Pay moves a sent bill to paid.
//
// POST /bills/:id/pay
func (h *BillingHandler) Pay(c *gin.Context) {
	h.transition(c, h.service.MarkPaid)
}

func (h *BillingHandler) transition(c *gin.Context, apply func(context.Context, uuid.UUID) (*billing.Bill, error)) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	bill, err := apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToBillResponse(bill))
}

// Summary returns bill counts and revenue by status.
//
// GET /bills/summary
func (h *BillingHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToBillsSummaryResponse(summary))
}

// List returns bills, filtered by ?status=&customer_id=&from=&to=.
//
// GET /bills
func (h *BillingHandler) List(c *gin.Context) {
	var q dto.BillListQuery
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

	filter := billing.BillFilter{From: from, To: to}
	if q.Status != "" {
		filter = filter.WithStatus(billing.BillStatus(q.Status))
	}
	if q.CustomerID != "" {
		filter = filter.WithCustomer(uuid.MustParse(q.CustomerID))
	}

	bills, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToBillResponses(bills))
}

// Get returns one bill.
//
// GET /bills/:id
func (h *BillingHandler) Get(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	bill, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToBillResponse(bill))
}
