package handler

import (
	"github.com/gin-gonic/gin"
	appcustomer "github.com/hydrospark/backend/internal/application/customer"
	"github.com/hydrospark/backend/internal/domain/customer"
	"github.com/hydrospark/backend/internal/interfaces/http/dto"
)

// CustomerHandler registers customers and moves their billing cycle
type CustomerHandler struct {
	BaseHandler
	service *appcustomer.Service
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(service *appcustomer.Service) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// Register onboards a customer.
//
// POST /customers
func (h *CustomerHandler) Register(c *gin.Context) {
	var req dto.RegisterCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cust, err := h.service.Register(c.Request.Context(), appcustomer.RegisterInput{
		Name:         req.Name,
		Address:      req.Address,
		Type:         customer.CustomerType(req.CustomerType),
		CycleNumber:  req.CycleNumber,
		LocationID:   req.LocationID,
		Phone:        req.Phone,
		BusinessName: req.BusinessName,
		FacilityName: req.FacilityName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToCustomerResponse(cust))
}

// List returns every customer.
//
// GET /customers
func (h *CustomerHandler) List(c *gin.Context) {
	customers, err := h.service.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToCustomerResponses(customers))
}

// Get returns one customer.
//
// GET /customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	cust, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToCustomerResponse(cust))
}

// ChangeCycle moves the billing anchor of a customer that has no bills yet.
//
// PUT /customers/:id/cycle
func (h *CustomerHandler) ChangeCycle(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ChangeCycleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cust, err := h.service.ChangeCycle(c.Request.Context(), id, req.CycleNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToCustomerResponse(cust))
}
