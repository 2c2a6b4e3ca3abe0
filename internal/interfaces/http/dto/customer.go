package dto

import (
	"time"

	"github.com/hydrospark/backend/internal/domain/customer"
)

// RegisterCustomerRequest onboards a customer
type RegisterCustomerRequest struct {
	Name         string `json:"name" binding:"required,max=200"`
	Address      string `json:"address" binding:"required"`
	CustomerType string `json:"customer_type" binding:"required,oneof=residential commercial"`
	CycleNumber  int    `json:"cycle_number" binding:"required,min=1,max=28"`
	LocationID   *int64 `json:"location_id"`
	Phone        string `json:"phone" binding:"max=50"`
	BusinessName string `json:"business_name" binding:"max=200"`
	FacilityName string `json:"facility_name" binding:"max=200"`
}

// ChangeCycleRequest moves a customer's billing anchor
type ChangeCycleRequest struct {
	CycleNumber int `json:"cycle_number" binding:"required,min=1,max=28"`
}

// CustomerResponse is the API view of a customer
type CustomerResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	CustomerType string    `json:"customer_type"`
	CycleNumber  int       `json:"cycle_number"`
	LocationID   *int64    `json:"location_id,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	BusinessName string    `json:"business_name,omitempty"`
	FacilityName string    `json:"facility_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToCustomerResponse converts a customer
func ToCustomerResponse(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:           c.ID.String(),
		Name:         c.Name,
		Address:      c.Address,
		CustomerType: string(c.Type),
		CycleNumber:  c.CycleNumber,
		LocationID:   c.LocationID,
		Phone:        c.Phone,
		BusinessName: c.BusinessName,
		FacilityName: c.FacilityName,
		CreatedAt:    c.CreatedAt,
	}
}

// ToCustomerResponses converts a list of customers
func ToCustomerResponses(cs []customer.Customer) []CustomerResponse {
	out := make([]CustomerResponse, len(cs))
	for i := range cs {
		out[i] = ToCustomerResponse(&cs[i])
	}
	return out
}
