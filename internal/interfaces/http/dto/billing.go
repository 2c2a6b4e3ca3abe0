package dto

import (
	"time"

	"github.com/hydrospark/backend/internal/domain/billing"
)

// TierChargeResponse is the part of a charge in one tier
type TierChargeResponse struct {
	Min    string  `json:"min"`
	Max    *string `json:"max"`
	Rate   string  `json:"rate"`
	Usage  string  `json:"usage"`
	Amount string  `json:"amount"`
}

// ChargeResponse is a charge breakdown
type ChargeResponse struct {
	Tiers              []TierChargeResponse `json:"tiers"`
	BaseCharge         string               `json:"base_charge"`
	Season             string               `json:"season"`
	SeasonalMultiplier string               `json:"seasonal_multiplier"`
	SeasonalAdjustment string               `json:"seasonal_adjustment"`
	UsageCharge        string               `json:"usage_charge"`
	BaseServiceFee     string               `json:"base_service_fee"`
	InfrastructureFee  string               `json:"infrastructure_fee"`
	Fees               string               `json:"fees"`
	Total              string               `json:"total"`
}

// ToChargeResponse converts a charge
func ToChargeResponse(c billing.Charge) ChargeResponse {
	tiers := make([]TierChargeResponse, len(c.Tiers))
	for i, t := range c.Tiers {
		tc := TierChargeResponse{
			Min:    t.Tier.Min.String(),
			Rate:   Money(t.Tier.Rate),
			Usage:  t.Usage.String(),
			Amount: Money(t.Amount),
		}
		if !t.Tier.Unbounded() {
			m := t.Tier.Max.String()
			tc.Max = &m
		}
		tiers[i] = tc
	}
	return ChargeResponse{
		Tiers:              tiers,
		BaseCharge:         Money(c.BaseCharge),
		Season:             string(c.Season),
		SeasonalMultiplier: c.SeasonalMultiplier.String(),
		SeasonalAdjustment: Money(c.SeasonalAdjustment),
		UsageCharge:        Money(c.UsageCharge),
		BaseServiceFee:     Money(c.BaseServiceFee),
		InfrastructureFee:  Money(c.InfrastructureFee),
		Fees:               Money(c.Fees),
		Total:              Money(c.Total),
	}
}

// BillListQuery filters bill listings
type BillListQuery struct {
	Status     string `form:"status" binding:"omitempty,oneof=pending sent paid"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	From       string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To         string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// BillResponse is the API view of a bill
type BillResponse struct {
	ID                 string     `json:"id"`
	CustomerID         string     `json:"customer_id"`
	BillingPeriodStart string     `json:"billing_period_start"`
	BillingPeriodEnd   string     `json:"billing_period_end"`
	TotalUsage         float64    `json:"total_usage"`
	BaseCharge         string     `json:"base_charge"`
	SeasonalAdjustment string     `json:"seasonal_adjustment"`
	UsageCharge        string     `json:"usage_charge"`
	Fees               string     `json:"fees"`
	TotalAmount        string     `json:"total_amount"`
	Status             string     `json:"status"`
	GeneratedAt        time.Time  `json:"generated_at"`
	SentAt             *time.Time `json:"sent_at,omitempty"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
	Version            int        `json:"version"`
}

// ToBillResponse converts a bill
func ToBillResponse(b *billing.Bill) BillResponse {
	return BillResponse{
		ID:                 b.ID.String(),
		CustomerID:         b.CustomerID.String(),
		BillingPeriodStart: b.Period.Start.Format(DateLayout),
		BillingPeriodEnd:   b.Period.End.Format(DateLayout),
		TotalUsage:         b.TotalUsage,
		BaseCharge:         Money(b.BaseCharge),
		SeasonalAdjustment: Money(b.SeasonalAdjustment),
		UsageCharge:        Money(b.UsageCharge),
		Fees:               Money(b.Fees),
		TotalAmount:        Money(b.TotalAmount),
		Status:             b.Status.String(),
		GeneratedAt:        b.GeneratedAt,
		SentAt:             b.SentAt,
		PaidAt:             b.PaidAt,
		Version:            b.Version,
	}
}

// ToBillResponses converts a list of bills
func ToBillResponses(bs []billing.Bill) []BillResponse {
	out := make([]BillResponse, len(bs))
	for i := range bs {
		out[i] = ToBillResponse(&bs[i])
	}
	return out
}

// BillRunLineResponse is one customer's line of a bill run
type BillRunLineResponse struct {
	CustomerID string  `json:"customer_id"`
	Outcome    string  `json:"outcome"`
	BillID     *string `json:"bill_id,omitempty"`
	Code       string  `json:"code,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// BillRunResponse is the generateBills payload
type BillRunResponse struct {
	Message            string                `json:"message"`
	Generated          int                   `json:"generated"`
	Skipped            int                   `json:"skipped"`
	Failed             int                   `json:"failed"`
	PerCustomerResults []BillRunLineResponse `json:"per_customer_results"`
}

// BillsSummaryResponse is the getBillsSummary payload
type BillsSummaryResponse struct {
	Counts struct {
		Pending int64 `json:"pending"`
		Sent    int64 `json:"sent"`
		Paid    int64 `json:"paid"`
		Total   int64 `json:"total"`
	} `json:"counts"`
	Revenue struct {
		Pending        string `json:"pending"`
		Outstanding    string `json:"outstanding"`
		TotalCollected string `json:"total_collected"`
	} `json:"revenue"`
}

// ToBillsSummaryResponse converts a revenue summary
func ToBillsSummaryResponse(s billing.RevenueSummary) BillsSummaryResponse {
	var resp BillsSummaryResponse
	resp.Counts.Pending = s.Counts.Pending
	resp.Counts.Sent = s.Counts.Sent
	resp.Counts.Paid = s.Counts.Paid
	resp.Counts.Total = s.Counts.Total
	resp.Revenue.Pending = Money(s.Revenue.Pending)
	resp.Revenue.Outstanding = Money(s.Revenue.Outstanding)
	resp.Revenue.TotalCollected = Money(s.Revenue.TotalCollected)
	return resp
}
