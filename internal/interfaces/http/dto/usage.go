package dto

import (
	"time"

	"github.com/hydrospark/backend/internal/domain/usage"
)

// DateLayout is the wire format of calendar dates
const DateLayout = time.DateOnly

// RecordReadingRequest records a daily reading
type RecordReadingRequest struct {
	CustomerID string   `json:"customer_id" binding:"required,uuid"`
	Date       string   `json:"date" binding:"required,datetime=2006-01-02"`
	UsageCCF   *float64 `json:"usage_ccf" binding:"required,gte=0"`
}

// CorrectReadingRequest replaces the effective reading of a day
type CorrectReadingRequest struct {
	RecordReadingRequest
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListReadingsQuery bounds a readings listing
type ListReadingsQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// UsageRecordResponse is the API view of a reading
type UsageRecordResponse struct {
	ID               string    `json:"id"`
	CustomerID       string    `json:"customer_id"`
	Date             string    `json:"date"`
	UsageCCF         float64   `json:"usage_ccf"`
	Revision         int       `json:"revision"`
	CorrectionReason string    `json:"correction_reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ToUsageRecordResponse converts a reading
func ToUsageRecordResponse(r *usage.UsageRecord) UsageRecordResponse {
	return UsageRecordResponse{
		ID:               r.ID.String(),
		CustomerID:       r.CustomerID.String(),
		Date:             r.Date.Format(DateLayout),
		UsageCCF:         r.UsageCCF,
		Revision:         r.Revision,
		CorrectionReason: r.CorrectionReason,
		CreatedAt:        r.CreatedAt,
	}
}

// ToUsageRecordResponses converts a list of readings
func ToUsageRecordResponses(rs []usage.UsageRecord) []UsageRecordResponse {
	out := make([]UsageRecordResponse, len(rs))
	for i := range rs {
		out[i] = ToUsageRecordResponse(&rs[i])
	}
	return out
}

// ParseDate parses a wire date. An empty string yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
