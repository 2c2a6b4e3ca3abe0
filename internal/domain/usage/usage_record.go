package usage

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/shared"
)

// FirstRevision is the revision of an initial reading
const FirstRevision = 1

// UsageRecord is one immutable revision of a customer's daily reading.
// Corrections must be made with new records; see NewCorrection.
type UsageRecord struct {
	shared.BaseEntity
	CustomerID       uuid.UUID
	Date             time.Time // midnight UTC
	UsageCCF         float64
	Revision         int
	CorrectionReason string
}

// NewUsageRecord creates the initial reading for a customer and date
func NewUsageRecord(customerID uuid.UUID, date time.Time, usageCCF float64) (*UsageRecord, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Customer ID cannot be empty")
	}
	if err := validateUsage(usageCCF); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Reading date is required")
	}

	return &UsageRecord{
		BaseEntity: shared.NewBaseEntityAt(time.Now().UTC()),
		CustomerID: customerID,
		Date:       shared.Day(date),
		UsageCCF:   usageCCF,
		Revision:   FirstRevision,
	}, nil
}

// NewCorrection creates the revision that supersedes the reading at
// currentRevision. The reason is kept for audit.
func NewCorrection(customerID uuid.UUID, date time.Time, usageCCF float64, currentRevision int, reason string) (*UsageRecord, error) {
	if currentRevision < FirstRevision {
		return nil, shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("No reading to correct on %s", shared.Day(date).Format(time.DateOnly)))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Correction reason is required")
	}

	rec, err := NewUsageRecord(customerID, date, usageCCF)
	if err != nil {
		return nil, err
	}
	rec.Revision = currentRevision + 1
	rec.CorrectionReason = reason
	return rec, nil
}

// IsCorrection reports whether this record supersedes an earlier revision
func (r *UsageRecord) IsCorrection() bool {
	return r.Revision > FirstRevision
}

func validateUsage(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return shared.NewDomainError(shared.CodeValidation, "Usage must be a finite number")
	}
	if v < 0 {
		return shared.NewDomainError(shared.CodeValidation, "Usage cannot be negative")
	}
	return nil
}

// Values extracts usage values preserving order
func Values(records []UsageRecord) []float64 {
	out := make([]float64, len(records))
	for i := range records {
		out[i] = records[i].UsageCCF
	}
	return out
}
