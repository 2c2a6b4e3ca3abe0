package billing

import (
	"fmt"
	"time"

	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Season selects the seasonal multiplier for a billing month
type Season string

const (
	SeasonSummer     Season = "summer"
	SeasonWinter     Season = "winter"
	SeasonSpringFall Season = "spring_fall"
)

// SeasonFor maps a month to its season: Jun-Aug summer, Dec-Feb winter
func SeasonFor(m time.Month) Season {
	switch m {
	case time.June, time.July, time.August:
		return SeasonSummer
	case time.December, time.January, time.February:
		return SeasonWinter
	default:
		return SeasonSpringFall
	}
}

// RateTier prices the usage between Min and Max CCF. A zero Max marks the
// open-ended top tier.
type RateTier struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Rate decimal.Decimal
}

// Unbounded reports whether the tier has no upper limit
func (t RateTier) Unbounded() bool {
	return t.Max.IsZero()
}

// SeasonalMultipliers scale the tiered charge by season
type SeasonalMultipliers struct {
	Summer     decimal.Decimal
	Winter     decimal.Decimal
	SpringFall decimal.Decimal
}

// For returns the multiplier of a season
func (s SeasonalMultipliers) For(season Season) decimal.Decimal {
	switch season {
	case SeasonSummer:
		return s.Summer
	case SeasonWinter:
		return s.Winter
	default:
		return s.SpringFall
	}
}

// Fees are fixed per-bill charges
type Fees struct {
	BaseService    decimal.Decimal
	Infrastructure decimal.Decimal
}

// Total returns the sum of all fixed fees
func (f Fees) Total() decimal.Decimal {
	return f.BaseService.Add(f.Infrastructure)
}

// RateSchedule is the pricing applied to a period's usage. It is supplied by
// configuration; a flat rate is a single unbounded tier.
type RateSchedule struct {
	Tiers    []RateTier
	Seasonal SeasonalMultipliers
	Fees     Fees
}

// NewRateSchedule validates and builds a schedule. Tiers must start at 0, be
// contiguous, have non-negative rates, and only the last may be unbounded.
// Zero multipliers default to 1.
func NewRateSchedule(tiers []RateTier, seasonal SeasonalMultipliers, fees Fees) (*RateSchedule, error) {
	if len(tiers) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Rate schedule needs at least one tier")
	}
	expectedMin := decimal.Zero
	for i, t := range tiers {
		if !t.Min.Equal(expectedMin) {
			return nil, shared.NewDomainError(shared.CodeValidation,
				fmt.Sprintf("Rate tier %d must start at %s, got %s", i, expectedMin, t.Min))
		}
		if t.Rate.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Rate tier %d has a negative rate", i))
		}
		last := i == len(tiers)-1
		if t.Unbounded() != last {
			return nil, shared.NewDomainError(shared.CodeValidation, "Only the last rate tier may be unbounded, and it must be")
		}
		if !last && t.Max.LessThanOrEqual(t.Min) {
			return nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Rate tier %d max must exceed min", i))
		}
		expectedMin = t.Max
	}

	one := decimal.NewFromInt(1)
	for _, m := range []*decimal.Decimal{&seasonal.Summer, &seasonal.Winter, &seasonal.SpringFall} {
		if m.IsZero() {
			*m = one
		}
		if m.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeValidation, "Seasonal multipliers cannot be negative")
		}
	}
	if fees.BaseService.IsNegative() || fees.Infrastructure.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Fees cannot be negative")
	}

	return &RateSchedule{Tiers: tiers, Seasonal: seasonal, Fees: fees}, nil
}

// DefaultRateSchedule returns the standard residential water tariff
func DefaultRateSchedule() *RateSchedule {
	s, _ := NewRateSchedule(
		[]RateTier{
			{Min: decimal.Zero, Max: decimal.NewFromInt(10), Rate: decimal.RequireFromString("2.50")},
			{Min: decimal.NewFromInt(10), Max: decimal.NewFromInt(20), Rate: decimal.RequireFromString("3.00")},
			{Min: decimal.NewFromInt(20), Rate: decimal.RequireFromString("3.50")},
		},
		SeasonalMultipliers{
			Summer:     decimal.RequireFromString("1.2"),
			Winter:     decimal.RequireFromString("0.9"),
			SpringFall: decimal.NewFromInt(1),
		},
		Fees{
			BaseService:    decimal.RequireFromString("15.00"),
			Infrastructure: decimal.RequireFromString("5.00"),
		},
	)
	return s
}

// TierCharge is the part of a charge that fell into one tier
type TierCharge struct {
	Tier   RateTier
	Usage  decimal.Decimal
	Amount decimal.Decimal
}

// Charge is an unrounded bill computation. Rounding happens at presentation.
type Charge struct {
	Usage              decimal.Decimal
	Tiers              []TierCharge
	BaseCharge         decimal.Decimal
	Season             Season
	SeasonalMultiplier decimal.Decimal
	SeasonalAdjustment decimal.Decimal
	UsageCharge        decimal.Decimal
	BaseServiceFee     decimal.Decimal
	InfrastructureFee  decimal.Decimal
	Fees               decimal.Decimal
	Total              decimal.Decimal
}

// Charge prices usageCCF for a period billed in month
func (s *RateSchedule) Charge(usageCCF float64, month time.Month) Charge {
	usage := decimal.NewFromFloat(usageCCF)
	c := Charge{
		Usage:      usage,
		BaseCharge: decimal.Zero,
		Season:     SeasonFor(month),
	}

	remaining := usage
	for _, t := range s.Tiers {
		if !remaining.IsPositive() {
			break
		}
		inTier := remaining
		if !t.Unbounded() {
			inTier = decimal.Min(remaining, t.Max.Sub(t.Min))
		}
		amount := inTier.Mul(t.Rate)
		c.Tiers = append(c.Tiers, TierCharge{Tier: t, Usage: inTier, Amount: amount})
		c.BaseCharge = c.BaseCharge.Add(amount)
		remaining = remaining.Sub(inTier)
	}

	c.SeasonalMultiplier = s.Seasonal.For(c.Season)
	c.UsageCharge = c.BaseCharge.Mul(c.SeasonalMultiplier)
	c.SeasonalAdjustment = c.UsageCharge.Sub(c.BaseCharge)
	c.BaseServiceFee = s.Fees.BaseService
	c.InfrastructureFee = s.Fees.Infrastructure
	c.Fees = s.Fees.Total()
	c.Total = c.UsageCharge.Add(c.Fees)
	return c
}
