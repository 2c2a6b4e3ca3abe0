package dto

import (
	"time"

	"github.com/hydrospark/backend/internal/domain/analytics"
	"github.com/hydrospark/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// AnalyticsQuery selects the analysis window
type AnalyticsQuery struct {
	Days int    `form:"days" binding:"omitempty,min=1,max=3650"`
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// ProfileResponse is the statistical profile
type ProfileResponse struct {
	Count                  int                `json:"count"`
	Mean                   *float64           `json:"mean"`
	Median                 *float64           `json:"median"`
	StdDev                 float64            `json:"std_dev"`
	Min                    *float64           `json:"min"`
	Max                    *float64           `json:"max"`
	Total                  float64            `json:"total"`
	CoefficientOfVariation float64            `json:"coefficient_of_variation"`
	DayOfWeekAverages      map[string]float64 `json:"day_of_week_averages"`
	HighestUsageDay        *string            `json:"highest_usage_day"`
	Consistency            string             `json:"consistency"`
	WindowStart            *string            `json:"window_start"`
	WindowEnd              *string            `json:"window_end"`
}

// AnomalySummaryResponse rolls up anomalies
type AnomalySummaryResponse struct {
	Total               int     `json:"total"`
	Unreviewed          int     `json:"unreviewed"`
	MaxSigma            float64 `json:"max_sigma"`
	MaxDeviationPercent float64 `json:"max_deviation_percent"`
	MostRecentDate      *string `json:"most_recent_date"`
	Severity            string  `json:"severity"`
}

// PatternResponse describes the shape of usage
type PatternResponse struct {
	P25                float64  `json:"p25"`
	P75                float64  `json:"p75"`
	P90                float64  `json:"p90"`
	WeekdayAverage     *float64 `json:"weekday_average"`
	WeekendAverage     *float64 `json:"weekend_average"`
	Trend              string   `json:"trend"`
	RecentAverage      *float64 `json:"recent_average"`
	PreviousAverage    *float64 `json:"previous_average"`
	TrendChangePercent *float64 `json:"trend_change_percent"`
}

// RecommendationResponse is one insight
type RecommendationResponse struct {
	ID       string `json:"id"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

// CustomerAnalyticsResponse is the getAnalytics payload
type CustomerAnalyticsResponse struct {
	CustomerID      string                   `json:"customer_id"`
	CustomerName    string                   `json:"customer_name"`
	Profile         ProfileResponse          `json:"profile"`
	AnomalySummary  AnomalySummaryResponse   `json:"anomaly_summary"`
	PatternAnalysis *PatternResponse         `json:"pattern_analysis"`
	Recommendations []RecommendationResponse `json:"recommendations"`
}

// ToProfileResponse converts a profile. Statistics undefined for an empty
// window are rendered as null.
func ToProfileResponse(p *analytics.StatisticalProfile) ProfileResponse {
	resp := ProfileResponse{
		Count:                  p.Count,
		StdDev:                 p.StdDev,
		Total:                  p.Total,
		CoefficientOfVariation: p.CoefficientOfVariation,
		DayOfWeekAverages:      make(map[string]float64, len(p.DayOfWeekAverages)),
		Consistency:            string(p.Consistency),
		WindowStart:            formatDate(p.WindowStart),
		WindowEnd:              formatDate(p.WindowEnd),
	}
	if p.HasData() {
		resp.Mean, resp.Median = &p.Mean, &p.Median
		resp.Min, resp.Max = &p.Min, &p.Max
	}
	for d, avg := range p.DayOfWeekAverages {
		resp.DayOfWeekAverages[d.String()] = avg
	}
	if p.HighestUsageDay != nil {
		s := p.HighestUsageDay.String()
		resp.HighestUsageDay = &s
	}
	return resp
}

// ToAnomalySummaryResponse converts a summary
func ToAnomalySummaryResponse(s analytics.AnomalySummary) AnomalySummaryResponse {
	return AnomalySummaryResponse{
		Total:               s.Total,
		Unreviewed:          s.Unreviewed,
		MaxSigma:            s.MaxSigma,
		MaxDeviationPercent: s.MaxDeviationPercent,
		MostRecentDate:      formatDate(s.MostRecentDate),
		Severity:            string(s.Severity),
	}
}

// ToPatternResponse converts a pattern analysis; nil stays nil
func ToPatternResponse(p *analytics.PatternAnalysis) *PatternResponse {
	if p == nil {
		return nil
	}
	return &PatternResponse{
		P25:                p.P25,
		P75:                p.P75,
		P90:                p.P90,
		WeekdayAverage:     p.WeekdayAverage,
		WeekendAverage:     p.WeekendAverage,
		Trend:              string(p.Trend),
		RecentAverage:      p.RecentAverage,
		PreviousAverage:    p.PreviousAverage,
		TrendChangePercent: p.TrendChangePercent,
	}
}

// ToRecommendationResponses converts recommendations
func ToRecommendationResponses(recs []analytics.Recommendation) []RecommendationResponse {
	out := make([]RecommendationResponse, len(recs))
	for i, r := range recs {
		out[i] = RecommendationResponse{ID: r.ID, Priority: string(r.Priority), Message: r.Message}
	}
	return out
}

// AnomalyListQuery filters anomaly listings
type AnomalyListQuery struct {
	Reviewed   *bool  `form:"reviewed"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
}

// ReviewAnomalyRequest reviews an anomaly
type ReviewAnomalyRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

// AnomalyResponse is the API view of an anomaly
type AnomalyResponse struct {
	ID               string     `json:"id"`
	CustomerID       string     `json:"customer_id"`
	Date             string     `json:"date"`
	UsageCCF         float64    `json:"usage_ccf"`
	AverageUsage     float64    `json:"average_usage"`
	StdDeviation     float64    `json:"std_deviation"`
	SigmaValue       float64    `json:"sigma_value"`
	DeviationPercent float64    `json:"deviation_percent"`
	Severity         string     `json:"severity"`
	Reviewed         bool       `json:"reviewed"`
	ReviewNotes      string     `json:"review_notes,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	DetectedAt       time.Time  `json:"detected_at"`
}

// ToAnomalyResponse converts an anomaly
func ToAnomalyResponse(a *analytics.Anomaly) AnomalyResponse {
	return AnomalyResponse{
		ID:               a.ID.String(),
		CustomerID:       a.CustomerID.String(),
		Date:             a.Date.Format(DateLayout),
		UsageCCF:         a.UsageCCF,
		AverageUsage:     a.AverageUsage,
		StdDeviation:     a.StdDeviation,
		SigmaValue:       a.SigmaValue,
		DeviationPercent: a.DeviationPercent(),
		Severity:         string(analytics.SeverityForDeviation(a.DeviationPercent())),
		Reviewed:         a.Reviewed,
		ReviewNotes:      a.ReviewNotes,
		ReviewedAt:       a.ReviewedAt,
		DetectedAt:       a.DetectedAt,
	}
}

// ToAnomalyResponses converts a list of anomalies
func ToAnomalyResponses(as []analytics.Anomaly) []AnomalyResponse {
	out := make([]AnomalyResponse, len(as))
	for i := range as {
		out[i] = ToAnomalyResponse(&as[i])
	}
	return out
}

// FailureResponse is one customer a batch could not process
type FailureResponse struct {
	CustomerID string `json:"customer_id"`
	Code       string `json:"code"`
	Error      string `json:"error"`
}

// DetectionResponse is the detectAnomalies payload
type DetectionResponse struct {
	CreatedCount     int               `json:"created_count"`
	CustomersScanned int               `json:"customers_scanned"`
	Failures         []FailureResponse `json:"failures"`
}

// ForecastQuery is the getForecast query
type ForecastQuery struct {
	Days int `form:"days,default=30"`
}

// ForecastedBillQuery is the getForecastedBill query
type ForecastedBillQuery struct {
	Month *int `form:"month"`
	Year  *int `form:"year"`
}

// DailyForecastResponse is one forecast day
type DailyForecastResponse struct {
	Date           string  `json:"date"`
	PredictedUsage float64 `json:"predicted_usage"`
	LowerBound     float64 `json:"lower_bound"`
	UpperBound     float64 `json:"upper_bound"`
}

// ForecastResponse is the getForecast payload
type ForecastResponse struct {
	CustomerID           string                  `json:"customer_id"`
	HorizonDays          int                     `json:"horizon_days"`
	StartDate            string                  `json:"start_date"`
	Daily                []DailyForecastResponse `json:"daily"`
	TotalPredictedUsage  float64                 `json:"total_predicted_usage"`
	AverageDailyUsage    float64                 `json:"average_daily_usage"`
	BaselineMean         float64                 `json:"baseline_mean"`
	TrendFactor          float64                 `json:"trend_factor"`
	TrendDirection       string                  `json:"trend_direction"`
	DataPointsUsed       int                     `json:"data_points_used"`
	PredictedTotalAmount string                  `json:"predicted_total_amount"`
	Charge               ChargeResponse          `json:"charge"`
}

// ForecastedBillResponse is the getForecastedBill payload
type ForecastedBillResponse struct {
	CustomerID           string         `json:"customer_id"`
	Month                int            `json:"month"`
	Year                 int            `json:"year"`
	Days                 int            `json:"days"`
	PredictedUsage       float64        `json:"predicted_usage"`
	TrendDirection       string         `json:"trend_direction"`
	PredictedTotalAmount string         `json:"predicted_total_amount"`
	Charge               ChargeResponse `json:"charge"`
}

// ToForecastResponse converts a usage forecast and its charge
func ToForecastResponse(f *analytics.UsageForecast, charge billing.Charge) ForecastResponse {
	daily := make([]DailyForecastResponse, len(f.Daily))
	for i, d := range f.Daily {
		daily[i] = DailyForecastResponse{
			Date:           d.Date.Format(DateLayout),
			PredictedUsage: d.PredictedUsage,
			LowerBound:     d.LowerBound,
			UpperBound:     d.UpperBound,
		}
	}
	return ForecastResponse{
		CustomerID:           f.CustomerID.String(),
		HorizonDays:          f.HorizonDays,
		StartDate:            f.StartDate.Format(DateLayout),
		Daily:                daily,
		TotalPredictedUsage:  f.TotalPredictedUsage,
		AverageDailyUsage:    f.AverageDailyUsage(),
		BaselineMean:         f.BaselineMean,
		TrendFactor:          f.TrendFactor,
		TrendDirection:       string(f.TrendDirection),
		DataPointsUsed:       f.DataPointsUsed,
		PredictedTotalAmount: Money(charge.Total),
		Charge:               ToChargeResponse(charge),
	}
}

// ToForecastedBillResponse converts a forecasted bill
func ToForecastedBillResponse(f *analytics.UsageForecast, month time.Month, year int, charge billing.Charge) ForecastedBillResponse {
	return ForecastedBillResponse{
		CustomerID:           f.CustomerID.String(),
		Month:                int(month),
		Year:                 year,
		Days:                 f.HorizonDays,
		PredictedUsage:       f.TotalPredictedUsage,
		TrendDirection:       string(f.TrendDirection),
		PredictedTotalAmount: Money(charge.Total),
		Charge:               ToChargeResponse(charge),
	}
}

// Money renders an amount with two decimals
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
