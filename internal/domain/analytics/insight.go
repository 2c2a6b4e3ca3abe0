package analytics

// AnomalyBucket groups anomaly counts for rule matching
type AnomalyBucket string

const (
	AnomalyBucketNone AnomalyBucket = "none"
	AnomalyBucketFew  AnomalyBucket = "few"
	AnomalyBucketMany AnomalyBucket = "many"
)

// BucketForCount maps an anomaly count to its bucket: 0, 1-2, 3+
func BucketForCount(n int) AnomalyBucket {
	switch {
	case n <= 0:
		return AnomalyBucketNone
	case n < 3:
		return AnomalyBucketFew
	default:
		return AnomalyBucketMany
	}
}

// Priority orders recommendations for display
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Recommendation is one piece of advice derived from the rule table
type Recommendation struct {
	ID       string
	Priority Priority
	Message  string
}

// InsightKey is what a rule is matched against
type InsightKey struct {
	Consistency Consistency
	Anomalies   AnomalyBucket
	Trend       Trend
}

// InsightRule matches an InsightKey. Empty fields match anything.
type InsightRule struct {
	Consistency    Consistency
	Anomalies      AnomalyBucket
	Trend          Trend
	Recommendation Recommendation
}

func (r InsightRule) matches(k InsightKey) bool {
	return (r.Consistency == "" || r.Consistency == k.Consistency) &&
		(r.Anomalies == "" || r.Anomalies == k.Anomalies) &&
		(r.Trend == "" || r.Trend == k.Trend)
}

// FallbackRecommendation is returned when no rule matches
var FallbackRecommendation = Recommendation{
	ID:       "usage_normal",
	Priority: PriorityLow,
	Message:  "Usage is within the normal range for this account.",
}

// DefaultInsightRules is the recommendation table, evaluated top to bottom
var DefaultInsightRules = []InsightRule{
	{
		Consistency: ConsistencyInsufficientData,
		Recommendation: Recommendation{
			ID: "collect_more_data", Priority: PriorityLow,
			Message: "Not enough readings yet to assess usage patterns.",
		},
	},
	{
		Consistency: ConsistencyVariable, Anomalies: AnomalyBucketMany,
		Recommendation: Recommendation{
			ID: "leak_inspection_urgent", Priority: PriorityHigh,
			Message: "Usage is highly variable with repeated spikes. Schedule a leak inspection as soon as possible.",
		},
	},
	{
		Consistency: ConsistencyVariable, Anomalies: AnomalyBucketFew,
		Recommendation: Recommendation{
			ID: "leak_inspection", Priority: PriorityMedium,
			Message: "Usage is highly variable. Consider scheduling a leak inspection.",
		},
	},
	{
		Consistency: ConsistencyVariable, Anomalies: AnomalyBucketNone,
		Recommendation: Recommendation{
			ID: "review_irregular_usage", Priority: PriorityLow,
			Message: "Usage varies widely from day to day. Review irrigation schedules and large appliance use.",
		},
	},
	{
		Consistency: ConsistencyConsistent, Anomalies: AnomalyBucketMany,
		Recommendation: Recommendation{
			ID: "meter_check", Priority: PriorityMedium,
			Message: "Usage is normally steady but several spikes were flagged. Request a meter accuracy check.",
		},
	},
	{
		Consistency: ConsistencyModerate, Anomalies: AnomalyBucketMany,
		Recommendation: Recommendation{
			ID: "review_spikes", Priority: PriorityMedium,
			Message: "Several usage spikes were detected. Check fixtures and irrigation for intermittent leaks.",
		},
	},
	{
		Consistency: ConsistencyConsistent, Anomalies: AnomalyBucketFew,
		Recommendation: Recommendation{
			ID: "review_recent_spike", Priority: PriorityLow,
			Message: "A usage spike was detected. Confirm it matches known activity.",
		},
	},
	{
		Consistency: ConsistencyModerate, Anomalies: AnomalyBucketFew,
		Recommendation: Recommendation{
			ID: "review_recent_spike", Priority: PriorityLow,
			Message: "A usage spike was detected. Confirm it matches known activity.",
		},
	},
	{
		Trend: TrendIncreasing,
		Recommendation: Recommendation{
			ID: "usage_rising", Priority: PriorityMedium,
			Message: "Usage is up on the previous 30 days. Look for new or growing water uses.",
		},
	},
	{
		Trend: TrendDecreasing,
		Recommendation: Recommendation{
			ID: "usage_falling", Priority: PriorityLow,
			Message: "Usage is down on the previous 30 days. Keep up the savings.",
		},
	},
	{
		Consistency: ConsistencyConsistent, Anomalies: AnomalyBucketNone, Trend: TrendStable,
		Recommendation: Recommendation{
			ID: "usage_stable", Priority: PriorityLow,
			Message: "Usage is stable. No action needed.",
		},
	},
	{
		Consistency: ConsistencyConsistent, Anomalies: AnomalyBucketNone, Trend: TrendUnknown,
		Recommendation: Recommendation{
			ID: "usage_stable", Priority: PriorityLow,
			Message: "Usage is stable. No action needed.",
		},
	},
}

// InsightGenerator maps profile facts to recommendations through a fixed rule table
type InsightGenerator struct {
	rules []InsightRule
}

// NewInsightGenerator creates a generator over rules; nil selects DefaultInsightRules
func NewInsightGenerator(rules []InsightRule) *InsightGenerator {
	if rules == nil {
		rules = DefaultInsightRules
	}
	return &InsightGenerator{rules: rules}
}

// Generate returns every matching recommendation in table order, each id at
// most once, or the fallback when nothing matches.
func (g *InsightGenerator) Generate(key InsightKey) []Recommendation {
	var (
		out  []Recommendation
		seen = make(map[string]struct{})
	)
	for _, r := range g.rules {
		if !r.matches(key) {
			continue
		}
		if _, dup := seen[r.Recommendation.ID]; dup {
			continue
		}
		seen[r.Recommendation.ID] = struct{}{}
		out = append(out, r.Recommendation)
	}
	if len(out) == 0 {
		return []Recommendation{FallbackRecommendation}
	}
	return out
}

// KeyFor builds the rule key from a profile, an anomaly count and a pattern
// analysis. A nil pattern means the trend is unknown.
func KeyFor(profile *StatisticalProfile, anomalyCount int, pattern *PatternAnalysis) InsightKey {
	trend := TrendUnknown
	if pattern != nil {
		trend = pattern.Trend
	}
	return InsightKey{
		Consistency: profile.Consistency,
		Anomalies:   BucketForCount(anomalyCount),
		Trend:       trend,
	}
}
