package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func recommendationIDs(recs []Recommendation) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}

func TestBucketForCount(t *testing.T) {
	assert.Equal(t, AnomalyBucketNone, BucketForCount(0))
	assert.Equal(t, AnomalyBucketFew, BucketForCount(1))
	assert.Equal(t, AnomalyBucketFew, BucketForCount(2))
	assert.Equal(t, AnomalyBucketMany, BucketForCount(3))
}

func TestInsightGenerator_Generate(t *testing.T) {
	g := NewInsightGenerator(nil)

	tests := []struct {
		name string
		key  InsightKey
		want []string
	}{
		{
			name: "variable with anomalies suggests leak inspection",
			key:  InsightKey{ConsistencyVariable, AnomalyBucketFew, TrendStable},
			want: []string{"leak_inspection"},
		},
		{
			name: "variable with many anomalies and rising usage",
			key:  InsightKey{ConsistencyVariable, AnomalyBucketMany, TrendIncreasing},
			want: []string{"leak_inspection_urgent", "usage_rising"},
		},
		{
			name: "consistent without anomalies is stable",
			key:  InsightKey{ConsistencyConsistent, AnomalyBucketNone, TrendStable},
			want: []string{"usage_stable"},
		},
		{
			name: "consistent without trend history is stable",
			key:  InsightKey{ConsistencyConsistent, AnomalyBucketNone, TrendUnknown},
			want: []string{"usage_stable"},
		},
		{
			name: "insufficient data",
			key:  InsightKey{ConsistencyInsufficientData, AnomalyBucketNone, TrendUnknown},
			want: []string{"collect_more_data"},
		},
		{
			name: "moderate stable falls back",
			key:  InsightKey{ConsistencyModerate, AnomalyBucketNone, TrendStable},
			want: []string{"usage_normal"},
		},
		{
			name: "decreasing usage",
			key:  InsightKey{ConsistencyModerate, AnomalyBucketNone, TrendDecreasing},
			want: []string{"usage_falling"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recommendationIDs(g.Generate(tt.key)))
		})
	}
}

func TestInsightGenerator_IsDeterministic(t *testing.T) {
	g := NewInsightGenerator(nil)
	key := InsightKey{ConsistencyModerate, AnomalyBucketMany, TrendIncreasing}
	assert.Equal(t, g.Generate(key), g.Generate(key))
}

func TestInsightGenerator_DeduplicatesIDs(t *testing.T) {
	rec := Recommendation{ID: "same", Priority: PriorityLow, Message: "m"}
	g := NewInsightGenerator([]InsightRule{
		{Consistency: ConsistencyVariable, Recommendation: rec},
		{Anomalies: AnomalyBucketFew, Recommendation: rec},
	})

	got := g.Generate(InsightKey{ConsistencyVariable, AnomalyBucketFew, TrendStable})
	assert.Len(t, got, 1)
}

func TestKeyFor(t *testing.T) {
	profile := &StatisticalProfile{Consistency: ConsistencyModerate}

	assert.Equal(t, InsightKey{ConsistencyModerate, AnomalyBucketFew, TrendUnknown}, KeyFor(profile, 2, nil))
	assert.Equal(t, InsightKey{ConsistencyModerate, AnomalyBucketNone, TrendIncreasing},
		KeyFor(profile, 0, &PatternAnalysis{Trend: TrendIncreasing}))
}
