// Package analytics computes per-customer usage statistics and everything
// derived from them.
//
// Profiles, pattern analysis, forecasts and insights are derived on demand and
// never stored. Anomalies are the only persisted artifact; they are keyed by
// (customer, date) so repeated detection runs reconcile rather than duplicate.
//
// Key types:
//   - StatisticalProfile: descriptive statistics over a window of readings
//   - PatternAnalysis: percentiles, weekday/weekend split and 30-day trend
//   - Anomaly: a reading flagged by the Detector, with review state
//   - ForecastEngine: day-of-week and trend adjusted usage projection
//   - InsightGenerator: rule table mapping profile facts to recommendations
package analytics
