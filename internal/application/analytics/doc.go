// Package analytics orchestrates customer usage analytics: statistical
// profiles with insights, anomaly detection and review, and usage and bill
// forecasts.
package analytics
