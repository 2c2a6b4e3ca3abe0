// Package billing turns metered usage into bills.
//
// Key Aggregates:
//   - Bill: charges for one customer over one billing period, with a
//     pending -> sent -> paid lifecycle. Usage and amounts never change after creation.
//
// Value Objects:
//   - BillingPeriod: inclusive date range anchored on the customer's cycle day
//   - RateSchedule: externally configured tiered, seasonal and fixed-fee pricing
//   - RevenueSummary: counts and revenue per bill status
//
// A customer's periods are contiguous and never overlap; each bill starts the
// day after the previous one ends.
package billing
