// Package usage holds the append-only store of daily metered water readings.
//
// A reading is identified by (customer, date). Readings are never updated in
// place: a correction appends a new revision and the highest revision for a
// date is the effective reading every other component sees.
//
// Key types:
//   - UsageRecord: one revision of a customer's reading for one day, in CCF
//   - UsageRecordRepository: persistence port, effective-reading queries
package usage
