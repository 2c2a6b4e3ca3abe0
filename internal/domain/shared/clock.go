package shared

import "time"

// Clock returns the current time. Services take one so date arithmetic is testable.
type Clock func() time.Time

// SystemClock returns time.Now in UTC
func SystemClock() time.Time {
	return time.Now().UTC()
}

// Day truncates t to midnight UTC. Usage dates, bill periods and anomaly dates
// are always stored in this form.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
