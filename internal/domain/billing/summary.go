package billing

import "github.com/shopspring/decimal"

// StatusTotal is the count and amount of bills in one status
type StatusTotal struct {
	Status BillStatus
	Count  int64
	Amount decimal.Decimal
}

// BillCounts are bill counts per status
type BillCounts struct {
	Pending int64
	Sent    int64
	Paid    int64
	Total   int64
}

// Revenue are money totals over bills
type Revenue struct {
	// Pending is everything billed but not yet paid (pending and sent)
	Pending decimal.Decimal
	// Outstanding is Pending less partial payments; partial payments are not
	// supported so it always equals Pending
	Outstanding    decimal.Decimal
	TotalCollected decimal.Decimal
}

// RevenueSummary is the dashboard roll-up of all bills
type RevenueSummary struct {
	Counts  BillCounts
	Revenue Revenue
}

// NewRevenueSummary folds per-status totals into a summary. Unknown statuses
// count toward the total only.
func NewRevenueSummary(totals []StatusTotal) RevenueSummary {
	s := RevenueSummary{
		Revenue: Revenue{
			Pending:        decimal.Zero,
			Outstanding:    decimal.Zero,
			TotalCollected: decimal.Zero,
		},
	}
	for _, t := range totals {
		s.Counts.Total += t.Count
		switch t.Status {
		case BillStatusPending:
			s.Counts.Pending += t.Count
		case BillStatusSent:
			s.Counts.Sent += t.Count
		case BillStatusPaid:
			s.Counts.Paid += t.Count
			s.Revenue.TotalCollected = s.Revenue.TotalCollected.Add(t.Amount)
		}
		if t.Status.IsOutstanding() {
			s.Revenue.Pending = s.Revenue.Pending.Add(t.Amount)
		}
	}
	s.Revenue.Outstanding = s.Revenue.Pending
	return s
}

// SummarizeBills groups bills by status and summarizes them
func SummarizeBills(bills []Bill) RevenueSummary {
	byStatus := make(map[BillStatus]*StatusTotal)
	var order []BillStatus
	for i := range bills {
		st, ok := byStatus[bills[i].Status]
		if !ok {
			st = &StatusTotal{Status: bills[i].Status, Amount: decimal.Zero}
			byStatus[bills[i].Status] = st
			order = append(order, bills[i].Status)
		}
		st.Count++
		st.Amount = st.Amount.Add(bills[i].TotalAmount)
	}
	totals := make([]StatusTotal, 0, len(order))
	for _, s := range order {
		totals = append(totals, *byStatus[s])
	}
	return NewRevenueSummary(totals)
}
