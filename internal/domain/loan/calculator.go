package loan

import "time"

// DailyPenaltyRate is charged per overdue day on the original total due, not on the
// outstanding balance.
const DailyPenaltyRate = 0.05

// Delinquency derives days overdue from the due date. Paid loans and loans without a
// due date are never overdue.
func Delinquency(status PaymentStatus, dueDate, today time.Time) (daysOverdue int, delinquent bool) {
	if status == PaymentStatusPaid {
		return 0, false
	}
	if dueDate.IsZero() {
		return 0, false
	}
	if !DateOf(today).After(DateOf(dueDate)) {
		return 0, false
	}
	return max(0, daysBetween(dueDate, today)), true
}

// Penalties returns the daily penalty and the penalty accrued over daysOverdue.
func Penalties(totalDueOriginal Money, daysOverdue int) (daily, total Money) {
	daily = totalDueOriginal * DailyPenaltyRate
	total = daily * float64(max(0, daysOverdue))
	return daily, total
}

// CurrentAmountDue is what the borrower owes today. A paid loan reports what was
// actually collected. The result is never negative.
func CurrentAmountDue(status PaymentStatus, totalDueOriginal Money, finalCollected *Money, totalPenalty Money) Money {
	var due Money
	switch status {
	case PaymentStatusPaid:
		due = totalDueOriginal
		if finalCollected != nil {
			due = *finalCollected
		}
	case PaymentStatusBlocked:
		due = totalDueOriginal
	default:
		due = totalDueOriginal + totalPenalty
	}
	return max(0, due)
}

// statusRules are evaluated in order; the first match wins.
var statusRules = []struct {
	matches func(PaymentStatus, bool) bool
	status  LifecycleStatus
}{
	{func(s PaymentStatus, _ bool) bool { return s == PaymentStatusPaid }, StatusPaid},
	{func(s PaymentStatus, _ bool) bool { return s == PaymentStatusRenewed }, StatusRenewed},
	{func(s PaymentStatus, _ bool) bool { return s == PaymentStatusBlocked }, StatusBlocked},
	{func(_ PaymentStatus, delinquent bool) bool { return delinquent }, StatusDelinquent},
}

// ResolveStatus maps the persisted status and delinquency flag to a lifecycle status.
// Terminal and frozen states take precedence over delinquency.
func ResolveStatus(status PaymentStatus, delinquent bool) LifecycleStatus {
	for _, rule := range statusRules {
		if rule.matches(status, delinquent) {
			return rule.status
		}
	}
	return StatusPending
}
