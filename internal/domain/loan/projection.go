package loan

import "time"

// ProjectedLoan is a stored loan decorated with the fields derived at read time.
type ProjectedLoan struct {
	Loan

	DaysOverdue      int
	IsDelinquent     bool
	DailyPenalty     Money
	TotalPenalty     Money
	CurrentAmountDue Money
	LifecycleStatus  LifecycleStatus
}

// Project derives delinquency, penalties, amount due and lifecycle status, in that order.
// l is taken by value so the stored record is never touched.
func Project(l Loan, today time.Time) ProjectedLoan {
	p := ProjectedLoan{Loan: l}

	if l.PaymentStatus == PaymentStatusBlocked {
		// Blocking freezes accrual regardless of the calendar.
		p.CurrentAmountDue = CurrentAmountDue(l.PaymentStatus, l.TotalDueOriginal, l.FinalCollectedAmount, 0)
		p.LifecycleStatus = StatusBlocked
		return p
	}

	p.DaysOverdue, p.IsDelinquent = Delinquency(l.PaymentStatus, l.DueDate, today)
	p.DailyPenalty, p.TotalPenalty = Penalties(l.TotalDueOriginal, p.DaysOverdue)
	p.CurrentAmountDue = CurrentAmountDue(l.PaymentStatus, l.TotalDueOriginal, l.FinalCollectedAmount, p.TotalPenalty)
	p.LifecycleStatus = ResolveStatus(l.PaymentStatus, p.IsDelinquent)
	return p
}

func ProjectAll(loans []Loan, today time.Time) []ProjectedLoan {
	projected := make([]ProjectedLoan, 0, len(loans))
	for _, l := range loans {
		projected = append(projected, Project(l, today))
	}
	return projected
}
