package loan

import "sort"

type PeriodSummary struct {
	Period      string
	LoanCount   int
	Principal   Money
	Outstanding Money
	Collected   Money
}

// PortfolioSummary aggregates projected loans. Principal of renewed loans is not counted
// since it was carried into the replacement loan.
type PortfolioSummary struct {
	LoanCount        int
	CountByStatus    map[LifecycleStatus]int
	PrincipalLent    Money
	Outstanding      Money
	Collected        Money
	AccruedPenalties Money
	Periods          []PeriodSummary
}

func isOpen(s LifecycleStatus) bool {
	return s == StatusPending || s == StatusDelinquent
}

func Summarize(loans []ProjectedLoan) PortfolioSummary {
	summary := PortfolioSummary{CountByStatus: make(map[LifecycleStatus]int)}
	byPeriod := make(map[string]*PeriodSummary)

	for _, l := range loans {
		ps, ok := byPeriod[l.OriginPeriod]
		if !ok {
			ps = &PeriodSummary{Period: l.OriginPeriod}
			byPeriod[l.OriginPeriod] = ps
		}

		summary.LoanCount++
		ps.LoanCount++
		summary.CountByStatus[l.LifecycleStatus]++

		if l.LifecycleStatus != StatusRenewed {
			summary.PrincipalLent += l.Principal
			ps.Principal += l.Principal
		}
		if isOpen(l.LifecycleStatus) {
			summary.Outstanding += l.CurrentAmountDue
			ps.Outstanding += l.CurrentAmountDue
		}
		if l.LifecycleStatus == StatusDelinquent {
			summary.AccruedPenalties += l.TotalPenalty
		}
		summary.Collected += l.AmountCollected
		ps.Collected += l.AmountCollected
	}

	summary.Periods = make([]PeriodSummary, 0, len(byPeriod))
	for _, ps := range byPeriod {
		summary.Periods = append(summary.Periods, *ps)
	}
	sort.Slice(summary.Periods, func(i, j int) bool {
		return summary.Periods[i].Period < summary.Periods[j].Period
	})
	return summary
}
