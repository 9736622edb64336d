package investor

import (
	"math"
	"strings"
	"time"
)

type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusLiquidated Status = "LIQUIDATED"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusLiquidated
}

// Investor is a capital provider paid a simple daily rate over a fixed contract window.
type Investor struct {
	ID             int64
	Name           string
	AmountInvested float64
	DailyRate      float64
	StartDate      time.Time
	EndDate        time.Time
	Status         Status
	AmountReturned *float64
	CreatedAt      time.Time
}

// Return is an investor with its contract return attached. It is never persisted.
type Return struct {
	Investor
	DaysWorked    int
	Earnings      float64
	TotalToReturn float64
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysWorked counts whole days between start and end, never negative.
func DaysWorked(start, end time.Time) int {
	days := int(math.Round(dateOf(end).Sub(dateOf(start)).Hours() / 24))
	return max(0, days)
}

// ProjectReturn applies the linear formula earnings = invested × daily rate × days.
func ProjectReturn(inv Investor) Return {
	days := DaysWorked(inv.StartDate, inv.EndDate)
	earnings := inv.AmountInvested * inv.DailyRate * float64(days)
	return Return{
		Investor:      inv,
		DaysWorked:    days,
		Earnings:      earnings,
		TotalToReturn: inv.AmountInvested + earnings,
	}
}

// Exposure totals what the book owes to investors that are still active.
type Exposure struct {
	ActiveInvestors int
	Capital         float64
	AccruedReturns  float64
	TotalOwed       float64
}

func Summarize(returns []Return) Exposure {
	var e Exposure
	for _, r := range returns {
		if r.Status != StatusActive {
			continue
		}
		e.ActiveInvestors++
		e.Capital += r.AmountInvested
		e.AccruedReturns += r.Earnings
		e.TotalOwed += r.TotalToReturn
	}
	return e
}

func newInvestor(p RegisterParams) *Investor {
	status := p.Status
	if status == "" {
		status = StatusActive
	}
	return &Investor{
		Name:           strings.TrimSpace(p.Name),
		AmountInvested: p.AmountInvested,
		DailyRate:      p.DailyRate,
		StartDate:      dateOf(p.StartDate),
		EndDate:        dateOf(p.EndDate),
		Status:         status,
	}
}
