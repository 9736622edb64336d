package event

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoanEventType string

const (
	LoanCreated   LoanEventType = "created"
	LoanToppedUp  LoanEventType = "topped_up"
	LoanCollected LoanEventType = "collected"
	LoanRenewed   LoanEventType = "renewed"
	LoanBlocked   LoanEventType = "blocked"

	routingKeyPortfolioSnapshot = "portfolio.snapshot"
)

// LoanEvent describes a committed lifecycle mutation. RelatedLoanID is the
// closed original on a renewal.
type LoanEvent struct {
	Type            LoanEventType
	LoanID          int64
	BorrowerID      int64
	RelatedLoanID   *int64
	PaymentStatus   string
	Principal       float64
	TotalDue        float64
	AmountCollected float64
	DueDate         time.Time
	OccurredAt      time.Time
}

func (e LoanEvent) RoutingKey() string {
	return "loan." + string(e.Type)
}

type PeriodSnapshot struct {
	Period      string
	LoanCount   int
	Principal   float64
	Outstanding float64
	Collected   float64
}

type PortfolioSnapshotEvent struct {
	LoanCount        int
	CountByStatus    map[string]int
	PrincipalLent    float64
	Outstanding      float64
	Collected        float64
	AccruedPenalties float64
	Periods          []PeriodSnapshot
	Investors        InvestorSnapshot
	TakenAt          time.Time
}

type InvestorSnapshot struct {
	Active         int
	Capital        float64
	AccruedReturns float64
	TotalOwed      float64
}

type loanEventPayload struct {
	Type            LoanEventType `json:"type"`
	LoanID          int64         `json:"loanId"`
	BorrowerID      int64         `json:"borrowerId"`
	RelatedLoanID   *int64        `json:"relatedLoanId,omitempty"`
	PaymentStatus   string        `json:"paymentStatus"`
	Principal       string        `json:"principal"`
	TotalDue        string        `json:"totalDue"`
	AmountCollected string        `json:"amountCollected"`
	DueDate         string        `json:"dueDate,omitempty"`
	OccurredAt      time.Time     `json:"occurredAt"`
}

type periodPayload struct {
	Period      string `json:"period"`
	LoanCount   int    `json:"loanCount"`
	Principal   string `json:"principal"`
	Outstanding string `json:"outstanding"`
	Collected   string `json:"collected"`
}

type portfolioSnapshotPayload struct {
	LoanCount        int             `json:"loanCount"`
	CountByStatus    map[string]int  `json:"countByStatus"`
	PrincipalLent    string          `json:"principalLent"`
	Outstanding      string          `json:"outstanding"`
	Collected        string          `json:"collected"`
	AccruedPenalties string          `json:"accruedPenalties"`
	Periods          []periodPayload `json:"periods"`
	Investors        investorPayload `json:"investors"`
	TakenAt          time.Time       `json:"takenAt"`
}

type investorPayload struct {
	Active         int    `json:"active"`
	Capital        string `json:"capital"`
	AccruedReturns string `json:"accruedReturns"`
	TotalOwed      string `json:"totalOwed"`
}

func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func newLoanEventPayload(e LoanEvent) loanEventPayload {
	p := loanEventPayload{
		Type:            e.Type,
		LoanID:          e.LoanID,
		BorrowerID:      e.BorrowerID,
		RelatedLoanID:   e.RelatedLoanID,
		PaymentStatus:   e.PaymentStatus,
		Principal:       formatMoney(e.Principal),
		TotalDue:        formatMoney(e.TotalDue),
		AmountCollected: formatMoney(e.AmountCollected),
		OccurredAt:      e.OccurredAt,
	}
	if !e.DueDate.IsZero() {
		p.DueDate = e.DueDate.Format(time.DateOnly)
	}
	return p
}

func newPortfolioSnapshotPayload(e PortfolioSnapshotEvent) portfolioSnapshotPayload {
	periods := make([]periodPayload, 0, len(e.Periods))
	for _, ps := range e.Periods {
		periods = append(periods, periodPayload{
			Period:      ps.Period,
			LoanCount:   ps.LoanCount,
			Principal:   formatMoney(ps.Principal),
			Outstanding: formatMoney(ps.Outstanding),
			Collected:   formatMoney(ps.Collected),
		})
	}
	return portfolioSnapshotPayload{
		LoanCount:        e.LoanCount,
		CountByStatus:    e.CountByStatus,
		PrincipalLent:    formatMoney(e.PrincipalLent),
		Outstanding:      formatMoney(e.Outstanding),
		Collected:        formatMoney(e.Collected),
		AccruedPenalties: formatMoney(e.AccruedPenalties),
		Periods:          periods,
		Investors: investorPayload{
			Active:         e.Investors.Active,
			Capital:        formatMoney(e.Investors.Capital),
			AccruedReturns: formatMoney(e.Investors.AccruedReturns),
			TotalOwed:      formatMoney(e.Investors.TotalOwed),
		},
		TakenAt: e.TakenAt,
	}
}
