package loan

import (
	"fmt"
	"lending-engine/internal/pkg/apperrors"
	"time"
)

type Money = float64

// PaymentStatus is the persisted lifecycle state of a loan.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusRenewed PaymentStatus = "RENEWED"
	PaymentStatusBlocked PaymentStatus = "BLOCKED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRenewed, PaymentStatusBlocked:
		return true
	}
	return false
}

// LifecycleStatus is the derived status shown to callers. It is never persisted.
type LifecycleStatus string

const (
	StatusPending    LifecycleStatus = "PENDING"
	StatusDelinquent LifecycleStatus = "DELINQUENT"
	StatusPaid       LifecycleStatus = "PAID"
	StatusRenewed    LifecycleStatus = "RENEWED"
	StatusBlocked    LifecycleStatus = "BLOCKED"
)

const originPeriodLayout = "2006-01"

type Loan struct {
	ID                   int64
	BorrowerID           int64
	Principal            Money
	TotalDueOriginal     Money
	AmountCollected      Money
	AmountOutstanding    Money
	TermDays             int
	InterestRate         *float64
	CreationDate         time.Time
	DueDate              time.Time
	PaymentStatus        PaymentStatus
	PaymentDate          *time.Time
	FinalCollectedAmount *Money
	OriginPeriod         string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CreateLoanParams carries the caller input for a new loan. StartDate, InterestRate and
// PaymentStatus are optional.
type CreateLoanParams struct {
	BorrowerID    int64
	Principal     Money
	TermDays      int
	StartDate     time.Time
	InterestRate  *float64
	PaymentStatus PaymentStatus
}

// NewLoan builds an unsaved loan. today is used when no start date is given. Terms outside the
// rate table are accepted and priced at the default rate.
func NewLoan(p CreateLoanParams, today time.Time) (*Loan, error) {
	if p.Principal <= 0 {
		return nil, apperrors.NewValidationError("principal", "must be greater than zero", ErrInvalidAmount)
	}
	if p.InterestRate != nil && *p.InterestRate <= 0 {
		return nil, apperrors.NewValidationError("interestRate", "must be greater than zero", ErrInvalidRate)
	}
	status := p.PaymentStatus
	if status == "" {
		status = PaymentStatusPending
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("paymentStatus", fmt.Sprintf("unknown status %q", status), ErrInvalidStatus)
	}

	start := today
	if !p.StartDate.IsZero() {
		start = DateOf(p.StartDate)
	}

	var total Money
	var rate float64
	if p.InterestRate != nil {
		rate = *p.InterestRate
		total = p.Principal * (1 + rate)
	} else {
		total = p.Principal * (1 + RateFor(p.TermDays))
		// Store the ratio actually applied, not the table entry.
		rate = (total - p.Principal) / p.Principal
	}

	return &Loan{
		BorrowerID:        p.BorrowerID,
		Principal:         p.Principal,
		TotalDueOriginal:  total,
		AmountCollected:   0,
		AmountOutstanding: total,
		TermDays:          p.TermDays,
		InterestRate:      &rate,
		CreationDate:      start,
		DueDate:           start.AddDate(0, 0, p.TermDays),
		PaymentStatus:     status,
		OriginPeriod:      start.Format(originPeriodLayout),
	}, nil
}

// effectiveRate is the ratio used to recompute the total on top-up. Legacy rows
// without a stored rate fall back to the term tier, inferring the term if needed.
func (l *Loan) effectiveRate() float64 {
	if l.InterestRate != nil && *l.InterestRate > 0 {
		return *l.InterestRate
	}
	if l.TermDays > 0 {
		return RateFor(l.TermDays)
	}
	return RateFor(InferTerm(l.Principal, l.TotalDueOriginal))
}

// currentDebt is the cached outstanding balance used to bound a renewal.
func (l *Loan) currentDebt() Money {
	return l.AmountOutstanding
}

func (l *Loan) applyTopUp(extra Money) error {
	newPrincipal := l.Principal + extra
	if newPrincipal <= 0 {
		return apperrors.NewValidationError("extraAmount", "resulting principal must stay greater than zero", ErrInvalidAmount)
	}
	rate := l.effectiveRate()
	l.Principal = newPrincipal
	l.TotalDueOriginal = newPrincipal * (1 + rate)
	l.AmountOutstanding = l.TotalDueOriginal - l.AmountCollected
	return nil
}

func (l *Loan) applyCollection(amount Money, today time.Time) {
	l.PaymentStatus = PaymentStatusPaid
	final := amount
	l.FinalCollectedAmount = &final
	paidOn := today
	l.PaymentDate = &paidOn
	l.AmountCollected += amount
	l.AmountOutstanding = max(0, l.TotalDueOriginal-l.AmountCollected)
}

// closeForRenewal collects only the interest portion and returns it. Principal is carried
// into the replacement loan, never collected here.
func (l *Loan) closeForRenewal(today time.Time) Money {
	interest := l.TotalDueOriginal - l.Principal
	l.TotalDueOriginal = interest
	l.AmountCollected = interest
	l.AmountOutstanding = 0
	l.PaymentStatus = PaymentStatusRenewed
	paidOn := today
	l.PaymentDate = &paidOn
	final := interest
	l.FinalCollectedAmount = &final
	return interest
}

func newRenewalLoan(borrowerID int64, principal Money, termDays int, rate float64, today time.Time) *Loan {
	total := principal * (1 + rate)
	r := rate
	return &Loan{
		BorrowerID:        borrowerID,
		Principal:         principal,
		TotalDueOriginal:  total,
		AmountCollected:   0,
		AmountOutstanding: total,
		TermDays:          termDays,
		InterestRate:      &r,
		CreationDate:      today,
		DueDate:           today.AddDate(0, 0, termDays),
		PaymentStatus:     PaymentStatusPending,
		OriginPeriod:      today.Format(originPeriodLayout),
	}
}
