package loan

import (
	"context"
	"errors"
	"fmt"
	"lending-engine/internal/event"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// MaxRenewalRate is the sanity ceiling on the interest ratio of a renewal.
const MaxRenewalRate = 2.0

const (
	opCreate  = "create"
	opTopUp   = "top_up"
	opCollect = "collect"
	opRenew   = "renew"
	opBlock   = "block"
)

type LoanService interface {
	CreateLoan(ctx context.Context, params CreateLoanParams) (*ProjectedLoan, error)

	TopUp(ctx context.Context, loanID int64, extraAmount Money) (*ProjectedLoan, error)

	Collect(ctx context.Context, loanID int64, finalAmount Money) (*ProjectedLoan, error)

	// Renew closes the loan by collecting its interest and returns the replacement loan.
	Renew(ctx context.Context, loanID int64, params RenewLoanParams) (*ProjectedLoan, error)

	Block(ctx context.Context, loanID int64) (*ProjectedLoan, error)

	GetLoan(ctx context.Context, loanID int64) (*ProjectedLoan, error)

	ListLoans(ctx context.Context) ([]ProjectedLoan, error)

	ListBorrowerLoans(ctx context.Context, borrowerID int64) ([]ProjectedLoan, error)

	// Summary aggregates the portfolio, restricted to one origin period (YYYY-MM) when
	// period is not empty.
	Summary(ctx context.Context, period string) (*PortfolioSummary, error)
}

type RenewLoanParams struct {
	NewPrincipal Money
	TermDays     int
	InterestRate float64
}

type loanServiceImpl struct {
	repo      Repository
	borrowers BorrowerRegistry
	publisher event.EventPublisher
	clock     Clock
	logger    *slog.Logger
}

var _ LoanService = (*loanServiceImpl)(nil)

func NewLoanService(r Repository, b BorrowerRegistry, p event.EventPublisher, c Clock, logger *slog.Logger) LoanService {
	if r == nil || b == nil || p == nil || c == nil || logger == nil {
		panic("LoanService dependencies cannot be nil")
	}
	return &loanServiceImpl{
		repo:      r,
		borrowers: b,
		publisher: p,
		clock:     c,
		logger:    logger.With("component", "LoanService"),
	}
}

func (s *loanServiceImpl) CreateLoan(ctx context.Context, params CreateLoanParams) (result *ProjectedLoan, err error) {
	defer s.record(opCreate, &err)
	logCtx := s.logger.With("borrowerID", params.BorrowerID)
	logCtx.InfoContext(ctx, "Creating new loan", "principal", params.Principal, "termDays", params.TermDays)

	today := s.clock.Today()
	newLoan, err := NewLoan(params, today)
	if err != nil {
		logCtx.WarnContext(ctx, "Loan input rejected", "error", err)
		return nil, err
	}

	exists, err := s.borrowers.Exists(ctx, params.BorrowerID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to verify borrower", "error", err)
		return nil, fmt.Errorf("failed to verify borrower %d: %w", params.BorrowerID, err)
	}
	if !exists {
		logCtx.WarnContext(ctx, "Borrower not found")
		return nil, apperrors.NewNotFoundError("borrower", params.BorrowerID, ErrBorrowerNotFound)
	}

	var created *Loan
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		blocked, err := s.repo.HasBlockedLoanInTx(ctx, tx, params.BorrowerID, 0)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewNotFoundError("borrower", params.BorrowerID, ErrBorrowerNotFound)
			}
			return fmt.Errorf("failed to check blocked loans of borrower %d: %w", params.BorrowerID, err)
		}
		if blocked {
			return apperrors.NewStateConflictError("borrower", params.BorrowerID, "", "borrower holds a blocked loan", ErrBorrowerBlocked)
		}

		created, err = s.repo.CreateLoanInTx(ctx, tx, newLoan)
		if err != nil {
			return fmt.Errorf("failed to save loan: %w", err)
		}
		return nil
	})
	if err != nil {
		logCtx.WarnContext(ctx, "Loan creation failed", "error", err)
		return nil, err
	}

	logCtx.InfoContext(ctx, "Loan created successfully", "loanID", created.ID, "totalDue", created.TotalDueOriginal)
	s.publish(ctx, event.LoanCreated, created, nil)
	return s.project(created, today), nil
}

func (s *loanServiceImpl) TopUp(ctx context.Context, loanID int64, extraAmount Money) (result *ProjectedLoan, err error) {
	defer s.record(opTopUp, &err)
	logCtx := s.logger.With("loanID", loanID)
	logCtx.InfoContext(ctx, "Topping up loan", "extraAmount", extraAmount)

	var updated *Loan
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		l, err := s.loadForUpdate(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if l.PaymentStatus == PaymentStatusBlocked {
			return conflict(l, "blocked loans cannot be topped up", ErrLoanBlocked)
		}
		if err := l.applyTopUp(extraAmount); err != nil {
			return err
		}
		if err := s.repo.UpdateLoanInTx(ctx, tx, l); err != nil {
			return fmt.Errorf("failed to update loan %d: %w", loanID, err)
		}
		updated = l
		return nil
	})
	if err != nil {
		logCtx.WarnContext(ctx, "Top-up failed", "error", err)
		return nil, err
	}

	logCtx.InfoContext(ctx, "Loan topped up", "principal", updated.Principal, "totalDue", updated.TotalDueOriginal)
	s.publish(ctx, event.LoanToppedUp, updated, nil)
	return s.project(updated, s.clock.Today()), nil
}

func (s *loanServiceImpl) Collect(ctx context.Context, loanID int64, finalAmount Money) (result *ProjectedLoan, err error) {
	defer s.record(opCollect, &err)
	logCtx := s.logger.With("loanID", loanID)
	logCtx.InfoContext(ctx, "Collecting loan", "amount", finalAmount)

	today := s.clock.Today()
	var updated *Loan
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		l, err := s.loadForUpdate(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if l.PaymentStatus == PaymentStatusBlocked {
			return conflict(l, "blocked loans cannot be collected", ErrLoanBlocked)
		}
		if finalAmount <= 0 {
			return apperrors.NewValidationError("finalAmount", "must be greater than zero", ErrInvalidAmount)
		}
		switch l.PaymentStatus {
		case PaymentStatusPaid:
			return conflict(l, "loan was already collected", ErrAlreadyPaid)
		case PaymentStatusRenewed:
			return conflict(l, "loan was closed by renewal", ErrAlreadyRenewed)
		}

		l.applyCollection(finalAmount, today)
		if err := s.repo.UpdateLoanInTx(ctx, tx, l); err != nil {
			return fmt.Errorf("failed to update loan %d: %w", loanID, err)
		}
		updated = l
		return nil
	})
	if err != nil {
		logCtx.WarnContext(ctx, "Collection failed", "error", err)
		return nil, err
	}

	logCtx.InfoContext(ctx, "Loan collected", "amountCollected", updated.AmountCollected, "outstanding", updated.AmountOutstanding)
	s.publish(ctx, event.LoanCollected, updated, nil)
	return s.project(updated, today), nil
}

func (s *loanServiceImpl) Renew(ctx context.Context, loanID int64, params RenewLoanParams) (result *ProjectedLoan, err error) {
	defer s.record(opRenew, &err)
	logCtx := s.logger.With("loanID", loanID)
	logCtx.InfoContext(ctx, "Renewing loan", "newPrincipal", params.NewPrincipal, "termDays", params.TermDays, "rate", params.InterestRate)

	today := s.clock.Today()
	var original, renewed *Loan
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		l, err := s.loadForUpdate(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if l.PaymentStatus == PaymentStatusBlocked {
			return conflict(l, "blocked loans cannot be renewed", ErrLoanBlocked)
		}
		if err := validateRenewal(params); err != nil {
			return err
		}
		switch l.PaymentStatus {
		case PaymentStatusPaid:
			return conflict(l, "loan was already collected", ErrAlreadyPaid)
		case PaymentStatusRenewed:
			return conflict(l, "loan was already renewed", ErrAlreadyRenewed)
		}
		if debt := l.currentDebt(); params.NewPrincipal > debt {
			return conflict(l, fmt.Sprintf("renewal amount %.2f exceeds current debt %.2f", params.NewPrincipal, debt), ErrExceedsDebt)
		}

		interest := l.closeForRenewal(today)
		if err := s.repo.UpdateLoanInTx(ctx, tx, l); err != nil {
			return fmt.Errorf("failed to close loan %d for renewal: %w", loanID, err)
		}

		next := newRenewalLoan(l.BorrowerID, params.NewPrincipal, params.TermDays, params.InterestRate, today)
		created, err := s.repo.CreateLoanInTx(ctx, tx, next)
		if err != nil {
			return fmt.Errorf("failed to open renewal of loan %d: %w", loanID, err)
		}

		logCtx.DebugContext(ctx, "Renewal staged", "interestCollected", interest, "newLoanID", created.ID)
		original, renewed = l, created
		return nil
	})
	if err != nil {
		logCtx.WarnContext(ctx, "Renewal failed", "error", err)
		return nil, err
	}

	logCtx.InfoContext(ctx, "Loan renewed", "newLoanID", renewed.ID, "interestCollected", original.AmountCollected)
	s.publish(ctx, event.LoanRenewed, renewed, &original.ID)
	return s.project(renewed, today), nil
}

func validateRenewal(p RenewLoanParams) error {
	if p.NewPrincipal <= 0 {
		return apperrors.NewValidationError("newPrincipal", "must be greater than zero", ErrInvalidAmount)
	}
	if p.TermDays <= 0 {
		return apperrors.NewValidationError("termDays", "must be greater than zero", ErrInvalidTerm)
	}
	if p.InterestRate <= 0 || p.InterestRate > MaxRenewalRate {
		return apperrors.NewValidationError("interestRate", fmt.Sprintf("must be greater than zero and at most %.1f", MaxRenewalRate), ErrInvalidRate)
	}
	return nil
}

func (s *loanServiceImpl) Block(ctx context.Context, loanID int64) (result *ProjectedLoan, err error) {
	defer s.record(opBlock, &err)
	logCtx := s.logger.With("loanID", loanID)
	logCtx.InfoContext(ctx, "Blocking loan")

	var blockedLoan *Loan
	alreadyBlocked := false
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		l, err := s.loadForUpdate(ctx, tx, loanID)
		if err != nil {
			return err
		}
		switch l.PaymentStatus {
		case PaymentStatusBlocked:
			alreadyBlocked = true
			blockedLoan = l
			return nil
		case PaymentStatusPaid:
			return conflict(l, "paid loans cannot be blocked", ErrAlreadyPaid)
		case PaymentStatusRenewed:
			return conflict(l, "renewed loans cannot be blocked", ErrAlreadyRenewed)
		}

		other, err := s.repo.HasBlockedLoanInTx(ctx, tx, l.BorrowerID, l.ID)
		if err != nil {
			return fmt.Errorf("failed to check blocked loans of borrower %d: %w", l.BorrowerID, err)
		}
		if other {
			return apperrors.NewStateConflictError("borrower", l.BorrowerID, "", "borrower already holds a blocked loan", ErrBorrowerBlocked)
		}

		l.PaymentStatus = PaymentStatusBlocked
		if err := s.repo.UpdateLoanInTx(ctx, tx, l); err != nil {
			return fmt.Errorf("failed to block loan %d: %w", loanID, err)
		}
		blockedLoan = l
		return nil
	})
	if err != nil {
		logCtx.WarnContext(ctx, "Block failed", "error", err)
		return nil, err
	}

	if alreadyBlocked {
		logCtx.InfoContext(ctx, "Loan was already blocked")
	} else {
		logCtx.InfoContext(ctx, "Loan blocked")
		s.publish(ctx, event.LoanBlocked, blockedLoan, nil)
	}
	return s.project(blockedLoan, s.clock.Today()), nil
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*ProjectedLoan, error) {
	s.logger.DebugContext(ctx, "Getting loan details", "loanID", loanID)
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", "loanID", loanID)
			return nil, apperrors.NewNotFoundError("loan", loanID, ErrLoanNotFound)
		}
		s.logger.ErrorContext(ctx, "Failed to get loan", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("failed to get loan %d: %w", loanID, err)
	}
	return s.project(l, s.clock.Today()), nil
}

func (s *loanServiceImpl) ListLoans(ctx context.Context) ([]ProjectedLoan, error) {
	loans, err := s.repo.ListLoans(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list loans", "error", err)
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return ProjectAll(loans, s.clock.Today()), nil
}

func (s *loanServiceImpl) ListBorrowerLoans(ctx context.Context, borrowerID int64) ([]ProjectedLoan, error) {
	loans, err := s.repo.ListLoansByBorrower(ctx, borrowerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list borrower loans", "borrowerID", borrowerID, "error", err)
		return nil, fmt.Errorf("failed to list loans of borrower %d: %w", borrowerID, err)
	}
	return ProjectAll(loans, s.clock.Today()), nil
}

func (s *loanServiceImpl) Summary(ctx context.Context, period string) (*PortfolioSummary, error) {
	if period != "" {
		if _, err := time.Parse(originPeriodLayout, period); err != nil {
			return nil, apperrors.NewValidationError("period", "must use the YYYY-MM format", ErrInvalidPeriod)
		}
	}

	projected, err := s.ListLoans(ctx)
	if err != nil {
		return nil, err
	}
	if period != "" {
		filtered := projected[:0]
		for _, p := range projected {
			if p.OriginPeriod == period {
				filtered = append(filtered, p)
			}
		}
		projected = filtered
	}

	summary := Summarize(projected)
	return &summary, nil
}

func (s *loanServiceImpl) withTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return apperrors.WrapDatabaseError(err, "could not begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			s.logger.ErrorContext(ctx, "Panic occurred during loan transaction", "error", p)
			_ = s.repo.RollbackTx(ctx, tx)
			panic(p)
		} else if err != nil {
			s.logger.DebugContext(ctx, "Rolling back transaction due to error", "error", err)
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = s.repo.CommitTx(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return apperrors.WrapDatabaseError(err, "could not commit transaction")
	}
	return nil
}

func (s *loanServiceImpl) loadForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*Loan, error) {
	l, err := s.repo.GetLoanForUpdate(ctx, tx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("loan", loanID, ErrLoanNotFound)
		}
		return nil, fmt.Errorf("failed to load loan %d: %w", loanID, err)
	}
	return l, nil
}

func conflict(l *Loan, reason string, cause error) error {
	return apperrors.NewStateConflictError("loan", l.ID, string(l.PaymentStatus), reason, cause)
}

func (s *loanServiceImpl) project(l *Loan, today time.Time) *ProjectedLoan {
	p := Project(*l, today)
	return &p
}

func (s *loanServiceImpl) publish(ctx context.Context, eventType event.LoanEventType, l *Loan, relatedLoanID *int64) {
	e := event.LoanEvent{
		Type:            eventType,
		LoanID:          l.ID,
		BorrowerID:      l.BorrowerID,
		RelatedLoanID:   relatedLoanID,
		PaymentStatus:   string(l.PaymentStatus),
		Principal:       l.Principal,
		TotalDue:        l.TotalDueOriginal,
		AmountCollected: l.AmountCollected,
		DueDate:         l.DueDate,
		OccurredAt:      time.Now(),
	}
	if err := s.publisher.PublishLoanEvent(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "Loan committed, but failed to publish event", "loanID", l.ID, "type", eventType, slog.Any("error", err))
	}
}

func (s *loanServiceImpl) record(operation string, err *error) {
	monitoring.RecordLoanOperation(operation, outcomeOf(*err))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrValidation):
		return "validation"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrStateConflict):
		return "state_conflict"
	default:
		return "integrity"
	}
}
