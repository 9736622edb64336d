package investor

import (
	"context"
	"errors"
	"fmt"
	"lending-engine/internal/pkg/apperrors"
	"log/slog"
	"time"
)

var ErrAlreadyLiquidated = errors.New("investor is already liquidated")

type InvestorService interface {
	Register(ctx context.Context, params RegisterParams) (*Return, error)
	GetInvestor(ctx context.Context, investorID int64) (*Return, error)
	ListInvestors(ctx context.Context) ([]Return, error)
	Liquidate(ctx context.Context, investorID int64) (*Return, error)
	Exposure(ctx context.Context) (*Exposure, error)
}

type RegisterParams struct {
	Name           string
	AmountInvested float64
	DailyRate      float64
	StartDate      time.Time
	EndDate        time.Time
	Status         Status
}

var _ InvestorService = (*investorService)(nil)

type investorService struct {
	repo   Repository
	logger *slog.Logger
}

func NewInvestorService(repo Repository, logger *slog.Logger) InvestorService {
	if repo == nil {
		panic("investor repository cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &investorService{
		repo:   repo,
		logger: logger.With(slog.String("component", "investorService")),
	}
}

func validate(inv *Investor) error {
	switch {
	case inv.Name == "":
		return apperrors.NewValidationError("name", "cannot be empty", nil)
	case inv.AmountInvested <= 0:
		return apperrors.NewValidationError("amountInvested", "must be greater than zero", nil)
	case inv.DailyRate < 0:
		return apperrors.NewValidationError("dailyRate", "cannot be negative", nil)
	case inv.StartDate.IsZero() || inv.EndDate.IsZero():
		return apperrors.NewValidationError("startDate", "start and end dates are required", nil)
	case inv.EndDate.Before(inv.StartDate):
		return apperrors.NewValidationError("endDate", "cannot be before start date", nil)
	case !inv.Status.Valid():
		return apperrors.NewValidationError("status", fmt.Sprintf("unknown status %q", inv.Status), nil)
	}
	return nil
}

func (s *investorService) Register(ctx context.Context, params RegisterParams) (*Return, error) {
	inv := newInvestor(params)
	if err := validate(inv); err != nil {
		s.logger.WarnContext(ctx, "Investor validation failed", slog.Any("error", err))
		return nil, err
	}

	if err := s.repo.Save(ctx, inv); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save investor", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save investor: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully registered investor", slog.Int64("investorID", inv.ID))
	r := ProjectReturn(*inv)
	return &r, nil
}

func (s *investorService) GetInvestor(ctx context.Context, investorID int64) (*Return, error) {
	inv, err := s.repo.FindByID(ctx, investorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("investor", investorID, nil)
		}
		s.logger.ErrorContext(ctx, "Repository error finding investor", slog.Int64("investorID", investorID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to get investor %d: %w", investorID, err)
	}
	r := ProjectReturn(*inv)
	return &r, nil
}

func (s *investorService) ListInvestors(ctx context.Context) ([]Return, error) {
	investors, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing investors", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list investors: %w", err)
	}
	returns := make([]Return, 0, len(investors))
	for _, inv := range investors {
		returns = append(returns, ProjectReturn(*inv))
	}
	return returns, nil
}

// Liquidate returns the invested capital to the investor and closes the contract.
func (s *investorService) Liquidate(ctx context.Context, investorID int64) (*Return, error) {
	current, err := s.GetInvestor(ctx, investorID)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusLiquidated {
		s.logger.WarnContext(ctx, "Investor already liquidated", slog.Int64("investorID", investorID))
		return nil, apperrors.NewStateConflictError("investor", investorID, string(current.Status), "investor is already liquidated", ErrAlreadyLiquidated)
	}

	inv, err := s.repo.MarkLiquidated(ctx, investorID, current.AmountInvested)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Liquidated concurrently between the read and the update.
			return nil, apperrors.NewStateConflictError("investor", investorID, string(StatusLiquidated), "investor is already liquidated", ErrAlreadyLiquidated)
		}
		s.logger.ErrorContext(ctx, "Repository failed to liquidate investor", slog.Int64("investorID", investorID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to liquidate investor %d: %w", investorID, err)
	}

	s.logger.InfoContext(ctx, "Investor liquidated", slog.Int64("investorID", investorID), slog.Float64("amountReturned", investorReturned(inv)))
	r := ProjectReturn(*inv)
	return &r, nil
}

func investorReturned(inv *Investor) float64 {
	if inv.AmountReturned == nil {
		return 0
	}
	return *inv.AmountReturned
}

func (s *investorService) Exposure(ctx context.Context) (*Exposure, error) {
	returns, err := s.ListInvestors(ctx)
	if err != nil {
		return nil, err
	}
	e := Summarize(returns)
	return &e, nil
}
