package borrower

import (
	"context"
	"errors"
	"fmt"
	"lending-engine/internal/pkg/apperrors"
	"log/slog"
)

type BorrowerService interface {
	Register(ctx context.Context, params RegisterParams) (*Borrower, error)
	GetBorrower(ctx context.Context, borrowerID int64) (*Borrower, error)
	ListBorrowers(ctx context.Context) ([]*Borrower, error)
	Exists(ctx context.Context, borrowerID int64) (bool, error)
}

type RegisterParams struct {
	FullName       string
	DocumentNumber string
	Address        string
	Phone          string
	Notes          string
}

var _ BorrowerService = (*borrowerService)(nil)

type borrowerService struct {
	repo   Repository
	logger *slog.Logger
}

func NewBorrowerService(repo Repository, logger *slog.Logger) BorrowerService {
	if repo == nil {
		panic("borrower repository cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &borrowerService{
		repo:   repo,
		logger: logger.With(slog.String("component", "borrowerService")),
	}
}

func (s *borrowerService) Register(ctx context.Context, params RegisterParams) (*Borrower, error) {
	s.logger.InfoContext(ctx, "Attempting to register borrower")

	b := NewBorrower(params.FullName, params.DocumentNumber, params.Address, params.Phone, params.Notes)
	if err := validate(b); err != nil {
		s.logger.WarnContext(ctx, "Borrower validation failed", slog.Any("error", err))
		return nil, err
	}

	if err := s.repo.Save(ctx, b); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			s.logger.WarnContext(ctx, "Document number already registered")
			return nil, fmt.Errorf("document number %q: %w", b.DocumentNumber, apperrors.ErrAlreadyExists)
		}
		s.logger.ErrorContext(ctx, "Repository failed to save borrower", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save borrower: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully registered borrower", slog.Int64("borrowerID", b.ID))
	return b, nil
}

func validate(b *Borrower) error {
	required := []struct {
		field string
		value string
	}{
		{"fullName", b.FullName},
		{"documentNumber", b.DocumentNumber},
		{"address", b.Address},
		{"phone", b.Phone},
	}
	for _, r := range required {
		if r.value == "" {
			return apperrors.NewValidationError(r.field, "cannot be empty", nil)
		}
	}
	return nil
}

func (s *borrowerService) GetBorrower(ctx context.Context, borrowerID int64) (*Borrower, error) {
	b, err := s.repo.FindByID(ctx, borrowerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Borrower not found", slog.Int64("borrowerID", borrowerID))
			return nil, apperrors.NewNotFoundError("borrower", borrowerID, nil)
		}
		s.logger.ErrorContext(ctx, "Repository error finding borrower", slog.Int64("borrowerID", borrowerID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to get borrower %d: %w", borrowerID, err)
	}
	return b, nil
}

func (s *borrowerService) ListBorrowers(ctx context.Context) ([]*Borrower, error) {
	borrowers, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing borrowers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list borrowers: %w", err)
	}
	s.logger.DebugContext(ctx, "Listed borrowers", slog.Int("count", len(borrowers)))
	return borrowers, nil
}

// Exists backs the loan engine's borrower check.
func (s *borrowerService) Exists(ctx context.Context, borrowerID int64) (bool, error) {
	ok, err := s.repo.Exists(ctx, borrowerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error checking borrower", slog.Int64("borrowerID", borrowerID), slog.Any("error", err))
		return false, fmt.Errorf("failed to check borrower %d: %w", borrowerID, err)
	}
	return ok, nil
}
