package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lending-engine/internal/domain/borrower"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

type BorrowerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ borrower.Repository = (*BorrowerRepository)(nil)

func NewBorrowerRepository(db DBPool, logger *slog.Logger) *BorrowerRepository {
	if db == nil {
		panic("DBPool cannot be nil for BorrowerRepository")
	}
	return &BorrowerRepository{
		db:     db,
		logger: logger.With("component", "BorrowerRepository"),
	}
}

func (r *BorrowerRepository) Save(ctx context.Context, b *borrower.Borrower) error {
	if b == nil {
		return fmt.Errorf("%w: borrower cannot be nil", apperrors.ErrValidation)
	}

	query := `
        INSERT INTO borrowers (full_name, document_number, address, phone, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        RETURNING id, created_at`
	startTime := time.Now()

	err := r.db.QueryRow(ctx, query, b.FullName, b.DocumentNumber, b.Address, b.Phone, b.Notes).
		Scan(&b.ID, &b.CreatedAt)
	monitoring.RecordDBQuery("SaveBorrower", queryStatus(err), time.Since(startTime))

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert borrower due to unique constraint violation")
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert borrower", slog.Any("error", err))
		return translatedErr
	}

	r.logger.InfoContext(ctx, "Borrower inserted successfully", slog.Int64("borrowerID", b.ID))
	return nil
}

func (r *BorrowerRepository) FindByID(ctx context.Context, borrowerID int64) (*borrower.Borrower, error) {
	query := `
        SELECT id, full_name, document_number, address, phone, notes, created_at
        FROM borrowers
        WHERE id = $1`
	startTime := time.Now()

	var b borrower.Borrower
	err := r.db.QueryRow(ctx, query, borrowerID).Scan(
		&b.ID, &b.FullName, &b.DocumentNumber, &b.Address, &b.Phone, &b.Notes, &b.CreatedAt,
	)
	monitoring.RecordDBQuery("FindBorrowerByID", queryStatus(err), time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Borrower not found", slog.Int64("borrowerID", borrowerID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan borrower by ID", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to get borrower by ID")
	}
	return &b, nil
}

func (r *BorrowerRepository) FindAll(ctx context.Context) ([]*borrower.Borrower, error) {
	query := `
        SELECT id, full_name, document_number, address, phone, notes, created_at
        FROM borrowers
        ORDER BY id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query borrowers", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to query borrowers")
	}
	defer rows.Close()

	borrowers := make([]*borrower.Borrower, 0)
	for rows.Next() {
		var b borrower.Borrower
		if err := rows.Scan(&b.ID, &b.FullName, &b.DocumentNumber, &b.Address, &b.Phone, &b.Notes, &b.CreatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan borrower row", slog.Any("error", err))
			return nil, apperrors.WrapDatabaseError(err, "failed to scan borrower row")
		}
		borrowers = append(borrowers, &b)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating borrower rows", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "error iterating borrower rows")
	}
	return borrowers, nil
}

func (r *BorrowerRepository) Exists(ctx context.Context, borrowerID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM borrowers WHERE id = $1)`
	startTime := time.Now()

	var exists bool
	err := r.db.QueryRow(ctx, query, borrowerID).Scan(&exists)
	monitoring.RecordDBQuery("BorrowerExists", queryStatus(err), time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check borrower existence", slog.Int64("borrowerID", borrowerID), slog.Any("error", err))
		return false, apperrors.WrapDatabaseError(err, "failed to check borrower existence")
	}
	return exists, nil
}
