package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lending-engine/internal/domain/investor"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const investorColumns = `id, name, amount_invested, daily_rate, start_date, end_date, status, amount_returned, created_at`

type InvestorRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ investor.Repository = (*InvestorRepository)(nil)

func NewInvestorRepository(db DBPool, logger *slog.Logger) *InvestorRepository {
	if db == nil {
		panic("DBPool cannot be nil for InvestorRepository")
	}
	return &InvestorRepository{
		db:     db,
		logger: logger.With("component", "InvestorRepository"),
	}
}

func scanInvestor(row pgx.Row) (*investor.Investor, error) {
	var inv investor.Investor
	var status string
	err := row.Scan(&inv.ID, &inv.Name, &inv.AmountInvested, &inv.DailyRate, &inv.StartDate, &inv.EndDate,
		&status, &inv.AmountReturned, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.Status = investor.Status(status)
	return &inv, nil
}

func (r *InvestorRepository) Save(ctx context.Context, inv *investor.Investor) error {
	if inv == nil {
		return fmt.Errorf("%w: investor cannot be nil", apperrors.ErrValidation)
	}

	query := `
        INSERT INTO investors (name, amount_invested, daily_rate, start_date, end_date, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        RETURNING id, created_at`
	startTime := time.Now()

	err := r.db.QueryRow(ctx, query, inv.Name, inv.AmountInvested, inv.DailyRate, inv.StartDate, inv.EndDate, string(inv.Status)).
		Scan(&inv.ID, &inv.CreatedAt)
	monitoring.RecordDBQuery("SaveInvestor", queryStatus(err), time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert investor", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Investor inserted successfully", slog.Int64("investorID", inv.ID))
	return nil
}

func (r *InvestorRepository) FindByID(ctx context.Context, investorID int64) (*investor.Investor, error) {
	query := `SELECT ` + investorColumns + ` FROM investors WHERE id = $1`
	startTime := time.Now()

	inv, err := scanInvestor(r.db.QueryRow(ctx, query, investorID))
	monitoring.RecordDBQuery("FindInvestorByID", queryStatus(err), time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Investor not found", slog.Int64("investorID", investorID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get investor by ID", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to get investor by ID")
	}
	return inv, nil
}

func (r *InvestorRepository) FindAll(ctx context.Context) ([]*investor.Investor, error) {
	query := `SELECT ` + investorColumns + ` FROM investors ORDER BY id DESC`
	startTime := time.Now()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		monitoring.RecordDBQuery("FindAllInvestors", "error", time.Since(startTime))
		r.logger.ErrorContext(ctx, "Failed to query investors", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to query investors")
	}
	defer rows.Close()

	investors := make([]*investor.Investor, 0)
	for rows.Next() {
		inv, err := scanInvestor(rows)
		if err != nil {
			monitoring.RecordDBQuery("FindAllInvestors", "error", time.Since(startTime))
			r.logger.ErrorContext(ctx, "Failed to scan investor row", slog.Any("error", err))
			return nil, apperrors.WrapDatabaseError(err, "failed to scan investor row")
		}
		investors = append(investors, inv)
	}

	err = rows.Err()
	monitoring.RecordDBQuery("FindAllInvestors", queryStatus(err), time.Since(startTime))
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating investor rows", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "error iterating investor rows")
	}
	return investors, nil
}

func (r *InvestorRepository) MarkLiquidated(ctx context.Context, investorID int64, amountReturned float64) (*investor.Investor, error) {
	query := `
        UPDATE investors
        SET status = 'LIQUIDATED', amount_returned = $2
        WHERE id = $1 AND status = 'ACTIVE'
        RETURNING ` + investorColumns
	startTime := time.Now()

	inv, err := scanInvestor(r.db.QueryRow(ctx, query, investorID, amountReturned))
	monitoring.RecordDBQuery("MarkInvestorLiquidated", queryStatus(err), time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "No active investor to liquidate", slog.Int64("investorID", investorID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to liquidate investor", slog.Int64("investorID", investorID), slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err, "failed to liquidate investor")
	}
	return inv, nil
}
