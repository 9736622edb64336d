package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lending-engine/internal/domain/loan"
	"lending-engine/internal/infrastructure/monitoring"
	"lending-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const loanColumns = `id, borrower_id, principal, total_due_original, amount_collected, amount_outstanding,
        term_days, interest_rate, creation_date, due_date, payment_status, payment_date,
        final_collected_amount, origin_period, created_at, updated_at`

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	if db == nil {
		panic("DBPool cannot be nil for LoanRepository")
	}
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, apperrors.WrapDatabaseError(err, "failed to begin transaction")
	}
	return tx, nil
}

func (r *LoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Commit(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return apperrors.WrapDatabaseError(err, "failed to commit transaction")
	}
	return nil
}

func (r *LoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return apperrors.WrapDatabaseError(err, "failed to rollback transaction")
	}
	return nil
}

// scanLoan reads one row selected with loanColumns. Legacy rows may lack a due date,
// a stored rate or an origin period.
func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var (
		l            loan.Loan
		status       string
		dueDate      *time.Time
		originPeriod *string
	)
	err := row.Scan(
		&l.ID, &l.BorrowerID, &l.Principal, &l.TotalDueOriginal, &l.AmountCollected, &l.AmountOutstanding,
		&l.TermDays, &l.InterestRate, &l.CreationDate, &dueDate, &status, &l.PaymentDate,
		&l.FinalCollectedAmount, &originPeriod, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.PaymentStatus = loan.PaymentStatus(status)
	if dueDate != nil {
		l.DueDate = *dueDate
	}
	if originPeriod != nil {
		l.OriginPeriod = *originPeriod
	}
	return &l, nil
}

func (r *LoanRepository) CreateLoanInTx(ctx context.Context, tx pgx.Tx, l *loan.Loan) (*loan.Loan, error) {
	query := `
        INSERT INTO loans (borrower_id, principal, total_due_original, amount_collected, amount_outstanding,
            term_days, interest_rate, creation_date, due_date, payment_status, payment_date,
            final_collected_amount, origin_period, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
        RETURNING ` + loanColumns
	startTime := time.Now()

	created, err := scanLoan(tx.QueryRow(ctx, query,
		l.BorrowerID, l.Principal, l.TotalDueOriginal, l.AmountCollected, l.AmountOutstanding,
		l.TermDays, l.InterestRate, l.CreationDate, l.DueDate, string(l.PaymentStatus), l.PaymentDate,
		l.FinalCollectedAmount, l.OriginPeriod,
	))
	monitoring.RecordDBQuery("CreateLoanInTx", queryStatus(err), time.Since(startTime))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "borrower_id", l.BorrowerID, "error", err)
		return nil, translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", created.ID, "borrower_id", created.BorrowerID)
	return created, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	startTime := time.Now()

	l, err := scanLoan(r.db.QueryRow(ctx, query, loanID))
	monitoring.RecordDBQuery("GetLoanByID", queryStatus(err), time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, apperrors.WrapDatabaseError(err, "failed to get loan by ID")
	}
	return l, nil
}

func (r *LoanRepository) GetLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`
	startTime := time.Now()

	l, err := scanLoan(tx.QueryRow(ctx, query, loanID))
	monitoring.RecordDBQuery("GetLoanForUpdate", queryStatus(err), time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found for update", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to lock loan", "loan_id", loanID, "error", err)
		return nil, apperrors.WrapDatabaseError(err, "failed to lock loan")
	}
	return l, nil
}

func (r *LoanRepository) UpdateLoanInTx(ctx context.Context, tx pgx.Tx, l *loan.Loan) error {
	query := `
        UPDATE loans
        SET principal = $1,
            total_due_original = $2,
            amount_collected = $3,
            amount_outstanding = $4,
            interest_rate = $5,
            payment_status = $6,
            payment_date = $7,
            final_collected_amount = $8,
            updated_at = NOW()
        WHERE id = $9
        RETURNING updated_at`
	startTime := time.Now()

	err := tx.QueryRow(ctx, query,
		l.Principal, l.TotalDueOriginal, l.AmountCollected, l.AmountOutstanding, l.InterestRate,
		string(l.PaymentStatus), l.PaymentDate, l.FinalCollectedAmount, l.ID,
	).Scan(&l.UpdatedAt)
	monitoring.RecordDBQuery("UpdateLoanInTx", queryStatus(err), time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Update affected zero rows, loan likely not found", "loan_id", l.ID)
			return apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to update loan", "loan_id", l.ID, "error", err)
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *LoanRepository) HasBlockedLoanInTx(ctx context.Context, tx pgx.Tx, borrowerID, excludeLoanID int64) (bool, error) {
	// Locking the borrower row serializes concurrent block and create calls for it.
	query := `
        SELECT EXISTS (
            SELECT 1 FROM loans
            WHERE borrower_id = $1 AND payment_status = 'BLOCKED' AND id <> $2
        )
        FROM borrowers
        WHERE id = $1
        FOR UPDATE`
	startTime := time.Now()

	var blocked bool
	err := tx.QueryRow(ctx, query, borrowerID, excludeLoanID).Scan(&blocked)
	monitoring.RecordDBQuery("HasBlockedLoanInTx", queryStatus(err), time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Borrower not found", "borrower_id", borrowerID)
			return false, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to check blocked loans", "borrower_id", borrowerID, "error", err)
		return false, apperrors.WrapDatabaseError(err, "failed to check blocked loans")
	}
	return blocked, nil
}

func (r *LoanRepository) ListLoans(ctx context.Context) ([]loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY id DESC`
	return r.queryLoans(ctx, "ListLoans", query)
}

func (r *LoanRepository) ListLoansByBorrower(ctx context.Context, borrowerID int64) ([]loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE borrower_id = $1 ORDER BY id DESC`
	return r.queryLoans(ctx, "ListLoansByBorrower", query, borrowerID)
}

func (r *LoanRepository) queryLoans(ctx context.Context, name, query string, args ...any) ([]loan.Loan, error) {
	startTime := time.Now()
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		monitoring.RecordDBQuery(name, "error", time.Since(startTime))
		r.logger.ErrorContext(ctx, "Failed to query loans", "query", name, "error", err)
		return nil, apperrors.WrapDatabaseError(err, "failed to query loans")
	}
	defer rows.Close()

	loans := make([]loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			monitoring.RecordDBQuery(name, "error", time.Since(startTime))
			r.logger.ErrorContext(ctx, "Failed to scan loan row", "query", name, "error", err)
			return nil, apperrors.WrapDatabaseError(err, "failed to scan loan row")
		}
		loans = append(loans, *l)
	}
	err = rows.Err()
	monitoring.RecordDBQuery(name, queryStatus(err), time.Since(startTime))
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating loan rows", "query", name, "error", err)
		return nil, apperrors.WrapDatabaseError(err, "error iterating loan rows")
	}
	return loans, nil
}
