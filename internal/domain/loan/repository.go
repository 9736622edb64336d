package loan

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error

	CreateLoanInTx(ctx context.Context, tx pgx.Tx, loan *Loan) (*Loan, error)

	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)

	// GetLoanForUpdate locks the loan row until the transaction ends.
	GetLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*Loan, error)

	UpdateLoanInTx(ctx context.Context, tx pgx.Tx, loan *Loan) error

	// HasBlockedLoanInTx locks the borrower row and reports whether any of its loans is
	// BLOCKED, excluding excludeLoanID. A missing borrower yields apperrors.ErrNotFound.
	HasBlockedLoanInTx(ctx context.Context, tx pgx.Tx, borrowerID, excludeLoanID int64) (bool, error)

	ListLoans(ctx context.Context) ([]Loan, error)

	ListLoansByBorrower(ctx context.Context, borrowerID int64) ([]Loan, error)
}

// BorrowerRegistry answers whether a borrower record exists.
type BorrowerRegistry interface {
	Exists(ctx context.Context, borrowerID int64) (bool, error)
}
