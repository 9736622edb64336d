package borrower

import "context"

type Repository interface {
	// Save inserts the borrower and fills in ID and CreatedAt. A duplicate document
	// number yields apperrors.ErrAlreadyExists.
	Save(ctx context.Context, b *Borrower) error

	FindByID(ctx context.Context, borrowerID int64) (*Borrower, error)

	FindAll(ctx context.Context) ([]*Borrower, error)

	Exists(ctx context.Context, borrowerID int64) (bool, error)
}
