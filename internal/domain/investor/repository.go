package investor

import "context"

type Repository interface {
	// Save inserts the investor and fills in ID and CreatedAt.
	Save(ctx context.Context, inv *Investor) error

	FindByID(ctx context.Context, investorID int64) (*Investor, error)

	FindAll(ctx context.Context) ([]*Investor, error)

	// MarkLiquidated moves an ACTIVE investor to LIQUIDATED and records the amount returned.
	// It yields apperrors.ErrNotFound when no ACTIVE investor has that ID.
	MarkLiquidated(ctx context.Context, investorID int64, amountReturned float64) (*Investor, error)
}
