package loan

import "errors"

var (
	ErrInvalidAmount = errors.New("invalid amount")

	ErrInvalidRate = errors.New("invalid interest rate")

	ErrInvalidTerm = errors.New("invalid term")

	ErrInvalidStatus = errors.New("invalid payment status")

	ErrInvalidPeriod = errors.New("invalid origin period")

	ErrBorrowerNotFound = errors.New("borrower not found")

	ErrBorrowerBlocked = errors.New("borrower holds a blocked loan")

	ErrLoanNotFound = errors.New("loan not found")

	ErrLoanBlocked = errors.New("loan is blocked")

	ErrAlreadyPaid = errors.New("loan is already paid")

	ErrAlreadyRenewed = errors.New("loan is already renewed")

	ErrExceedsDebt = errors.New("renewal amount exceeds current debt")
)
