package borrower

import (
	"strings"
	"time"
)

// Borrower is the person a loan is issued to. Loans reference it only by ID.
type Borrower struct {
	ID             int64
	FullName       string
	DocumentNumber string
	Address        string
	Phone          string
	Notes          string
	CreatedAt      time.Time
}

// NewBorrower returns an unsaved borrower with surrounding whitespace trimmed from every field.
func NewBorrower(fullName, documentNumber, address, phone, notes string) *Borrower {
	return &Borrower{
		FullName:       strings.TrimSpace(fullName),
		DocumentNumber: strings.TrimSpace(documentNumber),
		Address:        strings.TrimSpace(address),
		Phone:          strings.TrimSpace(phone),
		Notes:          strings.TrimSpace(notes),
	}
}
