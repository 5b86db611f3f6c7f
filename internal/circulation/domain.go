// internal/circulation/domain.go
package circulation

import (
	"errors"

	"locallibrary/internal/catalog"
)

const (
	// MaxRenewalDays bounds how far ahead a renewal may set the due date.
	MaxRenewalDays = 28
	// ProposedRenewalDays is the renewal period offered by default.
	ProposedRenewalDays = 21
)

var (
	ErrNotAvailable     = errors.New("book instance is not available for loan")
	ErrNotOnLoan        = errors.New("book instance is not on loan")
	ErrPermissionDenied = errors.New("permission denied")
	ErrRenewalInPast    = errors.New("invalid date: renewal in past")
	ErrRenewalTooFar    = errors.New("invalid date: renewal more than 4 weeks ahead")
	ErrBorrowerRequired = errors.New("borrower must be provided")
)

// Loan is an on-loan copy as shown to borrowers and librarians.
type Loan struct {
	*catalog.BookInstance
	Overdue bool `json:"overdue"`
}

func newLoans(instances []*catalog.BookInstance, today catalog.Date) []Loan {
	loans := make([]Loan, 0, len(instances))
	for _, bi := range instances {
		loans = append(loans, Loan{BookInstance: bi, Overdue: bi.IsOverdue(today)})
	}
	return loans
}

// CheckDueDate validates a renewal date against today.
func CheckDueDate(due, today catalog.Date) error {
	if due.Before(today) {
		return ErrRenewalInPast
	}
	if due.After(today.AddDays(MaxRenewalDays)) {
		return ErrRenewalTooFar
	}
	return nil
}
