// internal/circulation/service.go
package circulation

import (
	"context"

	"github.com/google/uuid"

	"locallibrary/internal/catalog"
)

// Service defines the loan actions librarians and borrowers perform on
// book instances.
type Service interface {
	// CheckOut lends an available copy to borrowerID until dueBack.
	CheckOut(ctx context.Context, instanceID uuid.UUID, borrowerID int64, dueBack catalog.Date) (*catalog.BookInstance, error)
	// Renew moves the due date of an on-loan copy.
	Renew(ctx context.Context, instanceID uuid.UUID, dueBack catalog.Date) (*catalog.BookInstance, error)
	// MarkReturned makes the copy available again. The acting user needs
	// catalog.can_mark_returned.
	MarkReturned(ctx context.Context, instanceID uuid.UUID) (*catalog.BookInstance, error)
	BorrowedBy(ctx context.Context, userID int64, f catalog.Filters) ([]Loan, catalog.Metadata, error)
	AllBorrowed(ctx context.Context, f catalog.Filters) ([]Loan, catalog.Metadata, error)
}

// Catalog is the part of the catalog service that loans act on.
type Catalog interface {
	ModifyBookInstance(ctx context.Context, id uuid.UUID, fn func(current *catalog.BookInstance) (catalog.BookInstanceInput, error)) (*catalog.BookInstance, error)
	ListBookInstances(ctx context.Context, f catalog.InstanceFilter) ([]*catalog.BookInstance, catalog.Metadata, error)
}
