// internal/circulation/implementation.go
package circulation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"locallibrary/internal/catalog"
	"locallibrary/internal/identity"
	"locallibrary/internal/platform/logger"
)

// service implements the Service interface.
type service struct {
	catalog Catalog
	log     *logger.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewService creates a new circulation service instance.
func NewService(c Catalog, log *logger.Logger) Service {
	return &service{
		catalog: c,
		log:     log,
		tracer:  otel.Tracer("locallibrary/circulation"),
		now:     time.Now,
	}
}

func (s *service) today() catalog.Date {
	return catalog.DateOf(s.now())
}

// CheckOut lends the copy. Only Available copies can be lent, and the due
// date follows the renewal window.
func (s *service) CheckOut(ctx context.Context, instanceID uuid.UUID, borrowerID int64, dueBack catalog.Date) (*catalog.BookInstance, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.check_out",
		trace.WithAttributes(
			attribute.String("book_instance.id", instanceID.String()),
			attribute.Int64("borrower.id", borrowerID),
		),
	)
	defer span.End()

	if borrowerID < 1 {
		return nil, ErrBorrowerRequired
	}
	if err := CheckDueDate(dueBack, s.today()); err != nil {
		return nil, err
	}

	bi, err := s.catalog.ModifyBookInstance(ctx, instanceID, func(current *catalog.BookInstance) (catalog.BookInstanceInput, error) {
		in := catalog.InstanceInputFrom(current)
		if current.Status != catalog.StatusAvailable {
			return in, ErrNotAvailable
		}
		in.Status = catalog.StatusOnLoan
		in.BorrowerID = &borrowerID
		in.DueBack = &dueBack
		return in, nil
	})
	if err != nil {
		return nil, fmt.Errorf("check out: %w", err)
	}

	s.log.Info("book instance checked out", "book_instance_id", instanceID, "borrower_id", borrowerID, "due_back", dueBack)
	return bi, nil
}

// Renew sets a new due date on an on-loan copy.
func (s *service) Renew(ctx context.Context, instanceID uuid.UUID, dueBack catalog.Date) (*catalog.BookInstance, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.renew",
		trace.WithAttributes(attribute.String("book_instance.id", instanceID.String())),
	)
	defer span.End()

	if err := CheckDueDate(dueBack, s.today()); err != nil {
		return nil, err
	}

	bi, err := s.catalog.ModifyBookInstance(ctx, instanceID, func(current *catalog.BookInstance) (catalog.BookInstanceInput, error) {
		in := catalog.InstanceInputFrom(current)
		if current.Status != catalog.StatusOnLoan {
			return in, ErrNotOnLoan
		}
		in.DueBack = &dueBack
		return in, nil
	})
	if err != nil {
		return nil, fmt.Errorf("renew: %w", err)
	}

	s.log.Info("book instance renewed", "book_instance_id", instanceID, "due_back", dueBack)
	return bi, nil
}

// MarkReturned clears the loan and makes the copy Available.
func (s *service) MarkReturned(ctx context.Context, instanceID uuid.UUID) (*catalog.BookInstance, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.mark_returned",
		trace.WithAttributes(attribute.String("book_instance.id", instanceID.String())),
	)
	defer span.End()

	if !identity.UserFromContext(ctx).HasPerm(catalog.PermCanMarkReturned) {
		return nil, ErrPermissionDenied
	}

	bi, err := s.catalog.ModifyBookInstance(ctx, instanceID, func(current *catalog.BookInstance) (catalog.BookInstanceInput, error) {
		in := catalog.InstanceInputFrom(current)
		in.Status = catalog.StatusAvailable
		in.DueBack = nil
		in.BorrowerID = nil
		return in, nil
	})
	if err != nil {
		return nil, fmt.Errorf("mark returned: %w", err)
	}

	s.log.Info("book instance returned", "book_instance_id", instanceID)
	return bi, nil
}

// BorrowedBy lists the copies on loan to the user.
func (s *service) BorrowedBy(ctx context.Context, userID int64, f catalog.Filters) ([]Loan, catalog.Metadata, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.borrowed_by",
		trace.WithAttributes(attribute.Int64("borrower.id", userID)),
	)
	defer span.End()

	return s.onLoan(ctx, catalog.InstanceFilter{Filters: f, BorrowerID: &userID})
}

// AllBorrowed lists every copy on loan.
func (s *service) AllBorrowed(ctx context.Context, f catalog.Filters) ([]Loan, catalog.Metadata, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.all_borrowed")
	defer span.End()

	return s.onLoan(ctx, catalog.InstanceFilter{Filters: f})
}

func (s *service) onLoan(ctx context.Context, f catalog.InstanceFilter) ([]Loan, catalog.Metadata, error) {
	status := catalog.StatusOnLoan
	f.Status = &status

	instances, meta, err := s.catalog.ListBookInstances(ctx, f)
	if err != nil {
		return nil, catalog.Metadata{}, fmt.Errorf("list loans: %w", err)
	}
	return newLoans(instances, s.today()), meta, nil
}
