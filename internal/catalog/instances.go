// internal/catalog/instances.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"locallibrary/internal/audit"
)

const (
	instanceColumns = `bi.id, bi.book_id, COALESCE(b.title, ''), bi.imprint, bi.due_back, bi.status, bi.borrower_id`
	instanceFrom    = `
		FROM book_instances bi
		LEFT JOIN books b ON b.id = bi.book_id`
	// Copies without a due date list first.
	instanceOrder = ` ORDER BY bi.due_back ASC NULLS FIRST, bi.id ASC`
)

func scanInstance(sc interface{ Scan(...any) error }, bi *BookInstance, extra ...any) error {
	dest := append(extra, &bi.ID, &bi.BookID, &bi.BookTitle, &bi.Imprint, &bi.DueBack, &bi.Status, &bi.BorrowerID)
	return sc.Scan(dest...)
}

func getInstance(ctx context.Context, q queryer, id uuid.UUID) (*BookInstance, error) {
	bi := &BookInstance{}
	err := scanInstance(q.QueryRowContext(ctx, `SELECT `+instanceColumns+instanceFrom+` WHERE bi.id = $1`, id), bi)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(EntityBookInstance, id)
		}
		return nil, fmt.Errorf("get book instance: %w", err)
	}
	return bi, nil
}

// CreateBookInstance adds a copy. When in.ID is nil a random identifier is
// generated before the insert; a missing status becomes Maintenance.
func (s *service) CreateBookInstance(ctx context.Context, in BookInstanceInput) (*BookInstance, error) {
	ctx, span := s.start(ctx, "create_book_instance")
	defer span.End()

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	id := NewInstanceID()
	if in.ID != nil {
		id = *in.ID
	}
	span.SetAttributes(attribute.String("book_instance.id", id.String()))

	var bi *BookInstance
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO book_instances (id, book_id, imprint, due_back, status, borrower_id)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, id, in.BookID, in.Imprint, in.DueBack, in.Status, in.BorrowerID)
		if err != nil {
			return fmt.Errorf("insert book instance: %w", err)
		}

		bi, err = getInstance(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.record(ctx, tx, EntityBookInstance, id, bi.String(), audit.ActionAddition, audit.Added())
	})
	if err != nil {
		return nil, err
	}

	s.countWrite(ctx, EntityBookInstance, audit.ActionAddition)
	return bi, nil
}

// GetBookInstance retrieves a copy by ID.
func (s *service) GetBookInstance(ctx context.Context, id uuid.UUID) (*BookInstance, error) {
	ctx, span := s.start(ctx, "get_book_instance", attribute.String("book_instance.id", id.String()))
	defer span.End()

	return getInstance(ctx, s.db, id)
}

// ListBookInstances pages through copies matching f, ordered by due date
// with undated copies first.
func (s *service) ListBookInstances(ctx context.Context, f InstanceFilter) ([]*BookInstance, Metadata, error) {
	ctx, span := s.start(ctx, "list_book_instances")
	defer span.End()

	f.Filters = f.Filters.normalized()

	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != nil {
		add("bi.status = $%d", *f.Status)
	}
	if f.DueFrom != nil {
		add("bi.due_back >= $%d", *f.DueFrom)
	}
	if f.DueTo != nil {
		add("bi.due_back <= $%d", *f.DueTo)
	}
	if f.BookID != nil {
		add("bi.book_id = $%d", *f.BookID)
	}
	if f.BorrowerID != nil {
		add("bi.borrower_id = $%d", *f.BorrowerID)
	}

	from := instanceFrom
	if len(where) > 0 {
		from += " WHERE " + strings.Join(where, " AND ")
	}
	filterArgs := args
	query := `SELECT count(*) OVER(), ` + instanceColumns + from +
		instanceOrder + fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args[:len(args):len(args)], f.limit(), f.offset())

	total := 0
	instances, err := s.queryInstances(ctx, query, []any{&total}, args...)
	if err != nil {
		return nil, Metadata{}, err
	}
	total, err = s.pageTotal(ctx, total, len(instances), f.Filters, from, filterArgs...)
	if err != nil {
		return nil, Metadata{}, err
	}

	span.SetAttributes(attribute.Int("rows.loaded", len(instances)))
	return instances, calculateMetadata(total, f.Page, f.PageSize), nil
}

// ListInstancesByBook returns every copy of the book.
func (s *service) ListInstancesByBook(ctx context.Context, bookID int64) ([]*BookInstance, error) {
	ctx, span := s.start(ctx, "list_instances_by_book", attribute.Int64("book.id", bookID))
	defer span.End()

	return s.queryInstances(ctx, `SELECT `+instanceColumns+instanceFrom+` WHERE bi.book_id = $1`+instanceOrder, nil, bookID)
}

func (s *service) queryInstances(ctx context.Context, query string, extra []any, args ...any) ([]*BookInstance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list book instances: %w", err)
	}
	defer rows.Close()

	instances := []*BookInstance{}
	for rows.Next() {
		bi := &BookInstance{}
		if err := scanInstance(rows, bi, extra...); err != nil {
			return nil, fmt.Errorf("scan book instance: %w", err)
		}
		instances = append(instances, bi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book instances: %w", err)
	}
	return instances, nil
}

// UpdateBookInstance replaces every editable field of the copy. Any status
// may follow any other; callers gate the move to Available.
func (s *service) UpdateBookInstance(ctx context.Context, id uuid.UUID, in BookInstanceInput) (*BookInstance, error) {
	ctx, span := s.start(ctx, "update_book_instance", attribute.String("book_instance.id", id.String()))
	defer span.End()

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.modifyInstance(ctx, id, func(*BookInstance) (BookInstanceInput, error) { return in, nil })
}

// ModifyBookInstance derives the new fields from the current row while
// holding its lock, so a check made by fn still holds when the write lands.
// An error from fn aborts the change and is returned as is.
func (s *service) ModifyBookInstance(ctx context.Context, id uuid.UUID, fn func(current *BookInstance) (BookInstanceInput, error)) (*BookInstance, error) {
	ctx, span := s.start(ctx, "modify_book_instance", attribute.String("book_instance.id", id.String()))
	defer span.End()

	return s.modifyInstance(ctx, id, func(old *BookInstance) (BookInstanceInput, error) {
		in, err := fn(old)
		if err != nil {
			return in, err
		}
		in.normalize()
		return in, validateInput(in)
	})
}

func (s *service) modifyInstance(ctx context.Context, id uuid.UUID, fn func(old *BookInstance) (BookInstanceInput, error)) (*BookInstance, error) {
	var bi *BookInstance
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockRow(ctx, tx, "book_instances", EntityBookInstance, id); err != nil {
			return err
		}
		old, err := getInstance(ctx, tx, id)
		if err != nil {
			return err
		}
		in, err := fn(old)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE book_instances
			SET book_id = $1, imprint = $2, due_back = $3, status = $4, borrower_id = $5
			WHERE id = $6
		`, in.BookID, in.Imprint, in.DueBack, in.Status, in.BorrowerID, id)
		if err != nil {
			return fmt.Errorf("update book instance: %w", err)
		}

		bi, err = getInstance(ctx, tx, id)
		if err != nil {
			return err
		}

		var c changes
		c.check(!sameID(old.BookID, bi.BookID), "Book")
		c.check(old.Imprint != bi.Imprint, "Imprint")
		c.check(old.Status != bi.Status, "Status")
		c.check(!sameDate(old.DueBack, bi.DueBack), "Due back")
		c.check(!sameID(old.BorrowerID, bi.BorrowerID), "Borrower")
		return s.record(ctx, tx, EntityBookInstance, id, bi.String(), audit.ActionChange, audit.Changed(c))
	})
	if err != nil {
		return nil, err
	}

	s.countWrite(ctx, EntityBookInstance, audit.ActionChange)
	return bi, nil
}

// DeleteBookInstance removes the copy.
func (s *service) DeleteBookInstance(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.start(ctx, "delete_book_instance", attribute.String("book_instance.id", id.String()))
	defer span.End()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		bi, err := getInstance(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM book_instances WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete book instance: %w", err)
		}
		return s.record(ctx, tx, EntityBookInstance, id, bi.String(), audit.ActionDeletion, audit.Deleted())
	})
	if err != nil {
		return err
	}

	s.countWrite(ctx, EntityBookInstance, audit.ActionDeletion)
	return nil
}
