// internal/catalog/authors.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"locallibrary/internal/audit"
)

const authorColumns = `id, first_name, last_name, date_of_birth, date_of_death`

func scanAuthor(sc interface{ Scan(...any) error }, a *Author, extra ...any) error {
	dest := append(extra, &a.ID, &a.FirstName, &a.LastName, &a.DateOfBirth, &a.DateOfDeath)
	return sc.Scan(dest...)
}

// CreateAuthor adds an author. Birth and death dates are not compared.
func (s *service) CreateAuthor(ctx context.Context, in AuthorInput) (*Author, error) {
	ctx, span := s.start(ctx, "create_author")
	defer span.End()

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	author := &Author{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		DateOfBirth: in.DateOfBirth,
		DateOfDeath: in.DateOfDeath,
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO authors (first_name, last_name, date_of_birth, date_of_death)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, author.FirstName, author.LastName, author.DateOfBirth, author.DateOfDeath).Scan(&author.ID)
		if err != nil {
			return fmt.Errorf("insert author: %w", err)
		}
		return s.record(ctx, tx, EntityAuthor, author.ID, author.String(), audit.ActionAddition, audit.Added())
	})
	if err != nil {
		return nil, err
	}

	s.countWrite(ctx, EntityAuthor, audit.ActionAddition)
	span.SetAttributes(attribute.Int64("author.id", author.ID))
	return author, nil
}

// GetAuthor retrieves an author by ID.
func (s *service) GetAuthor(ctx context.Context, id int64) (*Author, error) {
	ctx, span := s.start(ctx, "get_author", attribute.Int64("author.id", id))
	defer span.End()

	return getAuthor(ctx, s.db, id)
}

func getAuthor(ctx context.Context, q queryer, id int64) (*Author, error) {
	author := &Author{}
	err := scanAuthor(q.QueryRowContext(ctx, `SELECT `+authorColumns+` FROM authors WHERE id = $1`, id), author)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(EntityAuthor, id)
		}
		return nil, fmt.Errorf("get author: %w", err)
	}
	return author, nil
}

// ListAuthors pages through authors ordered by last name.
func (s *service) ListAuthors(ctx context.Context, f Filters) ([]*Author, Metadata, error) {
	ctx, span := s.start(ctx, "list_authors")
	defer span.End()

	f = f.normalized()
	rows, err := s.db.QueryContext(ctx, `
		SELECT count(*) OVER(), `+authorColumns+`
		FROM authors
		ORDER BY last_name ASC, id ASC
		LIMIT $1 OFFSET $2`, f.limit(), f.offset())
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	total := 0
	authors := []*Author{}
	for rows.Next() {
		a := &Author{}
		if err := scanAuthor(rows, a, &total); err != nil {
			return nil, Metadata{}, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, Metadata{}, fmt.Errorf("iterate authors: %w", err)
	}

	total, err = s.pageTotal(ctx, total, len(authors), f, "FROM authors")
	if err != nil {
		return nil, Metadata{}, err
	}

	span.SetAttributes(attribute.Int("rows.loaded", len(authors)))
	return authors, calculateMetadata(total, f.Page, f.PageSize), nil
}

// UpdateAuthor replaces every editable field of the author.
func (s *service) UpdateAuthor(ctx context.Context, id int64, in AuthorInput) (*Author, error) {
	ctx, span := s.start(ctx, "update_author", attribute.Int64("author.id", id))
	defer span.End()

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	author := &Author{
		ID:          id,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		DateOfBirth: in.DateOfBirth,
		DateOfDeath: in.DateOfDeath,
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockRow(ctx, tx, "authors", EntityAuthor, id); err != nil {
			return err
		}
		old, err := getAuthor(ctx, tx, id)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE authors
			SET first_name = $1, last_name = $2, date_of_birth = $3, date_of_death = $4
			WHERE id = $5
		`, author.FirstName, author.LastName, author.DateOfBirth, author.DateOfDeath, id)
		if err != nil {
			return fmt.Errorf("update author: %w", err)
		}

		var c changes
		c.check(old.FirstName != author.FirstName, "First name")
		c.check(old.LastName != author.LastName, "Last name")
		c.check(!sameDate(old.DateOfBirth, author.DateOfBirth), "Date of birth")
		c.check(!sameDate(old.DateOfDeath, author.DateOfDeath), "Died")
		return s.record(ctx, tx, EntityAuthor, id, author.String(), audit.ActionChange, audit.Changed(c))
	})
	if err != nil {
		return nil, err
	}

	s.countWrite(ctx, EntityAuthor, audit.ActionChange)
	return author, nil
}

// DeleteAuthor removes the author. Their books keep their row with the
// author cleared.
func (s *service) DeleteAuthor(ctx context.Context, id int64) error {
	ctx, span := s.start(ctx, "delete_author", attribute.Int64("author.id", id))
	defer span.End()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		a := &Author{}
		err := scanAuthor(tx.QueryRowContext(ctx, `DELETE FROM authors WHERE id = $1 RETURNING `+authorColumns, id), a)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFound(EntityAuthor, id)
			}
			return fmt.Errorf("delete author: %w", err)
		}
		return s.record(ctx, tx, EntityAuthor, id, a.String(), audit.ActionDeletion, audit.Deleted())
	})
	if err != nil {
		return err
	}

	s.countWrite(ctx, EntityAuthor, audit.ActionDeletion)
	return nil
}
