// internal/catalog/named.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"locallibrary/internal/audit"
)

// namedTable is a lookup table whose only editable column is name.
type namedTable struct {
	entity string
	table  string
}

var (
	genres    = namedTable{entity: EntityGenre, table: "genres"}
	languages = namedTable{entity: EntityLanguage, table: "languages"}
)

type namedRow struct {
	ID   int64
	Name string
}

func (s *service) createNamed(ctx context.Context, t namedTable, name string) (namedRow, error) {
	ctx, span := s.start(ctx, "create_"+t.entity)
	defer span.End()

	row := namedRow{Name: name}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf("INSERT INTO %s (name) VALUES ($1) RETURNING id", t.table),
			name,
		).Scan(&row.ID)
		if err != nil {
			return fmt.Errorf("insert %s: %w", t.entity, err)
		}
		return s.record(ctx, tx, t.entity, row.ID, row.Name, audit.ActionAddition, audit.Added())
	})
	if err != nil {
		return namedRow{}, err
	}

	s.countWrite(ctx, t.entity, audit.ActionAddition)
	span.SetAttributes(attribute.Int64(t.entity+".id", row.ID))
	return row, nil
}

func (s *service) getNamed(ctx context.Context, t namedTable, id int64) (namedRow, error) {
	ctx, span := s.start(ctx, "get_"+t.entity, attribute.Int64(t.entity+".id", id))
	defer span.End()

	row := namedRow{}
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id, name FROM %s WHERE id = $1", t.table), id,
	).Scan(&row.ID, &row.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return namedRow{}, notFound(t.entity, id)
		}
		return namedRow{}, fmt.Errorf("get %s: %w", t.entity, err)
	}
	return row, nil
}

func (s *service) listNamed(ctx context.Context, t namedTable, f Filters) ([]namedRow, Metadata, error) {
	ctx, span := s.start(ctx, "list_"+t.entity)
	defer span.End()

	f = f.normalized()
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT count(*) OVER(), id, name
		FROM %s
		ORDER BY name ASC, id ASC
		LIMIT $1 OFFSET $2`, t.table), f.limit(), f.offset())
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("list %s: %w", t.entity, err)
	}
	defer rows.Close()

	total := 0
	out := []namedRow{}
	for rows.Next() {
		var row namedRow
		if err := rows.Scan(&total, &row.ID, &row.Name); err != nil {
			return nil, Metadata{}, fmt.Errorf("scan %s: %w", t.entity, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, Metadata{}, fmt.Errorf("iterate %s: %w", t.entity, err)
	}

	total, err = s.pageTotal(ctx, total, len(out), f, "FROM "+t.table)
	if err != nil {
		return nil, Metadata{}, err
	}

	span.SetAttributes(attribute.Int("rows.loaded", len(out)))
	return out, calculateMetadata(total, f.Page, f.PageSize), nil
}

func (s *service) updateNamed(ctx context.Context, t namedTable, id int64, name string) (namedRow, error) {
	ctx, span := s.start(ctx, "update_"+t.entity, attribute.Int64(t.entity+".id", id))
	defer span.End()

	row := namedRow{ID: id, Name: name}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var old string
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT name FROM %s WHERE id = $1 FOR UPDATE", t.table), id,
		).Scan(&old)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFound(t.entity, id)
			}
			return fmt.Errorf("lock %s: %w", t.entity, err)
		}

		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET name = $1 WHERE id = $2", t.table), name, id,
		); err != nil {
			return fmt.Errorf("update %s: %w", t.entity, err)
		}

		var c changes
		c.check(old != name, "Name")
		return s.record(ctx, tx, t.entity, id, name, audit.ActionChange, audit.Changed(c))
	})
	if err != nil {
		return namedRow{}, err
	}

	s.countWrite(ctx, t.entity, audit.ActionChange)
	return row, nil
}

func (s *service) deleteNamed(ctx context.Context, t namedTable, id int64) error {
	ctx, span := s.start(ctx, "delete_"+t.entity, attribute.Int64(t.entity+".id", id))
	defer span.End()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var name string
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE id = $1 RETURNING name", t.table), id,
		).Scan(&name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFound(t.entity, id)
			}
			return fmt.Errorf("delete %s: %w", t.entity, err)
		}
		return s.record(ctx, tx, t.entity, id, name, audit.ActionDeletion, audit.Deleted())
	})
	if err != nil {
		return err
	}

	s.countWrite(ctx, t.entity, audit.ActionDeletion)
	return nil
}
