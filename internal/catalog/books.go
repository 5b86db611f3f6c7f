// internal/catalog/books.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"

	"locallibrary/internal/audit"
)

const (
	bookColumns = `b.id, b.title, b.summary, b.isbn, b.author_id, b.language_id,
		a.first_name, a.last_name, a.date_of_birth, a.date_of_death, l.name`
	bookFrom = `
		FROM books b
		LEFT JOIN authors a ON a.id = b.author_id
		LEFT JOIN languages l ON l.id = b.language_id`
	bookSelect = `SELECT ` + bookColumns + bookFrom
)

func scanBook(sc interface{ Scan(...any) error }, b *Book, extra ...any) error {
	var (
		firstName, lastName, langName sql.NullString
		born, died                    *Date
	)
	dest := append(extra,
		&b.ID, &b.Title, &b.Summary, &b.ISBN, &b.AuthorID, &b.LanguageID,
		&firstName, &lastName, &born, &died, &langName,
	)
	if err := sc.Scan(dest...); err != nil {
		return err
	}

	b.Author, b.Language = nil, nil
	if b.AuthorID != nil {
		b.Author = &Author{
			ID:          *b.AuthorID,
			FirstName:   firstName.String,
			LastName:    lastName.String,
			DateOfBirth: born,
			DateOfDeath: died,
		}
	}
	if b.LanguageID != nil {
		b.Language = &Language{ID: *b.LanguageID, Name: langName.String}
	}
	b.Genres = []Genre{}
	return nil
}

// loadGenres attaches the genres of every book in books, in the order the
// associations were made.
func loadGenres(ctx context.Context, q queryer, books ...*Book) error {
	if len(books) == 0 {
		return nil
	}
	byID := make(map[int64]*Book, len(books))
	ids := make([]int64, 0, len(books))
	for _, b := range books {
		byID[b.ID] = b
		ids = append(ids, b.ID)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT bg.book_id, g.id, g.name
		FROM book_genres bg
		JOIN genres g ON g.id = bg.genre_id
		WHERE bg.book_id = ANY($1)
		ORDER BY bg.id ASC
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookID int64
		var g Genre
		if err := rows.Scan(&bookID, &g.ID, &g.Name); err != nil {
			return fmt.Errorf("scan genre: %w", err)
		}
		if b, ok := byID[bookID]; ok {
			b.Genres = append(b.Genres, g)
		}
	}
	return rows.Err()
}

// setGenres makes ids the book's genre set. Associations that survive keep
// their position; new ones are appended in the order given.
func setGenres(ctx context.Context, tx *sql.Tx, bookID int64, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM book_genres
		WHERE book_id = $1 AND NOT (genre_id = ANY($2))
	`, bookID, pq.Array(ids)); err != nil {
		return fmt.Errorf("remove genres: %w", err)
	}
	for _, gid := range ids {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO book_genres (book_id, genre_id)
			VALUES ($1, $2)
			ON CONFLICT (book_id, genre_id) DO NOTHING
		`, bookID, gid); err != nil {
			return fmt.Errorf("add genre %d: %w", gid, err)
		}
	}
	return nil
}

func getBook(ctx context.Context, q queryer, id int64) (*Book, error) {
	b := &Book{}
	if err := scanBook(q.QueryRowContext(ctx, bookSelect+` WHERE b.id = $1`, id), b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(EntityBook, id)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	if err := loadGenres(ctx, q, b); err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBook adds a book with its genre associations.
func (s *service) CreateBook(ctx context.Context, in BookInput) (*Book, error) {
	ctx, span := s.start(ctx, "create_book")
	defer span.End()

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var book *Book
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO books (title, summary, isbn, author_id, language_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, in.Title, in.Summary, in.ISBN, in.AuthorID, in.LanguageID).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert book: %w", err)
		}
		if err := setGenres(ctx, tx, id, in.GenreIDs); err != nil {
			return err
		}

		book, err = getBook(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.record(ctx, tx, EntityBook, id, book.String(), audit.ActionAddition, audit.Added())
	})
	if err != nil {
		return nil, err
	}

	s.countWrite(ctx, EntityBook, audit.ActionAddition)
	span.SetAttributes(attribute.Int64("book.id", book.ID))
	return book, nil
}

// GetBook retrieves a book with its author, language and genres.
func (s *service) GetBook(ctx context.Context, id int64) (*Book, error) {
	ctx, span := s.start(ctx, "get_book", attribute.Int64("book.id", id))
	defer span.End()

	return getBook(ctx, s.db, id)
}

// ListBooks pages through books in creation order.
func (s *service) ListBooks(ctx context.Context, f Filters) ([]*Book, Metadata, error) {
	ctx, span := s.start(ctx, "list_books")
	defer span.End()

	f = f.normalized()
	query := `SELECT count(*) OVER(), ` + bookColumns + bookFrom + `
		ORDER BY b.id ASC
		LIMIT $1 OFFSET $2`
	total := 0
	books, err := s.queryBooks(ctx, query, []any{&total}, f.limit(), f.offset())
	if err != nil {
		return nil, Metadata{}, err
	}
	total, err = s.pageTotal(ctx, total, len(books), f, "FROM books")
	if err != nil {
		return nil, Metadata{}, err
	}

	span.SetAttributes(attribute.Int("rows.loaded", len(books)))
	return books, calculateMetadata(total, f.Page, f.PageSize), nil
}

// ListBooksByAuthor returns every book credited to the author.
func (s *service) ListBooksByAuthor(ctx context.Context, authorID int64) ([]*Book, error) {
	ctx, span := s.start(ctx, "list_books_by_author", attribute.Int64("author.id", authorID))
	defer span.End()

	return s.queryBooks(ctx, bookSelect+` WHERE b.author_id = $1 ORDER BY b.title ASC, b.id ASC`, nil, authorID)
}

func (s *service) queryBooks(ctx context.Context, query string, extra []any, args ...any) ([]*Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		b := &Book{}
		if err := scanBook(rows, b, extra...); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	rows.Close()

	if err := loadGenres(ctx, s.db, books...); err != nil {
		return nil, err
	}
	return books, nil
}

// UpdateBook replaces every editable field of the book, including its genre
// set.
func (s *service) UpdateBook(ctx context.Context, id int64, in BookInput) (*Book, error) {
	ctx, span := s.start(ctx, "update_book", attribute.Int64("book.id", id))
	defer span.End()

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var book *Book
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockRow(ctx, tx, "books", EntityBook, id); err != nil {
			return err
		}
		old, err := getBook(ctx, tx, id)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE books
			SET title = $1, summary = $2, isbn = $3, author_id = $4, language_id = $5
			WHERE id = $6
		`, in.Title, in.Summary, in.ISBN, in.AuthorID, in.LanguageID, id)
		if err != nil {
			return fmt.Errorf("update book: %w", err)
		}
		if err := setGenres(ctx, tx, id, in.GenreIDs); err != nil {
			return err
		}

		book, err = getBook(ctx, tx, id)
		if err != nil {
			return err
		}

		var c changes
		c.check(old.Title != book.Title, "Title")
		c.check(!sameID(old.AuthorID, book.AuthorID), "Author")
		c.check(old.Summary != book.Summary, "Summary")
		c.check(old.ISBN != book.ISBN, "ISBN")
		c.check(!sameIDs(old.GenreIDs(), book.GenreIDs()), "Genre")
		c.check(!sameID(old.LanguageID, book.LanguageID), "Language")
		return s.record(ctx, tx, EntityBook, id, book.String(), audit.ActionChange, audit.Changed(c))
	})
	if err != nil {
		return nil, err
	}

	s.countWrite(ctx, EntityBook, audit.ActionChange)
	return book, nil
}

// DeleteBook removes the book and its genre associations. Its copies keep
// their row with the book cleared.
func (s *service) DeleteBook(ctx context.Context, id int64) error {
	ctx, span := s.start(ctx, "delete_book", attribute.Int64("book.id", id))
	defer span.End()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var title string
		err := tx.QueryRowContext(ctx, `DELETE FROM books WHERE id = $1 RETURNING title`, id).Scan(&title)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFound(EntityBook, id)
			}
			return fmt.Errorf("delete book: %w", err)
		}
		return s.record(ctx, tx, EntityBook, id, title, audit.ActionDeletion, audit.Deleted())
	})
	if err != nil {
		return err
	}

	s.countWrite(ctx, EntityBook, audit.ActionDeletion)
	return nil
}
