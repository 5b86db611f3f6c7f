// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the catalog service.
//
// Writes fail with *ValidationError when an input field breaks its
// constraint, *ConstraintViolation when a cross-row invariant is violated,
// and an error matching ErrRecordNotFound when the target row is missing.
// Deleting a row never deletes the rows that reference it; their reference
// is cleared in the same transaction.
type Service interface {
	CreateGenre(ctx context.Context, in GenreInput) (*Genre, error)
	GetGenre(ctx context.Context, id int64) (*Genre, error)
	ListGenres(ctx context.Context, f Filters) ([]*Genre, Metadata, error)
	UpdateGenre(ctx context.Context, id int64, in GenreInput) (*Genre, error)
	DeleteGenre(ctx context.Context, id int64) error

	CreateLanguage(ctx context.Context, in LanguageInput) (*Language, error)
	GetLanguage(ctx context.Context, id int64) (*Language, error)
	ListLanguages(ctx context.Context, f Filters) ([]*Language, Metadata, error)
	UpdateLanguage(ctx context.Context, id int64, in LanguageInput) (*Language, error)
	DeleteLanguage(ctx context.Context, id int64) error

	CreateAuthor(ctx context.Context, in AuthorInput) (*Author, error)
	GetAuthor(ctx context.Context, id int64) (*Author, error)
	ListAuthors(ctx context.Context, f Filters) ([]*Author, Metadata, error)
	UpdateAuthor(ctx context.Context, id int64, in AuthorInput) (*Author, error)
	DeleteAuthor(ctx context.Context, id int64) error

	CreateBook(ctx context.Context, in BookInput) (*Book, error)
	GetBook(ctx context.Context, id int64) (*Book, error)
	ListBooks(ctx context.Context, f Filters) ([]*Book, Metadata, error)
	ListBooksByAuthor(ctx context.Context, authorID int64) ([]*Book, error)
	UpdateBook(ctx context.Context, id int64, in BookInput) (*Book, error)
	DeleteBook(ctx context.Context, id int64) error

	CreateBookInstance(ctx context.Context, in BookInstanceInput) (*BookInstance, error)
	GetBookInstance(ctx context.Context, id uuid.UUID) (*BookInstance, error)
	ListBookInstances(ctx context.Context, f InstanceFilter) ([]*BookInstance, Metadata, error)
	ListInstancesByBook(ctx context.Context, bookID int64) ([]*BookInstance, error)
	UpdateBookInstance(ctx context.Context, id uuid.UUID, in BookInstanceInput) (*BookInstance, error)
	ModifyBookInstance(ctx context.Context, id uuid.UUID, fn func(current *BookInstance) (BookInstanceInput, error)) (*BookInstance, error)
	DeleteBookInstance(ctx context.Context, id uuid.UUID) error
}
