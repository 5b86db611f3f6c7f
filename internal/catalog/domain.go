// internal/catalog/domain.go
package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// maxDisplayGenres caps how many genre names DisplayGenre joins.
const maxDisplayGenres = 3

// Genre is a book category such as "Science Fiction" or "French Poetry".
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (g Genre) String() string { return g.Name }

// Language is a language a book is written in. Names are unique ignoring case.
type Language struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (l Language) String() string { return l.Name }

// Author represents a person who wrote one or more books.
type Author struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth *Date  `json:"date_of_birth,omitempty"`
	DateOfDeath *Date  `json:"date_of_death,omitempty"`
}

func (a Author) String() string {
	return fmt.Sprintf("%s (%s)", a.LastName, a.FirstName)
}

// AbsoluteURL is the relative address of the author's detail page.
func (a Author) AbsoluteURL() string {
	return fmt.Sprintf("/catalog/author/%d", a.ID)
}

// Book is a catalog entry for a work, not a physical copy of it.
type Book struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Summary    string    `json:"summary"`
	ISBN       string    `json:"isbn"`
	AuthorID   *int64    `json:"author_id"`
	LanguageID *int64    `json:"language_id"`
	Genres     []Genre   `json:"genres"`
	Author     *Author   `json:"author,omitempty"`
	Language   *Language `json:"language,omitempty"`
}

func (b Book) String() string { return b.Title }

// AbsoluteURL is the relative address of the book's detail page.
func (b Book) AbsoluteURL() string {
	return fmt.Sprintf("/catalog/book/%d", b.ID)
}

// DisplayGenre joins the names of the first three genres in association
// order.
func (b Book) DisplayGenre() string {
	n := len(b.Genres)
	if n > maxDisplayGenres {
		n = maxDisplayGenres
	}
	names := make([]string, 0, n)
	for _, g := range b.Genres[:n] {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}

// GenreIDs returns the ids of the associated genres in association order.
func (b Book) GenreIDs() []int64 {
	ids := make([]int64, 0, len(b.Genres))
	for _, g := range b.Genres {
		ids = append(ids, g.ID)
	}
	return ids
}

// BookInstance is a physical copy of a book that can be borrowed.
type BookInstance struct {
	ID         uuid.UUID  `json:"id"`
	BookID     *int64     `json:"book_id"`
	BookTitle  string     `json:"book_title,omitempty"`
	Imprint    string     `json:"imprint"`
	DueBack    *Date      `json:"due_back"`
	Status     LoanStatus `json:"status"`
	BorrowerID *int64     `json:"borrower_id"`
}

func (bi BookInstance) String() string {
	if bi.BookTitle == "" {
		return bi.ID.String()
	}
	return fmt.Sprintf("%s (%s)", bi.ID, bi.BookTitle)
}

// IsOverdue reports whether the copy has a due date before today.
func (bi BookInstance) IsOverdue(today Date) bool {
	return bi.DueBack != nil && bi.DueBack.Before(today)
}

// NewInstanceID generates the random identifier assigned to a new copy
// before it is written.
func NewInstanceID() uuid.UUID {
	return uuid.New()
}
