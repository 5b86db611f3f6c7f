// internal/catalog/input.go
package catalog

import (
	"strings"

	"github.com/google/uuid"
)

// GenreInput holds the editable fields of a Genre.
type GenreInput struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (in *GenreInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
}

// LanguageInput holds the editable fields of a Language.
type LanguageInput struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (in *LanguageInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
}

// AuthorInput holds the editable fields of an Author. Dates are optional
// and their order is not checked.
type AuthorInput struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	DateOfBirth *Date  `json:"date_of_birth"`
	DateOfDeath *Date  `json:"date_of_death"`
}

func (in *AuthorInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.DateOfBirth = nonZeroDate(in.DateOfBirth)
	in.DateOfDeath = nonZeroDate(in.DateOfDeath)
}

// BookInput holds the editable fields of a Book. GenreIDs is a set; the
// order of first appearance is the association order.
type BookInput struct {
	Title      string  `json:"title" validate:"required,max=200"`
	Summary    string  `json:"summary" validate:"required,max=1000"`
	ISBN       string  `json:"isbn" validate:"required,max=13"`
	AuthorID   *int64  `json:"author_id" validate:"omitempty,gt=0"`
	LanguageID *int64  `json:"language_id" validate:"omitempty,gt=0"`
	GenreIDs   []int64 `json:"genre_ids" validate:"dive,gt=0"`
}

func (in *BookInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Summary = strings.TrimSpace(in.Summary)
	in.ISBN = strings.TrimSpace(in.ISBN)
	in.GenreIDs = uniqueIDs(in.GenreIDs)
}

// BookInstanceInput holds the editable fields of a BookInstance. A nil ID
// on create gets a freshly generated one; an empty Status means
// DefaultStatus.
type BookInstanceInput struct {
	ID         *uuid.UUID `json:"id,omitempty"`
	BookID     *int64     `json:"book_id" validate:"omitempty,gt=0"`
	Imprint    string     `json:"imprint" validate:"required,max=200"`
	DueBack    *Date      `json:"due_back"`
	Status     LoanStatus `json:"status" validate:"omitempty,loanstatus"`
	BorrowerID *int64     `json:"borrower_id" validate:"omitempty,gt=0"`
}

func (in *BookInstanceInput) normalize() {
	in.Imprint = strings.TrimSpace(in.Imprint)
	in.DueBack = nonZeroDate(in.DueBack)
	in.Status = LoanStatus(strings.TrimSpace(string(in.Status)))
	if in.Status == "" {
		in.Status = DefaultStatus
	}
}

// InstanceInputFrom copies the editable fields of an existing copy, as the
// starting point of a partial change.
func InstanceInputFrom(bi *BookInstance) BookInstanceInput {
	return BookInstanceInput{
		BookID:     bi.BookID,
		Imprint:    bi.Imprint,
		DueBack:    bi.DueBack,
		Status:     bi.Status,
		BorrowerID: bi.BorrowerID,
	}
}

func uniqueIDs(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
