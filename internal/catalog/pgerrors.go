// internal/catalog/pgerrors.go
package catalog

import (
	"errors"

	"github.com/lib/pq"
)

const invalidChoiceMessage = "select a valid choice; that choice is not one of the available choices"

// uniqueConstraints maps unique indexes to the violation reported to callers.
var uniqueConstraints = map[string]*ConstraintViolation{
	"language_name_case_insensitive_unique": {
		Constraint: "language_name_case_insensitive_unique",
		Message:    LanguageExistsMessage,
	},
	"book_instances_pkey": {
		Constraint: "book_instances_pkey",
		Message:    "Book instance with this Id already exists.",
	},
}

// foreignKeyFields maps foreign keys to the input field that carries them.
var foreignKeyFields = map[string]string{
	"books_author_id_fkey":            "author_id",
	"books_language_id_fkey":          "language_id",
	"book_genres_genre_id_fkey":       "genre_ids",
	"book_instances_book_id_fkey":     "book_id",
	"book_instances_borrower_id_fkey": "borrower_id",
}

// translateError turns constraint failures reported by PostgreSQL into the
// package's error types. Other errors are returned unchanged.
func translateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case "23505":
		if v, ok := uniqueConstraints[pqErr.Constraint]; ok {
			return &ConstraintViolation{Constraint: v.Constraint, Message: v.Message}
		}
	case "23503":
		if field, ok := foreignKeyFields[pqErr.Constraint]; ok {
			return fieldError(field, invalidChoiceMessage)
		}
	case "23514":
		if pqErr.Constraint == "book_instances_status_check" {
			return fieldError("status", invalidChoiceMessage)
		}
	}
	return err
}
