// internal/catalog/validation_test.go
package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validationErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var v *ValidationError
	require.True(t, errors.As(err, &v), "expected *ValidationError, got %v", err)
	return v.Errors
}

func ptr[T any](v T) *T { return &v }

func TestValidateGenreInput(t *testing.T) {
	require.NoError(t, validateInput(GenreInput{Name: "Fantasy"}))
	require.NoError(t, validateInput(GenreInput{Name: strings.Repeat("g", 200)}))

	errs := validationErrors(t, validateInput(GenreInput{Name: ""}))
	assert.Equal(t, "must be provided", errs["name"])

	errs = validationErrors(t, validateInput(GenreInput{Name: strings.Repeat("g", 201)}))
	assert.Equal(t, "must not be more than 200 characters long", errs["name"])
}

func TestValidateAuthorInput(t *testing.T) {
	require.NoError(t, validateInput(AuthorInput{FirstName: "Isaac", LastName: "Asimov"}))

	errs := validationErrors(t, validateInput(AuthorInput{LastName: strings.Repeat("a", 101)}))
	assert.Equal(t, "must be provided", errs["first_name"])
	assert.Equal(t, "must not be more than 100 characters long", errs["last_name"])
}

func TestAuthorDatesAreNotOrdered(t *testing.T) {
	died := NewDate(1900, 1, 1)
	born := NewDate(1950, 1, 1)
	assert.NoError(t, validateInput(AuthorInput{FirstName: "A", LastName: "B", DateOfBirth: &born, DateOfDeath: &died}))
}

func TestValidateBookInput(t *testing.T) {
	valid := BookInput{Title: "Dune", Summary: "Spice.", ISBN: "9780441013593"}
	require.NoError(t, validateInput(valid))

	in := valid
	in.ISBN = "97804410135931"
	errs := validationErrors(t, validateInput(in))
	assert.Equal(t, "must not be more than 13 characters long", errs["isbn"])

	in = BookInput{}
	errs = validationErrors(t, validateInput(in))
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "summary")
	assert.Contains(t, errs, "isbn")

	in = valid
	in.Summary = strings.Repeat("s", 1001)
	in.AuthorID = ptr(int64(0))
	in.GenreIDs = []int64{1, -2}
	errs = validationErrors(t, validateInput(in))
	assert.Equal(t, "must not be more than 1000 characters long", errs["summary"])
	assert.Equal(t, "must be greater than 0", errs["author_id"])
	assert.Equal(t, "must be greater than 0", errs["genre_ids[1]"])
}

func TestBookInputNormalize(t *testing.T) {
	in := BookInput{Title: "  Dune ", GenreIDs: []int64{3, 1, 3, 2, 1}}
	in.normalize()
	assert.Equal(t, "Dune", in.Title)
	assert.Equal(t, []int64{3, 1, 2}, in.GenreIDs)
}

func TestValidateBookInstanceInput(t *testing.T) {
	in := BookInstanceInput{Imprint: "Ace, 1990"}
	in.normalize()
	require.NoError(t, validateInput(in))
	assert.Equal(t, DefaultStatus, in.Status, "blank status becomes maintenance")

	in = BookInstanceInput{Imprint: "Ace", Status: "x"}
	in.normalize()
	errs := validationErrors(t, validateInput(in))
	assert.Equal(t, invalidChoiceMessage, errs["status"])

	in = BookInstanceInput{}
	in.normalize()
	errs = validationErrors(t, validateInput(in))
	assert.Equal(t, "must be provided", errs["imprint"])
}

func TestStatusValidationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := rapid.StringN(0, 2, 2).Draw(t, "code")
		in := BookInstanceInput{Imprint: "Imprint", Status: LoanStatus(code)}
		in.normalize()
		err := validateInput(in)
		if in.Status.Valid() != (err == nil) {
			t.Fatalf("status %q: valid=%v err=%v", in.Status, in.Status.Valid(), err)
		}
	})
}

func TestValidationErrorMessage(t *testing.T) {
	v := newValidationError()
	v.Add("title", "must be provided")
	v.Add("isbn", "must be provided")
	v.Add("title", "ignored")
	assert.Equal(t, "validation failed: isbn: must be provided; title: must be provided", v.Error())
}
