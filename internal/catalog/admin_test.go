// internal/catalog/admin_test.go
package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminConfigBookInstance(t *testing.T) {
	cfg, ok := AdminConfigFor(EntityBookInstance)
	require.True(t, ok)

	assert.Equal(t, []string{"status", "due_back"}, cfg.ListFilter)
	assert.Equal(t, []string{"book", "imprint", "id", "due_back"}, cfg.ListDisplay)
	require.Len(t, cfg.Fieldsets, 2)
	assert.Empty(t, cfg.Fieldsets[0].Name)
	assert.Equal(t, [][]string{{"book_id"}, {"imprint"}, {"id"}}, cfg.Fieldsets[0].Rows)
	assert.Equal(t, "Availability", cfg.Fieldsets[1].Name)
	assert.Equal(t, [][]string{{"status"}, {"due_back"}}, cfg.Fieldsets[1].Rows)

	assert.True(t, cfg.HasFilter("status"))
	assert.False(t, cfg.HasFilter("imprint"))
}

func TestAdminConfigAuthorAndBook(t *testing.T) {
	author, ok := AdminConfigFor(EntityAuthor)
	require.True(t, ok)
	assert.Equal(t, []string{"last_name", "first_name", "date_of_birth", "date_of_death"}, author.ListDisplay)
	assert.Equal(t, [][]string{{"first_name"}, {"last_name"}, {"date_of_birth", "date_of_death"}}, author.Fieldsets[0].Rows)
	assert.Equal(t, []Inline{{Entity: EntityBook, Style: "tabular"}}, author.Inlines)

	book, ok := AdminConfigFor(EntityBook)
	require.True(t, ok)
	assert.Equal(t, []string{"title", "author", "display_genre"}, book.ListDisplay)
	assert.Equal(t, []Inline{{Entity: EntityBookInstance, Style: "tabular"}}, book.Inlines)
}

func TestAdminConfigsCoverEveryEntity(t *testing.T) {
	configs := AdminConfigs()
	require.Len(t, configs, 5)

	seen := map[string]bool{}
	for _, c := range configs {
		seen[c.Entity] = true
	}
	for _, e := range []string{EntityGenre, EntityLanguage, EntityAuthor, EntityBook, EntityBookInstance} {
		assert.True(t, seen[e], e)
	}

	_, ok := AdminConfigFor("patron")
	assert.False(t, ok)
}

func TestAdminConfigsReturnsCopy(t *testing.T) {
	configs := AdminConfigs()
	configs[0].Label = "changed"
	assert.NotEqual(t, "changed", AdminConfigs()[0].Label)
}

func TestColumnLabel(t *testing.T) {
	assert.Equal(t, "Died", ColumnLabel("date_of_death"))
	assert.Equal(t, "Genre", ColumnLabel("display_genre"))
	assert.Equal(t, "Date of birth", ColumnLabel("date_of_birth"))
	assert.Equal(t, "Last name", ColumnLabel("last_name"))
	assert.Equal(t, "ISBN", ColumnLabel("isbn"))
	assert.Equal(t, "Imprint", ColumnLabel("imprint"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "catalog.bookinstance", ContentType(EntityBookInstance))
}
