// internal/catalog/admin.go
package catalog

// Fieldset groups form fields under an optional heading. Each row holds the
// fields rendered side by side.
type Fieldset struct {
	Name string     `json:"name,omitempty"`
	Rows [][]string `json:"rows"`
}

// Inline is a child entity edited on its parent's form.
type Inline struct {
	Entity string `json:"entity"`
	Style  string `json:"style"`
}

// AdminConfig describes how the admin screens present one entity.
type AdminConfig struct {
	Entity      string     `json:"entity"`
	Label       string     `json:"label"`
	ListDisplay []string   `json:"list_display"`
	ListFilter  []string   `json:"list_filter,omitempty"`
	Fieldsets   []Fieldset `json:"fieldsets"`
	Inlines     []Inline   `json:"inlines,omitempty"`
}

// HasFilter reports whether the list screen may be filtered by field.
func (c AdminConfig) HasFilter(field string) bool {
	for _, f := range c.ListFilter {
		if f == field {
			return true
		}
	}
	return false
}

const (
	EntityGenre        = "genre"
	EntityLanguage     = "language"
	EntityAuthor       = "author"
	EntityBook         = "book"
	EntityBookInstance = "bookinstance"
)

// ContentType is the qualified name recorded in the admin log.
func ContentType(entity string) string { return "catalog." + entity }

var adminRegistry = []AdminConfig{
	{
		Entity:      EntityAuthor,
		Label:       "Authors",
		ListDisplay: []string{"last_name", "first_name", "date_of_birth", "date_of_death"},
		Fieldsets: []Fieldset{
			{Rows: [][]string{{"first_name"}, {"last_name"}, {"date_of_birth", "date_of_death"}}},
		},
		Inlines: []Inline{{Entity: EntityBook, Style: "tabular"}},
	},
	{
		Entity:      EntityBook,
		Label:       "Books",
		ListDisplay: []string{"title", "author", "display_genre"},
		Fieldsets: []Fieldset{
			{Rows: [][]string{{"title"}, {"author_id"}, {"summary"}, {"isbn"}, {"genre_ids"}, {"language_id"}}},
		},
		Inlines: []Inline{{Entity: EntityBookInstance, Style: "tabular"}},
	},
	{
		Entity:      EntityBookInstance,
		Label:       "Book instances",
		ListDisplay: []string{"book", "imprint", "id", "due_back"},
		ListFilter:  []string{"status", "due_back"},
		Fieldsets: []Fieldset{
			{Rows: [][]string{{"book_id"}, {"imprint"}, {"id"}}},
			{Name: "Availability", Rows: [][]string{{"status"}, {"due_back"}}},
		},
	},
	{
		Entity:      EntityGenre,
		Label:       "Genres",
		ListDisplay: []string{"name"},
		Fieldsets:   []Fieldset{{Rows: [][]string{{"name"}}}},
	},
	{
		Entity:      EntityLanguage,
		Label:       "Languages",
		ListDisplay: []string{"name"},
		Fieldsets:   []Fieldset{{Rows: [][]string{{"name"}}}},
	},
}

// AdminConfigs returns the configuration of every registered entity.
func AdminConfigs() []AdminConfig {
	out := make([]AdminConfig, len(adminRegistry))
	copy(out, adminRegistry)
	return out
}

// AdminConfigFor returns the configuration registered for entity.
func AdminConfigFor(entity string) (AdminConfig, bool) {
	for _, c := range adminRegistry {
		if c.Entity == entity {
			return c, true
		}
	}
	return AdminConfig{}, false
}

// columnLabels are the headings shown for fields whose label is not the
// capitalised field name.
var columnLabels = map[string]string{
	"date_of_death": "Died",
	"display_genre": "Genre",
	"isbn":          "ISBN",
	"id":            "Id",
}

// ColumnLabel returns the human-readable heading for a field.
func ColumnLabel(field string) string {
	if l, ok := columnLabels[field]; ok {
		return l
	}
	b := []byte(field)
	for i := range b {
		if b[i] == '_' {
			b[i] = ' '
		}
	}
	if len(b) > 0 && b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
