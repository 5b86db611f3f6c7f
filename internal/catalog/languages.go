// internal/catalog/languages.go
package catalog

import "context"

// CreateLanguage adds a language. A name equal to an existing one ignoring
// case fails with a ConstraintViolation raised by the database index, so
// concurrent inserts cannot both succeed.
func (s *service) CreateLanguage(ctx context.Context, in LanguageInput) (*Language, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	row, err := s.createNamed(ctx, languages, in.Name)
	if err != nil {
		return nil, err
	}
	return &Language{ID: row.ID, Name: row.Name}, nil
}

func (s *service) GetLanguage(ctx context.Context, id int64) (*Language, error) {
	row, err := s.getNamed(ctx, languages, id)
	if err != nil {
		return nil, err
	}
	return &Language{ID: row.ID, Name: row.Name}, nil
}

func (s *service) ListLanguages(ctx context.Context, f Filters) ([]*Language, Metadata, error) {
	rows, meta, err := s.listNamed(ctx, languages, f)
	if err != nil {
		return nil, Metadata{}, err
	}
	out := make([]*Language, 0, len(rows))
	for _, row := range rows {
		out = append(out, &Language{ID: row.ID, Name: row.Name})
	}
	return out, meta, nil
}

func (s *service) UpdateLanguage(ctx context.Context, id int64, in LanguageInput) (*Language, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	row, err := s.updateNamed(ctx, languages, id, in.Name)
	if err != nil {
		return nil, err
	}
	return &Language{ID: row.ID, Name: row.Name}, nil
}

// DeleteLanguage removes the language. Books written in it keep their row
// with the language cleared.
func (s *service) DeleteLanguage(ctx context.Context, id int64) error {
	return s.deleteNamed(ctx, languages, id)
}
