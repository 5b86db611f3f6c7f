// internal/catalog/genres.go
package catalog

import "context"

// CreateGenre adds a genre. Duplicate names are accepted.
func (s *service) CreateGenre(ctx context.Context, in GenreInput) (*Genre, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	row, err := s.createNamed(ctx, genres, in.Name)
	if err != nil {
		return nil, err
	}
	return &Genre{ID: row.ID, Name: row.Name}, nil
}

func (s *service) GetGenre(ctx context.Context, id int64) (*Genre, error) {
	row, err := s.getNamed(ctx, genres, id)
	if err != nil {
		return nil, err
	}
	return &Genre{ID: row.ID, Name: row.Name}, nil
}

func (s *service) ListGenres(ctx context.Context, f Filters) ([]*Genre, Metadata, error) {
	rows, meta, err := s.listNamed(ctx, genres, f)
	if err != nil {
		return nil, Metadata{}, err
	}
	out := make([]*Genre, 0, len(rows))
	for _, row := range rows {
		out = append(out, &Genre{ID: row.ID, Name: row.Name})
	}
	return out, meta, nil
}

func (s *service) UpdateGenre(ctx context.Context, id int64, in GenreInput) (*Genre, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	row, err := s.updateNamed(ctx, genres, id, in.Name)
	if err != nil {
		return nil, err
	}
	return &Genre{ID: row.ID, Name: row.Name}, nil
}

// DeleteGenre removes the genre and its book associations. The books stay.
func (s *service) DeleteGenre(ctx context.Context, id int64) error {
	return s.deleteNamed(ctx, genres, id)
}
