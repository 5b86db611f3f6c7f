// internal/catalog/handler_test.go
package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locallibrary/internal/httpx"
	"locallibrary/internal/identity"
	"locallibrary/internal/platform/logger"
)

// fakeService overrides the methods a test needs; calling any other method
// panics through the nil embedded interface.
type fakeService struct {
	Service

	genres    []*Genre
	lastGenre GenreInput
	createErr error

	instance     *BookInstance
	lastFilter   InstanceFilter
	lastInstance BookInstanceInput

	book      *Book
	instances []*BookInstance

	lastAuthor AuthorInput
}

func (f *fakeService) CreateGenre(_ context.Context, in GenreInput) (*Genre, error) {
	f.lastGenre = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &Genre{ID: 1, Name: in.Name}, nil
}

func (f *fakeService) CreateAuthor(_ context.Context, in AuthorInput) (*Author, error) {
	in.normalize()
	f.lastAuthor = in
	return &Author{ID: 1, FirstName: in.FirstName, LastName: in.LastName, DateOfBirth: in.DateOfBirth, DateOfDeath: in.DateOfDeath}, nil
}

func (f *fakeService) GetGenre(_ context.Context, id int64) (*Genre, error) {
	for _, g := range f.genres {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, notFound(EntityGenre, id)
}

func (f *fakeService) ListGenres(_ context.Context, flt Filters) ([]*Genre, Metadata, error) {
	return f.genres, calculateMetadata(len(f.genres), flt.Page, flt.PageSize), nil
}

func (f *fakeService) DeleteGenre(_ context.Context, id int64) error {
	_, err := f.GetGenre(context.Background(), id)
	return err
}

func (f *fakeService) ListBookInstances(_ context.Context, flt InstanceFilter) ([]*BookInstance, Metadata, error) {
	f.lastFilter = flt
	return f.instances, Metadata{}, nil
}

func (f *fakeService) ModifyBookInstance(_ context.Context, id uuid.UUID, fn func(*BookInstance) (BookInstanceInput, error)) (*BookInstance, error) {
	if f.instance == nil || f.instance.ID != id {
		return nil, notFound(EntityBookInstance, id)
	}
	in, err := fn(f.instance)
	if err != nil {
		return nil, err
	}
	f.lastInstance = in
	updated := *f.instance
	updated.Status = in.Status
	return &updated, nil
}

func (f *fakeService) GetBook(_ context.Context, id int64) (*Book, error) {
	if f.book == nil || f.book.ID != id {
		return nil, notFound(EntityBook, id)
	}
	return f.book, nil
}

func (f *fakeService) ListInstancesByBook(context.Context, int64) ([]*BookInstance, error) {
	return f.instances, nil
}

func newTestRouter(svc Service) http.Handler {
	h := NewHandler(svc, httpx.Responder{Log: logger.Nop()})
	r := chi.NewRouter()
	r.Route("/admin", h.AdminRoutes)
	r.Route("/catalog", h.PublicRoutes)
	return r
}

func serve(t *testing.T, router http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func TestCreateGenreHandler(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/admin/catalog/genre/", strings.NewReader(`{"name":"Fantasy"}`))
	rec, body := serve(t, router, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Fantasy", svc.lastGenre.Name)
	assert.Equal(t, "Fantasy", body["genre"].(map[string]any)["name"])
}

func TestCreateHandlerMapsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", fieldError("name", "must be provided"), http.StatusUnprocessableEntity},
		{"constraint", &ConstraintViolation{Message: LanguageExistsMessage}, http.StatusConflict},
		{"not found", notFound(EntityGenre, 1), http.StatusNotFound},
		{"other", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeService{createErr: tt.err})
			req := httptest.NewRequest(http.MethodPost, "/admin/catalog/genre/", strings.NewReader(`{"name":"x"}`))
			rec, _ := serve(t, router, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestCreateHandlerRejectsUnknownFields(t *testing.T) {
	router := newTestRouter(&fakeService{})
	req := httptest.NewRequest(http.MethodPost, "/admin/catalog/genre/", strings.NewReader(`{"name":"x","colour":"red"}`))
	rec, _ := serve(t, router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAuthorHandlerReportsFieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"impossible date", `{"first_name":"A","last_name":"B","date_of_birth":"1990-13-45"}`, "date_of_birth", "must be a date in YYYY-MM-DD format"},
		{"date as number", `{"first_name":"A","last_name":"B","date_of_death":19900101}`, "date_of_death", "must be a date in YYYY-MM-DD format"},
		{"name as number", `{"first_name":5,"last_name":"B"}`, "first_name", "must be a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeService{})
			req := httptest.NewRequest(http.MethodPost, "/admin/catalog/author/", strings.NewReader(tt.body))
			rec, body := serve(t, router, req)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, tt.msg, body["error"].(map[string]any)[tt.field])
		})
	}
}

func TestCreateAuthorHandlerTreatsBlankDateAsUnset(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/admin/catalog/author/",
		strings.NewReader(`{"first_name":"A","last_name":"B","date_of_birth":"","date_of_death":"  "}`))
	rec, body := serve(t, router, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, svc.lastAuthor.DateOfBirth)
	assert.Nil(t, svc.lastAuthor.DateOfDeath)
	assert.NotContains(t, body["author"].(map[string]any), "date_of_birth")
}

func TestListGenresHandler(t *testing.T) {
	svc := &fakeService{genres: []*Genre{{ID: 1, Name: "Fantasy"}, {ID: 2, Name: "Horror"}}}
	router := newTestRouter(svc)

	rec, body := serve(t, router, httptest.NewRequest(http.MethodGet, "/admin/catalog/genre/?page=1&page_size=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["genres"], 2)
	assert.Equal(t, float64(2), body["metadata"].(map[string]any)["total_records"])

	rec, body = serve(t, router, httptest.NewRequest(http.MethodGet, "/admin/catalog/genre/?page=0&page_size=abc", nil))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := body["error"].(map[string]any)
	assert.Contains(t, errs, "page")
	assert.Contains(t, errs, "page_size")
}

func TestGetAndDeleteGenreHandler(t *testing.T) {
	router := newTestRouter(&fakeService{genres: []*Genre{{ID: 1, Name: "Fantasy"}}})

	rec, _ := serve(t, router, httptest.NewRequest(http.MethodGet, "/admin/catalog/genre/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = serve(t, router, httptest.NewRequest(http.MethodGet, "/admin/catalog/genre/9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = serve(t, router, httptest.NewRequest(http.MethodGet, "/admin/catalog/genre/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, router, httptest.NewRequest(http.MethodDelete, "/admin/catalog/genre/1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListInstancesFilters(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc)

	url := "/admin/catalog/bookinstance/?status=o&due_from=2024-01-01&due_to=2024-02-01&book_id=3&borrower_id=5"
	rec, _ := serve(t, router, httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	f := svc.lastFilter
	require.NotNil(t, f.Status)
	assert.Equal(t, StatusOnLoan, *f.Status)
	assert.Equal(t, "2024-01-01", f.DueFrom.String())
	assert.Equal(t, "2024-02-01", f.DueTo.String())
	assert.Equal(t, int64(3), *f.BookID)
	assert.Equal(t, int64(5), *f.BorrowerID)
	assert.Equal(t, Filters{Page: 1, PageSize: DefaultPageSize}, f.Filters)

	rec, body := serve(t, router, httptest.NewRequest(http.MethodGet, "/admin/catalog/bookinstance/?status=z&due_from=soon", nil))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := body["error"].(map[string]any)
	assert.Equal(t, invalidChoiceMessage, errs["status"])
	assert.Contains(t, errs, "due_from")
}

func TestUpdateInstanceToAvailableNeedsPermission(t *testing.T) {
	id := NewInstanceID()
	body := `{"imprint":"Ace","status":"a"}`

	tests := []struct {
		name string
		from LoanStatus
		user *identity.User
		code int
	}{
		{"staff without permission", StatusOnLoan, &identity.User{ID: 1, IsStaff: true}, http.StatusForbidden},
		{"staff with permission", StatusOnLoan, &identity.User{ID: 1, IsStaff: true, Permissions: []string{PermCanMarkReturned}}, http.StatusOK},
		{"already available", StatusAvailable, &identity.User{ID: 1, IsStaff: true}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{instance: &BookInstance{ID: id, Imprint: "Ace", Status: tt.from}}
			router := newTestRouter(svc)

			req := httptest.NewRequest(http.MethodPut, "/admin/catalog/bookinstance/"+id.String(), strings.NewReader(body))
			req = req.WithContext(identity.WithUser(req.Context(), tt.user))
			rec, _ := serve(t, router, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestUpdateInstanceOtherStatusNeedsNoPermission(t *testing.T) {
	id := NewInstanceID()
	svc := &fakeService{instance: &BookInstance{ID: id, Imprint: "Ace", Status: StatusAvailable}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/admin/catalog/bookinstance/"+id.String(), strings.NewReader(`{"imprint":"Ace","status":"r"}`))
	req = req.WithContext(identity.WithUser(req.Context(), &identity.User{ID: 1, IsStaff: true}))
	rec, body := serve(t, router, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusReserved, svc.lastInstance.Status)
	assert.Equal(t, "Reserved", body["bookinstance"].(map[string]any)["status_label"])
}

func TestBookDetailHandler(t *testing.T) {
	authorID := int64(2)
	svc := &fakeService{
		book: &Book{
			ID: 1, Title: "Dune", AuthorID: &authorID,
			Author: &Author{ID: 2, FirstName: "Frank", LastName: "Herbert"},
			Genres: []Genre{{ID: 1, Name: "Science Fiction"}, {ID: 2, Name: "Adventure"}},
		},
		instances: []*BookInstance{{ID: NewInstanceID(), Imprint: "Ace", Status: StatusAvailable}},
	}
	router := newTestRouter(svc)

	rec, body := serve(t, router, httptest.NewRequest(http.MethodGet, "/catalog/book/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	book := body["book"].(map[string]any)
	assert.Equal(t, "Science Fiction, Adventure", book["display_genre"])
	assert.Equal(t, "/catalog/book/1", book["url"])
	assert.Len(t, body["bookinstances"], 1)

	rec, _ = serve(t, router, httptest.NewRequest(http.MethodGet, "/catalog/book/2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminConfigHandler(t *testing.T) {
	router := newTestRouter(&fakeService{})

	rec, body := serve(t, router, httptest.NewRequest(http.MethodGet, "/admin/config/author", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	labels := body["column_labels"].(map[string]any)
	assert.Equal(t, "Died", labels["date_of_death"])

	rec, _ = serve(t, router, httptest.NewRequest(http.MethodGet, "/admin/config/patron", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = serve(t, router, httptest.NewRequest(http.MethodGet, "/admin/choices", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["status"], 4)
}
