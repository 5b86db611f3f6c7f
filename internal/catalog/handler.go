// internal/catalog/handler.go
package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"locallibrary/internal/httpx"
	"locallibrary/internal/identity"
)

type Handler struct {
	service Service
	rs      httpx.Responder
}

func NewHandler(service Service, rs httpx.Responder) *Handler {
	return &Handler{service: service, rs: rs}
}

// resource binds the CRUD operations of an integer-keyed entity to the
// generic admin handlers.
type resource[T any, In any] struct {
	entity string
	plural string
	create func(context.Context, In) (T, error)
	get    func(context.Context, int64) (T, error)
	list   func(context.Context, Filters) ([]T, Metadata, error)
	update func(context.Context, int64, In) (T, error)
	delete func(context.Context, int64) error
	view   func(T) any
}

// AdminRoutes mounts the admin screens' data endpoints. Callers wrap it in
// identity.RequireStaff.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/config", h.handleConfigs)
	r.Get("/config/{entity}", h.handleConfig)
	r.Get("/choices", h.handleChoices)

	r.Route("/catalog", func(r chi.Router) {
		mount(r, h, resource[*Genre, GenreInput]{
			entity: EntityGenre, plural: "genres",
			create: h.service.CreateGenre, get: h.service.GetGenre, list: h.service.ListGenres,
			update: h.service.UpdateGenre, delete: h.service.DeleteGenre,
		})
		mount(r, h, resource[*Language, LanguageInput]{
			entity: EntityLanguage, plural: "languages",
			create: h.service.CreateLanguage, get: h.service.GetLanguage, list: h.service.ListLanguages,
			update: h.service.UpdateLanguage, delete: h.service.DeleteLanguage,
		})
		mount(r, h, resource[*Author, AuthorInput]{
			entity: EntityAuthor, plural: "authors",
			create: h.service.CreateAuthor, get: h.service.GetAuthor, list: h.service.ListAuthors,
			update: h.service.UpdateAuthor, delete: h.service.DeleteAuthor,
			view: func(a *Author) any { return authorView{Author: a, URL: a.AbsoluteURL()} },
		})
		mount(r, h, resource[*Book, BookInput]{
			entity: EntityBook, plural: "books",
			create: h.service.CreateBook, get: h.service.GetBook, list: h.service.ListBooks,
			update: h.service.UpdateBook, delete: h.service.DeleteBook,
			view: newBookView,
		})

		r.Route("/"+EntityBookInstance, func(r chi.Router) {
			r.Get("/", h.handleListInstances)
			r.Post("/", h.handleCreateInstance)
			r.Get("/{id}", h.handleGetInstance)
			r.Put("/{id}", h.handleUpdateInstance)
			r.Delete("/{id}", h.handleDeleteInstance)
		})
	})
}

// PublicRoutes mounts the detail pages that entity locators point at.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/book/{id}", h.handleBookDetail)
	r.Get("/author/{id}", h.handleAuthorDetail)
}

func mount[T any, In any](r chi.Router, h *Handler, res resource[T, In]) {
	if res.view == nil {
		res.view = func(v T) any { return v }
	}
	r.Route("/"+res.entity, func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			f, ok := h.readFilters(w, r)
			if !ok {
				return
			}
			items, meta, err := res.list(r.Context(), f)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			views := make([]any, 0, len(items))
			for _, it := range items {
				views = append(views, res.view(it))
			}
			h.writeJSON(w, r, http.StatusOK, httpx.Envelope{res.plural: views, "metadata": meta})
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var in In
			if err := httpx.ReadJSON(w, r, &in); err != nil {
				h.rs.BadInput(w, r, err)
				return
			}
			item, err := res.create(r.Context(), in)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			h.writeJSON(w, r, http.StatusCreated, httpx.Envelope{res.entity: res.view(item)})
		})

		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := h.readID(w, r)
			if !ok {
				return
			}
			item, err := res.get(r.Context(), id)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			h.writeJSON(w, r, http.StatusOK, httpx.Envelope{res.entity: res.view(item)})
		})

		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := h.readID(w, r)
			if !ok {
				return
			}
			var in In
			if err := httpx.ReadJSON(w, r, &in); err != nil {
				h.rs.BadInput(w, r, err)
				return
			}
			item, err := res.update(r.Context(), id, in)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			h.writeJSON(w, r, http.StatusOK, httpx.Envelope{res.entity: res.view(item)})
		})

		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := h.readID(w, r)
			if !ok {
				return
			}
			if err := res.delete(r.Context(), id); err != nil {
				h.writeError(w, r, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})
}

type authorView struct {
	*Author
	URL string `json:"url"`
}

type bookView struct {
	*Book
	DisplayGenre string `json:"display_genre"`
	URL          string `json:"url"`
}

func newBookView(b *Book) any {
	return bookView{Book: b, DisplayGenre: b.DisplayGenre(), URL: b.AbsoluteURL()}
}

type instanceView struct {
	*BookInstance
	Title       string `json:"title"`
	StatusLabel string `json:"status_label"`
}

func newInstanceView(bi *BookInstance) instanceView {
	return instanceView{BookInstance: bi, Title: bi.String(), StatusLabel: bi.Status.Label()}
}

func (h *Handler) handleConfigs(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, httpx.Envelope{"configs": AdminConfigs()})
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg, ok := AdminConfigFor(chi.URLParam(r, "entity"))
	if !ok {
		h.rs.NotFound(w, r)
		return
	}
	labels := make(map[string]string, len(cfg.ListDisplay))
	for _, f := range cfg.ListDisplay {
		labels[f] = ColumnLabel(f)
	}
	h.writeJSON(w, r, http.StatusOK, httpx.Envelope{"config": cfg, "column_labels": labels})
}

func (h *Handler) handleChoices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, httpx.Envelope{"status": LoanStatusChoices, "permissions": Permissions})
}

func (h *Handler) handleListInstances(w http.ResponseWriter, r *http.Request) {
	page, ok := h.readFilters(w, r)
	if !ok {
		return
	}
	f, err := parseInstanceFilter(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	f.Filters = page

	instances, meta, err := h.service.ListBookInstances(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]instanceView, 0, len(instances))
	for _, bi := range instances {
		views = append(views, newInstanceView(bi))
	}
	h.writeJSON(w, r, http.StatusOK, httpx.Envelope{"bookinstances": views, "metadata": meta})
}

func (h *Handler) handleCreateInstance(w http.ResponseWriter, r *http.Request) {
	var in BookInstanceInput
	if err := httpx.ReadJSON(w, r, &in); err != nil {
		h.rs.BadInput(w, r, err)
		return
	}
	bi, err := h.service.CreateBookInstance(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, httpx.Envelope{EntityBookInstance: newInstanceView(bi)})
}

func (h *Handler) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readUUID(w, r)
	if !ok {
		return
	}
	bi, err := h.service.GetBookInstance(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, httpx.Envelope{EntityBookInstance: newInstanceView(bi)})
}

// handleUpdateInstance replaces the copy's fields. Moving it to Available
// from any other status needs the mark-returned permission.
func (h *Handler) handleUpdateInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readUUID(w, r)
	if !ok {
		return
	}
	var in BookInstanceInput
	if err := httpx.ReadJSON(w, r, &in); err != nil {
		h.rs.BadInput(w, r, err)
		return
	}

	in.normalize()
	user := identity.UserFromContext(r.Context())
	bi, err := h.service.ModifyBookInstance(r.Context(), id, func(current *BookInstance) (BookInstanceInput, error) {
		if RequiresMarkReturned(current.Status, in.Status) && !user.HasPerm(PermCanMarkReturned) {
			return in, ErrMarkReturnedDenied
		}
		return in, nil
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, httpx.Envelope{EntityBookInstance: newInstanceView(bi)})
}

func (h *Handler) handleDeleteInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readUUID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteBookInstance(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBookDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readID(w, r)
	if !ok {
		return
	}
	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	instances, err := h.service.ListInstancesByBook(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]instanceView, 0, len(instances))
	for _, bi := range instances {
		views = append(views, newInstanceView(bi))
	}
	h.writeJSON(w, r, http.StatusOK, httpx.Envelope{"book": newBookView(book), "bookinstances": views})
}

func (h *Handler) handleAuthorDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readID(w, r)
	if !ok {
		return
	}
	author, err := h.service.GetAuthor(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	books, err := h.service.ListBooksByAuthor(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views := make([]any, 0, len(books))
	for _, b := range books {
		views = append(views, newBookView(b))
	}
	h.writeJSON(w, r, http.StatusOK, httpx.Envelope{
		"author": authorView{Author: author, URL: author.AbsoluteURL()},
		"books":  views,
	})
}

// parseInstanceFilter reads the list filters of the copy screen: status,
// due_from and due_to (the due_back range), book_id and borrower_id.
func parseInstanceFilter(q url.Values) (InstanceFilter, error) {
	var f InstanceFilter
	v := newValidationError()

	if s := q.Get("status"); s != "" {
		status, err := ParseLoanStatus(s)
		if err != nil {
			v.Add("status", invalidChoiceMessage)
		} else {
			f.Status = &status
		}
	}
	for _, p := range []struct {
		key string
		dst **Date
	}{{"due_from", &f.DueFrom}, {"due_to", &f.DueTo}} {
		if s := q.Get(p.key); s != "" {
			d, err := ParseDate(s)
			if err != nil {
				v.Add(p.key, dateFormatMessage)
				continue
			}
			*p.dst = &d
		}
	}
	for _, p := range []struct {
		key string
		dst **int64
	}{{"book_id", &f.BookID}, {"borrower_id", &f.BorrowerID}} {
		if s := q.Get(p.key); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil || id < 1 {
				v.Add(p.key, "must be a positive integer")
				continue
			}
			*p.dst = &id
		}
	}

	if len(v.Errors) > 0 {
		return InstanceFilter{}, v
	}
	return f, nil
}

func (h *Handler) readFilters(w http.ResponseWriter, r *http.Request) (Filters, bool) {
	f, err := ParseFilters(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return Filters{}, false
	}
	return f, true
}

func (h *Handler) readID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		h.rs.BadRequest(w, r, errors.New("invalid id parameter"))
		return 0, false
	}
	return id, true
}

func (h *Handler) readUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.rs.BadRequest(w, r, errors.New("invalid id parameter"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data httpx.Envelope) {
	if err := httpx.WriteJSON(w, status, data, nil); err != nil {
		h.rs.ServerError(w, r, err)
	}
}

// writeError maps service errors onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *ValidationError
	var violation *ConstraintViolation
	switch {
	case errors.As(err, &validation):
		h.rs.FailedValidation(w, r, validation.Errors)
	case errors.As(err, &violation):
		h.rs.Conflict(w, r, violation.Message)
	case errors.Is(err, ErrMarkReturnedDenied):
		h.rs.Forbidden(w, r)
	case errors.Is(err, ErrRecordNotFound):
		h.rs.NotFound(w, r)
	default:
		h.rs.ServerError(w, r, err)
	}
}
