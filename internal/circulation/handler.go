// internal/circulation/handler.go
package circulation

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"locallibrary/internal/catalog"
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

// Routes mounts the loan endpoints. Borrowers see their own loans;
// librarian actions need a staff account.
func (h *Handler) Routes(r chi.Router) {
	r.With(identity.RequireUser(h.rs)).Get("/mybooks", h.handleMyBooks)

	r.Group(func(r chi.Router) {
		r.Use(identity.RequireStaff(h.rs))
		r.Get("/borrowed", h.handleAllBorrowed)
		r.Post("/instances/{id}/checkout", h.handleCheckOut)
		r.Post("/instances/{id}/renew", h.handleRenew)
		r.Post("/instances/{id}/return", h.handleReturn)
	})
}

func (h *Handler) handleMyBooks(w http.ResponseWriter, r *http.Request) {
	f, ok := h.readPage(w, r)
	if !ok {
		return
	}
	user := identity.UserFromContext(r.Context())
	loans, meta, err := h.service.BorrowedBy(r.Context(), user.ID, f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, httpx.Envelope{"loans": loans, "metadata": meta})
}

func (h *Handler) handleAllBorrowed(w http.ResponseWriter, r *http.Request) {
	if !identity.UserFromContext(r.Context()).HasPerm(catalog.PermCanMarkReturned) {
		h.rs.Forbidden(w, r)
		return
	}
	f, ok := h.readPage(w, r)
	if !ok {
		return
	}
	loans, meta, err := h.service.AllBorrowed(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, httpx.Envelope{"loans": loans, "metadata": meta})
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readUUID(w, r)
	if !ok {
		return
	}
	var req struct {
		BorrowerID int64         `json:"borrower_id"`
		DueBack    *catalog.Date `json:"due_back"`
	}
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.rs.BadInput(w, r, err)
		return
	}
	if req.DueBack == nil || req.DueBack.IsZero() {
		h.rs.FailedValidation(w, r, map[string]string{"due_back": "must be provided"})
		return
	}

	bi, err := h.service.CheckOut(r.Context(), id, req.BorrowerID, *req.DueBack)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, httpx.Envelope{catalog.EntityBookInstance: bi})
}

func (h *Handler) handleRenew(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readUUID(w, r)
	if !ok {
		return
	}
	var req struct {
		DueBack *catalog.Date `json:"due_back"`
	}
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.rs.BadInput(w, r, err)
		return
	}
	if req.DueBack == nil || req.DueBack.IsZero() {
		h.rs.FailedValidation(w, r, map[string]string{"due_back": "must be provided"})
		return
	}

	bi, err := h.service.Renew(r.Context(), id, *req.DueBack)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, httpx.Envelope{catalog.EntityBookInstance: bi})
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readUUID(w, r)
	if !ok {
		return
	}
	bi, err := h.service.MarkReturned(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, httpx.Envelope{catalog.EntityBookInstance: bi})
}

func (h *Handler) readPage(w http.ResponseWriter, r *http.Request) (catalog.Filters, bool) {
	f, err := catalog.ParseFilters(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return catalog.Filters{}, false
	}
	return f, true
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

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *catalog.ValidationError
	switch {
	case errors.Is(err, ErrRenewalInPast), errors.Is(err, ErrRenewalTooFar):
		h.rs.FailedValidation(w, r, map[string]string{"due_back": err.Error()})
	case errors.Is(err, ErrBorrowerRequired):
		h.rs.FailedValidation(w, r, map[string]string{"borrower_id": err.Error()})
	case errors.As(err, &validation):
		h.rs.FailedValidation(w, r, validation.Errors)
	case errors.Is(err, ErrNotAvailable), errors.Is(err, ErrNotOnLoan):
		h.rs.Conflict(w, r, err.Error())
	case errors.Is(err, ErrPermissionDenied):
		h.rs.Forbidden(w, r)
	case errors.Is(err, catalog.ErrRecordNotFound):
		h.rs.NotFound(w, r)
	default:
		h.rs.ServerError(w, r, err)
	}
}
