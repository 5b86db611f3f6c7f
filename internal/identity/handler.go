// internal/identity/handler.go
package identity

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"locallibrary/internal/httpx"
)

type Handler struct {
	service Service
	rs      httpx.Responder
}

func NewHandler(service Service, rs httpx.Responder) *Handler {
	return &Handler{service: service, rs: rs}
}

// Routes mounts user administration. Callers wrap it in RequireStaff.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/users", h.handleCreateUser)
	r.Get("/users/{id}", h.handleGetUser)
	r.Delete("/users/{id}", h.handleDeleteUser)
	r.Post("/users/{id}/permissions", h.handleGrantPermission)
}

// HandleMe returns the authenticated user.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		h.rs.Unauthorized(w, r)
		return
	}
	if err := httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{"user": user}, nil); err != nil {
		h.rs.ServerError(w, r, err)
	}
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		IsStaff  bool   `json:"is_staff"`
	}
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.rs.BadInput(w, r, err)
		return
	}

	user, err := h.service.CreateUser(r.Context(), req.Username, req.Password, req.IsStaff)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidUser):
			h.rs.FailedValidation(w, r, map[string]string{"username": err.Error()})
		case errors.Is(err, ErrUsernameTaken):
			h.rs.Conflict(w, r, err.Error())
		default:
			h.rs.ServerError(w, r, err)
		}
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, httpx.Envelope{"user": user}, nil); err != nil {
		h.rs.ServerError(w, r, err)
	}
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readID(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.writeUserError(w, r, err)
		return
	}
	if err := httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{"user": user}, nil); err != nil {
		h.rs.ServerError(w, r, err)
	}
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.writeUserError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGrantPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.readID(w, r)
	if !ok {
		return
	}
	var req struct {
		Codename string `json:"codename"`
	}
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		h.rs.BadInput(w, r, err)
		return
	}
	if req.Codename == "" {
		h.rs.FailedValidation(w, r, map[string]string{"codename": "must be provided"})
		return
	}
	if err := h.service.GrantPermission(r.Context(), id, req.Codename); err != nil {
		h.writeUserError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) readID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		h.rs.BadRequest(w, r, errors.New("invalid id parameter"))
		return 0, false
	}
	return id, true
}

func (h *Handler) writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrUserNotFound) {
		h.rs.NotFound(w, r)
		return
	}
	h.rs.ServerError(w, r, err)
}
