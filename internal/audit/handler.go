// internal/audit/handler.go
package audit

import (
	"net/http"
	"strconv"

	"locallibrary/internal/httpx"
)

const maxRecent = 100

type Handler struct {
	log *Log
	rs  httpx.Responder
}

func NewHandler(log *Log, rs httpx.Responder) *Handler {
	return &Handler{log: log, rs: rs}
}

// HandleRecent lists the newest entries, optionally for one user_id, at most
// limit of them.
func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	errs := map[string]string{}

	var userID *int64
	if s := q.Get("user_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id < 1 {
			errs["user_id"] = "must be a positive integer"
		} else {
			userID = &id
		}
	}

	limit := 10
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxRecent {
			errs["limit"] = "must be between 1 and " + strconv.Itoa(maxRecent)
		} else {
			limit = n
		}
	}
	if len(errs) > 0 {
		h.rs.FailedValidation(w, r, errs)
		return
	}

	entries, err := h.log.Recent(r.Context(), userID, limit)
	if err != nil {
		h.rs.ServerError(w, r, err)
		return
	}
	if err := httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{"entries": entries}, nil); err != nil {
		h.rs.ServerError(w, r, err)
	}
}
