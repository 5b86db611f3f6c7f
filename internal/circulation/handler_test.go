// internal/circulation/handler_test.go
package circulation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locallibrary/internal/catalog"
	"locallibrary/internal/httpx"
	"locallibrary/internal/identity"
	"locallibrary/internal/platform/logger"
)

func newTestRouter(c *fakeCatalog) http.Handler {
	h := NewHandler(newTestService(c), httpx.Responder{Log: logger.Nop()})
	r := chi.NewRouter()
	r.Route("/circulation", h.Routes)
	return r
}

func do(t *testing.T, router http.Handler, ctx context.Context, method, target, body string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req.WithContext(ctx))

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func TestRoutesRequireAuthentication(t *testing.T) {
	router := newTestRouter(newFakeCatalog())
	anon := context.Background()
	reader := identity.WithUser(anon, &identity.User{ID: 3})

	code, _ := do(t, router, anon, http.MethodGet, "/circulation/mybooks", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, router, reader, http.MethodGet, "/circulation/mybooks", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, router, reader, http.MethodGet, "/circulation/borrowed", "")
	assert.Equal(t, http.StatusForbidden, code)

	staff := identity.WithUser(anon, &identity.User{ID: 2, IsStaff: true})
	code, _ = do(t, router, staff, http.MethodGet, "/circulation/borrowed", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = do(t, router, librarianContext(), http.MethodGet, "/circulation/borrowed?page=1&page_size=5", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestCheckOutHandler(t *testing.T) {
	bi := instance(catalog.StatusAvailable)
	c := newFakeCatalog(bi)
	router := newTestRouter(c)
	ctx := librarianContext()
	target := "/circulation/instances/" + bi.ID.String() + "/checkout"

	code, body := do(t, router, ctx, http.MethodPost, target, `{"borrower_id":5,"due_back":"2024-03-31"}`)
	require.Equal(t, http.StatusOK, code)
	got := body[catalog.EntityBookInstance].(map[string]any)
	assert.Equal(t, "o", got["status"])
	assert.Equal(t, "2024-03-31", got["due_back"])

	code, _ = do(t, router, ctx, http.MethodPost, target, `{"borrower_id":6,"due_back":"2024-03-31"}`)
	assert.Equal(t, http.StatusConflict, code)
}

func TestCheckOutHandlerRejectsBadInput(t *testing.T) {
	bi := instance(catalog.StatusAvailable)
	c := newFakeCatalog(bi)
	router := newTestRouter(c)
	target := "/circulation/instances/" + bi.ID.String() + "/checkout"

	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"blank due date", `{"borrower_id":5,"due_back":""}`, "due_back", "must be provided"},
		{"borrower as string", `{"borrower_id":"five","due_back":"2024-03-31"}`, "borrower_id", "must be an integer value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, router, librarianContext(), http.MethodPost, target, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, code)
			assert.Equal(t, tt.msg, body["error"].(map[string]any)[tt.field])
		})
	}
	assert.Equal(t, catalog.StatusAvailable, c.instances[bi.ID].Status)
}

func TestListHandlersValidatePaging(t *testing.T) {
	router := newTestRouter(newFakeCatalog())
	reader := identity.WithUser(context.Background(), &identity.User{ID: 3})

	tests := []struct {
		name  string
		ctx   context.Context
		query string
		field string
		msg   string
	}{
		{"page size above maximum", reader, "/circulation/mybooks?page_size=500", "page_size", "must be between 1 and 100"},
		{"page size zero", librarianContext(), "/circulation/borrowed?page_size=0", "page_size", "must be between 1 and 100"},
		{"negative page", reader, "/circulation/mybooks?page=-1", "page", "must be greater than zero"},
		{"page not a number", reader, "/circulation/mybooks?page=two", "page", "must be an integer value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, router, tt.ctx, http.MethodGet, tt.query, "")
			require.Equal(t, http.StatusUnprocessableEntity, code)
			assert.Equal(t, tt.msg, body["error"].(map[string]any)[tt.field])
		})
	}
}

func TestRenewHandlerValidatesDate(t *testing.T) {
	bi := instance(catalog.StatusOnLoan)
	router := newTestRouter(newFakeCatalog(bi))
	ctx := librarianContext()
	target := "/circulation/instances/" + bi.ID.String() + "/renew"

	tests := []struct {
		name string
		body string
		code int
		msg  string
	}{
		{"past", `{"due_back":"2024-03-09"}`, http.StatusUnprocessableEntity, ErrRenewalInPast.Error()},
		{"too far", `{"due_back":"2024-04-08"}`, http.StatusUnprocessableEntity, ErrRenewalTooFar.Error()},
		{"missing", `{}`, http.StatusUnprocessableEntity, "must be provided"},
		{"blank", `{"due_back":""}`, http.StatusUnprocessableEntity, "must be provided"},
		{"malformed", `{"due_back":"2024-02-30"}`, http.StatusUnprocessableEntity, "must be a date in YYYY-MM-DD format"},
		{"last allowed day", `{"due_back":"2024-04-07"}`, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, router, ctx, http.MethodPost, target, tt.body)
			require.Equal(t, tt.code, code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, body["error"].(map[string]any)["due_back"])
			}
		})
	}
}

func TestReturnHandler(t *testing.T) {
	bi := instance(catalog.StatusOnLoan)
	router := newTestRouter(newFakeCatalog(bi))
	target := "/circulation/instances/" + bi.ID.String() + "/return"

	staff := identity.WithUser(context.Background(), &identity.User{ID: 2, IsStaff: true})
	code, _ := do(t, router, staff, http.MethodPost, target, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, body := do(t, router, librarianContext(), http.MethodPost, target, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "a", body[catalog.EntityBookInstance].(map[string]any)["status"])

	code, _ = do(t, router, librarianContext(), http.MethodPost, "/circulation/instances/not-a-uuid/return", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, router, librarianContext(), http.MethodPost, "/circulation/instances/"+catalog.NewInstanceID().String()+"/return", "")
	assert.Equal(t, http.StatusNotFound, code)
}
