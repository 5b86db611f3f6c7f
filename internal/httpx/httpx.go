// internal/httpx/httpx.go

// Package httpx holds the JSON request and response helpers shared by the
// HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"locallibrary/internal/platform/logger"
)

// Envelope is the top-level JSON object of every response, e.g.
// {"book": {...}} or {"books": [...], "metadata": {...}}.
type Envelope map[string]any

const maxBodyBytes = 1_048_576

// FieldError reports a body value that could not be decoded into the field
// it was sent for. Field is the dotted JSON path, e.g. "date_of_birth".
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("body contains an invalid value for field %q: %s", e.Field, e.Message)
}

// fieldMessager is implemented by field types that describe their own
// expected format.
type fieldMessager interface {
	FieldMessage() string
}

func expected(t reflect.Type) string {
	if t == nil {
		return "is invalid"
	}
	if m, ok := reflect.Zero(t).Interface().(fieldMessager); ok {
		return m.FieldMessage()
	}
	switch t.Kind() {
	case reflect.String:
		return "must be a string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "must be an integer value"
	case reflect.Float32, reflect.Float64:
		return "must be a number"
	case reflect.Bool:
		return "must be true or false"
	case reflect.Slice, reflect.Array:
		return "must be a list"
	default:
		return "is invalid"
	}
}

// WriteJSON writes data with the given status and any extra headers.
func WriteJSON(w http.ResponseWriter, status int, data Envelope, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// ReadJSON decodes a single JSON value from the request body into dst. The
// body is capped at 1MB and unknown fields are rejected.
func ReadJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return &FieldError{Field: unmarshalTypeError.Field, Message: expected(unmarshalTypeError.Type)}
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

// Responder writes JSON error responses and logs server-side failures.
type Responder struct {
	Log *logger.Logger
}

func (rs Responder) logError(r *http.Request, err error) {
	rs.Log.Error(err.Error(), "request_method", r.Method, "request_url", r.URL.String())
}

// ErrorResponse sends a JSON error envelope with the given status.
func (rs Responder) ErrorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	if err := WriteJSON(w, status, Envelope{"error": message}, nil); err != nil {
		rs.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// ServerError logs err and sends a generic 500 without internal details.
func (rs Responder) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	rs.logError(r, err)
	rs.ErrorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func (rs Responder) NotFound(w http.ResponseWriter, r *http.Request) {
	rs.ErrorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

func (rs Responder) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	rs.ErrorResponse(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("the %s method is not supported for this resource", r.Method))
}

func (rs Responder) BadRequest(w http.ResponseWriter, r *http.Request, err error) {
	rs.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
}

// FailedValidation sends a 422 with the field-level messages.
func (rs Responder) FailedValidation(w http.ResponseWriter, r *http.Request, errs map[string]string) {
	rs.ErrorResponse(w, r, http.StatusUnprocessableEntity, errs)
}

// BadInput answers a ReadJSON failure: 422 naming the field for a
// *FieldError, 400 otherwise.
func (rs Responder) BadInput(w http.ResponseWriter, r *http.Request, err error) {
	var fe *FieldError
	if errors.As(err, &fe) {
		rs.FailedValidation(w, r, map[string]string{fe.Field: fe.Message})
		return
	}
	rs.BadRequest(w, r, err)
}

func (rs Responder) Conflict(w http.ResponseWriter, r *http.Request, message string) {
	rs.ErrorResponse(w, r, http.StatusConflict, message)
}

func (rs Responder) Unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="locallibrary", charset="UTF-8"`)
	rs.ErrorResponse(w, r, http.StatusUnauthorized, "invalid or missing authentication credentials")
}

func (rs Responder) Forbidden(w http.ResponseWriter, r *http.Request) {
	rs.ErrorResponse(w, r, http.StatusForbidden, "your user account doesn't have the necessary permissions to access this resource")
}

func (rs Responder) RateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	rs.ErrorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded")
}
