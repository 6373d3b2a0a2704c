// internal/app/features/errors/errors.go
//
// Package errors maps domain errors onto JSON error responses. Every
// feature's writeError funnels through ErrorLogger.Write so status codes
// stay consistent across the API.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	documentstore "github.com/dalemusser/preemhub/internal/app/store/documents"
	hierarchystore "github.com/dalemusser/preemhub/internal/app/store/hierarchy"
	"github.com/dalemusser/preemhub/internal/app/system/auth"
	"github.com/dalemusser/preemhub/internal/app/system/docpath"
	"github.com/dalemusser/preemhub/internal/app/system/ledger"
	"github.com/dalemusser/preemhub/internal/app/system/tree"
	"github.com/dalemusser/preemhub/internal/app/system/urlrewrite"
	"go.uber.org/zap"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// ErrBadRequest is matched by malformed request bodies and parameters.
var ErrBadRequest = stderrors.New("bad request")

// BadRequestError carries a user-facing message for a malformed request.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string { return "bad request: " + e.Message }

func (e *BadRequestError) Is(target error) bool { return target == ErrBadRequest }

// BadRequest builds a *BadRequestError.
func BadRequest(format string, args ...any) error {
	return &BadRequestError{Message: fmt.Sprintf(format, args...)}
}

// Body is the JSON shape of every error response.
type Body struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Classify maps err to an HTTP status and response body.
func Classify(err error) (int, Body) {
	var (
		verr *hierarchystore.ValidationError
		derr *hierarchystore.DateRangeError
		berr *BadRequestError
	)
	switch {
	case stderrors.As(err, &berr):
		return http.StatusBadRequest, Body{Error: "bad_request", Message: berr.Message}
	case stderrors.Is(err, docpath.ErrInvalidPath):
		return http.StatusBadRequest, Body{Error: "invalid_path", Message: "The path is not a valid document path."}
	case stderrors.Is(err, urlrewrite.ErrInvalidURL):
		return http.StatusBadRequest, Body{Error: "invalid_url", Message: "The url could not be parsed."}
	case stderrors.As(err, &verr):
		return http.StatusUnprocessableEntity, Body{Error: "validation", Message: verr.Message, Fields: verr.Fields}
	case stderrors.As(err, &derr):
		return http.StatusUnprocessableEntity, Body{Error: "date_range", Message: derr.Message}
	case stderrors.Is(err, ledger.ErrInvalidContribution):
		return http.StatusUnprocessableEntity, Body{Error: "validation", Message: "Amount must be a non-zero number."}
	case stderrors.Is(err, hierarchystore.ErrForbidden):
		return http.StatusForbidden, Body{Error: "forbidden", Message: "You don't have permission to change this."}
	case stderrors.Is(err, documentstore.ErrNotFound):
		return http.StatusNotFound, Body{Error: "not_found", Message: "Not found."}
	case stderrors.Is(err, documentstore.ErrDuplicate):
		return http.StatusConflict, Body{Error: "duplicate", Message: "That id is already taken."}
	case stderrors.Is(err, ledger.ErrInvariantViolation):
		return http.StatusConflict, Body{Error: "invariant_violation", Message: "This preem has already been awarded."}
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, Body{Error: "timeout", Message: "The request took too long."}
	case stderrors.Is(err, tree.ErrAssembly):
		return http.StatusInternalServerError, Body{Error: "internal", Message: "Could not load this page."}
	}
	return http.StatusInternalServerError, Body{Error: "internal", Message: "Something went wrong."}
}

// ErrorLogger writes error responses and logs the ones that are the
// server's fault.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// Write classifies err and writes it as JSON. 5xx responses are logged at
// error level with the request path; the error text never reaches the
// client.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, body := Classify(err)
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("method", r.Method),
		zap.String("url", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if u, ok := auth.CurrentUser(r); ok {
		fields = append(fields, zap.String("user_id", u.ID))
	}
	if status >= http.StatusInternalServerError {
		e.log.Error("request failed", fields...)
	} else {
		e.log.Debug("request rejected", fields...)
	}
	WriteJSON(w, status, body)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON reads a JSON body into v. Unknown fields and trailing data are
// rejected as bad requests.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return BadRequest("request body is empty")
		}
		return BadRequest("invalid JSON: %v", err)
	}
	if dec.More() {
		return BadRequest("request body must hold a single JSON object")
	}
	return nil
}

// Handler serves the fallback error endpoints the auth middleware
// redirects to.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden handles GET /forbidden.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusForbidden, Body{Error: "forbidden", Message: "You don't have permission to view this page."})
}

// Unauthorized handles GET /unauthorized.
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusUnauthorized, Body{Error: "unauthorized", Message: "Please sign in to continue."})
}

// NotFound handles unmatched routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, Body{Error: "not_found", Message: "Not found."})
}
