package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-storefront/internal/api"
	"github.com/goliatone/go-storefront/internal/cart"
	"github.com/goliatone/go-storefront/internal/editor"
	"github.com/goliatone/go-storefront/internal/layout"
	"github.com/goliatone/go-storefront/internal/render"
	"github.com/goliatone/go-storefront/internal/sections"
	schemavalidation "github.com/goliatone/go-storefront/internal/validation"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string                   `json:"error"`
	Message string                   `json:"message,omitempty"`
	Issues  []schemavalidation.Issue `json:"issues,omitempty"`
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.UseNumber()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	if errors.Is(err, editor.ErrTokenRequired) || errors.Is(err, api.ErrUnauthorized) ||
		goerrors.IsCategory(err, goerrors.CategoryAuth) {
		return http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: err.Error()}
	}

	if errors.Is(err, editor.ErrStoreForbidden) {
		return http.StatusForbidden, errorResponse{Error: "forbidden", Message: err.Error()}
	}

	if api.IsNotFound(err) ||
		errors.Is(err, layout.ErrSectionNotFound) ||
		errors.Is(err, editor.ErrTemplateNotFound) ||
		errors.Is(err, render.ErrSectionNotFound) ||
		errors.Is(err, cart.ErrLineNotFound) {
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()}
	}

	if errors.Is(err, layout.ErrDuplicateSectionID) || errors.Is(err, editor.ErrSessionLocked) ||
		goerrors.IsCategory(err, goerrors.CategoryConflict) {
		return http.StatusConflict, errorResponse{Error: "conflict", Message: err.Error()}
	}

	if errors.Is(err, schemavalidation.ErrSchemaValidation) ||
		errors.Is(err, editor.ErrInvalidDocument) ||
		errors.Is(err, sections.ErrUnknownKind) {
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
			Issues:  schemavalidation.Issues(err),
		}
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) ||
		errors.Is(err, editor.ErrInvalidPageType) ||
		errors.Is(err, editor.ErrStoreRequired) ||
		errors.Is(err, cart.ErrTokenRequired) ||
		goerrors.IsCategory(err, goerrors.CategoryValidation) {
		return http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()}
	}

	if goerrors.IsCategory(err, goerrors.CategoryExternal) {
		return http.StatusBadGateway, errorResponse{Error: "upstream_error", Message: err.Error()}
	}

	return http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: err.Error()}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func parseIntParam(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseID(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	return strconv.ParseInt(trimmed, 10, 64)
}

// wantsJSON reports whether the client asked for a JSON response rather
// than a page.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
