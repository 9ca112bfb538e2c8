package api

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

var (
	// ErrNotFound is returned when the backend answers 404.
	ErrNotFound = errors.New("api: resource not found")
	// ErrUnexpectedStatus is returned for any other non-2xx answer.
	ErrUnexpectedStatus = errors.New("api: unexpected status")
	// ErrUnauthorized is returned when an admin or customer call has no token.
	ErrUnauthorized = errors.New("api: bearer token required")
)

const (
	apiNotFoundCode      = "API_NOT_FOUND"
	apiUpstreamErrorCode = "API_UPSTREAM_ERROR"
	apiUnavailableCode   = "API_UNAVAILABLE"
	apiDecodeFailedCode  = "API_DECODE_FAILED"
	apiUnauthorizedCode  = "API_UNAUTHORIZED"
)

// StatusError describes a non-2xx backend response.
type StatusError struct {
	Method   string
	Path     string
	Status   int
	Body     string
	Resource string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Failed to fetch %s: %d", e.Resource, e.Status)
}

func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return ErrUnexpectedStatus
}

// IsNotFound reports whether err came from a 404 response.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrNotFound) || goerrors.IsCategory(err, goerrors.CategoryNotFound)
}

func wrapStatusError(err *StatusError) error {
	if err.Status == http.StatusNotFound {
		return goerrors.Wrap(err, goerrors.CategoryNotFound, err.Error()).
			WithTextCode(apiNotFoundCode)
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, err.Error()).
		WithTextCode(apiUpstreamErrorCode)
}

func wrapTransportError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, "Failed to fetch "+resource).
		WithTextCode(apiUnavailableCode)
}

func wrapDecodeError(err error, resource string) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, "invalid "+resource+" response").
		WithTextCode(apiDecodeFailedCode)
}

func unauthorized(resource string) error {
	return goerrors.Wrap(ErrUnauthorized, goerrors.CategoryAuth, "Failed to fetch "+resource).
		WithTextCode(apiUnauthorizedCode)
}
