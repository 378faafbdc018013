package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	service "github.com/okian/rcscore/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrUnknownKind = errors.New("unknown reward kind")
)

// Wrap prefixes err with the handler operation.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// NewKind returns an error of the given kind for op.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind marks err with kind for op. Both stay reachable via errors.Is.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

func errQuoted(v string) error {
	return fmt.Errorf("invalid value %q", v)
}

// classify maps an error to a status code and an error code.
func classify(err error) (int, string) {
	var (
		maxBytes   *http.MaxBytesError
		validation validator.ValidationErrors
	)
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "body_too_large"
	case errors.Is(err, service.ErrRoundTooLarge):
		return http.StatusRequestEntityTooLarge, service.Reason(err)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.As(err, &validation), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrUnknownKind):
		return http.StatusNotFound, "not_found"
	}
	if reason := service.Reason(err); reason != "internal" && reason != "canceled" {
		return http.StatusBadRequest, reason
	}
	return http.StatusInternalServerError, "internal_error"
}
