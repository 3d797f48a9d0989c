// Package apperr defines the error kinds the advisory engine reports to its
// callers. Every kind is recoverable; none of them should stop the process.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation            Kind = "validation"
	KindNotFound              Kind = "not_found"
	KindAlreadyAcknowledged   Kind = "already_acknowledged"
	KindIncompleteData        Kind = "incomplete_data"
	KindRecommendationTimeout Kind = "recommendation_timeout"
	KindUnknownField          Kind = "unknown_field"
)

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrValidation            = &Error{Kind: KindValidation}
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrAlreadyAcknowledged   = &Error{Kind: KindAlreadyAcknowledged}
	ErrIncompleteData        = &Error{Kind: KindIncompleteData}
	ErrRecommendationTimeout = &Error{Kind: KindRecommendationTimeout}
	ErrUnknownField          = &Error{Kind: KindUnknownField}
)

type Error struct {
	Kind  Kind
	Field string // offending input field, validation only
	Msg   string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return string(e.Kind)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func Validation(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func AlreadyAcknowledged(alertID string) *Error {
	return &Error{Kind: KindAlreadyAcknowledged, Msg: fmt.Sprintf("alert %s already acknowledged", alertID)}
}

func IncompleteData(fieldID uint) *Error {
	return &Error{Kind: KindIncompleteData, Msg: fmt.Sprintf("field %d has no soil snapshot yet", fieldID)}
}

func RecommendationTimeout(fieldID uint) *Error {
	return &Error{Kind: KindRecommendationTimeout, Msg: fmt.Sprintf("recommendation for field %d timed out", fieldID)}
}

func UnknownField(fieldID uint) *Error {
	return &Error{Kind: KindUnknownField, Msg: fmt.Sprintf("field %d not found", fieldID)}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HTTPStatus maps a kind to the status code the API answers with.
// Errors outside the taxonomy map to 500.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound, KindUnknownField:
		return http.StatusNotFound
	case KindAlreadyAcknowledged:
		return http.StatusConflict
	case KindIncompleteData:
		return http.StatusUnprocessableEntity
	case KindRecommendationTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
