// Package errors defines the domain error taxonomy shared by services and
// handlers. Every DomainError carries a Kind that decides its HTTP status and a
// stable Code that callers match with errors.Is.
package errors

import (
	goerrors "errors"
	"net/http"
	"strings"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindGateway      Kind = "gateway"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInternal     Kind = "internal"
)

type DomainError struct {
	Kind    Kind     `json:"-"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
	Err     error    `json:"-"`
}

func New(kind Kind, code, message string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message}
}

func (e *DomainError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches on Code so that enriched copies still match their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithFields returns a copy of e listing the offending input fields.
func (e *DomainError) WithFields(fields ...string) *DomainError {
	cp := *e
	cp.Fields = append([]string(nil), fields...)
	return &cp
}

// WithMessage returns a copy of e with a caller-facing message.
func (e *DomainError) WithMessage(message string) *DomainError {
	cp := *e
	cp.Message = message
	return &cp
}

// Wrap returns a copy of e wrapping cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	cp := *e
	cp.Err = cause
	return &cp
}

func (e *DomainError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindGateway:
		return http.StatusBadGateway
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// As extracts the first DomainError in err's chain.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if goerrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf reports the kind of err, KindInternal for anything that is not a
// DomainError.
func KindOf(err error) Kind {
	if de, ok := As(err); ok {
		return de.Kind
	}
	return KindInternal
}

// Gateway builds a gateway error that keeps the provider's message verbatim.
func Gateway(message string, cause error) *DomainError {
	if message == "" {
		message = ErrGateway.Message
	}
	return ErrGateway.WithMessage(message).Wrap(cause)
}

var (
	ErrUnauthorized = New(KindUnauthorized, "UNAUTHORIZED", "unauthorized")
	ErrForbidden    = New(KindForbidden, "FORBIDDEN", "insufficient permissions")
	ErrGateway      = New(KindGateway, "GATEWAY_ERROR", "payment gateway request failed")

	// ErrDuplicateRecord is returned by repositories when a unique constraint
	// rejects an insert.
	ErrDuplicateRecord = New(KindConflict, "DUPLICATE_RECORD", "record already exists")
)
