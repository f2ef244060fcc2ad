package apperr

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error categories the HTTP layer knows how to map.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthenticationRequired
	KindForbidden
	KindValidation
	KindNotFound
	KindConflict
	KindExternal
)

// ExternalReason subdivides AI provider failures. QuotaExceeded and Timeout
// drive different submission-status outcomes than generic failures.
type ExternalReason int

const (
	ExternalOther ExternalReason = iota
	ExternalQuotaExceeded
	ExternalTimeout
	ExternalMalformedResponse
)

type Error struct {
	Kind    Kind
	Reason  ExternalReason
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func AuthenticationRequired(message string) *Error {
	return &Error{Kind: KindAuthenticationRequired, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func ValidationFields(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func External(reason ExternalReason, message string, err error) *Error {
	return &Error{Kind: KindExternal, Reason: reason, Message: message, Err: err}
}

func QuotaExceeded(err error) *Error {
	return External(ExternalQuotaExceeded, "AI provider quota exceeded, try again later", err)
}

func Timeout(message string) *Error {
	return External(ExternalTimeout, message, nil)
}

func MalformedResponse(message string, err error) *Error {
	return External(ExternalMalformedResponse, message, err)
}

// KindOf returns the category of err, or KindUnknown for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func ReasonOf(err error) ExternalReason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ExternalOther
}

func IsTimeout(err error) bool {
	return KindOf(err) == KindExternal && ReasonOf(err) == ExternalTimeout
}

func IsQuotaExceeded(err error) bool {
	return KindOf(err) == KindExternal && ReasonOf(err) == ExternalQuotaExceeded
}
