package storefront

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// maxErrorBody bounds how much of a rejected response body is kept for diagnostics.
const maxErrorBody = 500

var (
	ErrCsrfCookie       = errors.New("failed to get csrf cookie")
	ErrLoginFailed      = errors.New("login failed")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrUploadRejected   = errors.New("upload rejected")
)

// StatusError is returned whenever the storefront answers with a status the
// caller did not expect, Body is truncated to maxErrorBody bytes.
type StatusError struct {
	Op     string
	Status int
	Body   string
	kind   error
}

func newStatusError(kind error, op string, status int, body []byte) *StatusError {
	return &StatusError{
		Op:     op,
		Status: status,
		Body:   truncate(body, maxErrorBody),
		kind:   kind,
	}
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %s: %d", e.Op, e.kind, e.Status)
	}
	return fmt.Sprintf("%s: %s: %d - %s", e.Op, e.kind, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

// truncate cuts body to at most max bytes without splitting a utf-8 sequence.
func truncate(body []byte, max int) string {
	if len(body) <= max {
		return string(body)
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut])
}
