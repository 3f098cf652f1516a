package telegram

import (
	"errors"
	"strings"
)

type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.cause }

// redact masks secret in the text of err while keeping it unwrappable.
func redact(err error, secret string) error {
	if secret == "" || !strings.Contains(err.Error(), secret) {
		return err
	}
	msg := strings.ReplaceAll(err.Error(), secret, "<redacted>")
	cause := errors.Unwrap(err)
	if cause == nil {
		cause = err
	}
	return &redactedError{msg: msg, cause: cause}
}
