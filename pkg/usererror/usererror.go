// Package usererror attaches messages that are safe to show to end users.
// The message travels as an errors hint so it survives wrapping.
package usererror

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// New returns an error whose message is user safe.
func New(msg string) error {
	return errors.WithHint(errors.New(msg), msg)
}

// Newf is like New with formatting.
func Newf(format string, args ...any) error {
	err := errors.Newf(format, args...)
	return errors.WithHint(err, err.Error())
}

// Wrap annotates err with a user safe message while keeping the cause.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.WithHint(errors.Wrap(err, msg), msg)
}

// Message joins every user safe hint carried by err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	hints := errors.GetAllHints(err)
	return strings.Join(hints, " ")
}

// Is reports whether err carries a user safe message.
func Is(err error) bool {
	return err != nil && len(errors.GetAllHints(err)) > 0
}
