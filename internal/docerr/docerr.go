// Package docerr holds the two error kinds every decoder reports.
//
// A format error means the input is corrupt or not what it claims to be;
// an unsupported error means the input is well formed but uses a feature
// this module does not handle (encryption, an unknown container).
package docerr

import (
	"errors"
	"fmt"
)

var (
	ErrorFormat      = errors.New("malformed document")
	ErrorUnsupported = errors.New("unsupported document")
)

// Formatf returns an error wrapping ErrorFormat.
func Formatf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrorFormat)...)
}

// Unsupportedf returns an error wrapping ErrorUnsupported.
func Unsupportedf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrorUnsupported)...)
}

func IsFormat(err error) bool {
	return errors.Is(err, ErrorFormat)
}

func IsUnsupported(err error) bool {
	return errors.Is(err, ErrorUnsupported)
}
