package splunkd

import (
	"fmt"

	"github.com/pkg/errors"
)

// FormatError indicates that a server response did not have the shape the
// feed parser or a converter expected. It is fatal to the surrounding parse:
// the caller must discard any partially built Feed or Entry.
type FormatError struct {
	msg string
}

func (e *FormatError) Error() string { return e.msg }

func formatErrorf(format string, args ...interface{}) *FormatError {
	return &FormatError{msg: fmt.Sprintf(format, args...)}
}

// IsFormatError reports whether err (or its cause) is a FormatError.
func IsFormatError(err error) bool {
	_, ok := errors.Cause(err).(*FormatError)
	return ok
}

// ConfigError indicates a misdeclared parameter holder type, e.g. a field
// missing its wire name or ordering key. It is raised the first time a holder
// type is registered, never per instance.
type ConfigError struct {
	Type  string
	Field string
	msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("parameter holder %v, field %v: %v", e.Type, e.Field, e.msg)
}

// IsConfigError reports whether err (or its cause) is a ConfigError.
func IsConfigError(err error) bool {
	_, ok := errors.Cause(err).(*ConfigError)
	return ok
}

// MissingParamError is returned by Enumerate when a required parameter field
// is unset on the holder instance.
type MissingParamError struct {
	Param string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("required parameter '%v' is not set", e.Param)
}

// IsMissingParamError reports whether err (or its cause) is a
// MissingParamError.
func IsMissingParamError(err error) bool {
	_, ok := errors.Cause(err).(*MissingParamError)
	return ok
}
