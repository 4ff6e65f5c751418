package newfs

import (
	"fmt"
	"syscall"
)

// DriverError wraps a POSIX errno code with an optional custom message and an
// optional wrapped cause, the way disko's driver layer reports failures.
type DriverError struct {
	ErrnoCode syscall.Errno
	message   string
	cause     error
}

// Error implements the `error` interface.
func (e *DriverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.ErrnoCode.Error()
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause, if any.
func (e *DriverError) Unwrap() error {
	return e.cause
}

// Is reports whether target is the same errno class as e. This lets callers
// write errors.Is(err, newfs.ErrNotFound) without caring about the message
// or wrapped cause attached along the way.
func (e *DriverError) Is(target error) bool {
	other, ok := target.(*DriverError)
	if !ok {
		return false
	}
	return e.ErrnoCode == other.ErrnoCode
}

// NewDriverError creates a DriverError with a default message derived from
// the errno code alone.
func NewDriverError(code syscall.Errno) *DriverError {
	return &DriverError{ErrnoCode: code, message: code.Error()}
}

// NewDriverErrorWithMessage creates a DriverError with a custom message,
// prefixed by the errno's standard text.
func NewDriverErrorWithMessage(code syscall.Errno, message string) *DriverError {
	return &DriverError{
		ErrnoCode: code,
		message:   fmt.Sprintf("%s: %s", code.Error(), message),
	}
}

// WithMessage returns a copy of e carrying an additional message suffix.
func (e *DriverError) WithMessage(message string) *DriverError {
	return &DriverError{
		ErrnoCode: e.ErrnoCode,
		message:   fmt.Sprintf("%s: %s", e.Error(), message),
		cause:     e,
	}
}

// Wrap returns a copy of e that also reports cause via Unwrap/errors.Is.
func (e *DriverError) Wrap(cause error) *DriverError {
	return &DriverError{
		ErrnoCode: e.ErrnoCode,
		message:   fmt.Sprintf("%s: %s", e.Error(), cause.Error()),
		cause:     cause,
	}
}

// Sentinel errors, one per error kind in the operation taxonomy. Every
// operation in ops.go returns one of these (optionally dressed up with
// WithMessage), never a bare errno or a fmt.Errorf.
var (
	ErrNotFound    = NewDriverError(syscall.ENOENT)  // path component missing
	ErrExists      = NewDriverError(syscall.EEXIST)  // target already present
	ErrNotDir      = NewDriverError(syscall.ENOTDIR)  // expected a directory
	ErrIsDir       = NewDriverError(syscall.EISDIR)   // expected a regular file
	ErrNoSpace     = NewDriverError(syscall.ENOSPC)   // inode or data bitmap full
	ErrSeek        = NewDriverError(syscall.ESPIPE)   // offset beyond file size
	ErrIO          = NewDriverError(syscall.EIO)      // underlying driver call failed
	ErrInvalid     = NewDriverError(syscall.EINVAL)   // semantically illegal request
	ErrUnsupported = NewDriverError(syscall.ENXIO)    // descent through a regular file
	ErrAccess      = NewDriverError(syscall.EACCES)   // access-check refusal
)
