// Copyright 2026 The xorprobe Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors classifies errors raised while probing the host as either
// fatal to the run or retryable by the caller.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Class describes how a caller should react to an error.
type Class int

const (
	// Retryable errors come from noisy measurements and may go away when
	// the operation is repeated.
	Retryable Class = iota

	// Fatal errors indicate that the environment cannot support the run.
	Fatal
)

// String implements fmt.Stringer.String.
func (c Class) String() string {
	switch c {
	case Retryable:
		return "retryable"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Error is a classified error.
type Error struct {
	class Class
	err   error
}

// New wraps err with the given class. It returns nil if err is nil.
func New(class Class, err error) error {
	if err == nil {
		return nil
	}
	return &Error{class: class, err: err}
}

// Error implements error.Error.
func (e *Error) Error() string { return e.err.Error() }

// Unwrap returns the classified error.
func (e *Error) Unwrap() error { return e.err }

// Class returns the error class.
func (e *Error) Class() Class { return e.class }

// NewFatal marks err as fatal.
func NewFatal(err error) error {
	return New(Fatal, err)
}

// Fatalf formats a fatal error. %w verbs are honored.
func Fatalf(format string, args ...any) error {
	return New(Fatal, fmt.Errorf(format, args...))
}

// NewRetryable marks err as retryable.
func NewRetryable(err error) error {
	return New(Retryable, err)
}

// Retryablef formats a retryable error. %w verbs are honored.
func Retryablef(format string, args ...any) error {
	return New(Retryable, fmt.Errorf(format, args...))
}

func classOf(err error) (Class, bool) {
	var e *Error
	if !stderrors.As(err, &e) {
		return 0, false
	}
	return e.class, true
}

// IsFatal returns true if the outermost classified error in err's chain is
// fatal.
func IsFatal(err error) bool {
	c, ok := classOf(err)
	return ok && c == Fatal
}

// IsRetryable returns true if the outermost classified error in err's chain
// is retryable.
func IsRetryable(err error) bool {
	c, ok := classOf(err)
	return ok && c == Retryable
}

// Is is errors.Is.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As is errors.As.
func As(err error, target any) bool { return stderrors.As(err, target) }
