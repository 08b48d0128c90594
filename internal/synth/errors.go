// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package synth

import (
	"errors"
	"fmt"
)

// SynthesisError reports a malformed field in the spec of one kind.
type SynthesisError struct {
	Kind  string
	Field string
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("failed to synthesize %s: field %q: %v", e.Kind, e.Field, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// ValidationError reports a structurally valid field whose value breaks a
// rule, such as a probe declaring more than one mechanism.
type ValidationError struct {
	Kind   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: field %q: %s", e.Kind, e.Field, e.Reason)
}

// IsSynthesisError reports whether err is or wraps a SynthesisError or a
// ValidationError.
func IsSynthesisError(err error) bool {
	var serr *SynthesisError
	var verr *ValidationError
	return errors.As(err, &serr) || errors.As(err, &verr)
}

func fieldError(kind, field string, format string, args ...interface{}) error {
	return &SynthesisError{Kind: kind, Field: field, Err: fmt.Errorf(format, args...)}
}
