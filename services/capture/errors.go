// Copyright 2025 WLANProbe Contributors
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

package capture

import (
	"errors"
	"fmt"
)

// ErrorKind classifies session failures so callers can map them to
// transport-level responses
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	// ErrorKindInvalidParameters request rejected before any radio action
	ErrorKindInvalidParameters
	// ErrorKindInvalidState a capture was requested while one is active
	ErrorKindInvalidState
	// ErrorKindRadioConfig channel or mode switch failed, fatal, not retried
	ErrorKindRadioConfig
	// ErrorKindSinkCreate the capture file could not be opened
	ErrorKindSinkCreate
	// ErrorKindSinkWrite a record could not be written in full
	ErrorKindSinkWrite
)

// CaptureError terminal result of a failed session
type CaptureError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *CaptureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// Kind extracts the classification from any error returned by a session
func Kind(err error) ErrorKind {
	var ce *CaptureError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ErrorKindUnknown
}

func newError(kind ErrorKind, op string, err error) *CaptureError {
	return &CaptureError{Kind: kind, Op: op, Err: err}
}
