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

package errors

import (
	"fmt"
	"io"
	"testing"
)

func TestClassification(t *testing.T) {
	for _, test := range []struct {
		name      string
		err       error
		fatal     bool
		retryable bool
	}{
		{"plain", io.EOF, false, false},
		{"fatal", Fatalf("page not present"), true, false},
		{"retryable", Retryablef("no separation"), false, true},
		{"wrapped fatal", fmt.Errorf("translate: %w", NewFatal(io.ErrUnexpectedEOF)), true, false},
		{"wrapped retryable", fmt.Errorf("attempt 3: %w", NewRetryable(io.EOF)), false, true},
	} {
		t.Run(test.name, func(t *testing.T) {
			if got := IsFatal(test.err); got != test.fatal {
				t.Errorf("IsFatal(%v) = %t, wanted %t", test.err, got, test.fatal)
			}
			if got := IsRetryable(test.err); got != test.retryable {
				t.Errorf("IsRetryable(%v) = %t, wanted %t", test.err, got, test.retryable)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := Fatalf("pread pagemap: %w", io.ErrUnexpectedEOF)
	if !Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Is(%v, ErrUnexpectedEOF) = false", err)
	}
	if got, want := err.Error(), "pread pagemap: unexpected EOF"; got != want {
		t.Errorf("Error() = %q, wanted %q", got, want)
	}
	if New(Fatal, nil) != nil {
		t.Errorf("New(Fatal, nil) != nil")
	}
}
