// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
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

package tblive

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := getClassifyTestCases()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func getClassifyTestCases() []struct {
	err  error
	name string
	want ErrorClass
} {
	return []struct {
		err  error
		name string
		want ErrorClass
	}{
		{
			name: "nil error",
			err:  nil,
			want: ClassNone,
		},
		{
			name: "wrapped unsupported firmware",
			err:  fmt.Errorf("%w: 2.0.0", ErrUnsupportedFirmware),
			want: ClassUnsupportedFirmware,
		},
		{
			name: "receiver mismatch",
			err:  &MismatchError{Field: "receiver serial number", Got: "1", Want: "2"},
			want: ClassReceiverMismatch,
		},
		{
			name: "invalid frequency",
			err:  fmt.Errorf("%w: 99 kHz", ErrInvalidFrequency),
			want: ClassMalformed,
		},
		{
			name: "unknown frame",
			err:  ErrUnknownFrame,
			want: ClassMalformed,
		},
		{
			name: "any other error",
			err:  errors.New("boom"),
			want: ClassMalformed,
		},
	}
}

func TestProfileError(t *testing.T) {
	t.Parallel()

	err := &ProfileError{Field: "frequency", Value: uint8(90), Err: ErrInvalidFrequency}

	if !errors.Is(err, ErrInvalidReceiver) {
		t.Error("ProfileError should match ErrInvalidReceiver")
	}
	if !errors.Is(err, ErrInvalidFrequency) {
		t.Error("ProfileError should unwrap to its cause")
	}
	if errors.Is(err, ErrInvalidMode) {
		t.Error("ProfileError should not match unrelated errors")
	}

	msg := err.Error()
	for _, want := range []string{"invalid receiver profile", "frequency 90", "invalid frequency"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}

	var perr *ProfileError
	wrapped := fmt.Errorf("loading profile: %w", err)
	if !errors.As(wrapped, &perr) || perr.Field != "frequency" {
		t.Errorf("errors.As() did not find the ProfileError in %v", wrapped)
	}
}

func TestMismatchErrorWithoutCause(t *testing.T) {
	t.Parallel()

	err := &MismatchError{Field: "emitter serial number", Got: "1001286", Want: "1001285"}
	if want := "receiver mismatch: emitter serial number 1001286, expected 1001285"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrReceiverMismatch) {
		t.Error("MismatchError should match ErrReceiverMismatch")
	}
}
