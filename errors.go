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

	"github.com/ZaparooProject/go-tblive/internal/codec"
)

// Frame decode errors, carried by frame.Frame.Err
var (
	ErrIncomplete          = codec.ErrIncomplete
	ErrUnsupportedFirmware = codec.ErrUnsupportedFirmware
	ErrInvalidFirmware     = codec.ErrInvalidFirmware
	ErrInvalidSerialNumber = codec.ErrInvalidSerialNumber
	ErrInvalidFrequency    = codec.ErrInvalidFrequency
	ErrInvalidLogInterval  = codec.ErrInvalidLogInterval
	ErrInvalidProtocol     = codec.ErrInvalidProtocol
	ErrInvalidTimestamp    = codec.ErrInvalidTimestamp
	ErrInvalidField        = codec.ErrInvalidField
	ErrUnknownFrame        = codec.ErrUnknownSample
)

// Receiver profile errors
var (
	ErrInvalidReceiver  = errors.New("invalid receiver profile")
	ErrInvalidMode      = errors.New("invalid mode")
	ErrTooManyEmitters  = errors.New("too many emitters")
	ErrDuplicateEmitter = errors.New("duplicate emitter")
	ErrReceiverMismatch = errors.New("receiver mismatch")
)

// ErrInvalidOption is returned by New for a misconfigured Option
var ErrInvalidOption = errors.New("invalid option")

// ErrorClass groups frame-level problems for reporting
type ErrorClass string

const (
	// ClassNone is used for frames without any error
	ClassNone ErrorClass = ""
	// ClassMalformed is an anchor whose payload failed validation
	ClassMalformed ErrorClass = "malformed"
	// ClassUnsupportedFirmware is a firmware change to an unknown version
	ClassUnsupportedFirmware ErrorClass = "unsupported_firmware"
	// ClassReceiverMismatch is a valid frame inconsistent with the receiver profile
	ClassReceiverMismatch ErrorClass = "receiver_mismatch"
)

// Classify returns the class of err.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrUnsupportedFirmware):
		return ClassUnsupportedFirmware
	case errors.Is(err, ErrReceiverMismatch):
		return ClassReceiverMismatch
	default:
		return ClassMalformed
	}
}

// ProfileError reports the receiver profile field that failed validation
type ProfileError struct {
	Err   error  // Underlying error
	Value any    // Offending value
	Field string // Profile field name
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("%v: %s %v: %v", ErrInvalidReceiver, e.Field, e.Value, e.Err)
}

func (e *ProfileError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrInvalidReceiver as well as the underlying error.
func (e *ProfileError) Is(target error) bool {
	return target == ErrInvalidReceiver
}

// MismatchError reports a frame that disagrees with the receiver profile
type MismatchError struct {
	Err   error  // Validation failure behind the mismatch, if any
	Field string // Compared field
	Got   string // Value decoded from the frame
	Want  string // Value expected by the profile
}

func (e *MismatchError) Error() string {
	msg := fmt.Sprintf("%v: %s %s, expected %s", ErrReceiverMismatch, e.Field, e.Got, e.Want)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MismatchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrReceiverMismatch}
	}
	return []error{ErrReceiverMismatch, e.Err}
}
