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

// Package codec decodes single TB Live frames. Every decoder receives the
// buffer starting at its anchor and reports how many bytes it consumed.
package codec

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-tblive/frame"
)

// ErrIncomplete is returned when the buffer ends before the frame does.
// Nothing is consumed; the caller retries once more bytes arrive.
var ErrIncomplete = errors.New("frame incomplete")

// Malformed payload reasons carried by frame.Invalid.
var (
	ErrInvalidSerialNumber = errors.New("invalid serial number")
	ErrInvalidFirmware     = errors.New("invalid firmware version")
	ErrUnsupportedFirmware = errors.New("unsupported firmware")
	ErrInvalidFrequency    = errors.New("invalid frequency")
	ErrInvalidLogInterval  = errors.New("invalid log interval")
	ErrInvalidProtocol     = errors.New("invalid listening protocol")
	ErrInvalidTimestamp    = errors.New("invalid timestamp")
	ErrInvalidField        = errors.New("invalid field")
	ErrUnknownSample       = errors.New("unknown frame")
)

// Func decodes one frame from buf, which starts with the frame anchor.
// It returns the frame and the number of bytes consumed, or ErrIncomplete.
type Func func(buf []byte) (frame.Frame, int, error)

// invalid builds a malformed frame over the first n bytes of buf.
func invalid(kind frame.Kind, buf []byte, n int, err error, data ...string) (frame.Frame, int, error) {
	return frame.Invalid{
		Name:   kind,
		Header: frame.Header{RawText: string(buf[:n])},
		Reason: err,
		Data:   data,
	}, n, nil
}

func incomplete(stage string) error {
	return fmt.Errorf("%w - %s", ErrIncomplete, stage)
}

// IsIncomplete reports whether err means more bytes are needed.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncomplete)
}
