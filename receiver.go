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
	"fmt"

	"github.com/ZaparooProject/go-tblive/frame"
	"github.com/ZaparooProject/go-tblive/internal/codec"
)

// MaxEmitters is the number of emitters a receiver profile may enumerate.
const MaxEmitters = 3

// EmitterFrequencyOffset is the distance from the receiver frequency an
// emitter may transmit at, besides the receiver frequency itself.
const EmitterFrequencyOffset = 2

// Emitter is an acoustic tag expected by a receiver.
type Emitter struct {
	SerialNumber string `yaml:"serialNumber" json:"serialNumber"`
	Frequency    uint8  `yaml:"frequency" json:"frequency"`
}

// ReceiverProfile describes the hardware a stream is expected to come from.
type ReceiverProfile struct {
	SerialNumber string     `yaml:"serialNumber" json:"serialNumber"`
	Firmware     Firmware   `yaml:"firmware" json:"firmware"`
	Mode         frame.Mode `yaml:"mode" json:"mode"`
	Emitters     []Emitter  `yaml:"emitters" json:"emitters,omitempty"`
	Frequency    uint8      `yaml:"frequency" json:"frequency"`
}

// Clone returns a deep copy of p.
func (p ReceiverProfile) Clone() ReceiverProfile {
	p.Emitters = append([]Emitter(nil), p.Emitters...)
	return p
}

// Emitter returns the enumerated emitter with the given serial number.
func (p ReceiverProfile) Emitter(serial string) (Emitter, bool) {
	for _, e := range p.Emitters {
		if e.SerialNumber == serial {
			return e, true
		}
	}
	return Emitter{}, false
}

// Validate checks every profile invariant and returns a *ProfileError for
// the first violation.
func (p ReceiverProfile) Validate() error {
	if _, err := codec.ParseSerialNumber(p.SerialNumber); err != nil {
		return &ProfileError{Field: "serialNumber", Value: p.SerialNumber, Err: err}
	}
	if err := codec.CheckFrequency(int(p.Frequency)); err != nil {
		return &ProfileError{Field: "frequency", Value: p.Frequency, Err: err}
	}
	if !p.Firmware.Supported() {
		return &ProfileError{Field: "firmware", Value: p.Firmware, Err: ErrUnsupportedFirmware}
	}
	if !p.Mode.Valid() {
		return &ProfileError{Field: "mode", Value: p.Mode, Err: ErrInvalidMode}
	}
	if len(p.Emitters) > MaxEmitters {
		return &ProfileError{Field: "emitters", Value: len(p.Emitters),
			Err: fmt.Errorf("%w: at most %d", ErrTooManyEmitters, MaxEmitters)}
	}

	serials := make(map[string]struct{}, len(p.Emitters))
	frequencies := make(map[uint8]struct{}, len(p.Emitters))
	for i, e := range p.Emitters {
		field := fmt.Sprintf("emitters[%d]", i)
		if _, err := codec.ParseSerialNumber(e.SerialNumber); err != nil {
			return &ProfileError{Field: field + ".serialNumber", Value: e.SerialNumber, Err: err}
		}
		if _, dup := serials[e.SerialNumber]; dup {
			return &ProfileError{Field: field + ".serialNumber", Value: e.SerialNumber, Err: ErrDuplicateEmitter}
		}
		serials[e.SerialNumber] = struct{}{}

		if err := p.checkEmitterFrequency(e.Frequency); err != nil {
			return &ProfileError{Field: field + ".frequency", Value: e.Frequency, Err: err}
		}
		if _, dup := frequencies[e.Frequency]; dup {
			return &ProfileError{Field: field + ".frequency", Value: e.Frequency,
				Err: fmt.Errorf("%w: frequency already used", ErrDuplicateEmitter)}
		}
		frequencies[e.Frequency] = struct{}{}
	}
	return nil
}

func (p ReceiverProfile) checkEmitterFrequency(khz uint8) error {
	if err := codec.CheckFrequency(int(khz)); err != nil {
		return err
	}
	switch int(khz) - int(p.Frequency) {
	case 0, EmitterFrequencyOffset, -EmitterFrequencyOffset:
		return nil
	default:
		return fmt.Errorf("%w: %d kHz should be %d or %d±%d",
			ErrInvalidFrequency, khz, p.Frequency, p.Frequency, EmitterFrequencyOffset)
	}
}
