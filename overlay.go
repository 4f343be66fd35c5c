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
	"strconv"
	"strings"

	"github.com/ZaparooProject/go-tblive/frame"
	"github.com/ZaparooProject/go-tblive/internal/codec"
)

// check compares a decoded frame with the profile. Only frames carrying a
// receiver serial number are checked; the first disagreement is returned.
func (p *ReceiverProfile) check(f frame.Frame) error {
	rf, ok := f.(frame.Receiverer)
	if !ok || f.Err() != nil {
		return nil
	}

	serial := rf.ReceiverSerial()
	if !strings.Contains(p.SerialNumber, serial) {
		return &MismatchError{Field: "receiver serial number", Got: serial, Want: p.SerialNumber}
	}

	switch s := f.(type) {
	case frame.LogSample:
		if s.Frequency != nil && *s.Frequency != p.Frequency {
			return &MismatchError{Field: "receiver frequency", Got: khz(*s.Frequency), Want: khz(p.Frequency)}
		}
		return nil
	case frame.EmitterSample:
		return p.checkEmitter(s)
	default:
		return nil
	}
}

func (p *ReceiverProfile) checkEmitter(s frame.EmitterSample) error {
	if err := codec.CheckFrequency(int(s.Frequency)); err != nil {
		return &MismatchError{Field: "receiver frequency", Got: khz(s.Frequency), Want: khz(p.Frequency), Err: err}
	}
	if s.Frequency != p.Frequency {
		return &MismatchError{Field: "receiver frequency", Got: khz(s.Frequency), Want: khz(p.Frequency)}
	}
	if len(p.Emitters) == 0 {
		return nil
	}

	e, ok := p.Emitter(s.Emitter)
	if !ok {
		serials := make([]string, len(p.Emitters))
		for i, e := range p.Emitters {
			serials[i] = e.SerialNumber
		}
		return &MismatchError{Field: "emitter serial number", Got: s.Emitter, Want: strings.Join(serials, ",")}
	}
	if e.Frequency != s.Frequency {
		return &MismatchError{Field: "emitter frequency", Got: khz(s.Frequency), Want: khz(e.Frequency)}
	}
	return nil
}

func khz(v uint8) string {
	return strconv.Itoa(int(v)) + " kHz"
}
