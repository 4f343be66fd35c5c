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

package codec

import (
	"fmt"

	"github.com/ZaparooProject/go-tblive/frame"
	"github.com/ZaparooProject/go-tblive/internal/wire"
)

// UnpackInclination splits the packed emitter data value into its angle and
// deviation parts.
func UnpackInclination(v uint16) frame.Inclination {
	angle := v & wire.AngleMask
	deviation := (v >> wire.AngleBits) & wire.DeviationMask
	return frame.Inclination{
		Raw:          v,
		AngleRaw:     angle,
		DeviationRaw: deviation,
		Angle:        float64(angle) / wire.AngleFactor,
		Deviation:    float64(deviation) / wire.DeviationFactor,
	}
}

// ClassifySNR returns the signal class of a raw SNR byte.
func ClassifySNR(raw uint8) frame.SNR {
	switch {
	case raw > wire.SNRRegularMax:
		return frame.SNR{Raw: raw, Signal: frame.SignalStrong}
	case raw > wire.SNRWeakMax:
		return frame.SNR{Raw: raw, Signal: frame.SignalRegular}
	default:
		return frame.SNR{Raw: raw, Signal: frame.SignalWeak}
	}
}

// DecodeTemperature converts a raw sensor reading to degrees Celsius.
func DecodeTemperature(raw int16) frame.Temperature {
	return frame.Temperature{Raw: raw, Celsius: float64(int(raw)-50) / 10}
}

// ParseSerialNumber checks the serial number rule: 6 to 7 ASCII digits.
func ParseSerialNumber(s string) (uint32, error) {
	if len(s) < wire.SerialNumberLengthMin || len(s) > wire.SerialNumberLengthMax {
		return 0, fmt.Errorf("%w: %q should have %d to %d digits",
			ErrInvalidSerialNumber, s, wire.SerialNumberLengthMin, wire.SerialNumberLengthMax)
	}
	var v uint32
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0, fmt.Errorf("%w: %q is not a positive integer", ErrInvalidSerialNumber, s)
		}
		v = v*10 + uint32(s[i]-'0')
	}
	return v, nil
}

// CheckFrequency reports whether khz lies within the device band.
func CheckFrequency(khz int) error {
	if khz < wire.FrequencyMin || khz > wire.FrequencyMax {
		return fmt.Errorf("%w: %d kHz outside %d-%d",
			ErrInvalidFrequency, khz, wire.FrequencyMin, wire.FrequencyMax)
	}
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// twoDigits parses exactly two ASCII digits.
func twoDigits(b []byte) (uint8, bool) {
	if len(b) != 2 || !isDigit(b[0]) || !isDigit(b[1]) {
		return 0, false
	}
	return (b[0]-'0')*10 + b[1] - '0', true
}
