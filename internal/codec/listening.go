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
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ZaparooProject/go-tblive/frame"
	"github.com/ZaparooProject/go-tblive/internal/wire"
)

// SampleLayout is the column layout of "$" sample lines for one firmware.
type SampleLayout struct {
	EmitterFields int
	LogFields     int
	// Indexed lines end with a running frame counter; log lines then also
	// carry an SNR column. Unindexed log lines end with the frequency.
	Indexed bool
}

// Sample layouts per firmware.
var (
	SampleLayoutV101 = SampleLayout{EmitterFields: 9, LogFields: 8, Indexed: true}
	SampleLayoutV102 = SampleLayout{EmitterFields: 8, LogFields: 7}
)

// Sample returns the decoder for "$...\r" lines under layout. The whole line
// is consumed whether or not it decodes.
func Sample(layout SampleLayout) Func {
	return func(buf []byte) (frame.Frame, int, error) {
		end := bytes.Index(buf, []byte(wire.SampleEnd))
		if end < 0 {
			return nil, 0, ErrIncomplete
		}
		n := end + len(wire.SampleEnd)
		raw := string(buf[:n])
		values := strings.Split(raw[len(wire.SampleStart):end], wire.SampleSplit)

		switch len(values) {
		case layout.EmitterFields:
			return emitterSample(layout, raw, values), n, nil
		case layout.LogFields:
			return logSample(layout, raw, values), n, nil
		default:
			return invalid(frame.KindSample, buf, n, ErrUnknownSample, values...)
		}
	}
}

// columns parses numeric columns and keeps the first failure.
type columns struct {
	err    error
	values []string
}

func (c *columns) unsigned(i int, name string, bits int) uint64 {
	if c.err != nil {
		return 0
	}
	v, err := strconv.ParseUint(c.values[i], 10, bits)
	if err != nil {
		c.err = fmt.Errorf("%w: invalid %s %q", ErrInvalidField, name, c.values[i])
	}
	return v
}

func (c *columns) signed(i int, name string, bits int) int64 {
	if c.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(c.values[i], 10, bits)
	if err != nil {
		c.err = fmt.Errorf("%w: invalid %s %q", ErrInvalidField, name, c.values[i])
	}
	return v
}

func (c *columns) invalid(kind frame.Kind, raw string) frame.Frame {
	return frame.Invalid{
		Name:   kind,
		Header: frame.Header{RawText: raw},
		Reason: c.err,
		Data:   c.values,
	}
}

func emitterSample(layout SampleLayout, raw string, values []string) frame.Frame {
	c := &columns{values: values}
	f := frame.EmitterSample{
		Header:   frame.Header{RawText: raw},
		Receiver: values[0],
		Protocol: values[3],
		Emitter:  values[4],
	}
	f.Seconds = uint32(c.unsigned(1, "seconds", 32))
	f.Milliseconds = uint16(c.unsigned(2, "milliseconds", 16))
	if values[5] != "" {
		data := UnpackInclination(uint16(c.unsigned(5, "data", 16)))
		f.Data = &data
	}
	f.SNR = ClassifySNR(uint8(c.unsigned(6, "snr", 8)))
	f.Frequency = uint8(c.unsigned(7, "frequency", 8))
	if layout.Indexed {
		index := uint32(c.unsigned(8, "frame index", 32))
		f.FrameIndex = &index
	}
	if c.err != nil {
		return c.invalid(frame.KindEmitter, raw)
	}
	return f
}

func logSample(layout SampleLayout, raw string, values []string) frame.Frame {
	c := &columns{values: values}
	f := frame.LogSample{
		Header:   frame.Header{RawText: raw},
		Receiver: values[0],
		Log:      values[2],
	}
	f.Seconds = uint32(c.unsigned(1, "seconds", 32))
	f.Temperature = DecodeTemperature(int16(c.signed(3, "temperature", 16)))
	f.NoiseAverage = uint8(c.unsigned(4, "noise average", 8))
	f.NoisePeak = uint8(c.unsigned(5, "noise peak", 8))
	if layout.Indexed {
		snr := ClassifySNR(uint8(c.unsigned(6, "snr", 8)))
		index := uint32(c.unsigned(7, "frame index", 32))
		f.SNR, f.FrameIndex = &snr, &index
	} else {
		khz := uint8(c.unsigned(6, "frequency", 8))
		f.Frequency = &khz
	}
	if c.err != nil {
		return c.invalid(frame.KindReceiver, raw)
	}
	return f
}

// Ping returns the decoder for a listening "SN=" response ended by
// terminator. The serial between anchor and terminator is trimmed.
func Ping(terminator string) Func {
	return func(buf []byte) (frame.Frame, int, error) {
		body := buf[len(wire.PingStart):]
		end := bytes.Index(body, []byte(terminator))
		if end < 0 {
			return nil, 0, ErrIncomplete
		}
		n := len(wire.PingStart) + end + len(terminator)
		serial := strings.TrimSpace(string(body[:end]))
		if _, err := ParseSerialNumber(serial); err != nil {
			return invalid(frame.KindPing, buf, n, err)
		}
		return frame.Ping{Header: frame.Header{RawText: string(buf[:n])}, Serial: serial}, n, nil
	}
}
