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
	"time"

	"github.com/ZaparooProject/go-tblive/frame"
	"github.com/ZaparooProject/go-tblive/internal/wire"
)

var logIntervalLabels = [...]string{
	"disabled",
	"5 minutes",
	"10 minutes",
	"30 minutes",
	"60 minutes",
	"2 hours",
	"12 hours",
	"24 hours",
}

// LogIntervalLabel returns the period label for a log interval code.
func LogIntervalLabel(code uint8) (string, bool) {
	if int(code) >= len(logIntervalLabels) {
		return "", false
	}
	return logIntervalLabels[code], true
}

// SerialNumber decodes the fixed-length "SN=" echo of the command console.
func SerialNumber(buf []byte) (frame.Frame, int, error) {
	if len(buf) < wire.SerialNumberFrameLength {
		return nil, 0, ErrIncomplete
	}
	raw := buf[:wire.SerialNumberFrameLength]
	serial := strings.TrimSpace(string(raw[len(wire.SerialNumberStart):]))
	value, err := ParseSerialNumber(serial)
	if err != nil {
		return invalid(frame.KindSerialNumber, buf, len(wire.SerialNumberStart), err)
	}
	return frame.SerialNumber{
		Header: frame.Header{RawText: string(raw)},
		Serial: serial,
		Value:  value,
	}, len(raw), nil
}

// Firmware decodes "FV=[v]X.Y.Z". The patch run ends at the first non-digit;
// anything after it is left in the buffer.
func Firmware(buf []byte) (frame.Frame, int, error) {
	pos := len(wire.FirmwareStart)
	if pos < len(buf) && (buf[pos] == 'v' || buf[pos] == 'V') {
		pos++
	}

	major, next, err := versionPart(buf, pos, "major")
	if err != nil {
		return firmwareError(buf, err)
	}
	minor, next, err := versionPart(buf, next, "minor")
	if err != nil {
		return firmwareError(buf, err)
	}

	end := next
	for end < len(buf) && isDigit(buf[end]) {
		end++
	}
	if end == next {
		if end == len(buf) {
			return nil, 0, incomplete("no patch version")
		}
		return firmwareError(buf, fmt.Errorf("%w: invalid patch %q", ErrInvalidFirmware, buf[end]))
	}
	patch := string(buf[next:end])
	version := major + "." + minor + "." + patch

	if !wire.IsSupportedFirmware(version) {
		return invalid(frame.KindFirmware, buf, end,
			fmt.Errorf("%w: %s", ErrUnsupportedFirmware, version), version)
	}

	f := frame.FirmwareVersion{
		Header:  frame.Header{RawText: string(buf[:end])},
		Version: version,
	}
	f.Major, _ = strconv.Atoi(major)
	f.Minor, _ = strconv.Atoi(minor)
	f.Patch, _ = strconv.Atoi(patch)
	return f, end, nil
}

// versionPart reads a dot-terminated digit run starting at pos.
func versionPart(buf []byte, pos int, name string) (string, int, error) {
	dot := bytes.IndexByte(buf[pos:], '.')
	run := buf[pos:]
	if dot >= 0 {
		run = run[:dot]
	}
	for _, c := range run {
		if !isDigit(c) {
			return "", 0, fmt.Errorf("%w: invalid %s %q", ErrInvalidFirmware, name, run)
		}
	}
	if dot < 0 {
		return "", 0, incomplete("no " + name + " version")
	}
	if len(run) == 0 {
		return "", 0, fmt.Errorf("%w: empty %s", ErrInvalidFirmware, name)
	}
	return string(run), pos + dot + 1, nil
}

func firmwareError(buf []byte, err error) (frame.Frame, int, error) {
	if IsIncomplete(err) {
		return nil, 0, err
	}
	return invalid(frame.KindFirmware, buf, len(wire.FirmwareStart), err)
}

// Frequency decodes "FC=XY".
func Frequency(buf []byte) (frame.Frame, int, error) {
	if len(buf) < wire.FrequencyFrameLength {
		return nil, 0, ErrIncomplete
	}
	raw := buf[:wire.FrequencyFrameLength]
	digits := raw[len(wire.FrequencyStart):]
	khz, ok := twoDigits(digits)
	if !ok {
		return invalid(frame.KindFrequency, buf, len(wire.FrequencyStart),
			fmt.Errorf("%w: %q is not a number", ErrInvalidFrequency, digits))
	}
	if err := CheckFrequency(int(khz)); err != nil {
		return invalid(frame.KindFrequency, buf, len(wire.FrequencyStart), err)
	}
	return frame.Frequency{Header: frame.Header{RawText: string(raw)}, KHz: khz}, len(raw), nil
}

// LogInterval decodes "LI=XY".
func LogInterval(buf []byte) (frame.Frame, int, error) {
	if len(buf) < wire.LogIntervalFrameLength {
		return nil, 0, ErrIncomplete
	}
	raw := buf[:wire.LogIntervalFrameLength]
	digits := raw[len(wire.LogIntervalStart):]
	code, ok := twoDigits(digits)
	if !ok {
		return invalid(frame.KindLogInterval, buf, len(wire.LogIntervalStart),
			fmt.Errorf("%w: %q is not a number", ErrInvalidLogInterval, digits))
	}
	label, ok := LogIntervalLabel(code)
	if !ok {
		return invalid(frame.KindLogInterval, buf, len(wire.LogIntervalStart),
			fmt.Errorf("%w: %d should be between %d and %d",
				ErrInvalidLogInterval, code, wire.LogIntervalMin, wire.LogIntervalMax))
	}
	return frame.LogInterval{
		Header: frame.Header{RawText: string(raw)},
		Code:   code,
		Label:  label,
	}, len(raw), nil
}

// ListeningProtocol decodes "LM=XY".
func ListeningProtocol(buf []byte) (frame.Frame, int, error) {
	if len(buf) < wire.ProtocolFrameLength {
		return nil, 0, ErrIncomplete
	}
	raw := buf[:wire.ProtocolFrameLength]
	code := string(raw[len(wire.ProtocolStart):])
	p, ok := LookupProtocol(code)
	if !ok {
		return invalid(frame.KindProtocol, buf, len(wire.ProtocolStart),
			fmt.Errorf("%w: %q", ErrInvalidProtocol, code))
	}
	return frame.ListeningProtocol{
		Header:  frame.Header{RawText: string(raw)},
		Code:    code,
		Channel: p.Channel,
		ID:      p.ID,
		Data:    p.Data,
	}, len(raw), nil
}

// DeviceTime decodes "UT=" followed by ten digits of Unix seconds.
func DeviceTime(buf []byte) (frame.Frame, int, error) {
	if len(buf) < wire.TimestampFrameLength {
		return nil, 0, ErrIncomplete
	}
	raw := buf[:wire.TimestampFrameLength]
	digits := raw[len(wire.TimestampStart):]
	seconds, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil || bytes.ContainsAny(digits, "+-") {
		return invalid(frame.KindDeviceTime, buf, len(wire.TimestampStart),
			fmt.Errorf("%w: %q is not a positive integer", ErrInvalidTimestamp, digits))
	}
	return frame.DeviceTime{
		Header:  frame.Header{RawText: string(raw)},
		Seconds: seconds,
		Date:    time.Unix(seconds, 0).UTC().Format(frame.DateLayout),
	}, len(raw), nil
}

// Help decodes the console usage block up to and including its closing
// sentence.
func Help(buf []byte) (frame.Frame, int, error) {
	end := bytes.Index(buf, []byte(wire.HelpEnd))
	if end < 0 {
		return nil, 0, ErrIncomplete
	}
	end += len(wire.HelpEnd)
	return frame.Help{Header: frame.Header{RawText: string(buf[:end])}}, end, nil
}

// Action returns a decoder for a zero-argument literal token.
func Action(kind frame.Kind, literal string) Func {
	return func(buf []byte) (frame.Frame, int, error) {
		if !bytes.HasPrefix(buf, []byte(literal)) {
			if len(buf) < len(literal) && bytes.HasPrefix([]byte(literal), buf) {
				return nil, 0, ErrIncomplete
			}
			return invalid(kind, buf, min(1, len(buf)), fmt.Errorf("expected %q", literal))
		}
		return frame.Action{Name: kind, Header: frame.Header{RawText: literal}}, len(literal), nil
	}
}
