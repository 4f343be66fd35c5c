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

package frame

import (
	"fmt"
	"strconv"
)

// DateLayout renders device times as ISO-8601 UTC with milliseconds.
const DateLayout = "2006-01-02T15:04:05.000Z"

// SerialNumber is the receiver serial echoed by the command console.
type SerialNumber struct {
	Header
	Serial string
	Value  uint32
}

func (SerialNumber) Kind() Kind               { return KindSerialNumber }
func (f SerialNumber) ReceiverSerial() string { return f.Serial }
func (f SerialNumber) Values() []any          { return []any{f.Serial} }

func (f SerialNumber) Fields() []Field {
	return []Field{{Name: "serial number", Type: "string", Value: f.Serial, Meta: map[string]any{"value": f.Value}}}
}

// FirmwareVersion is a supported firmware announced by the device.
type FirmwareVersion struct {
	Header
	Version string
	Major   int
	Minor   int
	Patch   int
}

func (FirmwareVersion) Kind() Kind      { return KindFirmware }
func (f FirmwareVersion) Values() []any { return []any{f.Version} }

func (f FirmwareVersion) Fields() []Field {
	return []Field{{Name: "firmware", Type: "string", Value: f.Version,
		Meta: map[string]any{"major": f.Major, "minor": f.Minor, "patch": f.Patch}}}
}

// Frequency is the receiver listening frequency.
type Frequency struct {
	Header
	KHz uint8
}

func (Frequency) Kind() Kind      { return KindFrequency }
func (f Frequency) Values() []any { return []any{f.KHz} }

func (f Frequency) Fields() []Field {
	return []Field{{Name: "frequency", Type: "uint8", Units: "kHz", Value: f.KHz}}
}

// LogInterval is the configured status log period.
type LogInterval struct {
	Header
	Label string
	Code  uint8
}

func (LogInterval) Kind() Kind      { return KindLogInterval }
func (f LogInterval) Values() []any { return []any{f.String()} }

// String returns the two-digit wire code.
func (f LogInterval) String() string { return fmt.Sprintf("%02d", f.Code) }

func (f LogInterval) Fields() []Field {
	return []Field{{Name: "log interval", Type: "string", Value: f.String(), Meta: f.Label}}
}

// ListeningProtocol is the configured set of decoded acoustic protocols.
type ListeningProtocol struct {
	Header
	Code    string
	Channel string
	ID      []string
	Data    []string
}

func (ListeningProtocol) Kind() Kind      { return KindProtocol }
func (f ListeningProtocol) Values() []any { return []any{f.Code} }

func (f ListeningProtocol) Fields() []Field {
	return []Field{{Name: "protocols", Type: "string", Value: f.Code,
		Meta: map[string]any{"channel": f.Channel, "id": f.ID, "data": f.Data}}}
}

// DeviceTime is the receiver clock in Unix seconds.
type DeviceTime struct {
	Header
	Date    string
	Seconds int64
}

func (DeviceTime) Kind() Kind      { return KindDeviceTime }
func (f DeviceTime) Values() []any { return []any{strconv.FormatInt(f.Seconds, 10)} }

// Milliseconds returns the device time in Unix milliseconds.
func (f DeviceTime) Milliseconds() int64 { return f.Seconds * 1000 }

func (f DeviceTime) Fields() []Field {
	return []Field{{Name: "timestamp", Type: "uint32", Units: "seconds", Value: f.Seconds, Meta: f.Date}}
}

// Help is the console usage text block.
type Help struct {
	Header
}

func (Help) Kind() Kind      { return KindHelp }
func (f Help) Values() []any { return []any{f.RawText} }
func (Help) Fields() []Field { return nil }
