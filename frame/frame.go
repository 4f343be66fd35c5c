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

// Package frame defines the decoded protocol units produced from a TB Live
// receiver stream. Each frame kind is its own type; callers are expected to
// type switch on Frame to reach kind-specific data.
package frame

// Kind names a decoder kind. The values match the names used on the wire
// documentation of the device, so they are stable for presentation.
type Kind string

// Listening mode kinds
const (
	KindEmitter    Kind = "emitter"
	KindReceiver   Kind = "receiver"
	KindSample     Kind = "sample" // sample line with an unexpected field count
	KindPing       Kind = "ping"
	KindRoundClock Kind = "round clock"
	KindSetClock   Kind = "set clock"
)

// Command mode kinds
const (
	KindSerialNumber    Kind = "serial number"
	KindFirmware        Kind = "firmware"
	KindFrequency       Kind = "frequency"
	KindLogInterval     Kind = "log interval"
	KindProtocol        Kind = "listening protocols"
	KindDeviceTime      Kind = "device time"
	KindHelp            Kind = "api"
	KindRestart         Kind = "restart device"
	KindFactoryReset    Kind = "factory reset"
	KindUpgradeFirmware Kind = "upgrade firmware"
	KindCommandModeOn   Kind = "command mode on"
	KindCommandModeOff  Kind = "command mode off"
)

// Mode is the communication state of the device.
type Mode string

const (
	ModeListening Mode = "listening"
	ModeCommand   Mode = "command"
	ModeUpdate    Mode = "update"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeListening, ModeCommand, ModeUpdate:
		return true
	default:
		return false
	}
}

// Field is one typed, named value of a frame.
type Field struct {
	Value any    `json:"data"`
	Meta  any    `json:"metadata,omitempty"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Units string `json:"units,omitempty"`
}

// Frame is one decoded protocol unit. Frames are immutable once produced.
type Frame interface {
	// Kind returns the decoder kind that produced the frame
	Kind() Kind
	// Raw returns the exact text consumed from the stream
	Raw() string
	// Err returns the decode error, nil for a successfully decoded frame
	Err() error
	// Values returns the raw data values in wire order
	Values() []any
	// Fields returns the typed fields in wire order
	Fields() []Field
}

// Header carries the text every frame was decoded from.
type Header struct {
	RawText string
}

// Raw returns the consumed text.
func (h Header) Raw() string { return h.RawText }

// Err returns nil; only Invalid frames carry an error.
func (Header) Err() error { return nil }

// Invalid is a frame whose anchor matched but whose payload failed
// validation. Data carries the split values for sample lines.
type Invalid struct {
	Reason error
	Name   Kind
	Header
	Data []string
}

func (f Invalid) Kind() Kind    { return f.Name }
func (f Invalid) Err() error    { return f.Reason }
func (Invalid) Fields() []Field { return nil }
func (f Invalid) Values() []any { return columns(f.Data) }

// Action is a zero-argument token: clock acknowledgements, device actions
// and mode toggles.
type Action struct {
	Name Kind
	Header
}

func (f Action) Kind() Kind    { return f.Name }
func (Action) Values() []any   { return nil }
func (Action) Fields() []Field { return nil }

// IsError reports whether f failed to decode.
func IsError(f Frame) bool {
	return f != nil && f.Err() != nil
}

// Record is a flat, serialisable view of a frame.
type Record struct {
	Name   string  `json:"name"`
	Raw    string  `json:"raw"`
	Error  string  `json:"error,omitempty"`
	Data   []any   `json:"data,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

// Describe flattens f into a Record.
func Describe(f Frame) Record {
	rec := Record{
		Name:   string(f.Kind()),
		Raw:    f.Raw(),
		Data:   f.Values(),
		Fields: f.Fields(),
	}
	if err := f.Err(); err != nil {
		rec.Error = err.Error()
	}
	return rec
}
