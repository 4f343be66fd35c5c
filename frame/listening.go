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

import "time"

// Signal is the strength class of an SNR reading.
type Signal string

const (
	SignalWeak    Signal = "weak"
	SignalRegular Signal = "regular"
	SignalStrong  Signal = "strong"
)

// SNR is a raw signal-to-noise byte and its class.
type SNR struct {
	Signal Signal `json:"signal"`
	Raw    uint8  `json:"raw"`
}

// Inclination is the unpacked 16-bit emitter data value.
type Inclination struct {
	Angle        float64 `json:"angle"`     // degrees, 0.1 resolution
	Deviation    float64 `json:"deviation"` // degrees, 0.25 resolution
	Raw          uint16  `json:"raw"`
	AngleRaw     uint16  `json:"angleRaw"`
	DeviationRaw uint16  `json:"deviationRaw"`
}

// Temperature is a raw sensor reading and its value in degrees Celsius.
type Temperature struct {
	Celsius float64 `json:"celsius"`
	Raw     int16   `json:"raw"`
}

// Receiverer is implemented by frames that carry a receiver serial number.
type Receiverer interface {
	Frame
	ReceiverSerial() string
}

// EmitterSample is an acoustic detection reported in listening mode.
//
//	$<receiver>,<seconds>,<ms>,<protocol>,<emitter>,<data>,<snr>,<frequency>[,<frameIndex>]\r
type EmitterSample struct {
	Data       *Inclination // nil when the protocol carries no data
	FrameIndex *uint32      // 1.0.1 only
	Header
	Receiver     string
	Protocol     string
	Emitter      string
	Seconds      uint32
	Milliseconds uint16
	SNR          SNR
	Frequency    uint8
}

func (EmitterSample) Kind() Kind               { return KindEmitter }
func (f EmitterSample) ReceiverSerial() string { return f.Receiver }
func (f EmitterSample) Values() []any          { return values(f.Fields()) }

// Timestamp returns the detection time in Unix milliseconds.
func (f EmitterSample) Timestamp() int64 {
	return int64(f.Seconds)*1000 + int64(f.Milliseconds)
}

// Time returns the detection time.
func (f EmitterSample) Time() time.Time {
	return time.UnixMilli(f.Timestamp()).UTC()
}

func (f EmitterSample) Fields() []Field {
	data := Field{Name: "data", Type: "uint16", Units: "degrees"}
	if f.Data != nil {
		data.Value = f.Data.Raw
		data.Meta = *f.Data
	}
	fields := []Field{
		{Name: "receiver", Type: "string", Value: f.Receiver},
		{Name: "seconds", Type: "uint32", Units: "seconds", Value: f.Seconds},
		{Name: "milliseconds", Type: "uint16", Units: "milliseconds", Value: f.Milliseconds},
		{Name: "protocol", Type: "string", Value: f.Protocol},
		{Name: "emitter", Type: "string", Value: f.Emitter},
		data,
		{Name: "snr", Type: "uint8", Value: f.SNR.Raw, Meta: f.SNR},
		{Name: "frequency", Type: "uint8", Units: "kHz", Value: f.Frequency},
	}
	if f.FrameIndex != nil {
		fields = append(fields, Field{Name: "frameIndex", Type: "uint32", Value: *f.FrameIndex})
	}
	return fields
}

// LogSample is the periodic receiver status line.
//
//	$<receiver>,<seconds>,<log>,<temperature>,<noiseAvg>,<noisePeak>,<snr>,<frameIndex>\r  (1.0.1)
//	$<receiver>,<seconds>,<log>,<temperature>,<noiseAvg>,<noisePeak>,<frequency>\r         (1.0.2)
type LogSample struct {
	SNR        *SNR    // 1.0.1 only
	FrameIndex *uint32 // 1.0.1 only
	Frequency  *uint8  // 1.0.2 only
	Header
	Receiver     string
	Log          string
	Temperature  Temperature
	Seconds      uint32
	NoiseAverage uint8
	NoisePeak    uint8
}

func (LogSample) Kind() Kind               { return KindReceiver }
func (f LogSample) ReceiverSerial() string { return f.Receiver }
func (f LogSample) Values() []any          { return values(f.Fields()) }

// Time returns the log time.
func (f LogSample) Time() time.Time {
	return time.Unix(int64(f.Seconds), 0).UTC()
}

func (f LogSample) Fields() []Field {
	fields := []Field{
		{Name: "receiver", Type: "string", Value: f.Receiver},
		{Name: "seconds", Type: "uint32", Units: "seconds", Value: f.Seconds},
		{Name: "log", Type: "string", Value: f.Log},
		{Name: "temperature", Type: "int16", Units: "celsius", Value: f.Temperature.Raw, Meta: f.Temperature},
		{Name: "noiseAverage", Type: "uint8", Value: f.NoiseAverage},
		{Name: "noisePeak", Type: "uint8", Value: f.NoisePeak},
	}
	if f.SNR != nil {
		fields = append(fields, Field{Name: "snr", Type: "uint8", Value: f.SNR.Raw, Meta: *f.SNR})
	}
	if f.FrameIndex != nil {
		fields = append(fields, Field{Name: "frameIndex", Type: "uint32", Value: *f.FrameIndex})
	}
	if f.Frequency != nil {
		fields = append(fields, Field{Name: "frequency", Type: "uint8", Units: "kHz", Value: *f.Frequency})
	}
	return fields
}

// Ping is the serial number a receiver answers with while listening.
type Ping struct {
	Header
	Serial string
}

func (Ping) Kind() Kind               { return KindPing }
func (f Ping) ReceiverSerial() string { return f.Serial }
func (f Ping) Values() []any          { return []any{f.Serial} }

func (f Ping) Fields() []Field {
	return []Field{{Name: "receiver", Type: "string", Value: f.Serial}}
}

func values(fields []Field) []any {
	out := make([]any, len(fields))
	for i := range fields {
		out[i] = fields[i].Value
	}
	return out
}

func columns(data []string) []any {
	if len(data) == 0 {
		return nil
	}
	out := make([]any, len(data))
	for i, v := range data {
		out[i] = v
	}
	return out
}
