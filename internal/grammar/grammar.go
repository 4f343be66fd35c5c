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

// Package grammar binds the flag tables and frame decoders of each supported
// firmware. The set of grammars is closed: one per entry of
// wire.SupportedFirmware.
package grammar

import (
	"errors"

	"github.com/ZaparooProject/go-tblive/frame"
	"github.com/ZaparooProject/go-tblive/internal/codec"
	"github.com/ZaparooProject/go-tblive/internal/locator"
	"github.com/ZaparooProject/go-tblive/internal/wire"
)

// Decoded is one frame and the text skipped before it.
type Decoded struct {
	Frame frame.Frame
	Mode  frame.Mode
	Noise string
}

// Result is the outcome of one Decode pass.
type Result struct {
	// FirmwareChange names the version announced by a firmware frame that
	// differs from the grammar's own. Decoding stops right after that frame.
	FirmwareChange string
	Frames         []Decoded
	// Consumed is the number of bytes covered by Frames, noise included.
	Consumed int
}

// Grammar decodes a buffer under one firmware's wire format.
type Grammar interface {
	Version() string
	Decode(buf []byte) Result
}

var (
	v101 = newDialect(wire.FirmwareV101, wire.PingEndV101, codec.SampleLayoutV101)
	v102 = newDialect(wire.FirmwareV102, wire.PingEndV102, codec.SampleLayoutV102)
)

// For returns the grammar of a supported firmware version.
func For(version string) (Grammar, bool) {
	switch version {
	case wire.FirmwareV101:
		return v101, true
	case wire.FirmwareV102:
		return v102, true
	default:
		return nil, false
	}
}

type dialect struct {
	table   *locator.Table
	codecs  map[frame.Kind]codec.Func
	version string
}

type entry struct {
	decode codec.Func
	flag   locator.Flag
}

func listening(kind frame.Kind, literal string, decode codec.Func) entry {
	return entry{flag: locator.Flag{Literal: literal, Kind: kind, Mode: frame.ModeListening}, decode: decode}
}

func command(kind frame.Kind, literal string, decode codec.Func) entry {
	return entry{flag: locator.Flag{Literal: literal, Kind: kind, Mode: frame.ModeCommand}, decode: decode}
}

func action(kind frame.Kind, literal string) entry {
	return command(kind, literal, codec.Action(kind, literal))
}

func newDialect(version, pingEnd string, layout codec.SampleLayout) *dialect {
	entries := []entry{
		listening(frame.KindSample, wire.SampleStart, codec.Sample(layout)),
		listening(frame.KindPing, wire.PingStart, codec.Ping(pingEnd)),
		listening(frame.KindRoundClock, wire.ClockRound, codec.Action(frame.KindRoundClock, wire.ClockRound)),
		listening(frame.KindSetClock, wire.ClockSet, codec.Action(frame.KindSetClock, wire.ClockSet)),

		command(frame.KindSerialNumber, wire.SerialNumberStart, codec.SerialNumber),
		command(frame.KindFirmware, wire.FirmwareStart, codec.Firmware),
		command(frame.KindFrequency, wire.FrequencyStart, codec.Frequency),
		command(frame.KindLogInterval, wire.LogIntervalStart, codec.LogInterval),
		command(frame.KindProtocol, wire.ProtocolStart, codec.ListeningProtocol),
		command(frame.KindDeviceTime, wire.TimestampStart, codec.DeviceTime),
		command(frame.KindHelp, wire.HelpStart, codec.Help),
		action(frame.KindRestart, wire.RestartDevice),
		action(frame.KindFactoryReset, wire.FactoryReset),
		action(frame.KindUpgradeFirmware, wire.UpgradeFirmware),
		action(frame.KindCommandModeOn, wire.CommandModeOn),
		action(frame.KindCommandModeOff, wire.CommandModeOff),
	}

	d := &dialect{
		version: version,
		codecs:  make(map[frame.Kind]codec.Func, len(entries)),
	}
	flags := make([]locator.Flag, 0, len(entries))
	for _, e := range entries {
		flags = append(flags, e.flag)
		d.codecs[e.flag.Kind] = e.decode
	}
	d.table = locator.New(pingEnd, flags...)
	return d
}

func (d *dialect) Version() string { return d.version }

// Decode runs locate, decode and consume over buf until no anchor is left,
// a frame is incomplete, a collision is pending, the last anchor was
// decoded or a firmware frame asks for another grammar.
func (d *dialect) Decode(buf []byte) Result {
	var res Result
	for res.Consumed < len(buf) {
		rest := buf[res.Consumed:]
		m, ok := d.table.Locate(rest)
		if !ok || m.Pending {
			break
		}
		f, n, err := d.codecs[m.Flag.Kind](rest[m.Index:])
		if err != nil {
			break
		}
		res.Frames = append(res.Frames, Decoded{
			Frame: f,
			Mode:  m.Mode(),
			Noise: string(rest[:m.Index]),
		})
		res.Consumed += m.Index + n

		if version, ok := d.firmwareChange(f); ok {
			res.FirmwareChange = version
			break
		}
		if m.Last {
			break
		}
	}
	return res
}

func (d *dialect) firmwareChange(f frame.Frame) (string, bool) {
	switch fw := f.(type) {
	case frame.FirmwareVersion:
		return fw.Version, fw.Version != d.version
	case frame.Invalid:
		if !errors.Is(fw.Reason, codec.ErrUnsupportedFirmware) || len(fw.Data) == 0 {
			return "", false
		}
		return fw.Data[0], true
	default:
		return "", false
	}
}
