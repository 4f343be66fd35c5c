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

package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	tblive "github.com/ZaparooProject/go-tblive"
	"github.com/ZaparooProject/go-tblive/frame"
	"github.com/ZaparooProject/go-tblive/transport/uart"
)

// ErrNoReceiver is returned when a port does not answer like a receiver
var ErrNoReceiver = errors.New("no receiver answered")

// DefaultIdentifyTimeout bounds IdentifyPort.
const DefaultIdentifyTimeout = 3 * time.Second

// Identity is what a receiver reports about itself in command mode.
type Identity struct {
	Port         string
	SerialNumber string
	Firmware     tblive.Firmware
	Frequency    uint8
}

// Profile returns a receiver profile for the identified device.
func (id Identity) Profile() tblive.ReceiverProfile {
	return tblive.ReceiverProfile{
		SerialNumber: id.SerialNumber,
		Firmware:     id.Firmware,
		Frequency:    id.Frequency,
		Mode:         frame.ModeListening,
	}
}

// IdentifyPort opens path, identifies the receiver and closes the port. It
// makes a single attempt.
func IdentifyPort(ctx context.Context, path string, opts uart.Options) (Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultIdentifyTimeout)
	defer cancel()

	transport, err := uart.Open(path, opts)
	if err != nil {
		return Identity{}, err
	}
	defer func() { _ = transport.Close() }()

	return Identify(ctx, transport)
}

// Identify switches the receiver to command mode, queries its serial
// number, firmware and frequency, and returns it to listening. Output that
// arrives before the answers is decoded and ignored. A receiver reporting a
// firmware the Decoder cannot read yields an error wrapping
// tblive.ErrUnsupportedFirmware alongside the partial Identity.
func Identify(ctx context.Context, t *uart.Transport) (Identity, error) {
	id := Identity{Port: t.PortName()}

	d, err := tblive.New(tblive.DefaultFirmware)
	if err != nil {
		return id, err
	}

	if err := t.EnterCommandMode(ctx); err != nil {
		return id, err
	}
	for _, q := range []string{uart.CmdSerialNumber, uart.CmdFirmware, uart.CmdFrequency} {
		if err := t.Query(ctx, q); err != nil {
			return id, err
		}
	}
	if err := t.ExitCommandMode(ctx); err != nil {
		return id, err
	}

	buf := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return id, fmt.Errorf("%w on %s: %w", ErrNoReceiver, id.Port, err)
		}
		n, err := t.Read(buf)
		if err != nil {
			return id, err
		}
		if n == 0 {
			continue
		}
		_, _ = d.Write(buf[:n])
		if identified(&id, d) {
			break
		}
	}

	if id.SerialNumber == "" || id.Firmware == "" {
		return id, fmt.Errorf("%w on %s: incomplete answer", ErrNoReceiver, id.Port)
	}
	if !id.Firmware.Supported() {
		return id, fmt.Errorf("%w: receiver on %s reports %s", tblive.ErrUnsupportedFirmware, id.Port, id.Firmware)
	}
	return id, nil
}

// identified decodes everything pending, including input left behind an
// unsupported firmware announcement.
func identified(id *Identity, d *tblive.Decoder) bool {
	for frames := d.Decode(); len(frames) > 0; frames = d.Decode() {
		if collect(id, frames) {
			return true
		}
	}
	return false
}

// collect records the answers found in frames and reports whether the
// receiver has left command mode.
func collect(id *Identity, frames []tblive.OutputFrame) bool {
	for i := range frames {
		switch f := frames[i].Frame.(type) {
		case frame.SerialNumber:
			id.SerialNumber = f.Serial
		case frame.FirmwareVersion:
			id.Firmware = tblive.Firmware(f.Version)
		case frame.Frequency:
			id.Frequency = f.KHz
		case frame.Invalid:
			if f.Name == frame.KindFirmware && frames[i].FirmwareErr != nil && len(f.Data) > 0 {
				id.Firmware = tblive.Firmware(f.Data[0])
			}
		case frame.Action:
			if f.Name == frame.KindCommandModeOff {
				return true
			}
		}
	}
	return false
}
