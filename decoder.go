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

// Package tblive decodes the text stream of TB Live acoustic telemetry
// receivers into typed frames.
package tblive

import (
	"fmt"
	"time"

	"github.com/ZaparooProject/go-tblive/frame"
	"github.com/ZaparooProject/go-tblive/internal/grammar"
	"go.uber.org/zap"
)

// Option configures a Decoder
type Option func(*Decoder) error

// WithReceiver sets the receiver profile frames are checked against.
// The profile's firmware selects the initial grammar.
func WithReceiver(p ReceiverProfile) Option {
	return func(d *Decoder) error {
		return d.SetReceiver(&p)
	}
}

// WithLogger sets the logger used for firmware changes and decode problems.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Decoder) error {
		if logger == nil {
			return fmt.Errorf("%w: nil logger", ErrInvalidOption)
		}
		d.logger = logger
		return nil
	}
}

// WithClock sets the time source used to stamp output frames.
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) error {
		if now == nil {
			return fmt.Errorf("%w: nil clock", ErrInvalidOption)
		}
		d.now = now
		return nil
	}
}

// OutputFrame is a decoded frame annotated by the Decoder.
type OutputFrame struct {
	frame.Frame
	Timestamp time.Time
	// FirmwareErr is set on a firmware frame naming an unsupported version
	FirmwareErr error
	// ReceiverErr is set when the frame disagrees with the receiver profile
	ReceiverErr error
	Firmware    Firmware
	Mode        frame.Mode
	// Noise is the text skipped right before this frame
	Noise string
}

// Class returns the most significant error class of the frame.
func (o OutputFrame) Class() ErrorClass {
	switch {
	case o.FirmwareErr != nil:
		return ClassUnsupportedFirmware
	case o.Frame.Err() != nil:
		return Classify(o.Frame.Err())
	case o.ReceiverErr != nil:
		return ClassReceiverMismatch
	default:
		return ClassNone
	}
}

// Decoder turns the text stream of one TB Live receiver into frames.
//
// Thread Safety: Decoder is NOT thread-safe. One Decoder serves one device
// stream; concurrent use must be serialised by the caller.
type Decoder struct {
	grammar  grammar.Grammar
	receiver *ReceiverProfile
	logger   *zap.Logger
	now      func() time.Time
	buf      buffer
	firmware Firmware
	mode     frame.Mode
}

// New creates a Decoder for firmware fw. Options run after fw is applied,
// so a profile passed with WithReceiver that names a firmware takes
// precedence over fw.
func New(fw Firmware, opts ...Option) (*Decoder, error) {
	d := &Decoder{
		logger: zap.NewNop(),
		now:    time.Now,
		mode:   frame.ModeListening,
	}
	if err := d.SetFirmware(fw); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Write appends p to the pending input. It never fails.
func (d *Decoder) Write(p []byte) (int, error) {
	d.buf.write(p)
	return len(p), nil
}

// Append appends text to the pending input.
func (d *Decoder) Append(text string) {
	d.buf.write([]byte(text))
}

// Parse appends text and decodes everything available.
func (d *Decoder) Parse(text string) []OutputFrame {
	d.Append(text)
	return d.Decode()
}

// Pending returns the input that has not been consumed yet.
func (d *Decoder) Pending() string {
	return string(d.buf.bytes())
}

// Reset discards the pending input.
func (d *Decoder) Reset() {
	d.buf.reset()
}

// Firmware returns the active firmware.
func (d *Decoder) Firmware() Firmware { return d.firmware }

// Firmwares lists the firmware versions the Decoder can switch to.
func (*Decoder) Firmwares() []Firmware { return SupportedFirmware() }

// Mode returns the device mode implied by the last decoded frame.
func (d *Decoder) Mode() frame.Mode { return d.mode }

// SetFirmware switches the active grammar. The receiver profile, if any,
// follows the change.
func (d *Decoder) SetFirmware(fw Firmware) error {
	g, ok := grammar.For(string(fw))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFirmware, fw)
	}
	d.grammar = g
	d.firmware = fw
	if d.receiver != nil {
		d.receiver.Firmware = fw
	}
	return nil
}

// Receiver returns a copy of the receiver profile.
func (d *Decoder) Receiver() (ReceiverProfile, bool) {
	if d.receiver == nil {
		return ReceiverProfile{}, false
	}
	return d.receiver.Clone(), true
}

// SetReceiver validates and installs a copy of p, switching to its firmware.
// An empty firmware or mode is taken from the Decoder. A nil p removes the
// profile.
func (d *Decoder) SetReceiver(p *ReceiverProfile) error {
	if p == nil {
		d.receiver = nil
		return nil
	}
	profile := p.Clone()
	if profile.Firmware == "" {
		profile.Firmware = d.firmware
	}
	if profile.Mode == "" {
		profile.Mode = d.mode
	}
	if err := profile.Validate(); err != nil {
		return err
	}
	g, _ := grammar.For(string(profile.Firmware))
	d.grammar = g
	d.firmware = profile.Firmware
	d.mode = profile.Mode
	d.receiver = &profile
	return nil
}

// Decode consumes as many frames as the pending input holds. Incomplete
// frames and the noise before them stay pending for the next call.
func (d *Decoder) Decode() []OutputFrame {
	var out []OutputFrame
	for d.buf.len() > 0 {
		fw := d.firmware
		res := d.grammar.Decode(d.buf.bytes())
		for _, dec := range res.Frames {
			out = append(out, OutputFrame{
				Frame:    dec.Frame,
				Firmware: fw,
				Mode:     dec.Mode,
				Noise:    dec.Noise,
			})
		}
		d.buf.advance(res.Consumed)

		if res.FirmwareChange == "" {
			break
		}
		next := Firmware(res.FirmwareChange)
		if !next.Supported() {
			out[len(out)-1].FirmwareErr = fmt.Errorf("%w: %s, supported versions are %v",
				ErrUnsupportedFirmware, next, SupportedFirmware())
			d.logger.Warn("unsupported firmware announced",
				zap.String("firmware", string(next)),
				zap.String("active", string(fw)))
			break
		}
		_ = d.SetFirmware(next)
		d.logger.Info("firmware changed",
			zap.String("from", string(fw)),
			zap.String("to", string(next)))
	}

	now := d.now()
	for i := range out {
		out[i].Timestamp = now
		if d.receiver != nil {
			out[i].ReceiverErr = d.receiver.check(out[i].Frame)
		}
		d.logFrame(&out[i])
	}
	if len(out) > 0 {
		d.mode = nextMode(out[len(out)-1])
		if d.receiver != nil {
			d.receiver.Mode = d.mode
		}
	}
	return out
}

func (d *Decoder) logFrame(o *OutputFrame) {
	if err := o.Frame.Err(); err != nil {
		d.logger.Debug("malformed frame",
			zap.String("kind", string(o.Kind())),
			zap.String("raw", o.Raw()),
			zap.Error(err))
	}
	if o.ReceiverErr != nil {
		d.logger.Debug("receiver mismatch",
			zap.String("kind", string(o.Kind())),
			zap.Error(o.ReceiverErr))
	}
}

// nextMode is the device mode after o was emitted.
func nextMode(o OutputFrame) frame.Mode {
	switch o.Kind() {
	case frame.KindCommandModeOn:
		return frame.ModeCommand
	case frame.KindCommandModeOff:
		return frame.ModeListening
	case frame.KindUpgradeFirmware:
		return frame.ModeUpdate
	default:
		return o.Mode
	}
}
