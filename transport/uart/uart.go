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

// Package uart talks to a TB Live receiver over its serial console.
package uart

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/ZaparooProject/go-tblive/internal/codec"
	"github.com/ZaparooProject/go-tblive/internal/syncutil"
	"github.com/ZaparooProject/go-tblive/internal/wire"
	"go.bug.st/serial"
)

// Console commands
const (
	CmdEnterCommandMode = "TBRC"
	CmdSerialNumber     = "SN?"
	CmdFirmware         = "FV?"
	CmdFrequency        = "FC?"
	CmdProtocol         = "LM?"
	CmdLogInterval      = "LI?"
	CmdTime             = "UT?"
	CmdSyncTime         = "(+)"
)

// DefaultBaudRate is the receiver console speed.
const DefaultBaudRate = 115200

// DefaultCharDelay is the pause between characters sent to the receiver;
// the console needs at least 1 ms between input characters.
const DefaultCharDelay = time.Millisecond

// ErrInvalidArgument is returned for command arguments the device would reject
var ErrInvalidArgument = errors.New("invalid argument")

// TransportError reports a failed serial operation.
type TransportError struct {
	Err  error  // Underlying error
	Op   string // Operation that failed
	Port string // Port name
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Options configures a Transport.
type Options struct {
	BaudRate    int
	ReadTimeout time.Duration
	CharDelay   time.Duration
}

// DefaultOptions returns the receiver console settings.
func DefaultOptions() Options {
	return Options{
		BaudRate:    DefaultBaudRate,
		ReadTimeout: defaultReadTimeout(),
		CharDelay:   DefaultCharDelay,
	}
}

// defaultReadTimeout returns the platform read timeout
func defaultReadTimeout() time.Duration {
	if runtime.GOOS == "windows" {
		return 100 * time.Millisecond
	}
	return 50 * time.Millisecond
}

// Transport is an open receiver console. Reads return (0, nil) when the
// read timeout expires without data.
//
// Thread Safety: Read may run concurrently with the sending methods; sends
// are serialised so commands never interleave on the line.
type Transport struct {
	port     serial.Port
	portName string
	opts     Options
	mu       syncutil.Mutex
}

// Open opens portName. Zero option fields take their defaults.
func Open(portName string, opts Options) (*Transport, error) {
	opts = withDefaults(opts)
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, &TransportError{Op: "open", Port: portName, Err: err}
	}
	t, err := NewWithPort(port, portName, opts)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return t, nil
}

// NewWithPort wraps an already open port.
func NewWithPort(port serial.Port, portName string, opts Options) (*Transport, error) {
	opts = withDefaults(opts)
	if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
		return nil, &TransportError{Op: "set read timeout", Port: portName, Err: err}
	}
	return &Transport{port: port, portName: portName, opts: opts}, nil
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.BaudRate <= 0 {
		opts.BaudRate = def.BaudRate
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = def.ReadTimeout
	}
	if opts.CharDelay <= 0 {
		opts.CharDelay = def.CharDelay
	}
	return opts
}

// PortName returns the serial port name.
func (t *Transport) PortName() string { return t.portName }

// Read reads receiver output. Interrupted system calls are reported as an
// empty read.
func (t *Transport) Read(p []byte) (int, error) {
	n, err := t.port.Read(p)
	if err != nil {
		if isInterruptedSystemCall(err) {
			return n, nil
		}
		return n, &TransportError{Op: "read", Port: t.portName, Err: err}
	}
	return n, nil
}

// Write writes p unpaced.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.write(p)
}

func (t *Transport) write(p []byte) (int, error) {
	n, err := t.port.Write(p)
	if err != nil {
		return n, &TransportError{Op: "write", Port: t.portName, Err: err}
	}
	return n, nil
}

// Send writes text one character at a time, pausing CharDelay between
// characters. It stops early when ctx is done.
func (t *Transport) Send(ctx context.Context, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for i := 0; i < len(text); i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("send cancelled after %d of %d characters: %w", i, len(text), err)
		}
		if _, err := t.write([]byte{text[i]}); err != nil {
			return err
		}
		if i == len(text)-1 {
			break
		}
		timer.Reset(t.opts.CharDelay)
		select {
		case <-ctx.Done():
			return fmt.Errorf("send cancelled after %d of %d characters: %w", i+1, len(text), ctx.Err())
		case <-timer.C:
		}
	}
	return nil
}

// EnterCommandMode asks the receiver to switch to its command console. The
// receiver answers with a command mode frame.
func (t *Transport) EnterCommandMode(ctx context.Context) error {
	return t.Send(ctx, CmdEnterCommandMode)
}

// ExitCommandMode returns the receiver to listening.
func (t *Transport) ExitCommandMode(ctx context.Context) error {
	return t.Send(ctx, wire.CommandModeOff)
}

// Query sends a read command such as CmdFirmware.
func (t *Transport) Query(ctx context.Context, cmd string) error {
	switch cmd {
	case CmdSerialNumber, CmdFirmware, CmdFrequency, CmdProtocol, CmdLogInterval, CmdTime:
		return t.Send(ctx, cmd)
	default:
		return fmt.Errorf("%w: unknown query %q", ErrInvalidArgument, cmd)
	}
}

// SetFrequency sets the listening frequency in kHz.
func (t *Transport) SetFrequency(ctx context.Context, khz int) error {
	if err := codec.CheckFrequency(khz); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return t.Send(ctx, fmt.Sprintf("%s%02d", wire.FrequencyStart, khz))
}

// SetLogInterval sets the sensor log interval code.
func (t *Transport) SetLogInterval(ctx context.Context, code int) error {
	if code < wire.LogIntervalMin || code > wire.LogIntervalMax {
		return fmt.Errorf("%w: log interval %d should be between %d and %d",
			ErrInvalidArgument, code, wire.LogIntervalMin, wire.LogIntervalMax)
	}
	return t.Send(ctx, fmt.Sprintf("%s%02d", wire.LogIntervalStart, code))
}

// SetProtocol selects the active listening protocols.
func (t *Transport) SetProtocol(ctx context.Context, code string) error {
	if _, ok := codec.LookupProtocol(code); !ok {
		return fmt.Errorf("%w: unknown listening protocol %q", ErrInvalidArgument, code)
	}
	return t.Send(ctx, wire.ProtocolStart+code)
}

// SetTime sets the receiver clock from command mode.
func (t *Transport) SetTime(ctx context.Context, now time.Time) error {
	return t.Send(ctx, fmt.Sprintf("%s%010d", wire.TimestampStart, now.Unix()))
}

// SyncTime rounds the receiver clock while listening. The receiver
// acknowledges with a round clock frame.
func (t *Transport) SyncTime(ctx context.Context) error {
	return t.Send(ctx, CmdSyncTime)
}

// SyncAndSetTime sets the receiver clock while listening. The receiver
// acknowledges with a set clock frame.
func (t *Transport) SyncAndSetTime(ctx context.Context, now time.Time) error {
	return t.Send(ctx, SetClockCommand(now))
}

// SetClockCommand encodes now as "(+)" followed by the Unix time in tens of
// seconds and a Luhn check digit.
func SetClockCommand(now time.Time) string {
	digits := fmt.Sprintf("%09d", now.Unix()/10)
	return CmdSyncTime + digits + strconv.Itoa(luhnCheckDigit(digits))
}

// luhnCheckDigit returns the digit that makes digits+check pass the Luhn test.
func luhnCheckDigit(digits string) int {
	sum := 0
	double := true
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}

// SetReadTimeout sets the read timeout of the port.
func (t *Transport) SetReadTimeout(timeout time.Duration) error {
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return &TransportError{Op: "set read timeout", Port: t.portName, Err: err}
	}
	t.opts.ReadTimeout = timeout
	return nil
}

// Close closes the port.
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	if err := t.port.Close(); err != nil {
		return &TransportError{Op: "close", Port: t.portName, Err: err}
	}
	return nil
}

// isInterruptedSystemCall checks if an error is caused by an interrupted system call
func isInterruptedSystemCall(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "interrupted system call") ||
		strings.Contains(errStr, "eintr")
}
