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

package testing

import (
	"fmt"
	"time"

	"github.com/ZaparooProject/go-tblive/internal/syncutil"
	"go.bug.st/serial"
)

// SerialPort exposes a VirtualReceiver as a serial.Port.
type SerialPort struct {
	sim         *VirtualReceiver
	readTimeout time.Duration
	mu          syncutil.Mutex
	closed      bool
}

// NewSerialPort creates a serial port backed by sim.
func NewSerialPort(sim *VirtualReceiver) *SerialPort {
	return &SerialPort{
		sim:         sim,
		readTimeout: DefaultReadTimeout,
	}
}

func (p *SerialPort) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (*SerialPort) SetMode(_ *serial.Mode) error {
	return nil
}

func (p *SerialPort) Read(buf []byte) (n int, err error) {
	if p.isClosed() {
		return 0, ErrPortClosed
	}
	n, err = p.sim.Read(buf)
	if err != nil {
		return n, fmt.Errorf("virtual read: %w", err)
	}
	return n, nil
}

func (p *SerialPort) Write(data []byte) (n int, err error) {
	if p.isClosed() {
		return 0, ErrPortClosed
	}
	n, err = p.sim.Write(data)
	if err != nil {
		return n, fmt.Errorf("virtual write: %w", err)
	}
	return n, nil
}

func (*SerialPort) Drain() error {
	return nil
}

func (*SerialPort) ResetInputBuffer() error {
	return nil
}

func (*SerialPort) ResetOutputBuffer() error {
	return nil
}

func (*SerialPort) SetDTR(_ bool) error {
	return nil
}

func (*SerialPort) SetRTS(_ bool) error {
	return nil
}

func (*SerialPort) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return &serial.ModemStatusBits{}, nil
}

func (p *SerialPort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	p.readTimeout = t
	p.mu.Unlock()
	return p.sim.SetReadTimeout(t)
}

// ReadTimeout returns the last timeout set on the port.
func (p *SerialPort) ReadTimeout() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readTimeout
}

func (p *SerialPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (*SerialPort) Break(_ time.Duration) error {
	return nil
}

// Verify interface implementation
var _ serial.Port = (*SerialPort)(nil)
