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

// Package testing provides test utilities for TB Live streams: shared wire
// fixtures, a fragmenting reader and a virtual receiver port.
//
// The VirtualReceiver type implements io.ReadWriteCloser and behaves like a
// receiver on a serial line: injected text is read back in order, reads time
// out with (0, nil) like a serial port, and a few console commands are
// answered the way the device answers them.
package testing

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/ZaparooProject/go-tblive/internal/syncutil"
)

// ErrPortClosed is returned by writes on a closed VirtualReceiver
var ErrPortClosed = errors.New("virtual port closed")

// DefaultReadTimeout is how long Read waits for data before returning (0, nil)
const DefaultReadTimeout = 20 * time.Millisecond

// VirtualReceiver simulates the serial console of a TB Live receiver.
//
// Thread Safety: all methods are safe for concurrent use.
type VirtualReceiver struct {
	notify      chan struct{}
	replies     map[string]string
	tx          bytes.Buffer
	rx          bytes.Buffer
	commands    []string
	readTimeout time.Duration
	mu          syncutil.Mutex
	closed      bool
}

// NewVirtualReceiver creates a receiver console identified by serial,
// running firmware and listening at frequency.
func NewVirtualReceiver(serial, firmware, frequency string) *VirtualReceiver {
	v := &VirtualReceiver{
		notify:      make(chan struct{}, 1),
		readTimeout: DefaultReadTimeout,
	}
	v.replies = map[string]string{
		"TBRC": CommandModeOn,
		"SN?":  "SN=" + serial,
		"FV?":  "FV=" + firmware,
		"FC?":  "FC=" + frequency,
		"EX!":  CommandExit,
	}
	return v
}

// Inject queues text as if the device had sent it.
func (v *VirtualReceiver) Inject(text string) {
	v.mu.Lock()
	v.tx.WriteString(text)
	v.mu.Unlock()
	v.wake()
}

// Respond sets the reply to a console command. An empty reply silences it.
func (v *VirtualReceiver) Respond(command, reply string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if reply == "" {
		delete(v.replies, command)
		return
	}
	v.replies[command] = reply
}

// SetReadTimeout changes how long Read waits for data.
func (v *VirtualReceiver) SetReadTimeout(timeout time.Duration) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.readTimeout = timeout
	return nil
}

// Read returns queued device output. It returns (0, nil) when nothing
// arrives within the read timeout and io.EOF once closed and drained.
func (v *VirtualReceiver) Read(buf []byte) (int, error) {
	for {
		v.mu.Lock()
		if v.tx.Len() > 0 {
			n, _ := v.tx.Read(buf)
			v.mu.Unlock()
			return n, nil
		}
		if v.closed {
			v.mu.Unlock()
			return 0, io.EOF
		}
		timeout := v.readTimeout
		v.mu.Unlock()

		select {
		case <-v.notify:
		case <-time.After(timeout):
			return 0, nil
		}
	}
}

// Write accepts host input. A complete console command queues its reply.
func (v *VirtualReceiver) Write(data []byte) (int, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return 0, ErrPortClosed
	}
	v.rx.Write(data)
	replied := v.processReceivedData()
	v.mu.Unlock()

	if replied {
		v.wake()
	}
	return len(data), nil
}

// processReceivedData matches the pending input against the known
// commands. Callers must hold v.mu.
func (v *VirtualReceiver) processReceivedData() bool {
	pending := strings.TrimRight(v.rx.String(), "\r\n")
	if pending == "" {
		v.rx.Reset()
		return false
	}
	for command, reply := range v.replies {
		if strings.HasSuffix(pending, command) {
			v.commands = append(v.commands, command)
			v.rx.Reset()
			v.tx.WriteString(reply)
			return true
		}
	}
	return false
}

// Commands returns the console commands received so far.
func (v *VirtualReceiver) Commands() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.commands...)
}

// Received returns host input not yet matched to a command.
func (v *VirtualReceiver) Received() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rx.String()
}

// Close ends the stream; Read drains the queued output then returns io.EOF.
func (v *VirtualReceiver) Close() error {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.wake()
	return nil
}

func (v *VirtualReceiver) wake() {
	select {
	case v.notify <- struct{}{}:
	default:
	}
}
