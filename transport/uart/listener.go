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

package uart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tblive "github.com/ZaparooProject/go-tblive"
	"github.com/ZaparooProject/go-tblive/internal/syncutil"
	"go.uber.org/zap"
)

// DefaultMaxPending is the pending input size at which the Listener gives
// up waiting for a frame to complete and discards the input.
const DefaultMaxPending = 64 * 1024

// idleBackoff is the pause after an empty read from a source that does not
// block, such as a Transport whose read timeout expired.
const idleBackoff = 5 * time.Millisecond

// Handler receives the frames decoded from one read.
type Handler func(frames []tblive.OutputFrame)

// Observer is notified of the Listener's progress. *metrics.DecoderMetrics
// satisfies it.
type Observer interface {
	ObserveRead(n int)
	ObserveFrames(frames []tblive.OutputFrame)
	ObserveDecoder(pending int, fw tblive.Firmware)
	ObserveDiscard(n int)
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithLogger sets the Listener logger.
func WithLogger(logger *zap.Logger) ListenerOption {
	return func(l *Listener) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithObserver reports reads and frames to o.
func WithObserver(o Observer) ListenerOption {
	return func(l *Listener) {
		l.observer = o
	}
}

// WithMaxPending overrides DefaultMaxPending. Zero or less disables the
// limit.
func WithMaxPending(n int) ListenerOption {
	return func(l *Listener) {
		l.maxPending = n
	}
}

// WithReadSize sets the read buffer size.
func WithReadSize(n int) ListenerOption {
	return func(l *Listener) {
		if n > 0 {
			l.readSize = n
		}
	}
}

// Listener reads a receiver stream and feeds it to a Decoder.
//
// Thread Safety: Run owns the read loop; the accessors below are safe to
// call from other goroutines while it runs. The Decoder must not be used
// directly once it is handed to a Listener.
type Listener struct {
	src        io.Reader
	decoder    *tblive.Decoder
	handler    Handler
	observer   Observer
	logger     *zap.Logger
	readSize   int
	maxPending int
	mu         syncutil.RWMutex
}

// NewListener creates a Listener reading src into d. A nil handler drops the
// frames.
func NewListener(src io.Reader, d *tblive.Decoder, h Handler, opts ...ListenerOption) *Listener {
	l := &Listener{
		src:        src,
		decoder:    d,
		handler:    h,
		logger:     zap.NewNop(),
		readSize:   1024,
		maxPending: DefaultMaxPending,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run reads until ctx is done or the source is exhausted. It returns nil on
// io.EOF and on cancellation.
func (l *Listener) Run(ctx context.Context) error {
	buf := make([]byte, l.readSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := l.src.Read(buf)
		if n > 0 {
			l.feed(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				l.logger.Debug("source exhausted", zap.Int("pending", len(l.Pending())))
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("listener read: %w", err)
		}
		if n == 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(idleBackoff):
			}
		}
	}
}

func (l *Listener) feed(p []byte) {
	l.mu.Lock()
	_, _ = l.decoder.Write(p)
	frames := l.decodeAll()
	pending := len(l.decoder.Pending())
	if l.maxPending > 0 && pending > l.maxPending {
		l.decoder.Reset()
		l.logger.Warn("discarding pending input",
			zap.Int("bytes", pending),
			zap.Int("limit", l.maxPending))
		if l.observer != nil {
			l.observer.ObserveDiscard(pending)
		}
		pending = 0
	}
	fw := l.decoder.Firmware()
	l.mu.Unlock()

	if l.observer != nil {
		l.observer.ObserveRead(len(p))
		l.observer.ObserveFrames(frames)
		l.observer.ObserveDecoder(pending, fw)
	}
	if len(frames) > 0 && l.handler != nil {
		l.handler(frames)
	}
}

// decodeAll decodes until the Decoder stops for want of input. An
// unsupported firmware announcement halts a single Decode call even when
// complete frames follow it. Callers must hold l.mu.
func (l *Listener) decodeAll() []tblive.OutputFrame {
	frames := l.decoder.Decode()
	for len(frames) > 0 && frames[len(frames)-1].FirmwareErr != nil {
		more := l.decoder.Decode()
		if len(more) == 0 {
			break
		}
		frames = append(frames, more...)
	}
	return frames
}

// Firmware returns the active firmware.
func (l *Listener) Firmware() tblive.Firmware {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.decoder.Firmware()
}

// SetFirmware switches the decoder grammar.
func (l *Listener) SetFirmware(fw tblive.Firmware) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.decoder.SetFirmware(fw)
}

// Receiver returns a copy of the receiver profile.
func (l *Listener) Receiver() (tblive.ReceiverProfile, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.decoder.Receiver()
}

// SetReceiver installs a receiver profile, nil removes it.
func (l *Listener) SetReceiver(p *tblive.ReceiverProfile) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.decoder.SetReceiver(p)
}

// Pending returns the undecoded input.
func (l *Listener) Pending() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.decoder.Pending()
}
