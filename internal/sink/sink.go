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

// Package sink delivers decoded frames to their consumers: JSON lines on a
// writer or a Redis stream.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	tblive "github.com/ZaparooProject/go-tblive"
	"github.com/ZaparooProject/go-tblive/frame"
	"github.com/ZaparooProject/go-tblive/internal/syncutil"
	"github.com/google/uuid"
)

// Sink consumes decoded frames.
type Sink interface {
	Write(ctx context.Context, frames []tblive.OutputFrame) error
	Close() error
}

// Event is the serialised form of one output frame.
type Event struct {
	Time time.Time `json:"time"`
	frame.Record
	Session       string `json:"session"`
	Firmware      string `json:"firmware"`
	Mode          string `json:"mode"`
	Class         string `json:"class,omitempty"`
	FirmwareError string `json:"firmwareError,omitempty"`
	ReceiverError string `json:"receiverError,omitempty"`
	Noise         string `json:"noise,omitempty"`
	Seq           uint64 `json:"seq"`
}

// NewEvent flattens o. seq orders events within a session.
func NewEvent(session string, seq uint64, o *tblive.OutputFrame) Event {
	e := Event{
		Time:     o.Timestamp,
		Record:   frame.Describe(o.Frame),
		Session:  session,
		Firmware: string(o.Firmware),
		Mode:     string(o.Mode),
		Class:    string(o.Class()),
		Noise:    o.Noise,
		Seq:      seq,
	}
	if o.FirmwareErr != nil {
		e.FirmwareError = o.FirmwareErr.Error()
	}
	if o.ReceiverErr != nil {
		e.ReceiverError = o.ReceiverErr.Error()
	}
	return e
}

// NewSessionID returns a random identifier for one capture session.
func NewSessionID() string {
	return uuid.NewString()
}

// sequence numbers the events of a session.
type sequence struct {
	session string
	next    uint64
}

func (s *sequence) event(o *tblive.OutputFrame) Event {
	s.next++
	return NewEvent(s.session, s.next, o)
}

// JSONLines writes one JSON object per frame.
//
// Thread Safety: JSONLines is safe for concurrent use.
type JSONLines struct {
	w   io.Writer
	enc *json.Encoder
	seq sequence
	mu  syncutil.Mutex
}

// NewJSONLines writes events for session to w. Closing the sink closes w
// when it is an io.Closer.
func NewJSONLines(w io.Writer, session string) *JSONLines {
	return &JSONLines{w: w, enc: json.NewEncoder(w), seq: sequence{session: session}}
}

// Write encodes frames in order.
func (s *JSONLines) Write(_ context.Context, frames []tblive.OutputFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range frames {
		if err := s.enc.Encode(s.seq.event(&frames[i])); err != nil {
			return fmt.Errorf("failed to write frame: %w", err)
		}
	}
	return nil
}

// Close closes the underlying writer if it can be closed.
func (s *JSONLines) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close() //nolint:wrapcheck // Pass-through close
	}
	return nil
}

// Multi writes to every sink in turn and reports all failures.
type Multi []Sink

func (m Multi) Write(ctx context.Context, frames []tblive.OutputFrame) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, frames); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
