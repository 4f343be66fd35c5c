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
	"io"
	"math/rand/v2"
	"time"
)

// usbPacketSize is the bulk transfer size of USB serial adapters
const usbPacketSize = 64

// FragmentConfig configures how a FragmentingReader cuts the stream.
type FragmentConfig struct {
	// MaxLatency is the upper bound of the random delay before each read
	MaxLatency time.Duration
	// StallDuration is slept once StallAfterBytes have been delivered
	StallDuration time.Duration
	// Seed makes the fragmentation reproducible; zero picks a random seed
	Seed uint64
	// FragmentMinBytes is the smallest fragment returned, at least 1
	FragmentMinBytes int
	// StallAfterBytes stops delivery at that offset until the stall has passed
	StallAfterBytes int
	// USBBoundaryStress cuts reads at 64 byte boundaries
	USBBoundaryStress bool
}

// FragmentingReader delivers a backend stream in random slices the way a
// serial adapter hands over bytes: short reads, pauses and cuts at USB
// packet boundaries. No byte is lost or reordered.
type FragmentingReader struct {
	backend   io.Reader
	rng       *rand.Rand
	readBuf   []byte
	config    FragmentConfig
	delivered int
	stalled   bool
}

// NewFragmentingReader wraps backend.
func NewFragmentingReader(backend io.Reader, config FragmentConfig) *FragmentingReader {
	if config.FragmentMinBytes < 1 {
		config.FragmentMinBytes = 1
	}
	return &FragmentingReader{
		backend: backend,
		config:  config,
		rng:     newRand(config.Seed),
		readBuf: make([]byte, 0, 1024),
	}
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // Test code, not crypto
	}
	return rand.New(rand.NewPCG(seed, seed^0xDEADBEEF)) //nolint:gosec // Test code, not crypto
}

// Read returns the next fragment of the backend stream.
//
//nolint:gocognit,cyclop // Fragmentation simulation inherently requires multiple conditions
func (f *FragmentingReader) Read(buf []byte) (int, error) {
	if f.config.MaxLatency > 0 {
		if delay := time.Duration(f.rng.Int64N(int64(f.config.MaxLatency) + 1)); delay > 0 {
			time.Sleep(delay)
		}
	}

	if len(f.readBuf) == 0 {
		tmp := make([]byte, 1024)
		n, err := f.backend.Read(tmp)
		if n == 0 {
			return 0, err //nolint:wrapcheck // Pass-through wrapper
		}
		f.readBuf = append(f.readBuf, tmp[:n]...)
	}

	toReturn := min(len(f.readBuf), len(buf))

	if f.config.StallAfterBytes > 0 && !f.stalled {
		if f.delivered >= f.config.StallAfterBytes {
			f.stalled = true
			if f.config.StallDuration > 0 {
				time.Sleep(f.config.StallDuration)
			}
		} else {
			toReturn = min(toReturn, f.config.StallAfterBytes-f.delivered)
		}
	}

	if f.config.USBBoundaryStress && toReturn > 0 {
		untilBoundary := usbPacketSize - f.delivered%usbPacketSize
		toReturn = min(toReturn, untilBoundary)
	}

	if toReturn > f.config.FragmentMinBytes {
		toReturn = f.config.FragmentMinBytes + f.rng.IntN(toReturn-f.config.FragmentMinBytes+1)
	}

	copy(buf, f.readBuf[:toReturn])
	f.readBuf = f.readBuf[toReturn:]
	f.delivered += toReturn
	return toReturn, nil
}

// Delivered returns the number of bytes handed out so far.
func (f *FragmentingReader) Delivered() int {
	return f.delivered
}

// Split cuts s into random non-empty chunks whose concatenation is s.
// The same seed always yields the same cut.
func Split(s string, seed uint64) []string {
	rng := newRand(seed)
	var chunks []string
	for len(s) > 0 {
		n := 1 + rng.IntN(min(len(s), 16))
		chunks = append(chunks, s[:n])
		s = s[n:]
	}
	return chunks
}
