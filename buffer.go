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

package tblive

// buffer is the driver's pending input: an owned byte slice and a read
// cursor. Consumed bytes are reclaimed lazily on the next write.
type buffer struct {
	data []byte
	off  int
}

func (b *buffer) write(p []byte) {
	if b.off > 0 && b.off >= cap(b.data)/2 {
		n := copy(b.data, b.data[b.off:])
		b.data = b.data[:n]
		b.off = 0
	}
	b.data = append(b.data, p...)
}

func (b *buffer) bytes() []byte { return b.data[b.off:] }

func (b *buffer) len() int { return len(b.data) - b.off }

func (b *buffer) advance(n int) {
	b.off += n
	if b.off >= len(b.data) {
		b.reset()
	}
}

func (b *buffer) reset() {
	b.data = b.data[:0]
	b.off = 0
}
