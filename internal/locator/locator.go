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

// Package locator finds the next frame anchor in a TB Live buffer. Listening
// and command flags are searched together since the device may switch
// output style at any byte.
package locator

import (
	"bytes"

	"github.com/ZaparooProject/go-tblive/frame"
	"github.com/ZaparooProject/go-tblive/internal/wire"
)

// Flag is a literal frame anchor.
type Flag struct {
	Literal string
	Kind    frame.Kind
	Mode    frame.Mode
}

// Match is the earliest live anchor in a buffer.
type Match struct {
	Flag  Flag
	Index int
	// Last is set when no other anchor occurs after Index.
	Last bool
	// Pending is set when the anchor is a ping/serial number collision that
	// cannot be classified until more bytes arrive.
	Pending bool
}

// Mode returns the universe of the matched flag.
func (m Match) Mode() frame.Mode { return m.Flag.Mode }

// Table is the flag set of one grammar. It is immutable after New.
type Table struct {
	flags      []Flag
	ping       Flag
	serial     Flag
	terminator []byte
	window     int
	collision  bool
}

// New builds a table. When both a listening and a command flag use the
// ping anchor, occurrences are told apart by looking for terminator within
// wire.PingWindow bytes of the anchor.
func New(terminator string, flags ...Flag) *Table {
	t := &Table{
		terminator: []byte(terminator),
		window:     wire.PingWindow(terminator),
	}
	var hasPing, hasSerial bool
	for _, f := range flags {
		if f.Literal == wire.PingStart {
			if f.Mode == frame.ModeListening {
				t.ping, hasPing = f, true
			} else {
				t.serial, hasSerial = f, true
			}
			continue
		}
		t.flags = append(t.flags, f)
	}
	switch {
	case hasPing && hasSerial:
		t.collision = true
	case hasPing:
		t.flags = append(t.flags, t.ping)
	case hasSerial:
		t.flags = append(t.flags, t.serial)
	}
	return t
}

// Flags returns every flag of the table.
func (t *Table) Flags() []Flag {
	out := append([]Flag(nil), t.flags...)
	if t.collision {
		out = append(out, t.ping, t.serial)
	}
	return out
}

// Locate returns the earliest live anchor in buf.
func (t *Table) Locate(buf []byte) (Match, bool) {
	m, ok := t.first(buf, 0)
	if !ok {
		return Match{}, false
	}
	if !m.Pending {
		_, more := t.first(buf, m.Index+1)
		m.Last = !more
	}
	return m, true
}

// first returns the earliest live anchor starting at or after from.
func (t *Table) first(buf []byte, from int) (Match, bool) {
	best := Match{Index: -1}
	for _, f := range t.flags {
		i := t.next(buf, from, f)
		if i >= 0 && (best.Index < 0 || i < best.Index) {
			best = Match{Index: i, Flag: f}
		}
	}
	if t.collision {
		if m, ok := t.nextCollision(buf, from); ok && (best.Index < 0 || m.Index < best.Index) {
			best = m
		}
	}
	return best, best.Index >= 0
}

// next returns the first live occurrence of f at or after from, or -1.
func (t *Table) next(buf []byte, from int, f Flag) int {
	lit := []byte(f.Literal)
	for from <= len(buf) {
		i := bytes.Index(buf[from:], lit)
		if i < 0 {
			return -1
		}
		i += from
		if f.Mode == frame.ModeCommand {
			if end, ok := helpBlockEnd(buf, i); ok {
				from = end
				continue
			}
		}
		return i
	}
	return -1
}

// nextCollision classifies occurrences of the shared ping anchor.
func (t *Table) nextCollision(buf []byte, from int) (Match, bool) {
	lit := []byte(wire.PingStart)
	for from <= len(buf) {
		i := bytes.Index(buf[from:], lit)
		if i < 0 {
			return Match{}, false
		}
		i += from
		end := min(i+t.window, len(buf))
		switch {
		case bytes.Contains(buf[i:end], t.terminator):
			return Match{Index: i, Flag: t.ping}, true
		case i+t.window > len(buf) && t.couldBePing(buf[i+len(lit):]):
			return Match{Index: i, Flag: t.ping, Pending: true}, true
		}
		if helpEnd, ok := helpBlockEnd(buf, i); ok {
			from = helpEnd
			continue
		}
		return Match{Index: i, Flag: t.serial}, true
	}
	return Match{}, false
}

// couldBePing reports whether tail, the bytes after a ping anchor up to the
// end of the buffer, may still grow into "<serial>[ ]<terminator>".
func (t *Table) couldBePing(tail []byte) bool {
	n := 0
	for n < len(tail) && n < wire.SerialNumberLengthMax+1 && (isDigit(tail[n]) || tail[n] == ' ') {
		n++
	}
	return bytes.HasPrefix(t.terminator, tail[n:])
}

// helpBlockEnd reports whether the command literal at i sits inside the
// nearest preceding complete help block, and where that block ends.
func helpBlockEnd(buf []byte, i int) (int, bool) {
	start := bytes.LastIndex(buf[:i], []byte(wire.HelpStart))
	if start < 0 {
		return 0, false
	}
	end := bytes.Index(buf[start:], []byte(wire.HelpEnd))
	if end < 0 {
		return 0, false
	}
	end += start + len(wire.HelpEnd)
	if i >= end {
		return 0, false
	}
	return end, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
