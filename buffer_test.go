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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer(t *testing.T) {
	t.Parallel()

	b := buffer{data: make([]byte, 0, 12)}
	b.write([]byte("ack01\rack02\r"))
	assert.Equal(t, 12, b.len())

	b.advance(6)
	assert.Equal(t, "ack02\r", string(b.bytes()))

	b.write([]byte("SN="))
	assert.Equal(t, "ack02\rSN=", string(b.bytes()))
	assert.Zero(t, b.off, "consumed half is reclaimed on write")

	b.advance(b.len())
	assert.Zero(t, b.len())
	assert.Zero(t, b.off)

	b.write([]byte("EX!"))
	b.reset()
	assert.Empty(t, b.bytes())
}
