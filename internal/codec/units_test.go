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

package codec

import (
	"testing"

	"github.com/ZaparooProject/go-tblive/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpackInclination(t *testing.T) {
	t.Parallel()

	got := UnpackInclination(52428)

	assert.Equal(t, uint16(52428), got.Raw)
	assert.Equal(t, uint16(52428&0x3FF), got.AngleRaw)
	assert.Equal(t, uint16((52428>>10)&0x3F), got.DeviationRaw)
	assert.InDelta(t, float64(52428&0x3FF)/10, got.Angle, 1e-9)
	assert.InDelta(t, float64((52428>>10)&0x3F)/4, got.Deviation, 1e-9)
	assert.InDelta(t, 20.4, got.Angle, 1e-9)
	assert.InDelta(t, 12.75, got.Deviation, 1e-9)
}

func TestUnpackInclinationBounds(t *testing.T) {
	t.Parallel()

	zero := UnpackInclination(0)
	assert.Zero(t, zero.Angle)
	assert.Zero(t, zero.Deviation)

	full := UnpackInclination(0xFFFF)
	assert.InDelta(t, 102.3, full.Angle, 1e-9)
	assert.InDelta(t, 15.75, full.Deviation, 1e-9)
}

func TestClassifySNR(t *testing.T) {
	t.Parallel()
	tests := []struct {
		want frame.Signal
		raw  uint8
	}{
		{raw: 0, want: frame.SignalWeak},
		{raw: 6, want: frame.SignalWeak},
		{raw: 7, want: frame.SignalRegular},
		{raw: 25, want: frame.SignalRegular},
		{raw: 26, want: frame.SignalStrong},
		{raw: 255, want: frame.SignalStrong},
	}

	for _, tt := range tests {
		got := ClassifySNR(tt.raw)
		assert.Equal(t, tt.want, got.Signal, "raw=%d", tt.raw)
		assert.Equal(t, tt.raw, got.Raw)
	}
}

func TestDecodeTemperature(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 24.7, DecodeTemperature(297).Celsius, 1e-9)
	assert.InDelta(t, 0.0, DecodeTemperature(50).Celsius, 1e-9)
	assert.InDelta(t, -5.0, DecodeTemperature(0).Celsius, 1e-9)
}

func TestParseSerialNumber(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		serial  string
		want    uint32
		wantErr bool
	}{
		{name: "seven digits", serial: "1000042", want: 1000042},
		{name: "six digits", serial: "001129", want: 1129},
		{name: "too short", serial: "12345", wantErr: true},
		{name: "too long", serial: "12345678", wantErr: true},
		{name: "not digits", serial: "12a4567", wantErr: true},
		{name: "negative", serial: "-123456", wantErr: true},
		{name: "empty", serial: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSerialNumber(tt.serial)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidSerialNumber)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckFrequency(t *testing.T) {
	t.Parallel()

	for khz := 63; khz <= 77; khz++ {
		assert.NoError(t, CheckFrequency(khz), "khz=%d", khz)
	}
	require.ErrorIs(t, CheckFrequency(62), ErrInvalidFrequency)
	require.ErrorIs(t, CheckFrequency(78), ErrInvalidFrequency)
}

func TestLookupProtocol(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 27, ProtocolCodes())

	p, ok := LookupProtocol("00")
	require.True(t, ok)
	assert.Equal(t, "single", p.Channel)
	assert.Equal(t, []string{"R256", "R04K", "R64K"}, p.ID)
	assert.Equal(t, []string{"S256"}, p.Data)

	p, ok = LookupProtocol("37")
	require.True(t, ok)
	assert.Equal(t, "dual", p.Channel)
	assert.Equal(t, []string{"OPi"}, p.ID)
	assert.Equal(t, []string{"OPs"}, p.Data)

	p, ok = LookupProtocol("63")
	require.True(t, ok)
	assert.Equal(t, "triple", p.Channel)
	assert.Empty(t, p.Data)

	for _, code := range []string{"09", "29", "39", "59", "69", "99", "0", "ab"} {
		_, ok := LookupProtocol(code)
		assert.False(t, ok, code)
	}
}

func TestLookupProtocolReturnsCopy(t *testing.T) {
	t.Parallel()

	p, ok := LookupProtocol("08")
	require.True(t, ok)
	p.ID[0] = "changed"

	again, _ := LookupProtocol("08")
	assert.Equal(t, "R64K", again.ID[0])
}
