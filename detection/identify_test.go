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

package detection

import (
	"context"
	"testing"
	"time"

	tblive "github.com/ZaparooProject/go-tblive"
	virt "github.com/ZaparooProject/go-tblive/internal/testing"
	"github.com/ZaparooProject/go-tblive/transport/uart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentifyTransport(t *testing.T, sim *virt.VirtualReceiver) *uart.Transport {
	t.Helper()
	transport, err := uart.NewWithPort(virt.NewSerialPort(sim), "/dev/ttyUSB0", uart.Options{
		ReadTimeout: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	return transport
}

func TestIdentify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		firmware string
		noise    string
		want     Identity
	}{
		{
			name:     "firmware 1.0.1",
			firmware: "1.0.1",
			want: Identity{
				Port: "/dev/ttyUSB0", SerialNumber: virt.ReceiverSerial,
				Firmware: tblive.FirmwareV101, Frequency: virt.Frequency,
			},
		},
		{
			name:     "firmware 1.0.2 after samples",
			firmware: "1.0.2",
			noise:    virt.EmitterV101 + virt.PingV101,
			want: Identity{
				Port: "/dev/ttyUSB0", SerialNumber: virt.ReceiverSerial,
				Firmware: tblive.FirmwareV102, Frequency: virt.Frequency,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sim := virt.NewVirtualReceiver(virt.ReceiverSerial, tt.firmware, "69")
			sim.Inject(tt.noise)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			id, err := Identify(ctx, newIdentifyTransport(t, sim))
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
			assert.Equal(t, []string{"TBRC", "SN?", "FV?", "FC?", "EX!"}, sim.Commands())
		})
	}
}

func TestIdentify_UnsupportedFirmware(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualReceiver(virt.ReceiverSerial, "2.1.0", "69")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	id, err := Identify(ctx, newIdentifyTransport(t, sim))
	require.ErrorIs(t, err, tblive.ErrUnsupportedFirmware)
	assert.NotErrorIs(t, err, ErrNoReceiver)
	assert.Equal(t, virt.ReceiverSerial, id.SerialNumber)
	assert.Equal(t, tblive.Firmware("2.1.0"), id.Firmware)
	assert.Equal(t, virt.Frequency, id.Frequency)
	require.Error(t, id.Profile().Validate())
}

func TestIdentify_NoAnswer(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualReceiver(virt.ReceiverSerial, "1.0.1", "69")
	sim.Respond("TBRC", "")
	sim.Respond("SN?", "")
	sim.Respond("FV?", "")
	sim.Respond("FC?", "")
	sim.Respond("EX!", "")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := Identify(ctx, newIdentifyTransport(t, sim))
	require.ErrorIs(t, err, ErrNoReceiver)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIdentify_IncompleteAnswer(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualReceiver(virt.ReceiverSerial, "1.0.1", "69")
	sim.Respond("SN?", "")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	id, err := Identify(ctx, newIdentifyTransport(t, sim))
	require.ErrorIs(t, err, ErrNoReceiver)
	assert.Equal(t, tblive.FirmwareV101, id.Firmware)
	assert.Empty(t, id.SerialNumber)
}

func TestIdentity_Profile(t *testing.T) {
	t.Parallel()

	id := Identity{SerialNumber: virt.ReceiverSerial, Firmware: tblive.FirmwareV102, Frequency: 71}
	p := id.Profile()
	require.NoError(t, p.Validate())
	assert.Equal(t, uint8(71), p.Frequency)
	assert.Equal(t, tblive.FirmwareV102, p.Firmware)
}
