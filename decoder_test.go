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
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/go-tblive/frame"
	virt "github.com/ZaparooProject/go-tblive/internal/testing"
	"github.com/ZaparooProject/go-tblive/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// scenario is the five frame listening capture: noise, round clock, emitter,
// ping, noise, log, set clock.
const scenario = virt.Garbage + wire.ClockRound + virt.EmitterV101 + virt.PingV101 +
	virt.Garbage + virt.LogV101 + wire.ClockSet

// session is a longer 1.0.1 capture going through command mode and back.
const session = scenario +
	virt.CommandModeOn + virt.SerialNumber + virt.HelpText + virt.FrequencyEcho + virt.LogInterval +
	virt.Protocol + virt.DeviceTime + virt.CommandExit + virt.EmitterV101

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDecoder(t *testing.T, fw Firmware, opts ...Option) *Decoder {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedTime })}, opts...)
	d, err := New(fw, opts...)
	require.NoError(t, err)
	return d
}

func kinds(frames []OutputFrame) []frame.Kind {
	out := make([]frame.Kind, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Kind())
	}
	return out
}

// summarize renders the comparable part of each frame, timestamps excluded.
func summarize(frames []OutputFrame) []string {
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, fmt.Sprintf("%s|%q|%q|%v|%v|%s|%s",
			f.Kind(), f.Raw(), f.Noise, f.Err(), f.FirmwareErr, f.Firmware, f.Mode))
	}
	return out
}

// rebuild concatenates noise and raw text of every frame.
func rebuild(frames []OutputFrame) string {
	var sb strings.Builder
	for _, f := range frames {
		sb.WriteString(f.Noise)
		sb.WriteString(f.Raw())
	}
	return sb.String()
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		fw      Firmware
		opts    []Option
	}{
		{name: "default firmware", fw: DefaultFirmware},
		{name: "newer firmware", fw: FirmwareV102},
		{name: "unsupported firmware", fw: "1.0.3", wantErr: ErrUnsupportedFirmware},
		{name: "empty firmware", fw: "", wantErr: ErrUnsupportedFirmware},
		{name: "nil logger", fw: FirmwareV101, opts: []Option{WithLogger(nil)}, wantErr: ErrInvalidOption},
		{name: "nil clock", fw: FirmwareV101, opts: []Option{WithClock(nil)}, wantErr: ErrInvalidOption},
		{
			name:    "invalid receiver",
			fw:      FirmwareV101,
			opts:    []Option{WithReceiver(ReceiverProfile{SerialNumber: "12", Frequency: 69})},
			wantErr: ErrInvalidReceiver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := New(tt.fw, tt.opts...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, d)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.fw, d.Firmware())
			assert.Equal(t, frame.ModeListening, d.Mode())
			assert.Empty(t, d.Pending())
		})
	}
}

func TestNew_ReceiverFirmwareWins(t *testing.T) {
	t.Parallel()

	profile := testProfile()
	profile.Firmware = FirmwareV102
	d, err := New(FirmwareV101, WithReceiver(profile))
	require.NoError(t, err)
	assert.Equal(t, FirmwareV102, d.Firmware())

	p, ok := d.Receiver()
	require.True(t, ok)
	assert.Equal(t, FirmwareV102, p.Firmware)

	frames := d.Parse(virt.PingV102)
	require.Len(t, frames, 1)
	assert.Equal(t, frame.KindPing, frames[0].Kind())
}

func TestDecoder_Scenario(t *testing.T) {
	t.Parallel()

	d := newTestDecoder(t, FirmwareV101)
	frames := d.Parse(scenario)

	assert.Equal(t, []frame.Kind{
		frame.KindRoundClock, frame.KindEmitter, frame.KindPing, frame.KindReceiver, frame.KindSetClock,
	}, kinds(frames))
	assert.Empty(t, d.Pending())
	assert.Equal(t, scenario, rebuild(frames))

	for _, f := range frames {
		require.NoError(t, f.Err())
		assert.Equal(t, ClassNone, f.Class())
		assert.Equal(t, fixedTime, f.Timestamp)
		assert.Equal(t, FirmwareV101, f.Firmware)
		assert.Equal(t, frame.ModeListening, f.Mode)
	}
	assert.Equal(t, virt.Garbage, frames[0].Noise)
	assert.Equal(t, virt.Garbage, frames[3].Noise)

	emitter, ok := frames[1].Frame.(frame.EmitterSample)
	require.True(t, ok)
	assert.Equal(t, virt.ReceiverSerial, emitter.Receiver)
	assert.Equal(t, virt.EmitterSerial, emitter.Emitter)
	assert.Equal(t, int64(2202615), emitter.Timestamp())
	require.NotNil(t, emitter.Data)
	assert.InDelta(t, 20.4, emitter.Data.Angle, 1e-9)
	assert.InDelta(t, 12.75, emitter.Data.Deviation, 1e-9)
	assert.Equal(t, frame.SignalRegular, emitter.SNR.Signal)

	ping, ok := frames[2].Frame.(frame.Ping)
	require.True(t, ok)
	assert.Equal(t, virt.ReceiverSerial, ping.Serial)
}

func TestDecoder_Session(t *testing.T) {
	t.Parallel()

	d := newTestDecoder(t, FirmwareV101)
	frames := d.Parse(session)

	assert.Equal(t, []frame.Kind{
		frame.KindRoundClock, frame.KindEmitter, frame.KindPing, frame.KindReceiver, frame.KindSetClock,
		frame.KindCommandModeOn, frame.KindSerialNumber, frame.KindHelp, frame.KindFrequency,
		frame.KindLogInterval, frame.KindProtocol, frame.KindDeviceTime, frame.KindCommandModeOff,
		frame.KindEmitter,
	}, kinds(frames))
	for _, f := range frames {
		require.NoError(t, f.Err(), f.Raw())
	}
	assert.Empty(t, d.Pending())
	assert.Equal(t, session, rebuild(frames))
	assert.Equal(t, virt.HelpText, frames[7].Raw())
	assert.Equal(t, frame.ModeListening, d.Mode())
}

func TestDecoder_SplitInvariance(t *testing.T) {
	t.Parallel()

	whole := newTestDecoder(t, FirmwareV101).Parse(session)
	want := summarize(whole)

	for seed := uint64(1); seed <= 64; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			t.Parallel()

			d := newTestDecoder(t, FirmwareV101)
			var got []OutputFrame
			for _, chunk := range virt.Split(session, seed) {
				got = append(got, d.Parse(chunk)...)
			}
			assert.Equal(t, want, summarize(got))
			assert.Empty(t, d.Pending())
		})
	}

	t.Run("byte by byte", func(t *testing.T) {
		t.Parallel()

		d := newTestDecoder(t, FirmwareV101)
		var got []OutputFrame
		for i := range len(session) {
			got = append(got, d.Parse(session[i:i+1])...)
		}
		assert.Equal(t, want, summarize(got))
	})
}

func TestDecoder_FragmentedReads(t *testing.T) {
	t.Parallel()

	input := strings.Repeat(scenario, 20)
	want := summarize(newTestDecoder(t, FirmwareV101).Parse(input))

	r := virt.NewFragmentingReader(strings.NewReader(input), virt.FragmentConfig{
		USBBoundaryStress: true,
		Seed:              2026,
	})
	d := newTestDecoder(t, FirmwareV101)
	var got []OutputFrame
	buf := make([]byte, 128)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = d.Write(buf[:n])
			got = append(got, d.Decode()...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}

	assert.Len(t, got, 100)
	assert.Equal(t, want, summarize(got))
}

func TestDecoder_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "scenario", input: scenario},
		{name: "noise only", input: virt.Garbage},
		{name: "partial sample", input: virt.Garbage + virt.EmitterV101 + virt.LogV101[:20]},
		{name: "malformed frequency", input: virt.EmitterV101 + "FC=99" + virt.Garbage + virt.LogV101[:20]},
		{name: "pending ping", input: virt.LogV101 + "xxSN=1000042 ><"},
		{name: "incomplete help", input: virt.CommandModeOn + virt.HelpText[:200]},
		{name: "unsupported firmware", input: "FV=3.1.4\r" + virt.EmitterV101},
		{name: "firmware change", input: "FV=1.0.2\r" + virt.EmitterV102 + virt.LogV102 + "SN=1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newTestDecoder(t, FirmwareV101)
			frames := d.Parse(tt.input)
			assert.Equal(t, tt.input, rebuild(frames)+d.Pending())
		})
	}
}

func TestDecoder_SerialNumberCollision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		fw          Firmware
		input       string
		wantPending string
		want        []frame.Kind
	}{
		{name: "ping", fw: FirmwareV101, input: virt.PingV101, want: []frame.Kind{frame.KindPing}},
		{name: "ping 1.0.2", fw: FirmwareV102, input: virt.PingV102, want: []frame.Kind{frame.KindPing}},
		{
			name:  "serial number echo",
			fw:    FirmwareV101,
			input: virt.SerialNumber + virt.FrequencyEcho,
			want:  []frame.Kind{frame.KindSerialNumber, frame.KindFrequency},
		},
		{
			name:  "ping terminator of the other firmware",
			fw:    FirmwareV101,
			input: virt.PingV102 + virt.FrequencyEcho,
			want:  []frame.Kind{frame.KindSerialNumber, frame.KindFrequency},
		},
		{name: "undecided", fw: FirmwareV101, input: virt.SerialNumber, wantPending: virt.SerialNumber},
		{name: "undecided with space", fw: FirmwareV101, input: "SN=1000042 ><", wantPending: "SN=1000042 ><"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newTestDecoder(t, tt.fw)
			frames := d.Parse(tt.input)
			if tt.want == nil {
				assert.Empty(t, frames)
			} else {
				assert.Equal(t, tt.want, kinds(frames))
			}
			assert.Equal(t, tt.wantPending, d.Pending())
		})
	}
}

func TestDecoder_CollisionResolvesOnMoreInput(t *testing.T) {
	t.Parallel()

	d := newTestDecoder(t, FirmwareV101)
	assert.Empty(t, d.Parse(virt.SerialNumber))

	frames := d.Parse(virt.FrequencyEcho)
	assert.Equal(t, []frame.Kind{frame.KindSerialNumber, frame.KindFrequency}, kinds(frames))

	assert.Empty(t, d.Parse("SN=1000042 "))
	frames = d.Parse("><>\r")
	assert.Equal(t, []frame.Kind{frame.KindPing}, kinds(frames))
	assert.Empty(t, d.Pending())
}

func TestDecoder_HelpFlagsIgnored(t *testing.T) {
	t.Parallel()

	d := newTestDecoder(t, FirmwareV101)
	frames := d.Parse(virt.CommandModeOn + virt.HelpText + virt.FrequencyEcho)

	assert.Equal(t, []frame.Kind{frame.KindCommandModeOn, frame.KindHelp, frame.KindFrequency}, kinds(frames))
	freq, ok := frames[2].Frame.(frame.Frequency)
	require.True(t, ok)
	assert.Equal(t, uint8(70), freq.KHz)
	assert.Equal(t, frame.ModeCommand, d.Mode())
}

func TestDecoder_IncompleteHelpWaits(t *testing.T) {
	t.Parallel()

	d := newTestDecoder(t, FirmwareV101)
	cut := strings.Index(virt.HelpText, "FC=69") + 5

	frames := d.Parse(virt.CommandModeOn + virt.HelpText[:cut])
	assert.Equal(t, []frame.Kind{frame.KindCommandModeOn}, kinds(frames))
	assert.Equal(t, virt.HelpText[:cut], d.Pending())

	frames = d.Parse(virt.HelpText[cut:])
	assert.Equal(t, []frame.Kind{frame.KindHelp}, kinds(frames))
	assert.Empty(t, d.Pending())
}

func TestDecoder_FirmwareChange(t *testing.T) {
	t.Parallel()

	d := newTestDecoder(t, FirmwareV101)
	frames := d.Parse(virt.FirmwareV102 + "\r" + virt.EmitterV102 + virt.LogV102)

	require.Equal(t, []frame.Kind{frame.KindFirmware, frame.KindEmitter, frame.KindReceiver}, kinds(frames))
	assert.Equal(t, FirmwareV102, d.Firmware())
	assert.Equal(t, FirmwareV101, frames[0].Firmware)
	assert.Equal(t, FirmwareV102, frames[1].Firmware)
	assert.Equal(t, "\r", frames[1].Noise)

	emitter, ok := frames[1].Frame.(frame.EmitterSample)
	require.True(t, ok)
	assert.Nil(t, emitter.FrameIndex)
	assert.Equal(t, uint8(69), emitter.Frequency)
	assert.Equal(t, int64(1551087572897), emitter.Timestamp())

	log, ok := frames[2].Frame.(frame.LogSample)
	require.True(t, ok)
	require.NotNil(t, log.Frequency)
	assert.Equal(t, uint8(69), *log.Frequency)
}

func TestDecoder_SameFirmwareIsNotAChange(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	d := newTestDecoder(t, FirmwareV101, WithLogger(zap.New(core)))
	frames := d.Parse(virt.FirmwareV101 + "\r" + virt.FrequencyEcho)

	assert.Equal(t, []frame.Kind{frame.KindFirmware, frame.KindFrequency}, kinds(frames))
	assert.Equal(t, FirmwareV101, d.Firmware())
	assert.Zero(t, logs.FilterMessage("firmware changed").Len())
}

func TestDecoder_UnsupportedFirmware(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	d := newTestDecoder(t, FirmwareV101, WithLogger(zap.New(core)))

	frames := d.Parse("FV=3.1.4\r" + virt.EmitterV101)
	require.Len(t, frames, 1)
	assert.Equal(t, frame.KindFirmware, frames[0].Kind())
	require.ErrorIs(t, frames[0].FirmwareErr, ErrUnsupportedFirmware)
	assert.Contains(t, frames[0].FirmwareErr.Error(), "3.1.4")
	assert.Equal(t, ClassUnsupportedFirmware, frames[0].Class())
	assert.Equal(t, FirmwareV101, d.Firmware())
	assert.Equal(t, "\r"+virt.EmitterV101, d.Pending())

	warnings := logs.FilterMessage("unsupported firmware announced").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, zapcore.WarnLevel, warnings[0].Level)
	assert.Equal(t, "3.1.4", warnings[0].ContextMap()["firmware"])

	frames = d.Decode()
	require.Equal(t, []frame.Kind{frame.KindEmitter}, kinds(frames))
	require.NoError(t, frames[0].Err())
	assert.Empty(t, d.Pending())
}

func TestDecoder_MalformedFrames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr  error
		name     string
		input    string
		wantKind frame.Kind
	}{
		{name: "frequency out of band", input: "FC=99", wantKind: frame.KindFrequency, wantErr: ErrInvalidFrequency},
		{name: "log interval", input: "LI=09", wantKind: frame.KindLogInterval, wantErr: ErrInvalidLogInterval},
		{name: "protocol", input: "LM=99", wantKind: frame.KindProtocol, wantErr: ErrInvalidProtocol},
		{name: "timestamp", input: "UT=15510x7572", wantKind: frame.KindDeviceTime, wantErr: ErrInvalidTimestamp},
		{name: "firmware", input: "FV=1.x.1", wantKind: frame.KindFirmware, wantErr: ErrInvalidFirmware},
		{name: "serial number", input: "SN=12ab", wantKind: frame.KindSerialNumber, wantErr: ErrInvalidSerialNumber},
		{name: "sample field count", input: "$1,2,3\r", wantKind: frame.KindSample, wantErr: ErrUnknownFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newTestDecoder(t, FirmwareV101)
			frames := d.Parse(tt.input + wire.ClockRound)

			require.GreaterOrEqual(t, len(frames), 2)
			assert.Equal(t, tt.wantKind, frames[0].Kind())
			require.ErrorIs(t, frames[0].Err(), tt.wantErr)
			assert.True(t, frame.IsError(frames[0]))
			assert.Equal(t, ClassMalformed, frames[0].Class())
			assert.Equal(t, frame.KindRoundClock, frames[len(frames)-1].Kind())
			assert.Equal(t, tt.input+wire.ClockRound, rebuild(frames))
		})
	}
}

func TestDecoder_ModeBookkeeping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  frame.Mode
	}{
		{name: "listening frame", input: virt.EmitterV101, want: frame.ModeListening},
		{name: "command mode on", input: virt.CommandModeOn, want: frame.ModeCommand},
		{name: "command frame", input: virt.FrequencyEcho, want: frame.ModeCommand},
		{name: "exit", input: virt.CommandModeOn + virt.CommandExit, want: frame.ModeListening},
		{name: "upgrade", input: virt.CommandModeOn + wire.UpgradeFirmware, want: frame.ModeUpdate},
		{name: "back to listening", input: virt.FrequencyEcho + wire.ClockSet, want: frame.ModeListening},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newTestDecoder(t, FirmwareV101, WithReceiver(testProfile()))
			d.Parse(tt.input)
			assert.Equal(t, tt.want, d.Mode())

			p, ok := d.Receiver()
			require.True(t, ok)
			assert.Equal(t, tt.want, p.Mode)
		})
	}
}

func TestDecoder_ModeKeptWithoutFrames(t *testing.T) {
	t.Parallel()

	d := newTestDecoder(t, FirmwareV101)
	d.Parse(virt.CommandModeOn)
	d.Parse(virt.Garbage)
	assert.Equal(t, frame.ModeCommand, d.Mode())
}

func TestDecoder_WriteAndReset(t *testing.T) {
	t.Parallel()

	d := newTestDecoder(t, FirmwareV101)
	n, err := d.Write([]byte(virt.LogV101[:10]))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Empty(t, d.Decode())
	assert.Equal(t, virt.LogV101[:10], d.Pending())

	d.Reset()
	assert.Empty(t, d.Pending())

	d.Append(virt.LogV101)
	assert.Equal(t, []frame.Kind{frame.KindReceiver}, kinds(d.Decode()))
}

func TestDecoder_Firmwares(t *testing.T) {
	t.Parallel()

	d := newTestDecoder(t, FirmwareV101)
	assert.Equal(t, []Firmware{FirmwareV101, FirmwareV102}, d.Firmwares())

	require.NoError(t, d.SetFirmware(FirmwareV102))
	assert.Equal(t, FirmwareV102, d.Firmware())

	err := d.SetFirmware("0.9.9")
	require.ErrorIs(t, err, ErrUnsupportedFirmware)
	assert.Equal(t, FirmwareV102, d.Firmware())
}

func FuzzDecoder(f *testing.F) {
	f.Add([]byte(session))
	f.Add([]byte("FV=1.0.2\r" + virt.EmitterV102 + "FV=9.9.9" + virt.LogV102))
	f.Add([]byte("SN=SN=1000042 ><SN="))
	f.Add([]byte("$,,,,,,,,\r$1000042,,,,,,,\r"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		d, err := New(FirmwareV101)
		require.NoError(t, err)

		input := string(data)
		var frames []OutputFrame
		for _, chunk := range virt.Split(input, uint64(len(data))+1) {
			frames = append(frames, d.Parse(chunk)...)
		}
		frames = append(frames, d.Decode()...)

		if got := rebuild(frames) + d.Pending(); got != input {
			t.Fatalf("round trip mismatch:\n got %q\nwant %q", got, input)
		}
		for _, o := range frames {
			if errors.Is(o.Err(), ErrIncomplete) {
				t.Fatalf("incomplete frame escaped: %q", o.Raw())
			}
		}
	})
}
