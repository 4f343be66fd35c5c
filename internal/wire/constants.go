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

// Package wire holds the literal flags and fixed lengths of the TB Live
// text protocol. All literals are case-sensitive.
package wire

// Listening mode literals
const (
	SampleStart = "$"  // Sample line start
	SampleEnd   = "\r" // Sample line terminator
	SampleSplit = ","  // Sample field separator

	PingStart = "SN=" // Ping response start, shared with the serial number command

	PingEndV101 = "><>\r" // Ping terminator for firmware 1.0.1
	PingEndV102 = "\r"    // Ping terminator for firmware 1.0.2

	ClockRound = "ack01\r" // Round clock acknowledgement
	ClockSet   = "ack02\r" // Set clock acknowledgement
)

// Command mode literals
const (
	SerialNumberStart = "SN="
	FirmwareStart     = "FV="
	FrequencyStart    = "FC="
	LogIntervalStart  = "LI="
	ProtocolStart     = "LM="
	TimestampStart    = "UT="

	HelpStart = "In Command Mode"
	HelpEnd   = "L is Luhn's verification number."

	RestartDevice   = "RR!"
	FactoryReset    = "FS!"
	UpgradeFirmware = "UF!"

	CommandModeOn  = "LIVECM"
	CommandModeOff = "EX!"
)

// Serial number digit bounds
const (
	SerialNumberLengthMin = 6
	SerialNumberLengthMax = 7
)

// Fixed frame lengths, anchor included
const (
	SerialNumberFrameLength = len(SerialNumberStart) + SerialNumberLengthMax
	FrequencyFrameLength    = len(FrequencyStart) + 2
	LogIntervalFrameLength  = len(LogIntervalStart) + 2
	ProtocolFrameLength     = len(ProtocolStart) + 2
	TimestampLength         = 10
	TimestampFrameLength    = len(TimestampStart) + TimestampLength
)

// Device band in kHz
const (
	FrequencyMin = 63
	FrequencyMax = 77
)

// Log interval bounds
const (
	LogIntervalMin = 0
	LogIntervalMax = 7
)

// Packed emitter data layout
const (
	AngleBits       = 10
	AngleMask       = 1<<AngleBits - 1
	AngleFactor     = 10
	DeviationBits   = 6
	DeviationMask   = 1<<DeviationBits - 1
	DeviationFactor = 4
)

// SNR classification thresholds
const (
	SNRWeakMax    = 6
	SNRRegularMax = 25
)

// Supported firmware versions, oldest first.
const (
	FirmwareV101 = "1.0.1"
	FirmwareV102 = "1.0.2"
)

// SupportedFirmware returns the firmware allow-list.
func SupportedFirmware() []string {
	return []string{FirmwareV101, FirmwareV102}
}

// IsSupportedFirmware reports whether version is on the allow-list.
func IsSupportedFirmware(version string) bool {
	return version == FirmwareV101 || version == FirmwareV102
}

// PingWindow is the lookahead used to tell a ping response from a serial
// number echo: anchor, longest serial number, one optional space and the
// terminator. Both grammars use the same formula.
func PingWindow(terminator string) int {
	return len(PingStart) + SerialNumberLengthMax + 1 + len(terminator)
}
