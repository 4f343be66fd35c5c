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
	"fmt"
	"strings"

	"github.com/ZaparooProject/go-tblive/internal/wire"
)

// Firmware is a TB Live firmware version string.
type Firmware string

// Supported firmware versions
const (
	FirmwareV101 Firmware = wire.FirmwareV101
	FirmwareV102 Firmware = wire.FirmwareV102
)

// DefaultFirmware is used when none is configured.
const DefaultFirmware = FirmwareV101

func (f Firmware) String() string { return string(f) }

// Supported reports whether f has a grammar.
func (f Firmware) Supported() bool { return wire.IsSupportedFirmware(string(f)) }

// SupportedFirmware lists the firmware versions this package decodes.
func SupportedFirmware() []Firmware {
	versions := wire.SupportedFirmware()
	out := make([]Firmware, len(versions))
	for i, v := range versions {
		out[i] = Firmware(v)
	}
	return out
}

// ParseFirmware validates a firmware version string.
func ParseFirmware(s string) (Firmware, error) {
	f := Firmware(strings.TrimSpace(s))
	if !f.Supported() {
		return "", fmt.Errorf("%w: %q, supported versions are %s",
			ErrUnsupportedFirmware, s, strings.Join(wire.SupportedFirmware(), ", "))
	}
	return f, nil
}
