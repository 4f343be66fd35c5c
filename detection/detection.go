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

// Package detection finds serial ports that may carry a TB Live receiver and
// identifies the receiver behind a port.
package detection

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// ErrNoPortsFound is returned when no serial port passes the filters
var ErrNoPortsFound = errors.New("no serial ports found")

// Port is a serial port with the USB metadata the OS reports.
type Port struct {
	Path         string
	VIDPID       string
	Product      string
	SerialNumber string
	USB          bool
}

// LikelyAdapter reports whether the port is a USB serial bridge of the kind
// receivers are connected through.
func (p Port) LikelyAdapter() bool {
	known := []string{
		"0403:6001", // FTDI FT232
		"0403:6015", // FTDI FT231X
		"10C4:EA60", // Silicon Labs CP210x
		"067B:2303", // Prolific PL2303
		"1A86:7523", // QinHeng CH340
	}
	vidpid := strings.ToUpper(p.VIDPID)
	for _, k := range known {
		if vidpid == k {
			return true
		}
	}
	product := strings.ToLower(p.Product)
	for _, keyword := range []string{"uart", "serial", "tblive", "tb live"} {
		if strings.Contains(product, keyword) {
			return true
		}
	}
	return false
}

// Options filters the ports returned by ListPorts.
type Options struct {
	// Blocklist holds VID:PID pairs that are never returned
	Blocklist []string
	// IgnorePaths holds device paths that are never returned
	IgnorePaths []string
	// All includes ports that are not USB serial adapters
	All bool
}

// DefaultOptions returns USB ports minus the default blocklist.
func DefaultOptions() Options {
	return Options{Blocklist: DefaultBlocklist()}
}

// listDetails is replaced in tests.
var listDetails = enumerator.GetDetailedPortsList

// ListPorts enumerates the serial ports of the host, likely adapters first.
func ListPorts(opts Options) ([]Port, error) {
	details, err := listDetails()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	ports := filterPorts(details, opts)
	if len(ports) == 0 {
		return nil, ErrNoPortsFound
	}
	return ports, nil
}

func filterPorts(details []*enumerator.PortDetails, opts Options) []Port {
	ports := make([]Port, 0, len(details))
	for _, d := range details {
		if d == nil {
			continue
		}
		p := Port{
			Path:         d.Name,
			Product:      d.Product,
			SerialNumber: d.SerialNumber,
			USB:          d.IsUSB,
		}
		if d.VID != "" && d.PID != "" {
			p.VIDPID = strings.ToUpper(d.VID + ":" + d.PID)
		}

		if p.VIDPID != "" && IsBlocked(p.VIDPID, opts.Blocklist) {
			continue
		}
		if IsPathIgnored(p.Path, opts.IgnorePaths) {
			continue
		}
		if !opts.All && !p.USB {
			continue
		}
		ports = append(ports, p)
	}

	sort.SliceStable(ports, func(i, j int) bool {
		return ports[i].LikelyAdapter() && !ports[j].LikelyAdapter()
	})
	return ports
}
