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

import "fmt"

// Protocol describes one listening protocol code: the channel tier and the
// identifier and data protocols the receiver decodes under it.
type Protocol struct {
	Channel string
	ID      []string
	Data    []string
}

// protocolSets is indexed by the last digit of the code and repeats for each
// channel tier.
var protocolSets = [...]Protocol{
	{ID: []string{"R256", "R04K", "R64K"}, Data: []string{"S256"}},
	{ID: []string{"R64K", "R01M"}, Data: []string{"S256", "S64K"}},
	{ID: []string{"R01M"}, Data: []string{"S64K"}},
	{ID: []string{"R01M"}, Data: []string{}},
	{ID: []string{}, Data: []string{"S64K"}},
	{ID: []string{}, Data: []string{"HS256"}},
	{ID: []string{}, Data: []string{"DS256"}},
	{ID: []string{"OPi"}, Data: []string{"OPs"}},
	{ID: []string{"R64K", "R01M", "OPi"}, Data: []string{"S256", "S64K", "OPs"}},
}

var protocolTiers = [...]struct {
	channel string
	base    int
}{
	{"single", 0},
	{"dual", 30},
	{"triple", 60},
}

var protocols = buildProtocols()

func buildProtocols() map[string]Protocol {
	table := make(map[string]Protocol, len(protocolTiers)*len(protocolSets))
	for _, tier := range protocolTiers {
		for i, set := range protocolSets {
			table[fmt.Sprintf("%02d", tier.base+i)] = Protocol{
				Channel: tier.channel,
				ID:      set.ID,
				Data:    set.Data,
			}
		}
	}
	return table
}

// LookupProtocol returns the protocol for a two-digit code.
func LookupProtocol(code string) (Protocol, bool) {
	p, ok := protocols[code]
	if !ok {
		return Protocol{}, false
	}
	return Protocol{
		Channel: p.Channel,
		ID:      append([]string(nil), p.ID...),
		Data:    append([]string(nil), p.Data...),
	}, true
}

// ProtocolCodes returns the number of known protocol codes.
func ProtocolCodes() int { return len(protocols) }
