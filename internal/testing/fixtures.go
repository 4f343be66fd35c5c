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

package testing

// Identities shared by the wire fixtures
const (
	ReceiverSerial = "1000042"
	EmitterSerial  = "1001285"
	Frequency      = 69
)

// Firmware 1.0.1 listening frames
const (
	EmitterV101 = "$1000042,0000002202,615,S64K,1001285,52428,24,69,11\r"
	LogV101     = "$1000042,0000000600,TBR Sensor,297,15,29,69,6\r"
	PingV101    = "SN=1000042 ><>\r"
)

// Firmware 1.0.2 listening frames
const (
	EmitterV102 = "$1000042,1551087572,897,OPs,1001285,32,33,69\r"
	LogV102     = "$1000042,1551087600,TBR Sensor,280,3,8,69\r"
	PingV102    = "SN=1000042\r"
)

// Command mode echoes
const (
	SerialNumber  = "SN=1000042"
	FirmwareV101  = "FV=1.0.1"
	FirmwareV102  = "FV=1.0.2"
	FrequencyEcho = "FC=70"
	LogInterval   = "LI=02"
	Protocol      = "LM=60"
	DeviceTime    = "UT=1551087572"
	CommandModeOn = "LIVECM"
	CommandExit   = "EX!"
	Garbage       = "lkashf"
)

// HelpText is the command list the device prints in command mode. It
// mentions every command flag and must decode as a single frame.
const HelpText = "In Command Mode\n" +
	"Read values\n" +
	"  SN?\t-\t-\t->\tTBR serial number\n" +
	"  FV?\t-\t-\t->\tFirmware version\n" +
	"  FC?\t-\t-\t->\tListening freq. in kHz\n" +
	"  LM?\t-\t-\t->\tListening Mode. Determines active protocols\n" +
	"  LI?\t-\t-\t->\tTBR sensor log interval (00=never,01=once every 5 min,02=10 min,03=30 min, " +
	"04=1 hour, 05=2 hours, 06=12 hours, 07=24 hours)\n" +
	"  UT?\t-\t-\t->\tCurrent UNIX timestamp (UTC)\n" +
	"Set values\n" +
	"  FC=69\t-\t->\tSet freq. channel (base frequency)\n" +
	"  LM=01\t-\t-\t->\tListening Mode. Sets active protocols.\n" +
	"  LI=00\t-\t->\tSet TBR sensor log interval (00=never,01=once every 5 min,02=10 min,03=30 min, " +
	"04=1 hour, 05=2 hours, 06=12 hours, 07=24 hours)\n" +
	"  UT=1234567890\t->\tSet UNIX timestamp (UTC)\n" +
	"Actions\n" +
	"  EX!\t-\t-\t->\tExit command mode and resume listening for signals\n" +
	"  RR!\t-\t-\t->\tRestart TBR\n" +
	"  FS!\t-\t-\t->\tWarning: Restores factory settings and deletes all tag detections and TBR sensor logs " +
	"from flash memory\n" +
	"  UF!\t-\t-\t->\tWarning: Puts TBR in bootloader mode. Firmware must be written after activating this action\n" +
	"\n" +
	"In Listening mode\n" +
	"Note: Minimum 1 ms betwee\n" +
	"n input characters\n" +
	"  TBRC\t\t->\t Enter Command Mode\n" +
	"  (+)\t\t\t->\t Sync Time\n" +
	"  (+)XXXXXXXXXL\t->\t Sync and set new time (UTC) with the least significant digit being 10 seconds. " +
	"L is Luhn's verification number."
