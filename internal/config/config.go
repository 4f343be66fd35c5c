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

// Package config loads the tblive application settings and receiver
// profiles.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tblive "github.com/ZaparooProject/go-tblive"
	"github.com/ZaparooProject/go-tblive/frame"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. TBLIVE_DEVICE_PORT.
const EnvPrefix = "TBLIVE"

// DeviceConfig is the serial line of the receiver.
type DeviceConfig struct {
	Port        string        `mapstructure:"port"`
	BaudRate    int           `mapstructure:"baudRate"`
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
	// Reconnect reopens the port with backoff when the receiver is lost
	Reconnect bool `mapstructure:"reconnect"`
}

// DecoderConfig selects the initial grammar and receiver profile.
type DecoderConfig struct {
	Firmware string `mapstructure:"firmware"`
	// Receiver is the path of a receiver profile YAML file
	Receiver string `mapstructure:"receiver"`
	// MaxPending bounds the undecoded input kept between reads
	MaxPending int `mapstructure:"maxPending"`
}

// LumberjackConfig configures log file rotation.
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig is the logger level and outputs.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// Session writes a timestamped session log next to File.Filename
	Session bool             `mapstructure:"session"`
	File    LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig is the Prometheus endpoint.
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Addr   string `mapstructure:"addr"`
	Path   string `mapstructure:"path"`
}

// RedisConfig is the Redis stream sink.
type RedisConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
	MaxLen   int64  `mapstructure:"maxLen"`
}

// SinkConfig selects where decoded frames go.
type SinkConfig struct {
	// Output is a JSON lines file, "-" for stdout, empty to disable
	Output string      `mapstructure:"output"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// Config is the top-level configuration.
type Config struct {
	Device  DeviceConfig  `mapstructure:"device"`
	Decoder DecoderConfig `mapstructure:"decoder"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Sink    SinkConfig    `mapstructure:"sink"`
}

// Load reads a YAML, TOML or JSON file and TBLIVE_* environment overrides.
// An empty path falls back to TBLIVE_CONFIG, then to tblive.yaml in the
// working directory or ./configs; a missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("tblive")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("device.port", "")
	v.SetDefault("device.baudRate", 115200)
	v.SetDefault("device.readTimeout", "100ms")
	v.SetDefault("device.reconnect", true)

	v.SetDefault("decoder.firmware", string(tblive.DefaultFirmware))
	v.SetDefault("decoder.receiver", "")
	v.SetDefault("decoder.maxPending", 64*1024)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.session", false)
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 50)
	v.SetDefault("logging.file.maxBackups", 5)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", false)
	v.SetDefault("metrics.addr", ":9464")
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("sink.output", "-")
	v.SetDefault("sink.redis.enable", false)
	v.SetDefault("sink.redis.addr", "localhost:6379")
	v.SetDefault("sink.redis.password", "")
	v.SetDefault("sink.redis.db", 0)
	v.SetDefault("sink.redis.stream", "tblive:frames")
	v.SetDefault("sink.redis.maxLen", 100000)
}

// Validate checks settings that would only fail later at runtime.
func (c *Config) Validate() error {
	if _, err := tblive.ParseFirmware(c.Decoder.Firmware); err != nil {
		return fmt.Errorf("decoder.firmware: %w", err)
	}
	if c.Device.BaudRate <= 0 {
		return fmt.Errorf("device.baudRate must be positive, got %d", c.Device.BaudRate)
	}
	if c.Decoder.MaxPending < 0 {
		return fmt.Errorf("decoder.maxPending must not be negative, got %d", c.Decoder.MaxPending)
	}
	if c.Metrics.Enable && c.Metrics.Addr == "" {
		return errors.New("metrics.addr is required when metrics.enable is true")
	}
	if c.Sink.Redis.Enable && c.Sink.Redis.Stream == "" {
		return errors.New("sink.redis.stream is required when sink.redis.enable is true")
	}
	return nil
}

// LoadReceiverProfile reads and validates a receiver profile YAML file.
// Unknown keys are rejected.
func LoadReceiverProfile(path string) (tblive.ReceiverProfile, error) {
	b, err := os.ReadFile(path) //nolint:gosec // path comes from the operator's configuration
	if err != nil {
		return tblive.ReceiverProfile{}, fmt.Errorf("read receiver profile: %w", err)
	}
	return ParseReceiverProfile(b)
}

// ParseReceiverProfile decodes and validates a receiver profile document.
// Firmware defaults to tblive.DefaultFirmware and mode to listening.
func ParseReceiverProfile(b []byte) (tblive.ReceiverProfile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var p tblive.ReceiverProfile
	if err := dec.Decode(&p); err != nil {
		return tblive.ReceiverProfile{}, fmt.Errorf("decode receiver profile: %w", err)
	}
	if p.Firmware == "" {
		p.Firmware = tblive.DefaultFirmware
	}
	if p.Mode == "" {
		p.Mode = frame.ModeListening
	}
	if err := p.Validate(); err != nil {
		return tblive.ReceiverProfile{}, err
	}
	return p, nil
}
