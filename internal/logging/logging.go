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

// Package logging builds the zap logger used by the tblive command and its
// optional session log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ZaparooProject/go-tblive/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a zap logger plus the files it writes to.
type Logger struct {
	*zap.Logger
	file        *lumberjack.Logger
	session     *lumberjack.Logger
	sessionPath string
}

// ParseLevel maps a level name to a zap level. Unknown names mean info.
func ParseLevel(name string) zapcore.Level {
	switch strings.ToLower(name) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New builds a logger writing to console at cfg.Level. A rotated log file
// is added when cfg.File.Filename is set. When cfg.Session is set, every
// entry down to debug level also goes to a tblive_<timestamp>.log file in
// the log file directory, opened with a session header.
func New(cfg config.LoggingConfig, console io.Writer) (*Logger, error) {
	encCfg := encoderConfig()
	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Format) == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	level := ParseLevel(cfg.Level)
	l := &Logger{}
	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.AddSync(console), level)}

	if cfg.File.Filename != "" {
		l.file = rotated(cfg.File, cfg.File.Filename)
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(l.file), level))
	}

	if cfg.Session {
		dir := filepath.Dir(cfg.File.Filename)
		if cfg.File.Filename == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create session log directory: %w", err)
		}
		l.sessionPath = filepath.Join(dir, fmt.Sprintf("tblive_%s.log", time.Now().Format("20060102_150405")))
		l.session = rotated(cfg.File, l.sessionPath)
		writeSessionHeader(l.session)
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(l.session),
			zapcore.DebugLevel))
	}

	l.Logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return l, nil
}

func rotated(cfg config.LumberjackConfig, filename string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// SessionPath returns the session log file path, empty when disabled.
func (l *Logger) SessionPath() string {
	return l.sessionPath
}

// Close flushes the logger and closes its files. The session log gets a
// closing line.
func (l *Logger) Close() error {
	_ = l.Sync()

	var firstErr error
	if l.session != nil {
		timestamp := time.Now().Format("15:04:05.000")
		_, _ = fmt.Fprintf(l.session, "\n%s === Session ended ===\n", timestamp)
		if err := l.session.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close session log: %w", err)
		}
		l.session = nil
	}
	if l.file != nil {
		if err := l.file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close log file: %w", err)
		}
		l.file = nil
	}
	return firstErr
}

// writeSessionHeader writes metadata about the session to the log file.
func writeSessionHeader(writer io.Writer) {
	_, _ = fmt.Fprint(writer, "=== TB Live Session Log ===\n")
	_, _ = fmt.Fprintf(writer, "Started: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(writer, "PID: %d\n", os.Getpid())
	_, _ = fmt.Fprintf(writer, "OS: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	_, _ = fmt.Fprintf(writer, "Go Version: %s\n", runtime.Version())
	if exe, err := os.Executable(); err == nil {
		_, _ = fmt.Fprintf(writer, "Executable: %s\n", exe)
	}
	_, _ = fmt.Fprintf(writer, "Command Line: %s\n", strings.Join(os.Args, " "))
	_, _ = fmt.Fprint(writer, "===========================\n\n")
}
