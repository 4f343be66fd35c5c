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

// Command tblive decodes the output of a TB Live receiver, read live from a
// serial port or replayed from a capture file, and writes the frames as
// JSON lines and to an optional Redis stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tblive "github.com/ZaparooProject/go-tblive"
	"github.com/ZaparooProject/go-tblive/detection"
	"github.com/ZaparooProject/go-tblive/internal/config"
	"github.com/ZaparooProject/go-tblive/internal/logging"
	"github.com/ZaparooProject/go-tblive/internal/metrics"
	"github.com/ZaparooProject/go-tblive/internal/sink"
	"github.com/ZaparooProject/go-tblive/transport/uart"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type options struct {
	configPath string
	device     string
	firmware   string
	receiver   string
	replay     string
	output     string
	debug      bool
	list       bool
	identify   bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("tblive", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Config file (default tblive.yaml or $TBLIVE_CONFIG)")
	fs.StringVar(&opts.device, "device", "", "Serial port of the receiver")
	fs.StringVar(&opts.firmware, "firmware", "", "Initial firmware grammar (1.0.1 or 1.0.2)")
	fs.StringVar(&opts.receiver, "receiver", "", "Receiver profile YAML file")
	fs.StringVar(&opts.replay, "replay", "", "Decode a capture file instead of a serial port")
	fs.StringVar(&opts.output, "output", "", "JSON lines output file, - for stdout")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug output")
	fs.BoolVar(&opts.list, "list", false, "List serial ports and exit")
	fs.BoolVar(&opts.identify, "identify", false, "Print the receiver profile of -device and exit")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// applyFlags overrides cfg with the flags that were set.
func applyFlags(cfg *config.Config, opts *options) error {
	if opts.device != "" {
		cfg.Device.Port = opts.device
	}
	if opts.firmware != "" {
		cfg.Decoder.Firmware = opts.firmware
	}
	if opts.receiver != "" {
		cfg.Decoder.Receiver = opts.receiver
	}
	if opts.output != "" {
		cfg.Sink.Output = opts.output
	}
	if opts.debug {
		cfg.Logging.Level = "debug"
	}
	if opts.identify && opts.replay != "" {
		return errors.New("-identify needs a serial port, not -replay")
	}
	if opts.replay == "" && cfg.Device.Port == "" {
		return errors.New("no device: set -device, device.port or -replay")
	}
	return cfg.Validate()
}

func newDecoder(cfg *config.Config, logger *zap.Logger) (*tblive.Decoder, error) {
	fw, err := tblive.ParseFirmware(cfg.Decoder.Firmware)
	if err != nil {
		return nil, err
	}
	decoderOpts := []tblive.Option{tblive.WithLogger(logger)}
	if cfg.Decoder.Receiver != "" {
		profile, err := config.LoadReceiverProfile(cfg.Decoder.Receiver)
		if err != nil {
			return nil, err
		}
		decoderOpts = append(decoderOpts, tblive.WithReceiver(profile))
	}
	d, err := tblive.New(fw, decoderOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	return d, nil
}

// newSinks opens the configured outputs. stdout is never closed.
func newSinks(ctx context.Context, cfg *config.SinkConfig, stdout io.Writer, session string) (sink.Multi, error) {
	var sinks sink.Multi
	switch cfg.Output {
	case "":
	case "-":
		sinks = append(sinks, sink.NewJSONLines(struct{ io.Writer }{stdout}, session))
	default:
		f, err := os.Create(cfg.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		sinks = append(sinks, sink.NewJSONLines(f, session))
	}
	if cfg.Redis.Enable {
		rs, err := sink.NewRedisStream(ctx, cfg.Redis, session)
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, rs)
	}
	return sinks, nil
}

// runDevice decodes the receiver on the configured port. With reconnect
// enabled a lost port is reopened and decoding resumes on the same decoder.
func runDevice(ctx context.Context, cfg *config.Config, d *tblive.Decoder,
	newListener func(io.Reader) *uart.Listener, logger *zap.Logger,
) error {
	portOpts := uart.Options{
		BaudRate:    cfg.Device.BaudRate,
		ReadTimeout: cfg.Device.ReadTimeout,
	}
	retry := uart.DefaultReconnectConfig()
	if !cfg.Device.Reconnect {
		retry.MaxAttempts = 1
	}

	for {
		transport, err := uart.OpenWithRetry(ctx, cfg.Device.Port, portOpts, retry)
		if err != nil {
			return fmt.Errorf("failed to open receiver: %w", err)
		}
		err = newListener(transport).Run(ctx)
		_ = transport.Close()
		if ctx.Err() != nil || !cfg.Device.Reconnect {
			return err
		}

		logger.Warn("receiver connection lost, reconnecting",
			zap.String("port", cfg.Device.Port),
			zap.Int("dropped", len(d.Pending())),
			zap.Error(err))
		d.Reset()
		if err := sleepContext(ctx, retry.InitialBackoff); err != nil {
			return nil
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// serveMetrics serves reg until the returned stop function is called.
func serveMetrics(cfg config.MetricsConfig, reg *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler(reg))
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", zap.String("addr", cfg.Addr), zap.String("path", cfg.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// writePorts prints one serial port per line, likely adapters first.
func writePorts(w io.Writer, ports []detection.Port) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PORT\tVID:PID\tPRODUCT\tSERIAL")
	for _, p := range ports {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Path, dash(p.VIDPID), dash(p.Product), dash(p.SerialNumber))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write ports: %w", err)
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// writeProfile prints the identified receiver as a receiver profile file.
func writeProfile(w io.Writer, id detection.Identity) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(id.Profile()); err != nil {
		return fmt.Errorf("failed to encode receiver profile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode receiver profile: %w", err)
	}
	return nil
}

func run(ctx context.Context, opts *options, stdout, stderr io.Writer) error {
	if opts.list {
		ports, err := detection.ListPorts(detection.DefaultOptions())
		if err != nil {
			return err
		}
		return writePorts(stdout, ports)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, opts); err != nil {
		return err
	}

	if opts.identify {
		id, err := detection.IdentifyPort(ctx, cfg.Device.Port, uart.Options{
			BaudRate:    cfg.Device.BaudRate,
			ReadTimeout: cfg.Device.ReadTimeout,
		})
		if err != nil {
			return err
		}
		return writeProfile(stdout, id)
	}

	logs, err := logging.New(cfg.Logging, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logs.Close() }()

	session := sink.NewSessionID()
	logger := logs.With(zap.String("session", session))

	d, err := newDecoder(cfg, logger)
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	decoderMetrics := metrics.NewDecoderMetrics(reg)
	if cfg.Metrics.Enable {
		stop := serveMetrics(cfg.Metrics, reg, logger)
		defer stop()
	}

	sinks, err := newSinks(ctx, &cfg.Sink, stdout, session)
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn("failed to close sinks", zap.Error(err))
		}
	}()

	handler := func(frames []tblive.OutputFrame) {
		if err := sinks.Write(ctx, frames); err != nil {
			logger.Error("failed to write frames", zap.Error(err))
		}
	}
	newListener := func(src io.Reader) *uart.Listener {
		return uart.NewListener(src, d, handler,
			uart.WithLogger(logger),
			uart.WithObserver(decoderMetrics),
			uart.WithMaxPending(cfg.Decoder.MaxPending))
	}

	logger.Info("decoding",
		zap.String("source", sourceName(cfg, opts.replay)),
		zap.String("firmware", string(d.Firmware())))
	if opts.replay == "" {
		return runDevice(ctx, cfg, d, newListener, logger)
	}

	f, err := os.Open(opts.replay) //nolint:gosec // replay path comes from the command line
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := newListener(f).Run(ctx); err != nil {
		return err
	}
	if pending := d.Pending(); pending != "" {
		logger.Info("undecoded input left", zap.Int("bytes", len(pending)))
	}
	return nil
}

func sourceName(cfg *config.Config, replay string) string {
	if replay != "" {
		return replay
	}
	return cfg.Device.Port
}

func main() {
	os.Exit(mainWithExitCode(os.Args[1:]))
}

func mainWithExitCode(args []string) int {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		_, _ = fmt.Fprint(os.Stderr, "\nShutting down gracefully...\n")
		cancel()
	}()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
