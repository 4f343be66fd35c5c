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

package uart

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// ReconnectConfig configures how a lost receiver port is reopened.
type ReconnectConfig struct {
	// MaxAttempts is the number of attempts, 0 retries until ctx is done
	MaxAttempts int
	// InitialBackoff is the delay after the first failure
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between attempts
	MaxBackoff time.Duration
	// BackoffMultiplier is the factor by which the delay grows
	BackoffMultiplier float64
	// Jitter adds up to this fraction of the delay at random
	Jitter float64
}

// DefaultReconnectConfig retries forever, backing off from 500 ms to 30 s.
// USB serial adapters take a few seconds to re-enumerate after a replug.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxAttempts:       0,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
	}
}

// Retry calls fn until it succeeds, the attempts run out or ctx is done.
// It returns the last error of fn.
func Retry(ctx context.Context, cfg ReconnectConfig, fn func() error) error {
	backoff := cfg.InitialBackoff
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return fmt.Errorf("retry cancelled: %w", err)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			return lastErr
		}

		if err := sleepWithContext(ctx, jittered(backoff, cfg.Jitter)); err != nil {
			return lastErr
		}
		backoff = nextBackoff(backoff, cfg)
	}
}

// OpenWithRetry opens portName, retrying per cfg while the port is missing
// or busy.
func OpenWithRetry(ctx context.Context, portName string, opts Options, cfg ReconnectConfig) (*Transport, error) {
	var t *Transport
	err := Retry(ctx, cfg, func() error {
		var err error
		t, err = Open(portName, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(backoff time.Duration, cfg ReconnectConfig) time.Duration {
	next := time.Duration(float64(backoff) * cfg.BackoffMultiplier)
	if cfg.MaxBackoff > 0 && next > cfg.MaxBackoff {
		return cfg.MaxBackoff
	}
	return next
}

func jittered(d time.Duration, factor float64) time.Duration {
	if factor <= 0 || d <= 0 {
		return d
	}
	//nolint:gosec // Jitter does not need a secure source
	return d + time.Duration(rand.Float64()*factor*float64(d))
}
