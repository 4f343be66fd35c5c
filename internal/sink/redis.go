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

package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	tblive "github.com/ZaparooProject/go-tblive"
	"github.com/ZaparooProject/go-tblive/internal/config"
	"github.com/ZaparooProject/go-tblive/internal/syncutil"
	"github.com/redis/go-redis/v9"
)

// RedisStream appends every frame to a capped Redis stream.
//
// Thread Safety: RedisStream is safe for concurrent use.
type RedisStream struct {
	client *redis.Client
	stream string
	seq    sequence
	maxLen int64
	mu     syncutil.Mutex
}

// NewRedisStream connects to Redis and checks the connection.
func NewRedisStream(ctx context.Context, cfg config.RedisConfig, session string) (*RedisStream, error) {
	if !cfg.Enable {
		return nil, fmt.Errorf("redis sink is not enabled")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisStreamClient(client, cfg.Stream, cfg.MaxLen, session), nil
}

// NewRedisStreamClient uses an existing client. maxLen <= 0 disables
// trimming.
func NewRedisStreamClient(client *redis.Client, stream string, maxLen int64, session string) *RedisStream {
	return &RedisStream{
		client: client,
		stream: stream,
		maxLen: maxLen,
		seq:    sequence{session: session},
	}
}

// StreamValues returns the stream entry fields of e.
func StreamValues(e *Event) (map[string]any, error) {
	record, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return map[string]any{
		"session":  e.Session,
		"seq":      strconv.FormatUint(e.Seq, 10),
		"kind":     e.Name,
		"mode":     e.Mode,
		"firmware": e.Firmware,
		"class":    e.Class,
		"raw":      e.Raw,
		"event":    string(record),
	}, nil
}

// Write adds frames to the stream in one pipeline.
func (s *RedisStream) Write(ctx context.Context, frames []tblive.OutputFrame) error {
	if len(frames) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pipe := s.client.Pipeline()
	for i := range frames {
		e := s.seq.event(&frames[i])
		values, err := StreamValues(&e)
		if err != nil {
			return err
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			MaxLen: s.maxLen,
			Approx: s.maxLen > 0,
			Values: values,
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis xadd failed: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStream) Close() error {
	return s.client.Close() //nolint:wrapcheck // Pass-through close
}
