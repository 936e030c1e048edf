// go-tagemu
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-tagemu.
//
// go-tagemu is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-tagemu is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-tagemu; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package redisstore implements storage.Store on a Redis server. Bench rigs
// use it to share slot images between several emulators and a host tool.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-tagemu/storage"
	"github.com/redis/go-redis/v9"
)

// Client is the subset of the go-redis client used by Store
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Config configures a Redis store
type Config struct {
	Addr      string
	Password  string
	KeyPrefix string
	DB        int
	// Timeout bounds every store call
	Timeout     time.Duration
	DialTimeout time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Addr:        "localhost:6379",
		KeyPrefix:   "tagemu",
		Timeout:     2 * time.Second,
		DialTimeout: 5 * time.Second,
	}
}

// Store is a Redis-backed record store. It is safe for concurrent use.
type Store struct {
	client Client
	config *Config
}

// New connects to the server described by config and verifies the
// connection with a PING.
func New(ctx context.Context, config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.Timeout,
		WriteTimeout: config.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, config.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", config.Addr, err)
	}
	return NewWithClient(client, config), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client Client, config *Config) *Store {
	if config == nil {
		config = DefaultConfig()
	}
	return &Store{client: client, config: config}
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

// RedisKey returns the Redis key a record is stored under
func (s *Store) RedisKey(key storage.Key) string {
	return fmt.Sprintf("%s:%04x:%04x", s.config.KeyPrefix, key.FileID, key.RecordKey)
}

func (s *Store) context() (context.Context, context.CancelFunc) {
	if s.config.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), s.config.Timeout)
}

// Read implements storage.Store
func (s *Store) Read(key storage.Key, out []byte) (int, error) {
	ctx, cancel := s.context()
	defer cancel()

	record, err := s.client.Get(ctx, s.RedisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("redis get %s: %w", key, err)
	}
	return copy(out, record), nil
}

// Write implements storage.Store
func (s *Store) Write(key storage.Key, words int, data []byte) error {
	record, err := storage.WordAligned(words, data)
	if err != nil {
		return err
	}

	ctx, cancel := s.context()
	defer cancel()

	if err := s.client.Set(ctx, s.RedisKey(key), record, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements storage.Store
func (s *Store) Delete(key storage.Key) (int, error) {
	ctx, cancel := s.context()
	defer cancel()

	n, err := s.client.Del(ctx, s.RedisKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del %s: %w", key, err)
	}
	return int(n), nil
}

// Exists implements storage.Store
func (s *Store) Exists(key storage.Key) (bool, error) {
	ctx, cancel := s.context()
	defer cancel()

	n, err := s.client.Exists(ctx, s.RedisKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}
