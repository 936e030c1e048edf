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

package storage

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-tagemu/internal/retry"
)

// RetryConfig configures RetryingStore
type RetryConfig struct {
	// OnRetry is called before every retry attempt
	OnRetry func(op string, key Key, attempt int, err error)
	// MaxRetries is the number of extra attempts after the first failure
	MaxRetries int
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: retry.DefaultConfig().MaxRetries,
	}
}

// RetryingStore wraps a Store and retries failed calls. ErrNotFound and
// ErrInvalidWrite are never retried.
type RetryingStore struct {
	store  Store
	config *RetryConfig
}

// NewRetryingStore creates a new store wrapper with retry logic
func NewRetryingStore(store Store, config *RetryConfig) *RetryingStore {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryingStore{
		store:  store,
		config: config,
	}
}

func (r *RetryingStore) retryConfig(op string, key Key) retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxRetries = r.config.MaxRetries
	cfg.Description = fmt.Sprintf("%s %s", op, key)
	if r.config.OnRetry != nil {
		cfg.OnRetry = func(attempt int, err error) {
			r.config.OnRetry(op, key, attempt, err)
		}
	}
	return cfg
}

func retryable(err error) bool {
	return err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidWrite)
}

// Read implements Store
func (r *RetryingStore) Read(key Key, out []byte) (int, error) {
	return retry.Do(r.retryConfig("read", key), func() (int, bool, error) {
		n, err := r.store.Read(key, out)
		return n, retryable(err), err
	})
}

// Write implements Store
func (r *RetryingStore) Write(key Key, words int, data []byte) error {
	_, err := retry.Do(r.retryConfig("write", key), func() (struct{}, bool, error) {
		err := r.store.Write(key, words, data)
		return struct{}{}, retryable(err), err
	})
	return err
}

// Delete implements Store
func (r *RetryingStore) Delete(key Key) (int, error) {
	return retry.Do(r.retryConfig("delete", key), func() (int, bool, error) {
		n, err := r.store.Delete(key)
		return n, retryable(err), err
	})
}

// Exists implements Store
func (r *RetryingStore) Exists(key Key) (bool, error) {
	return retry.Do(r.retryConfig("exists", key), func() (bool, bool, error) {
		ok, err := r.store.Exists(key)
		return ok, retryable(err), err
	})
}
