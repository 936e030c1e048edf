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

// Package retry provides the bounded retry loop shared by the record stores
package retry

import (
	"errors"
	"time"
)

// ErrExhausted is returned when an operation still asks to be retried after
// the last permitted attempt.
var ErrExhausted = errors.New("retries exhausted")

// Operation represents a function that can be retried
// Returns: data, shouldRetry, error
// - data: the result if successful
// - shouldRetry: true if the operation should be retried
// - error: the last error seen; permanent when shouldRetry is false
type Operation[T any] func() (T, bool, error)

// Config configures retry behavior
type Config struct {
	OnRetry     func(attempt int, err error)
	Description string
	MaxRetries  int
	RetryDelay  time.Duration
}

// DefaultConfig returns the retry policy used by the record stores
func DefaultConfig() Config {
	return Config{
		MaxRetries: 2,
		RetryDelay: 20 * time.Millisecond,
	}
}

// Do executes an operation with retry logic.
//
// When the retries run out the last error returned by the operation is
// wrapped together with ErrExhausted.
func Do[T any](config Config, operation Operation[T]) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, shouldRetry, err := operation()
		if !shouldRetry {
			if err != nil {
				return zero, err
			}
			return result, nil
		}
		lastErr = err

		// If we should retry but we're at max attempts, break
		if attempt >= config.MaxRetries {
			break
		}

		if config.OnRetry != nil {
			config.OnRetry(attempt+1, err)
		}

		if config.RetryDelay > 0 {
			time.Sleep(config.RetryDelay)
		}
	}

	return zero, handleRetriesExhausted(config, lastErr)
}

func handleRetriesExhausted(config Config, lastErr error) error {
	desc := config.Description
	if desc == "" {
		desc = "operation"
	}
	if lastErr == nil {
		return &ExhaustedError{Op: desc}
	}
	return &ExhaustedError{Op: desc, Err: lastErr}
}

// ExhaustedError reports which operation gave up and why
type ExhaustedError struct {
	Err error
	Op  string
}

func (e *ExhaustedError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + ErrExhausted.Error()
	}
	return e.Op + ": " + ErrExhausted.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both ErrExhausted and the last operation error to errors.Is
func (e *ExhaustedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExhausted}
	}
	return []error{ErrExhausted, e.Err}
}
