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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tagemu "github.com/ZaparooProject/go-tagemu"
	"github.com/ZaparooProject/go-tagemu/field"
	"github.com/ZaparooProject/go-tagemu/indicator"
	"github.com/ZaparooProject/go-tagemu/internal/config"
	"github.com/ZaparooProject/go-tagemu/storage"
	"github.com/ZaparooProject/go-tagemu/storage/filestore"
	"github.com/ZaparooProject/go-tagemu/storage/redisstore"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// closers collects resources released on shutdown, last opened first
type closers []io.Closer

func (c *closers) add(closer io.Closer) {
	*c = append(*c, closer)
}

func (c closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i].Close())
	}
	return errors.Join(errs...)
}

func buildLogger(cfg *config.LogConfig, debug bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if debug {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	}
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var (
		encoder zapcore.Encoder
		sink    zapcore.WriteSyncer
	)
	if cfg.File != "" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller()), nil
}

// openStore builds the configured backend wrapped in a RetryingStore. The
// returned closer is nil for backends without resources.
func openStore(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (
	storage.Store, io.Closer, error,
) {
	var (
		base   storage.Store
		closer io.Closer
	)

	switch cfg.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory storage, slot data will not survive a restart")
		base = storage.NewMemory()
	case config.BackendFile:
		fileCfg := filestore.DefaultConfig(cfg.Dir)
		fileCfg.Sync = cfg.Sync
		store, err := filestore.Open(fileCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file store: %w", err)
		}
		base, closer = store, store
	case config.BackendRedis:
		redisCfg := redisstore.DefaultConfig()
		redisCfg.Addr = cfg.Redis.Addr
		redisCfg.Password = cfg.Redis.Password
		redisCfg.KeyPrefix = cfg.Redis.KeyPrefix
		redisCfg.DB = cfg.Redis.DB
		if cfg.Redis.Timeout > 0 {
			redisCfg.Timeout = cfg.Redis.Timeout
		}
		store, err := redisstore.New(ctx, redisCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		base, closer = store, store
	default:
		return nil, nil, fmt.Errorf("%w: unknown storage backend %q", config.ErrInvalidConfig, cfg.Backend)
	}

	retryCfg := storage.DefaultRetryConfig()
	retryCfg.MaxRetries = cfg.Retries
	retryCfg.OnRetry = func(op string, key storage.Key, attempt int, err error) {
		logger.Warn("retrying storage operation",
			zap.String("op", op),
			zap.Stringer("key", key),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return storage.NewRetryingStore(base, retryCfg), closer, nil
}

func buildFieldController(name, pin string, activeLow bool, logger *zap.Logger) (tagemu.FieldController, error) {
	if pin == "" {
		return field.NewLog(name, logger), nil
	}
	opts := []field.Option{field.WithLogger(logger.With(zap.String("field", name)))}
	if activeLow {
		opts = append(opts, field.WithActiveLow())
	}
	ctrl, err := field.NewGPIO(pin, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to set up %s field on %s: %w", name, pin, err)
	}
	return ctrl, nil
}

func buildIndicator(cfg *config.IndicatorConfig, logger *zap.Logger) (tagemu.Indicator, io.Closer, error) {
	if cfg.Port == "" {
		return indicator.NewLog(logger), nil, nil
	}
	port := cfg.Port
	if port == indicator.PortAuto {
		detected, err := indicator.DetectPort(indicator.DetectOptions{
			Blocklist:   cfg.Blocklist,
			IgnorePaths: cfg.IgnorePaths,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to detect indicator port: %w", err)
		}
		logger.Info("detected indicator port", zap.String("port", detected))
		port = detected
	}

	serialCfg := indicator.DefaultSerialConfig()
	serialCfg.BaudRate = cfg.BaudRate
	serialCfg.QueueSize = cfg.QueueSize
	ind, err := indicator.OpenSerial(port, serialCfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open indicator port %s: %w", port, err)
	}
	return ind, ind, nil
}
