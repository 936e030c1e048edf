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

// Package config loads the emulator daemon configuration
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TAGEMU_STORAGE_DIR
const EnvPrefix = "TAGEMU"

// Storage backends
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Field     FieldConfig     `mapstructure:"field" yaml:"field"`
	Indicator IndicatorConfig `mapstructure:"indicator" yaml:"indicator"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Emulator  EmulatorConfig  `mapstructure:"emulator" yaml:"emulator"`
}

type StorageConfig struct {
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Dir     string      `mapstructure:"dir" yaml:"dir"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
	Retries int         `mapstructure:"retries" yaml:"retries"`
	Sync    bool        `mapstructure:"sync" yaml:"sync"`
}

type RedisConfig struct {
	Addr      string        `mapstructure:"addr" yaml:"addr"`
	Password  string        `mapstructure:"password" yaml:"-"`
	KeyPrefix string        `mapstructure:"key_prefix" yaml:"key_prefix"`
	DB        int           `mapstructure:"db" yaml:"db"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// FieldConfig names the GPIO sense-enable lines. An empty pin selects a
// log-only controller for that field.
type FieldConfig struct {
	HFPin     string `mapstructure:"hf_pin" yaml:"hf_pin"`
	LFPin     string `mapstructure:"lf_pin" yaml:"lf_pin"`
	ActiveLow bool   `mapstructure:"active_low" yaml:"active_low"`
}

// IndicatorConfig selects the indicator. An empty port logs instead and
// "auto" picks the first USB serial port not filtered out.
type IndicatorConfig struct {
	Port        string   `mapstructure:"port" yaml:"port"`
	Blocklist   []string `mapstructure:"blocklist" yaml:"blocklist"`
	IgnorePaths []string `mapstructure:"ignore_paths" yaml:"ignore_paths"`
	BaudRate    int      `mapstructure:"baud_rate" yaml:"baud_rate"`
	QueueSize   int      `mapstructure:"queue_size" yaml:"queue_size"`
}

// LogConfig configures logging. With File set, output is rotated there.
type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	File        string `mapstructure:"file" yaml:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

type EmulatorConfig struct {
	// SaveInterval flushes changed slot data periodically; 0 disables it
	SaveInterval time.Duration `mapstructure:"save_interval" yaml:"save_interval"`
	FactoryInit  bool          `mapstructure:"factory_init" yaml:"factory_init"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.dir", "./tagemu-data")
	v.SetDefault("storage.retries", 2)
	v.SetDefault("storage.sync", true)
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.key_prefix", "tagemu")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.timeout", "2s")

	v.SetDefault("field.hf_pin", "")
	v.SetDefault("field.lf_pin", "")
	v.SetDefault("field.active_low", false)

	v.SetDefault("indicator.port", "")
	v.SetDefault("indicator.baud_rate", 115200)
	v.SetDefault("indicator.queue_size", 16)
	v.SetDefault("indicator.blocklist", []string{})
	v.SetDefault("indicator.ignore_paths", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.development", false)

	v.SetDefault("emulator.save_interval", "30s")
	v.SetDefault("emulator.factory_init", true)
}

// Load reads the YAML file at path, applies TAGEMU_* environment overrides
// and validates the result. An empty path uses defaults and environment
// only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot check by type
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendRedis:
	case BackendFile:
		if c.Storage.Dir == "" {
			return fmt.Errorf("%w: storage.dir is required for the file backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage.backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	if c.Storage.Retries < 0 {
		return fmt.Errorf("%w: storage.retries must not be negative", ErrInvalidConfig)
	}
	if c.Indicator.Port != "" && c.Indicator.BaudRate <= 0 {
		return fmt.Errorf("%w: indicator.baud_rate must be positive", ErrInvalidConfig)
	}
	if c.Indicator.Port != "" && c.Indicator.QueueSize <= 0 {
		return fmt.Errorf("%w: indicator.queue_size must be positive", ErrInvalidConfig)
	}
	if c.Emulator.SaveInterval < 0 {
		return fmt.Errorf("%w: emulator.save_interval must not be negative", ErrInvalidConfig)
	}
	return nil
}
