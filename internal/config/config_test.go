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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tagemu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, 2, cfg.Storage.Retries)
	assert.Equal(t, "tagemu", cfg.Storage.Redis.KeyPrefix)
	assert.Equal(t, 2*time.Second, cfg.Storage.Redis.Timeout)
	assert.Equal(t, 115200, cfg.Indicator.BaudRate)
	assert.Equal(t, 30*time.Second, cfg.Emulator.SaveInterval)
	assert.True(t, cfg.Emulator.FactoryInit)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
storage:
  backend: redis
  redis:
    addr: bench:6379
    key_prefix: rig-2
    timeout: 500ms
field:
  hf_pin: GPIO17
  lf_pin: GPIO27
  active_low: true
indicator:
  port: auto
  blocklist: ["1a86:7523"]
  ignore_paths: [/dev/ttyUSB1]
log:
  level: debug
  file: /var/log/tagemu.log
emulator:
  save_interval: 0s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "bench:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, "rig-2", cfg.Storage.Redis.KeyPrefix)
	assert.Equal(t, 500*time.Millisecond, cfg.Storage.Redis.Timeout)
	assert.Equal(t, "auto", cfg.Indicator.Port)
	assert.Equal(t, []string{"1a86:7523"}, cfg.Indicator.Blocklist)
	assert.Equal(t, []string{"/dev/ttyUSB1"}, cfg.Indicator.IgnorePaths)
	assert.Equal(t, "GPIO17", cfg.Field.HFPin)
	assert.True(t, cfg.Field.ActiveLow)
	assert.Equal(t, "/var/log/tagemu.log", cfg.Log.File)
	assert.Zero(t, cfg.Emulator.SaveInterval)
	assert.Equal(t, 3, cfg.Log.MaxBackups, "unset keys keep defaults")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TAGEMU_STORAGE_BACKEND", "memory")
	t.Setenv("TAGEMU_INDICATOR_PORT", "/dev/ttyACM0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "/dev/ttyACM0", cfg.Indicator.Port)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "storage:\n  backend: eeprom\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mutate  func(*Config)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "file backend needs dir", mutate: func(c *Config) { c.Storage.Dir = "" }, wantErr: true},
		{name: "memory backend ignores dir", mutate: func(c *Config) { c.Storage.Backend = BackendMemory; c.Storage.Dir = "" }},
		{name: "negative retries", mutate: func(c *Config) { c.Storage.Retries = -1 }, wantErr: true},
		{name: "indicator without baud", mutate: func(c *Config) { c.Indicator.Port = "COM3"; c.Indicator.BaudRate = 0 }, wantErr: true},
		{name: "indicator without queue", mutate: func(c *Config) { c.Indicator.Port = "auto"; c.Indicator.QueueSize = 0 }, wantErr: true},
		{name: "log indicator ignores queue", mutate: func(c *Config) { c.Indicator.QueueSize = 0 }},
		{name: "negative save interval", mutate: func(c *Config) { c.Emulator.SaveInterval = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			if tt.wantErr {
				require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
			} else {
				require.NoError(t, cfg.Validate())
			}
		})
	}
}
