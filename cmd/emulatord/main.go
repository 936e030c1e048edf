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
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	tagemu "github.com/ZaparooProject/go-tagemu"
	"github.com/ZaparooProject/go-tagemu/internal/config"
	"github.com/ZaparooProject/go-tagemu/tagtypes"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type flags struct {
	configPath *string
	dumpConfig *bool
	debug      *bool
}

func parseFlags() *flags {
	f := &flags{
		configPath: flag.String("config", "", "Path to YAML configuration file"),
		dumpConfig: flag.Bool("dump-config", false, "Print effective configuration and slot table, then exit"),
		debug:      flag.Bool("debug", false, "Enable debug logging"),
	}
	flag.Parse()
	return f
}

type slotDump struct {
	HF      string `yaml:"hf"`
	LF      string `yaml:"lf"`
	Index   uint8  `yaml:"index"`
	Enabled bool   `yaml:"enabled"`
	Active  bool   `yaml:"active"`
}

type configDump struct {
	Config *config.Config `yaml:"config"`
	Slots  []slotDump     `yaml:"slots"`
}

// dumpConfig writes cfg and the slot table as YAML
func dumpConfig(w io.Writer, cfg *config.Config, slots tagemu.SlotConfig) error {
	out := configDump{Config: cfg}
	for i, s := range slots.Slots {
		out.Slots = append(out.Slots, slotDump{
			Index:   uint8(i),
			Enabled: s.Enabled,
			Active:  uint8(i) == slots.Active,
			HF:      s.HF.String(),
			LF:      s.LF.String(),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush config: %w", err)
	}
	return nil
}

func newManager(ctx context.Context, cfg *config.Config, logger *zap.Logger, res *closers) (*tagemu.Manager, error) {
	store, storeCloser, err := openStore(ctx, &cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	if storeCloser != nil {
		res.add(storeCloser)
	}

	registry, err := tagtypes.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to build tag registry: %w", err)
	}

	hf, err := buildFieldController("hf", cfg.Field.HFPin, cfg.Field.ActiveLow, logger)
	if err != nil {
		return nil, err
	}
	lf, err := buildFieldController("lf", cfg.Field.LFPin, cfg.Field.ActiveLow, logger)
	if err != nil {
		return nil, err
	}

	ind, indCloser, err := buildIndicator(&cfg.Indicator, logger)
	if err != nil {
		return nil, err
	}
	if indCloser != nil {
		res.add(indCloser)
	}

	mgr, err := tagemu.New(store, registry,
		tagemu.WithLogger(logger),
		tagemu.WithFieldControllers(hf, lf),
		tagemu.WithIndicator(ind),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create emulator: %w", err)
	}
	return mgr, nil
}

// boot loads persisted state and seeds factory data on first start. Load
// failures are logged and the emulator keeps running with what it has in
// RAM.
func boot(mgr *tagemu.Manager, cfg *config.Config, logger *zap.Logger) {
	if err := mgr.Init(); err != nil {
		logger.Error("slot initialization incomplete", zap.Error(err))
	}
	if cfg.Emulator.FactoryInit {
		if err := mgr.FactoryInit(); err != nil {
			// Slots without factory data still load as blank buffers
			logger.Warn("factory initialization incomplete", zap.Error(err))
		}
	}
	logger.Info("emulator ready", zap.Uint8("active_slot", mgr.ActiveSlot()))
}

func run() int {
	f := parseFlags()

	cfg, err := config.Load(*f.configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger, err := buildLogger(&cfg.Log, *f.debug)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var res closers
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("failed to release resources", zap.Error(err))
		}
	}()

	mgr, err := newManager(ctx, cfg, logger, &res)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return 1
	}
	if *f.dumpConfig {
		if err := mgr.Init(); err != nil {
			logger.Warn("slot table partially loaded", zap.Error(err))
		}
		if err := dumpConfig(os.Stdout, cfg, mgr.SlotConfig()); err != nil {
			logger.Error("dump failed", zap.Error(err))
			return 1
		}
		return 0
	}

	boot(mgr, cfg, logger)

	signals := make(chan os.Signal, 4)
	signal.Notify(signals, handledSignals...)
	defer signal.Stop(signals)

	em := &emulator{mgr: mgr, logger: logger}
	em.run(ctx, signals, cfg.Emulator.SaveInterval)
	return 0
}

func main() {
	if run() != 0 {
		os.Exit(1)
	}
}
