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

// Package indicator provides tagemu.Indicator implementations: a serial
// attached LED/display controller and a log-only indicator.
package indicator

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// Frame layout: start byte, command, value, XOR of command and value
const (
	frameStart = 0xA5
	frameSize  = 4

	// CmdSlot reports the active slot index
	CmdSlot byte = 0x01
	// CmdField reports field presence, value 1 for on
	CmdField byte = 0x02
)

var (
	// ErrClosed is returned when closing an indicator twice
	ErrClosed = errors.New("indicator closed")
	// ErrInvalidQueueSize rejects a serial config without queue room
	ErrInvalidQueueSize = errors.New("indicator queue size must be positive")
)

// SerialConfig configures the serial indicator
type SerialConfig struct {
	BaudRate int
	// QueueSize bounds pending frames; newer frames are dropped when full
	QueueSize int
}

// DefaultSerialConfig returns the default serial indicator configuration
func DefaultSerialConfig() *SerialConfig {
	return &SerialConfig{
		BaudRate:  115200,
		QueueSize: 16,
	}
}

// EncodeFrame builds the wire frame for one notification
func EncodeFrame(cmd, value byte) [frameSize]byte {
	return [frameSize]byte{frameStart, cmd, value, cmd ^ value}
}

// Serial forwards notifications to an LED controller on a serial port. The
// Indicator methods never block: frames are queued and written by a
// background goroutine. All methods are safe for concurrent use.
type Serial struct {
	port    io.WriteCloser
	logger  *zap.Logger
	frames  chan [frameSize]byte
	done    chan struct{}
	dropped atomic.Uint64
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
}

// OpenSerial opens portName and starts the writer
func OpenSerial(portName string, config *SerialConfig, logger *zap.Logger) (*Serial, error) {
	if config == nil {
		config = DefaultSerialConfig()
	}
	if config.QueueSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQueueSize, config.QueueSize)
	}
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open indicator port %s: %w", portName, err)
	}
	return NewSerialWithPort(port, config, logger), nil
}

// NewSerialWithPort starts a writer on an already opened port. A queue
// size below one uses the default size.
func NewSerialWithPort(port io.WriteCloser, config *SerialConfig, logger *zap.Logger) *Serial {
	if config == nil {
		config = DefaultSerialConfig()
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultSerialConfig().QueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Serial{
		port:   port,
		logger: logger,
		frames: make(chan [frameSize]byte, queueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Serial) run() {
	defer close(s.done)
	for frame := range s.frames {
		if _, err := s.port.Write(frame[:]); err != nil {
			s.logger.Warn("indicator write failed", zap.Error(err))
		}
	}
}

func (s *Serial) send(cmd, value byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.frames <- EncodeFrame(cmd, value):
	default:
		s.dropped.Add(1)
	}
}

// SlotChanged implements tagemu.Indicator
func (s *Serial) SlotChanged(slot uint8) {
	s.send(CmdSlot, slot)
}

// FieldPresence implements tagemu.Indicator
func (s *Serial) FieldPresence(on bool) {
	var v byte
	if on {
		v = 1
	}
	s.send(CmdField, v)
}

// Dropped returns how many frames were dropped because the queue was full
func (s *Serial) Dropped() uint64 {
	return s.dropped.Load()
}

// Close flushes queued frames and closes the port. Notifications arriving
// during or after Close are discarded.
func (s *Serial) Close() error {
	err := ErrClosed
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.frames)
		s.mu.Unlock()
		<-s.done
		err = s.port.Close()
	})
	return err
}

// Log is an Indicator that only logs
type Log struct {
	logger *zap.Logger
}

// NewLog creates a log-only indicator
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// SlotChanged implements tagemu.Indicator
func (l *Log) SlotChanged(slot uint8) {
	l.logger.Info("active slot", zap.Uint8("slot", slot))
}

// FieldPresence implements tagemu.Indicator
func (l *Log) FieldPresence(on bool) {
	l.logger.Debug("field presence", zap.Bool("on", on))
}
