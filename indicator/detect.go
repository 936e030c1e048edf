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

package indicator

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortAuto as a port name asks OpenSerial callers to run DetectPort first
const PortAuto = "auto"

// ErrNoPort is returned when no candidate serial port is found
var ErrNoPort = errors.New("no indicator serial port found")

// DetectOptions filters ports during detection
type DetectOptions struct {
	// Blocklist holds VID:PID pairs that must never be opened
	Blocklist []string
	// IgnorePaths holds port paths to skip
	IgnorePaths []string
}

// usbSerialNames are name fragments of common USB-serial bridges. Ports
// matching one are preferred over other USB ports.
var usbSerialNames = []string{
	"ttyusb",
	"ttyacm",
	"usbserial",
	"usbmodem",
	"slab_usbtouart",
	"wchusbserial",
}

// DetectPort returns the first USB serial port that passes opts
func DetectPort(opts DetectOptions) (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("failed to list serial ports: %w", err)
	}
	return SelectPort(ports, opts)
}

// SelectPort picks a port from an enumerated list. Known USB-serial bridges
// win over other USB ports; non-USB ports are never chosen.
func SelectPort(ports []*enumerator.PortDetails, opts DetectOptions) (string, error) {
	var fallback string
	for _, p := range ports {
		if p == nil || !p.IsUSB {
			continue
		}
		if IsBlocked(p.VID+":"+p.PID, opts.Blocklist) || IsPathIgnored(p.Name, opts.IgnorePaths) {
			continue
		}
		if isUSBSerialName(p.Name) {
			return p.Name, nil
		}
		if fallback == "" {
			fallback = p.Name
		}
	}
	if fallback == "" {
		return "", ErrNoPort
	}
	return fallback, nil
}

func isUSBSerialName(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range usbSerialNames {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// IsBlocked reports whether a VID:PID pair is in blocklist. Comparison is
// case-insensitive.
func IsBlocked(vidpid string, blocklist []string) bool {
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))
	if vidpid == ":" {
		return false
	}
	for _, blocked := range blocklist {
		if vidpid == strings.ToUpper(strings.TrimSpace(blocked)) {
			return true
		}
	}
	return false
}

// IsPathIgnored reports whether path matches an entry of ignorePaths after
// cleaning. Matching is case-insensitive so COM ports compare equal.
func IsPathIgnored(path string, ignorePaths []string) bool {
	if path == "" {
		return false
	}
	normalized := normalizedPath(path)
	for _, ignore := range ignorePaths {
		if ignore != "" && normalizedPath(ignore) == normalized {
			return true
		}
	}
	return false
}

func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
