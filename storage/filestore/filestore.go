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

// Package filestore implements storage.Store on top of a directory, one
// file per record. It stands in for the flash record engine when the
// emulator runs on a host or on a Linux board with a writable filesystem.
//
// The directory is locked for exclusive use while a Store is open, so two
// emulator processes can never interleave writes to the same slot images.
package filestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ZaparooProject/go-tagemu/storage"
)

const (
	lockFileName = ".lock"
	recordExt    = ".rec"
)

// ErrLocked is returned by Open when another process holds the directory
var ErrLocked = errors.New("store directory locked by another process")

// Config configures a file store
type Config struct {
	// Dir is the root directory holding the records
	Dir string
	// FileMode is used for new record files
	FileMode os.FileMode
	// Sync makes every write fsync the record before it is renamed into
	// place
	Sync bool
}

// DefaultConfig returns the default configuration for dir
func DefaultConfig(dir string) *Config {
	return &Config{
		Dir:      dir,
		FileMode: 0o600,
		Sync:     true,
	}
}

// Store is a directory-backed record store. It is safe for concurrent use.
type Store struct {
	lock   *os.File
	config *Config
	mu     sync.RWMutex
	closed bool
}

// Open creates the directory if needed and takes an exclusive lock on it
func Open(config *Config) (*Store, error) {
	if config == nil || config.Dir == "" {
		return nil, errors.New("store directory cannot be empty")
	}
	if config.FileMode == 0 {
		config.FileMode = 0o600
	}
	if err := os.MkdirAll(config.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	lock, err := os.OpenFile(filepath.Join(config.Dir, lockFileName), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := lockFile(lock); err != nil {
		_ = lock.Close()
		return nil, err
	}

	return &Store{lock: lock, config: config}, nil
}

// Close releases the directory lock. Further calls return storage.ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(unlockFile(s.lock), s.lock.Close())
}

// Dir returns the store's root directory
func (s *Store) Dir() string {
	return s.config.Dir
}

// Path returns the file a record is stored in
func (s *Store) Path(key storage.Key) string {
	return filepath.Join(s.config.Dir,
		fmt.Sprintf("%04x", key.FileID),
		fmt.Sprintf("%04x%s", key.RecordKey, recordExt))
}

// Read implements storage.Store
func (s *Store) Read(key storage.Key, out []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, storage.ErrClosed
	}

	record, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, storage.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read record %s: %w", key, err)
	}
	return copy(out, record), nil
}

// Write implements storage.Store. The record is written to a temporary
// file and renamed over the old one, so a crash never leaves a torn record.
func (s *Store) Write(key storage.Key, words int, data []byte) error {
	record, err := storage.WordAligned(words, data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}

	path := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create record directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp record for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(record); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write record %s: %w", key, err)
	}
	if s.config.Sync {
		if err = tmp.Sync(); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("sync record %s: %w", key, err)
		}
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close record %s: %w", key, err)
	}
	if err = os.Chmod(tmpName, s.config.FileMode); err != nil {
		return fmt.Errorf("chmod record %s: %w", key, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("commit record %s: %w", key, err)
	}
	return nil
}

// Delete implements storage.Store
func (s *Store) Delete(key storage.Key) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, storage.ErrClosed
	}

	err := os.Remove(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("delete record %s: %w", key, err)
	}
	return 1, nil
}

// Exists implements storage.Store
func (s *Store) Exists(key storage.Key) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, storage.ErrClosed
	}

	_, err := os.Stat(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat record %s: %w", key, err)
	}
	return true, nil
}
