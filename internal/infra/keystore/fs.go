/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package keystore stores PEM key material on the filesystem, addressed by
// the opaque relative references kept on vet and clinic records.
package keystore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vetledger/vetcert/internal/domain"
)

// FS reads and writes key files under a single root directory.
type FS struct {
	root string
}

// NewFS creates the root directory if needed.
func NewFS(root string) (*FS, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create keystore directory: %w", err)
	}
	return &FS{root: root}, nil
}

// resolve maps a stored reference to a path under root. References are
// opaque relative paths; anything escaping the root is rejected.
func (s *FS) resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty key reference")
	}
	clean := filepath.Clean(ref)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("key reference %q escapes keystore root", ref)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *FS) open(ref string) (io.ReadCloser, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("key %q: %w", ref, domain.ErrNotFound)
		}
		return nil, err
	}
	return f, nil
}

// ReadPrivateKey opens the PEM stream for a stored private key.
func (s *FS) ReadPrivateKey(ref string) (io.ReadCloser, error) {
	return s.open(ref)
}

// ReadPublicKey opens the PEM stream for a stored public key.
func (s *FS) ReadPublicKey(ref string) (io.ReadCloser, error) {
	return s.open(ref)
}

// Write stores PEM bytes under a reference, creating parent directories.
// Private key files get owner-only permissions.
func (s *FS) Write(ref string, pemBytes []byte, private bool) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	mode := os.FileMode(0o644)
	if private {
		mode = 0o600
	}
	return os.WriteFile(path, pemBytes, mode)
}
