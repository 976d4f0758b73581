/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package keymat parses PEM-encoded RSA key material. Private keys arrive
// in several encodings (unencrypted PKCS#8, legacy PKCS#1 key pairs, and
// the encrypted variants of both); the loader classifies the PEM object's
// shape and dispatches to the matching parser. Passwords are zero-wiped on
// every exit path.
package keymat

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"strings"

	"github.com/youmark/pkcs8"
)

// pemShape tags the concrete encoding of a parsed PEM object.
type pemShape int

const (
	shapeUnsupported pemShape = iota
	shapeUnencryptedKey     // PKCS#8 "PRIVATE KEY"
	shapeUnencryptedKeyPair // legacy PKCS#1 "RSA PRIVATE KEY"
	shapeEncryptedKey       // PKCS#8 "ENCRYPTED PRIVATE KEY"
	shapeEncryptedKeyPair   // RFC 1423 encrypted "RSA PRIVATE KEY"
)

func classify(block *pem.Block) pemShape {
	switch block.Type {
	case "PRIVATE KEY":
		return shapeUnencryptedKey
	case "ENCRYPTED PRIVATE KEY":
		return shapeEncryptedKey
	case "RSA PRIVATE KEY":
		if x509.IsEncryptedPEMBlock(block) { //nolint:staticcheck // legacy keys still occur in stored material
			return shapeEncryptedKeyPair
		}
		return shapeUnencryptedKeyPair
	}
	return shapeUnsupported
}

// Wipe overwrites a secret buffer with zero bytes.
func Wipe(secret []byte) {
	for i := range secret {
		secret[i] = 0
	}
}

// LoadPrivateKey reads exactly one PEM object from r and returns the RSA
// private key it encodes. password may be nil for unencrypted keys; it is
// wiped before LoadPrivateKey returns, whatever the outcome.
func LoadPrivateKey(r io.Reader, password []byte) (*rsa.PrivateKey, error) {
	defer Wipe(password)

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM object in stream", ErrKeyFormat)
	}

	switch classify(block) {
	case shapeUnencryptedKey:
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not an RSA key", ErrUnsupportedKeyFormat, key)
		}
		return rsaKey, nil

	case shapeUnencryptedKeyPair:
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
		}
		return key, nil

	case shapeEncryptedKey:
		if len(password) == 0 {
			return nil, ErrPasswordRequired
		}
		key, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, password)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
		}
		return key, nil

	case shapeEncryptedKeyPair:
		if len(password) == 0 {
			return nil, ErrPasswordRequired
		}
		// x509.DecryptPEMBlock is deprecated upstream but remains the only
		// stdlib reader for RFC 1423 PEM encryption.
		der, err := x509.DecryptPEMBlock(block, password) //nolint:staticcheck
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
		}
		key, err := x509.ParsePKCS1PrivateKey(der)
		if err != nil {
			// A wrong password that slips past the padding check yields
			// garbage plaintext, which surfaces here.
			return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
		}
		return key, nil
	}

	return nil, fmt.Errorf("%w: PEM type %q", ErrUnsupportedKeyFormat, block.Type)
}

// LoadPublicKey reads one PEM object from r and returns the RSA public key
// it encodes. Both bare SubjectPublicKeyInfo blocks and X.509 certificates
// (using the embedded public key) are accepted.
func LoadPublicKey(r io.Reader) (*rsa.PublicKey, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM object in stream", ErrKeyFormat)
	}

	switch block.Type {
	case "PUBLIC KEY":
		return parseSPKI(block.Bytes)
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
		}
		return key, nil
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
		}
		rsaKey, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: certificate holds %T, not an RSA key", ErrUnsupportedKeyFormat, cert.PublicKey)
		}
		return rsaKey, nil
	}

	return nil, fmt.Errorf("%w: PEM type %q", ErrUnsupportedKeyFormat, block.Type)
}

// LoadPublicKeyText accepts a public key as PEM text or as a bare Base64
// SubjectPublicKeyInfo string with no armor, tolerating stray whitespace.
func LoadPublicKeyText(s string) (*rsa.PublicKey, error) {
	if strings.Contains(s, "-----BEGIN") {
		return LoadPublicKey(strings.NewReader(s))
	}

	compact := strings.Join(strings.Fields(s), "")
	if compact == "" {
		return nil, fmt.Errorf("%w: empty key text", ErrKeyFormat)
	}

	der, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
	}
	return parseSPKI(der)
}

func parseSPKI(der []byte) (*rsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not an RSA key", ErrUnsupportedKeyFormat, key)
	}
	return rsaKey, nil
}
