/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package signing produces and verifies detached RSASSA-PKCS1-v1_5/SHA-256
// signatures over arbitrary payload bytes. Signatures cross package
// boundaries as Base64 text.
package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"log"
	"strings"

	"github.com/vetledger/vetcert/internal/keymat"
)

// Sign returns the raw signature bytes over data.
func Sign(key *rsa.PrivateKey, data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	return rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
}

// SignToBase64 signs data and encodes the signature for storage/transport.
func SignToBase64(key *rsa.PrivateKey, data []byte) (string, error) {
	sig, err := Sign(key, data)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks a raw signature over data.
func Verify(pub *rsa.PublicKey, data, sig []byte) error {
	digest := sha256.Sum256(data)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig)
}

// Verifier answers boolean verification requests over encoded inputs. It
// never raises: malformed keys, bad Base64 and tampered signatures all map
// to false, with the cause logged.
type Verifier struct {
	logger *log.Logger
}

func NewVerifier(logger *log.Logger) *Verifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Verifier{logger: logger}
}

// VerifyEncoded verifies a Base64 signature over data using a public key
// given as PEM text or bare Base64. Blank inputs short-circuit to false.
func (v *Verifier) VerifyEncoded(publicKey, data, signature string) bool {
	if strings.TrimSpace(publicKey) == "" || data == "" || strings.TrimSpace(signature) == "" {
		return false
	}

	pub, err := keymat.LoadPublicKeyText(publicKey)
	if err != nil {
		v.logger.Printf("verify: cannot load public key: %v", err)
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		v.logger.Printf("verify: cannot decode signature: %v", err)
		return false
	}

	if err := Verify(pub, []byte(data), sig); err != nil {
		v.logger.Printf("verify: signature rejected: %v", err)
		return false
	}
	return true
}
