/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package signing

import (
	"crypto/x509"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetledger/vetcert/internal/keymat"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	key, err := keymat.Generate(1024)
	require.NoError(t, err)

	data := []byte("vaccination record #42, Mora, Rabivax lot RB-2231 — signed")
	sig, err := Sign(key, data)
	require.NoError(t, err)
	require.NoError(t, Verify(&key.PublicKey, data, sig))

	// PKCS1v15 signing is deterministic
	again, err := Sign(key, data)
	require.NoError(t, err)
	assert.Equal(t, sig, again)
}

func TestVerify_TamperSensitivity(t *testing.T) {
	key, err := keymat.Generate(1024)
	require.NoError(t, err)

	data := []byte("payload under test")
	sig, err := Sign(key, data)
	require.NoError(t, err)

	for i := range data {
		mutated := append([]byte(nil), data...)
		mutated[i] ^= 0x01
		assert.Error(t, Verify(&key.PublicKey, mutated, sig), "flipped data byte %d", i)
	}
	for _, i := range []int{0, len(sig) / 2, len(sig) - 1} {
		mutated := append([]byte(nil), sig...)
		mutated[i] ^= 0x01
		assert.Error(t, Verify(&key.PublicKey, data, mutated), "flipped signature byte %d", i)
	}
}

func TestVerifyEncoded(t *testing.T) {
	key, err := keymat.Generate(1024)
	require.NoError(t, err)
	pubPEM, err := keymat.EncodePublicPEM(&key.PublicKey)
	require.NoError(t, err)

	data := "text payload with UTF-8: møra"
	sig, err := SignToBase64(key, []byte(data))
	require.NoError(t, err)

	v := NewVerifier(nil)
	assert.True(t, v.VerifyEncoded(string(pubPEM), data, sig))

	// blank inputs short-circuit to false
	assert.False(t, v.VerifyEncoded("", data, sig))
	assert.False(t, v.VerifyEncoded(string(pubPEM), "", sig))
	assert.False(t, v.VerifyEncoded(string(pubPEM), data, "  "))

	// malformed inputs never raise
	assert.False(t, v.VerifyEncoded("garbage key", data, sig))
	assert.False(t, v.VerifyEncoded(string(pubPEM), data, "%%%not-base64%%%"))
	assert.False(t, v.VerifyEncoded(string(pubPEM), data+"x", sig))

	tampered := []byte(sig)
	tampered[0] ^= 0x01
	assert.False(t, v.VerifyEncoded(string(pubPEM), data, string(tampered)))

	// wrong key
	other, err := keymat.Generate(1024)
	require.NoError(t, err)
	otherPEM, err := keymat.EncodePublicPEM(&other.PublicKey)
	require.NoError(t, err)
	assert.False(t, v.VerifyEncoded(string(otherPEM), data, sig))

	// the bare base64 key form is accepted too
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	assert.True(t, v.VerifyEncoded(base64.StdEncoding.EncodeToString(der), data, sig))
}
