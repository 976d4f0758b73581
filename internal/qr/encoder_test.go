/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package qr

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetledger/vetcert/internal/domain/model"
)

const base45Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

func sampleCertificate() *model.Certificate {
	vetSig := []byte("vet-signature-bytes-0123456789")
	clinicSig := []byte("clinic-signature-bytes-0123456789")
	return &model.Certificate{
		ID:              5,
		UID:             "0d4b7f2e-9a61-4c56-bb1f-6d0c2f0f8f31",
		Number:          "NL-2025-0001",
		MedicalRecordID: 42,
		VetID:           7,
		ClinicID:        2,
		Payload:         []byte(`{"certType":"PET_VACCINATION","certificateNumber":"NL-2025-0001"}`),
		VetSignature:    base64.StdEncoding.EncodeToString(vetSig),
		ClinicSignature: base64.StdEncoding.EncodeToString(clinicSig),
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	cert := sampleCertificate()

	text, err := Encode(cert)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text, Prefix))

	for _, r := range text[len(Prefix):] {
		assert.Contains(t, base45Alphabet, string(r), "character %q outside the Base45 alphabet", r)
	}

	d, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, cert.UID, d.UID)
	assert.Equal(t, cert.VetID, d.VetID)
	assert.Equal(t, cert.Payload, d.Payload)
	assert.Equal(t, []byte("vet-signature-bytes-0123456789"), d.VetSignature)
	assert.Equal(t, []byte("clinic-signature-bytes-0123456789"), d.ClinicSignature)
}

func TestEncode_RejectsMalformedSignatures(t *testing.T) {
	cert := sampleCertificate()
	cert.ClinicSignature = "%%% not base64 %%%"
	_, err := Encode(cert)
	assert.ErrorIs(t, err, ErrEncode)

	cert = sampleCertificate()
	cert.VetSignature = ""
	_, err = Encode(cert)
	assert.ErrorIs(t, err, ErrEncode)
}

func TestDecode_Malformed(t *testing.T) {
	cert := sampleCertificate()
	text, err := Encode(cert)
	require.NoError(t, err)

	cases := map[string]string{
		"missing prefix":   text[len(Prefix):],
		"wrong prefix":     "HC1:" + text[len(Prefix):],
		"empty":            "",
		"prefix only":      Prefix,
		"invalid base45":   Prefix + "ab~~",
		"garbage contents": Prefix + "BB8",
		"truncated":        text[:len(text)/2],
	}
	for name, input := range cases {
		_, err := Decode(input)
		assert.ErrorIs(t, err, ErrDecode, "case %s", name)
	}
}

func TestInspect(t *testing.T) {
	cert := sampleCertificate()
	text, err := Encode(cert)
	require.NoError(t, err)

	out, err := Inspect(text)
	require.NoError(t, err)
	assert.Contains(t, out, cert.UID)
	assert.Contains(t, out, "vet: 7")
	assert.Contains(t, out, "PET_VACCINATION")
}
