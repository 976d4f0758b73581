/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package qr encodes issued certificates into a QR-friendly text form:
// CBOR envelope, COSE_Sign1 wrapping, zlib compression, Base45, and a
// fixed prefix, in that order. Decode reverses the chain.
package qr

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/minvws/base45-go/base45"
	"github.com/veraison/go-cose"
	"github.com/vetledger/vetcert/internal/domain/model"
)

// Prefix marks the encoding version of the QR text.
const Prefix = "PC1:"

// algRS256 is RSASSA-PKCS1-v1_5 with SHA-256 (COSE registry -257).
const algRS256 = cose.Algorithm(-257)

const maxDecodedBytes = 1 << 20

var (
	ErrEncode = errors.New("QR encoding failed")
	ErrDecode = errors.New("QR decoding failed")
)

// envelope is the CBOR body carried as the COSE_Sign1 payload. The canonical
// certificate bytes are embedded verbatim so that both detached signatures
// stay verifiable after transport.
type envelope struct {
	Payload      []byte `cbor:"1,keyasint"`
	VetID        int64  `cbor:"2,keyasint"`
	VetSignature []byte `cbor:"3,keyasint"`
}

// Decoded is the result of unpacking a QR text.
type Decoded struct {
	UID             string
	Payload         []byte
	VetID           int64
	VetSignature    []byte
	ClinicSignature []byte
}

// Encode packs a persisted certificate into its QR text form. The clinic
// signature rides as the COSE_Sign1 signature and the vet signature inside
// the envelope; both were computed over cert.Payload at issuance.
func Encode(cert *model.Certificate) (string, error) {
	vetSig, err := decodeSignature(cert.VetSignature)
	if err != nil {
		return "", fmt.Errorf("%w: vet signature: %v", ErrEncode, err)
	}
	clinicSig, err := decodeSignature(cert.ClinicSignature)
	if err != nil {
		return "", fmt.Errorf("%w: clinic signature: %v", ErrEncode, err)
	}

	body, err := cbor.Marshal(envelope{
		Payload:      cert.Payload,
		VetID:        cert.VetID,
		VetSignature: vetSig,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal envelope: %v", ErrEncode, err)
	}

	msg := cose.Sign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				cose.HeaderLabelAlgorithm: algRS256,
				cose.HeaderLabelKeyID:     []byte(cert.UID),
			},
		},
		Payload:   body,
		Signature: clinicSig,
	}
	signed, err := msg.MarshalCBOR()
	if err != nil {
		return "", fmt.Errorf("%w: marshal COSE_Sign1: %v", ErrEncode, err)
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(signed); err != nil {
		return "", fmt.Errorf("%w: compress: %v", ErrEncode, err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("%w: compress: %v", ErrEncode, err)
	}

	encoded, err := base45.Base45Encode(compressed.Bytes())
	if err != nil {
		return "", fmt.Errorf("%w: base45: %v", ErrEncode, err)
	}
	return Prefix + string(encoded), nil
}

// Decode unpacks a QR text produced by Encode. It validates the prefix, the
// declared algorithm, and the envelope shape, but does not verify either
// signature; callers hold the public keys.
func Decode(text string) (*Decoded, error) {
	if len(text) < len(Prefix) || text[:len(Prefix)] != Prefix {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrDecode, Prefix)
	}

	compressed, err := base45.Base45Decode([]byte(text[len(Prefix):]))
	if err != nil {
		return nil, fmt.Errorf("%w: base45: %v", ErrDecode, err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %v", ErrDecode, err)
	}
	signed, err := io.ReadAll(io.LimitReader(zr, maxDecodedBytes))
	if cerr := zr.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %v", ErrDecode, err)
	}

	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(signed); err != nil {
		return nil, fmt.Errorf("%w: parse COSE_Sign1: %v", ErrDecode, err)
	}

	alg, err := msg.Headers.Protected.Algorithm()
	if err != nil || alg != algRS256 {
		return nil, fmt.Errorf("%w: unexpected algorithm", ErrDecode)
	}
	kid, ok := msg.Headers.Protected[cose.HeaderLabelKeyID].([]byte)
	if !ok || len(kid) == 0 {
		return nil, fmt.Errorf("%w: missing key id", ErrDecode)
	}

	var body envelope
	if err := cbor.Unmarshal(msg.Payload, &body); err != nil {
		return nil, fmt.Errorf("%w: parse envelope: %v", ErrDecode, err)
	}
	if len(body.Payload) == 0 || len(body.VetSignature) == 0 || len(msg.Signature) == 0 {
		return nil, fmt.Errorf("%w: incomplete envelope", ErrDecode)
	}

	return &Decoded{
		UID:             string(kid),
		Payload:         body.Payload,
		VetID:           body.VetID,
		VetSignature:    body.VetSignature,
		ClinicSignature: msg.Signature,
	}, nil
}

func decodeSignature(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, errors.New("empty signature")
	}
	return base64.StdEncoding.DecodeString(encoded)
}
