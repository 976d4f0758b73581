/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package certify

import "errors"

// Issuance prerequisite violations, in the order the checks run. Each is
// wrapped with the identifiers (record, vet, certificate number) needed to
// act on it.
var (
	ErrRecordNotSigned               = errors.New("medical record is not signed")
	ErrNotRecordOwner                = errors.New("veterinarian is not the creator of the medical record")
	ErrDuplicateCertificateForRecord = errors.New("a certificate already exists for the medical record")
	ErrUnsupportedRecordType         = errors.New("certificates can only be issued for vaccine records")
	ErrDuplicateCertificateNumber    = errors.New("certificate number already in use")
)
