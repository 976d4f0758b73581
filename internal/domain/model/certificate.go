/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import "time"

// Certificate binds an immutable payload snapshot to its two detached
// signatures and the source medical record. Payload holds the canonical
// JSON bytes exactly as they were signed; VetSignature and ClinicSignature
// are Base64 of the raw RSA-SHA256 signature bytes over those bytes.
// A certificate is never mutated after creation.
type Certificate struct {
	ID              int64
	UID             string
	Number          string
	MedicalRecordID int64
	VetID           int64
	ClinicID        int64
	Payload         []byte
	VetSignature    string
	ClinicSignature string
	IssuedAt        time.Time
}
