/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import "time"

// Veterinarian represents a licensed vet attached to a clinic. Key
// references point into the keystore; the private key itself is encrypted
// at rest and decrypted per signing operation with a caller-supplied
// password.
type Veterinarian struct {
	ID            int64
	ClinicID      int64
	Name          string
	License       string
	PublicKeyRef  string
	PrivateKeyRef string
	CreatedAt     time.Time
}
