/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import "time"

// Clinic represents a veterinary clinic that activates pets and
// counter-signs issued certificates. PublicKeyRef and PrivateKeyRef are
// opaque keystore references, never raw key bytes.
type Clinic struct {
	ID            int64
	Name          string
	Country       string
	PublicKeyRef  string
	PrivateKeyRef string
	CreatedAt     time.Time
}
