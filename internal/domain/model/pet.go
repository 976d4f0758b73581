/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import "time"

// Pet represents an animal registered by an owner and activated by a clinic.
// BirthDate, Gender, Color and Microchip are optional attributes; a nil
// pointer means the owner never supplied the value.
type Pet struct {
	ID        int64
	OwnerID   int64
	Name      string
	Species   string
	Breed     string
	BirthDate *time.Time
	Gender    *string
	Color     *string
	Microchip *string
	CreatedAt time.Time
}
