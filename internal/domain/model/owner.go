/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import "time"

// Owner represents the registered keeper of one or more pets.
type Owner struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
}
