/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package model

import "time"

type RecordType string

const (
	RecordTypeVaccine   RecordType = "VACCINE"
	RecordTypeCheckup   RecordType = "CHECKUP"
	RecordTypeSurgery   RecordType = "SURGERY"
	RecordTypeTreatment RecordType = "TREATMENT"
)

// VaccineInfo carries the vaccine-specific fields of a VACCINE record.
type VaccineInfo struct {
	Name          string
	Batch         string
	Manufacturer  string
	ValidityYears int
}

// MedicalRecord represents a single medical event for a pet, created by a
// veterinarian. VetSignature holds the vet's detached signature over the
// record's canonical form as Base64 text; an empty string means the record
// has not been signed yet. Vaccine is nil for non-vaccine record types.
type MedicalRecord struct {
	ID           int64
	PetID        int64
	VetID        int64
	Type         RecordType
	Date         time.Time
	Description  string
	Vaccine      *VaccineInfo
	VetSignature string
	CreatedAt    time.Time
}

// Signed reports whether the record carries a non-blank vet signature.
func (r *MedicalRecord) Signed() bool {
	return r != nil && r.VetSignature != ""
}
