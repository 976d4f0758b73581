/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package service

import (
	"context"

	"github.com/vetledger/vetcert/internal/domain/model"
)

// OwnerRepository defines the interface for owner persistence.
type OwnerRepository interface {
	Create(ctx context.Context, o *model.Owner) (int64, error)
	FindByID(ctx context.Context, id int64) (*model.Owner, error)
}

// PetRepository defines the interface for pet persistence.
type PetRepository interface {
	Create(ctx context.Context, p *model.Pet) (int64, error)
	FindByID(ctx context.Context, id int64) (*model.Pet, error)
}

// ClinicRepository defines the interface for clinic persistence.
type ClinicRepository interface {
	Create(ctx context.Context, c *model.Clinic) (int64, error)
	FindByID(ctx context.Context, id int64) (*model.Clinic, error)
}

// VeterinarianRepository defines the interface for veterinarian persistence.
type VeterinarianRepository interface {
	Create(ctx context.Context, v *model.Veterinarian) (int64, error)
	FindByID(ctx context.Context, id int64) (*model.Veterinarian, error)
}

// MedicalRecordRepository defines the interface for medical record persistence.
type MedicalRecordRepository interface {
	Create(ctx context.Context, r *model.MedicalRecord) (int64, error)
	FindByID(ctx context.Context, id int64) (*model.MedicalRecord, error)
	SetSignature(ctx context.Context, id int64, signature string) error
}

// CertificateRepository defines the interface for certificate persistence.
// Create must be backed by unique constraints on the certificate number and
// the source record id, so a race between the prerequisite checks and the
// write still cannot produce duplicates.
type CertificateRepository interface {
	Create(ctx context.Context, c *model.Certificate) (int64, error)
	FindByID(ctx context.Context, id int64) (*model.Certificate, error)
	FindByNumber(ctx context.Context, number string) (*model.Certificate, error)
	FindByRecordID(ctx context.Context, recordID int64) (*model.Certificate, error)
	ExistsForRecord(ctx context.Context, recordID int64) (bool, error)
	NumberExists(ctx context.Context, number string) (bool, error)
}
