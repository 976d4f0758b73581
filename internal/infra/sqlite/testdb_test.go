/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/vetledger/vetcert/internal/domain/model"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("InitDB error: %v", err)
	}
	t.Cleanup(func() { CloseDB(db) })
	return db
}

type seeded struct {
	ownerID  int64
	petID    int64
	clinicID int64
	vetID    int64
	recordID int64
}

// seedGraph inserts one owner, pet, clinic, vet and an unsigned vaccine
// record so repository tests can exercise foreign keys.
func seedGraph(t *testing.T, db *sql.DB) seeded {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	ownerID, err := NewOwnerRepository(db).Create(ctx, &model.Owner{Name: "Alice Veld", Email: "alice@example.org", CreatedAt: now})
	if err != nil {
		t.Fatalf("seed owner: %v", err)
	}

	gender := "F"
	petID, err := NewPetRepository(db).Create(ctx, &model.Pet{
		OwnerID:   ownerID,
		Name:      "Mora",
		Species:   "DOG",
		Breed:     "Border Collie",
		Gender:    &gender,
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed pet: %v", err)
	}

	clinicID, err := NewClinicRepository(db).Create(ctx, &model.Clinic{
		Name: "North Clinic", Country: "NL",
		PublicKeyRef: "clinics/1/pub.pem", PrivateKeyRef: "clinics/1/key.pem",
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed clinic: %v", err)
	}

	vetID, err := NewVeterinarianRepository(db).Create(ctx, &model.Veterinarian{
		ClinicID: clinicID, Name: "Dr. Bram Koster", License: "NL-83521",
		PublicKeyRef: "vets/1/pub.pem", PrivateKeyRef: "vets/1/key.pem",
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed vet: %v", err)
	}

	recordID, err := NewMedicalRecordRepository(db).Create(ctx, &model.MedicalRecord{
		PetID: petID, VetID: vetID,
		Type: model.RecordTypeVaccine,
		Date: now,
		Vaccine: &model.VaccineInfo{
			Name: "Rabivax", Batch: "RB-2231", Manufacturer: "Intervet", ValidityYears: 3,
		},
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}

	return seeded{ownerID: ownerID, petID: petID, clinicID: clinicID, vetID: vetID, recordID: recordID}
}
