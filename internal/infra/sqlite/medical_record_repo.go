/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vetledger/vetcert/internal/domain"
	"github.com/vetledger/vetcert/internal/domain/model"
)

type MedicalRecordRepository struct {
	db *sql.DB
}

// NewMedicalRecordRepository creates a new instance of MedicalRecordRepository.
func NewMedicalRecordRepository(db *sql.DB) *MedicalRecordRepository {
	return &MedicalRecordRepository{db: db}
}

func (r *MedicalRecordRepository) Create(ctx context.Context, rec *model.MedicalRecord) (int64, error) {
	const query = `
		INSERT INTO medical_records (pet_id, vet_id, record_type, record_date, description,
			vaccine_name, vaccine_batch, vaccine_manufacturer, vaccine_validity_years,
			vet_signature, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var vaccineName, vaccineBatch, vaccineManufacturer any
	var vaccineValidity any
	if rec.Vaccine != nil {
		vaccineName = rec.Vaccine.Name
		vaccineBatch = rec.Vaccine.Batch
		vaccineManufacturer = rec.Vaccine.Manufacturer
		vaccineValidity = rec.Vaccine.ValidityYears
	}

	result, err := r.db.ExecContext(ctx, query,
		rec.PetID, rec.VetID, string(rec.Type), rec.Date.UTC(), rec.Description,
		vaccineName, vaccineBatch, vaccineManufacturer, vaccineValidity,
		rec.VetSignature, rec.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *MedicalRecordRepository) FindByID(ctx context.Context, id int64) (*model.MedicalRecord, error) {
	const query = `
		SELECT id, pet_id, vet_id, record_type, record_date, description,
			vaccine_name, vaccine_batch, vaccine_manufacturer, vaccine_validity_years,
			vet_signature, created_at
		FROM medical_records
		WHERE id = ?
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var rec model.MedicalRecord
	var recordType string
	var vaccineName, vaccineBatch, vaccineManufacturer sql.NullString
	var vaccineValidity sql.NullInt64
	if err := row.Scan(&rec.ID, &rec.PetID, &rec.VetID, &recordType, &rec.Date, &rec.Description,
		&vaccineName, &vaccineBatch, &vaccineManufacturer, &vaccineValidity,
		&rec.VetSignature, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	rec.Type = model.RecordType(recordType)

	// The vaccine block is present as a whole or not at all.
	if vaccineName.Valid {
		rec.Vaccine = &model.VaccineInfo{
			Name:          vaccineName.String,
			Batch:         vaccineBatch.String,
			Manufacturer:  vaccineManufacturer.String,
			ValidityYears: int(vaccineValidity.Int64),
		}
	}

	return &rec, nil
}

// SetSignature stores a vet's detached signature on a record.
func (r *MedicalRecordRepository) SetSignature(ctx context.Context, id int64, signature string) error {
	const query = `
		UPDATE medical_records
		SET vet_signature = ?
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query, signature, id)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
