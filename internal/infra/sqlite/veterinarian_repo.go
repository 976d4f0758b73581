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

type VeterinarianRepository struct {
	db *sql.DB
}

// NewVeterinarianRepository creates a new instance of VeterinarianRepository.
func NewVeterinarianRepository(db *sql.DB) *VeterinarianRepository {
	return &VeterinarianRepository{db: db}
}

func (r *VeterinarianRepository) Create(ctx context.Context, v *model.Veterinarian) (int64, error) {
	const query = `
		INSERT INTO veterinarians (clinic_id, name, license, public_key_ref, private_key_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query, v.ClinicID, v.Name, v.License, v.PublicKeyRef, v.PrivateKeyRef, v.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *VeterinarianRepository) FindByID(ctx context.Context, id int64) (*model.Veterinarian, error) {
	const query = `
		SELECT id, clinic_id, name, license, public_key_ref, private_key_ref, created_at
		FROM veterinarians
		WHERE id = ?
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	var v model.Veterinarian
	if err := row.Scan(&v.ID, &v.ClinicID, &v.Name, &v.License, &v.PublicKeyRef, &v.PrivateKeyRef, &v.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}
