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

type ClinicRepository struct {
	db *sql.DB
}

// NewClinicRepository creates a new instance of ClinicRepository.
func NewClinicRepository(db *sql.DB) *ClinicRepository {
	return &ClinicRepository{db: db}
}

func (r *ClinicRepository) Create(ctx context.Context, c *model.Clinic) (int64, error) {
	const query = `
		INSERT INTO clinics (name, country, public_key_ref, private_key_ref, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query, c.Name, c.Country, c.PublicKeyRef, c.PrivateKeyRef, c.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *ClinicRepository) FindByID(ctx context.Context, id int64) (*model.Clinic, error) {
	const query = `
		SELECT id, name, country, public_key_ref, private_key_ref, created_at
		FROM clinics
		WHERE id = ?
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	var c model.Clinic
	if err := row.Scan(&c.ID, &c.Name, &c.Country, &c.PublicKeyRef, &c.PrivateKeyRef, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
