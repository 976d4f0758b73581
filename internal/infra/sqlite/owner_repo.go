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

type OwnerRepository struct {
	db *sql.DB
}

// NewOwnerRepository creates a new instance of OwnerRepository.
func NewOwnerRepository(db *sql.DB) *OwnerRepository {
	return &OwnerRepository{db: db}
}

func (r *OwnerRepository) Create(ctx context.Context, o *model.Owner) (int64, error) {
	const query = `
		INSERT INTO owners (name, email, created_at)
		VALUES (?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query, o.Name, o.Email, o.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *OwnerRepository) FindByID(ctx context.Context, id int64) (*model.Owner, error) {
	const query = `
		SELECT id, name, email, created_at
		FROM owners
		WHERE id = ?
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	var o model.Owner
	if err := row.Scan(&o.ID, &o.Name, &o.Email, &o.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}
