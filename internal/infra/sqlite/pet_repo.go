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
	"time"

	"github.com/vetledger/vetcert/internal/domain"
	"github.com/vetledger/vetcert/internal/domain/model"
)

type PetRepository struct {
	db *sql.DB
}

// NewPetRepository creates a new instance of PetRepository.
func NewPetRepository(db *sql.DB) *PetRepository {
	return &PetRepository{db: db}
}

func (r *PetRepository) Create(ctx context.Context, p *model.Pet) (int64, error) {
	const query = `
		INSERT INTO pets (owner_id, name, species, breed, birth_date, gender, color, microchip, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		p.OwnerID, p.Name, p.Species, p.Breed,
		nullableTime(p.BirthDate), nullableString(p.Gender), nullableString(p.Color), nullableString(p.Microchip),
		p.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *PetRepository) FindByID(ctx context.Context, id int64) (*model.Pet, error) {
	const query = `
		SELECT id, owner_id, name, species, breed, birth_date, gender, color, microchip, created_at
		FROM pets
		WHERE id = ?
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	var p model.Pet
	var birthDate sql.NullTime
	var gender, color, microchip sql.NullString
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Species, &p.Breed, &birthDate, &gender, &color, &microchip, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if birthDate.Valid {
		t := birthDate.Time.UTC()
		p.BirthDate = &t
	}
	if gender.Valid {
		p.Gender = &gender.String
	}
	if color.Valid {
		p.Color = &color.String
	}
	if microchip.Valid {
		p.Microchip = &microchip.String
	}

	return &p, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
