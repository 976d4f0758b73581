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

	"github.com/mattn/go-sqlite3"
	"github.com/vetledger/vetcert/internal/domain"
	"github.com/vetledger/vetcert/internal/domain/model"
)

type CertificateRepository struct {
	db *sql.DB
}

// NewCertificateRepository creates a new instance of CertificateRepository.
func NewCertificateRepository(db *sql.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// Create inserts a certificate. The UNIQUE constraints on uid,
// certificate_number and medical_record_id surface as domain.ErrDuplicate,
// which closes the race window between the issuance pre-checks and the write.
func (r *CertificateRepository) Create(ctx context.Context, c *model.Certificate) (int64, error) {
	const query = `
		INSERT INTO certificates (uid, certificate_number, medical_record_id, vet_id, clinic_id,
			payload, vet_signature, clinic_signature, issued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		c.UID, c.Number, c.MedicalRecordID, c.VetID, c.ClinicID,
		c.Payload, c.VetSignature, c.ClinicSignature, c.IssuedAt.UTC(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, domain.ErrDuplicate
		}
		return 0, err
	}
	return result.LastInsertId()
}

func (r *CertificateRepository) FindByID(ctx context.Context, id int64) (*model.Certificate, error) {
	const query = selectCertificate + ` WHERE id = ? LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *CertificateRepository) FindByNumber(ctx context.Context, number string) (*model.Certificate, error) {
	const query = selectCertificate + ` WHERE certificate_number = ? LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, number))
}

func (r *CertificateRepository) FindByRecordID(ctx context.Context, recordID int64) (*model.Certificate, error) {
	const query = selectCertificate + ` WHERE medical_record_id = ? LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, recordID))
}

func (r *CertificateRepository) ExistsForRecord(ctx context.Context, recordID int64) (bool, error) {
	const query = `SELECT COUNT(1) FROM certificates WHERE medical_record_id = ?`
	var n int64
	if err := r.db.QueryRowContext(ctx, query, recordID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *CertificateRepository) NumberExists(ctx context.Context, number string) (bool, error) {
	const query = `SELECT COUNT(1) FROM certificates WHERE certificate_number = ?`
	var n int64
	if err := r.db.QueryRowContext(ctx, query, number).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

const selectCertificate = `
	SELECT id, uid, certificate_number, medical_record_id, vet_id, clinic_id,
		payload, vet_signature, clinic_signature, issued_at
	FROM certificates
`

func (r *CertificateRepository) scanOne(row *sql.Row) (*model.Certificate, error) {
	var c model.Certificate
	if err := row.Scan(&c.ID, &c.UID, &c.Number, &c.MedicalRecordID, &c.VetID, &c.ClinicID,
		&c.Payload, &c.VetSignature, &c.ClinicSignature, &c.IssuedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
