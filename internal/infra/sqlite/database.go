/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// InitDB initializes the SQLite database and creates necessary tables.
func InitDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Connection-level pragmas to improve concurrency and reliability.
	// These are executed per-connection; setting them here ensures sensible defaults.
	// NOTE: Some pragmas are persistent per DB file (journal_mode) and return a row.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set PRAGMA foreign_keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set PRAGMA journal_mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set PRAGMA synchronous: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set PRAGMA busy_timeout: %w", err)
	}

	// Create tables and indexes
	if err := createSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// createSchema creates all necessary database tables.
func createSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	-- Enable foreign keys
	PRAGMA foreign_keys = ON;

	-- Pet owners table
	CREATE TABLE IF NOT EXISTS owners (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Pets table
	CREATE TABLE IF NOT EXISTS pets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		species TEXT NOT NULL,
		breed TEXT NOT NULL DEFAULT '',
		birth_date TIMESTAMP,
		gender TEXT,
		color TEXT,
		microchip TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		-- table constraints (placed after column definitions for compatibility)
		FOREIGN KEY (owner_id) REFERENCES owners(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_pets_owner_id ON pets(owner_id);
	CREATE INDEX IF NOT EXISTS idx_pets_microchip ON pets(microchip);

	-- Clinics table
	CREATE TABLE IF NOT EXISTS clinics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		country TEXT NOT NULL,
		public_key_ref TEXT NOT NULL DEFAULT '',
		private_key_ref TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Veterinarians table
	CREATE TABLE IF NOT EXISTS veterinarians (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		clinic_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		license TEXT NOT NULL,
		public_key_ref TEXT NOT NULL DEFAULT '',
		private_key_ref TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		-- table constraints (placed after column definitions for compatibility)
		FOREIGN KEY (clinic_id) REFERENCES clinics(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_veterinarians_clinic_id ON veterinarians(clinic_id);
	CREATE INDEX IF NOT EXISTS idx_veterinarians_license ON veterinarians(license);

	-- Medical records table
	CREATE TABLE IF NOT EXISTS medical_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pet_id INTEGER NOT NULL,
		vet_id INTEGER NOT NULL,
		record_type TEXT NOT NULL,
		record_date TIMESTAMP NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		vaccine_name TEXT,
		vaccine_batch TEXT,
		vaccine_manufacturer TEXT,
		vaccine_validity_years INTEGER,
		vet_signature TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		-- table constraints (placed after column definitions for compatibility)
		FOREIGN KEY (pet_id) REFERENCES pets(id) ON DELETE CASCADE,
		FOREIGN KEY (vet_id) REFERENCES veterinarians(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_medical_records_pet_id ON medical_records(pet_id);
	CREATE INDEX IF NOT EXISTS idx_medical_records_vet_id ON medical_records(vet_id);
	CREATE INDEX IF NOT EXISTS idx_medical_records_record_type ON medical_records(record_type);

	-- Certificates table
	-- The UNIQUE constraints on certificate_number and medical_record_id are
	-- the backstop for races between the issuance pre-checks and the write.
	CREATE TABLE IF NOT EXISTS certificates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uid TEXT UNIQUE NOT NULL,
		certificate_number TEXT UNIQUE NOT NULL,
		medical_record_id INTEGER UNIQUE NOT NULL,
		vet_id INTEGER NOT NULL,
		clinic_id INTEGER NOT NULL,
		payload BLOB NOT NULL,
		vet_signature TEXT NOT NULL,
		clinic_signature TEXT NOT NULL,
		issued_at TIMESTAMP NOT NULL,
		-- table constraints (placed after column definitions for compatibility)
		FOREIGN KEY (medical_record_id) REFERENCES medical_records(id) ON DELETE CASCADE,
		FOREIGN KEY (vet_id) REFERENCES veterinarians(id) ON DELETE CASCADE,
		FOREIGN KEY (clinic_id) REFERENCES clinics(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_certificates_certificate_number ON certificates(certificate_number);
	CREATE INDEX IF NOT EXISTS idx_certificates_medical_record_id ON certificates(medical_record_id);
	CREATE INDEX IF NOT EXISTS idx_certificates_uid ON certificates(uid);
	`

	// Execute schema using transaction
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CloseDB closes the database connection.
func CloseDB(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
