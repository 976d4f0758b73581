/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package certify implements the certificate issuance workflow: prerequisite
// validation, canonical payload construction, dual signing with the vet's
// and clinic's keys, and persistence of the resulting certificate.
package certify

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/vetledger/vetcert/internal/domain"
	"github.com/vetledger/vetcert/internal/domain/model"
	"github.com/vetledger/vetcert/internal/domain/service"
	"github.com/vetledger/vetcert/internal/infra/sqlite"
	"github.com/vetledger/vetcert/internal/keymat"
	"github.com/vetledger/vetcert/internal/signing"
)

// KeyStore is the external key-storage collaborator: PEM streams addressed
// by the opaque references stored on vet and clinic records.
type KeyStore interface {
	ReadPrivateKey(ref string) (io.ReadCloser, error)
	ReadPublicKey(ref string) (io.ReadCloser, error)
}

// Service orchestrates record signing and certificate issuance.
type Service struct {
	owners  service.OwnerRepository
	pets    service.PetRepository
	clinics service.ClinicRepository
	vets    service.VeterinarianRepository
	records service.MedicalRecordRepository
	certs   service.CertificateRepository
	keys    KeyStore
	logger  *log.Logger
}

// NewService wires the workflow onto a database connection and a keystore.
func NewService(db *sql.DB, keys KeyStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		owners:  sqlite.NewOwnerRepository(db),
		pets:    sqlite.NewPetRepository(db),
		clinics: sqlite.NewClinicRepository(db),
		vets:    sqlite.NewVeterinarianRepository(db),
		records: sqlite.NewMedicalRecordRepository(db),
		certs:   sqlite.NewCertificateRepository(db),
		keys:    keys,
		logger:  logger,
	}
}

// IssueRequest carries the caller-supplied inputs for one issuance. The
// password buffers are wiped before Issue returns, on every path.
type IssueRequest struct {
	VetID             int64
	RecordID          int64
	CertificateNumber string
	VetKeyPassword    []byte
	ClinicKeyPassword []byte
}

// ValidatePrerequisites runs the ordered issuance checks without side
// effects. The first applicable violation wins.
func (s *Service) ValidatePrerequisites(ctx context.Context, vet *model.Veterinarian, rec *model.MedicalRecord, certificateNumber string) error {
	if !rec.Signed() {
		return fmt.Errorf("%w: record %d", ErrRecordNotSigned, rec.ID)
	}
	if rec.VetID != vet.ID {
		return fmt.Errorf("%w: record %d was created by veterinarian %d, not %d", ErrNotRecordOwner, rec.ID, rec.VetID, vet.ID)
	}

	exists, err := s.certs.ExistsForRecord(ctx, rec.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: record %d", ErrDuplicateCertificateForRecord, rec.ID)
	}

	if rec.Type != model.RecordTypeVaccine || rec.Vaccine == nil {
		return fmt.Errorf("%w: record %d has type %s", ErrUnsupportedRecordType, rec.ID, rec.Type)
	}

	taken, err := s.certs.NumberExists(ctx, certificateNumber)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s", ErrDuplicateCertificateNumber, certificateNumber)
	}

	return nil
}

// Issue validates prerequisites, builds the canonical payload, signs it with
// the vet's key and then the clinic's key, and persists the certificate.
// Nothing is persisted unless both signatures succeed.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*model.Certificate, error) {
	defer keymat.Wipe(req.VetKeyPassword)
	defer keymat.Wipe(req.ClinicKeyPassword)

	vet, err := s.vets.FindByID(ctx, req.VetID)
	if err != nil {
		return nil, fmt.Errorf("veterinarian %d: %w", req.VetID, err)
	}
	rec, err := s.records.FindByID(ctx, req.RecordID)
	if err != nil {
		return nil, fmt.Errorf("medical record %d: %w", req.RecordID, err)
	}

	if err := s.ValidatePrerequisites(ctx, vet, rec, req.CertificateNumber); err != nil {
		return nil, err
	}

	pet, err := s.pets.FindByID(ctx, rec.PetID)
	if err != nil {
		return nil, fmt.Errorf("pet %d: %w", rec.PetID, err)
	}
	owner, err := s.owners.FindByID(ctx, pet.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("owner %d: %w", pet.OwnerID, err)
	}
	clinic, err := s.clinics.FindByID(ctx, vet.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("clinic %d: %w", vet.ClinicID, err)
	}

	payload := BuildPayload(pet, owner, rec, vet, clinic, req.CertificateNumber)
	canonical, err := payload.CanonicalBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize payload: %w", err)
	}

	// Both signatures are buffered in memory; the certificate is persisted
	// only after the second one succeeds.
	vetSig, err := s.signWith(vet.PrivateKeyRef, req.VetKeyPassword, canonical)
	if err != nil {
		return nil, fmt.Errorf("veterinarian %d (%s) signing: %w", vet.ID, vet.Name, err)
	}
	clinicSig, err := s.signWith(clinic.PrivateKeyRef, req.ClinicKeyPassword, canonical)
	if err != nil {
		return nil, fmt.Errorf("clinic %d (%s) signing: %w", clinic.ID, clinic.Name, err)
	}

	cert := &model.Certificate{
		UID:             uuid.NewString(),
		Number:          req.CertificateNumber,
		MedicalRecordID: rec.ID,
		VetID:           vet.ID,
		ClinicID:        clinic.ID,
		Payload:         canonical,
		VetSignature:    vetSig,
		ClinicSignature: clinicSig,
		IssuedAt:        time.UnixMilli(payload.IssuanceTimestamp).UTC(),
	}

	id, err := s.certs.Create(ctx, cert)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// The unique constraints caught a race with a concurrent
			// issuance; report which pre-check it would have failed.
			if exists, lookupErr := s.certs.ExistsForRecord(ctx, rec.ID); lookupErr == nil && exists {
				return nil, fmt.Errorf("%w: record %d", ErrDuplicateCertificateForRecord, rec.ID)
			}
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCertificateNumber, req.CertificateNumber)
		}
		return nil, err
	}
	cert.ID = id

	s.logger.Printf("certificate %s issued for record %d by veterinarian %d", cert.Number, rec.ID, vet.ID)
	return cert, nil
}

// Certificate loads a persisted certificate by id.
func (s *Service) Certificate(ctx context.Context, id int64) (*model.Certificate, error) {
	return s.certs.FindByID(ctx, id)
}

// CertificateByNumber loads a persisted certificate by its official number.
func (s *Service) CertificateByNumber(ctx context.Context, number string) (*model.Certificate, error) {
	return s.certs.FindByNumber(ctx, number)
}

// SignRecord signs a medical record with the vet's private key and stores
// the detached signature on the record. Only the record's creator may sign.
func (s *Service) SignRecord(ctx context.Context, vetID, recordID int64, password []byte) error {
	defer keymat.Wipe(password)

	vet, err := s.vets.FindByID(ctx, vetID)
	if err != nil {
		return fmt.Errorf("veterinarian %d: %w", vetID, err)
	}
	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return fmt.Errorf("medical record %d: %w", recordID, err)
	}
	if rec.VetID != vet.ID {
		return fmt.Errorf("%w: record %d was created by veterinarian %d, not %d", ErrNotRecordOwner, rec.ID, rec.VetID, vet.ID)
	}

	canonical, err := recordCanonicalBytes(rec)
	if err != nil {
		return fmt.Errorf("serialize record: %w", err)
	}

	sig, err := s.signWith(vet.PrivateKeyRef, password, canonical)
	if err != nil {
		return fmt.Errorf("veterinarian %d (%s) signing: %w", vet.ID, vet.Name, err)
	}

	return s.records.SetSignature(ctx, rec.ID, sig)
}

// VerifyRecord checks a record's stored signature against its creator's
// stored public key. A missing or mismatching signature yields false; I/O
// failures yield an error.
func (s *Service) VerifyRecord(ctx context.Context, recordID int64) (bool, error) {
	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return false, fmt.Errorf("medical record %d: %w", recordID, err)
	}
	if !rec.Signed() {
		return false, nil
	}
	vet, err := s.vets.FindByID(ctx, rec.VetID)
	if err != nil {
		return false, fmt.Errorf("veterinarian %d: %w", rec.VetID, err)
	}

	rc, err := s.keys.ReadPublicKey(vet.PublicKeyRef)
	if err != nil {
		return false, fmt.Errorf("read public key %q: %w", vet.PublicKeyRef, err)
	}
	defer rc.Close()

	pub, err := keymat.LoadPublicKey(rc)
	if err != nil {
		return false, err
	}

	sig, err := base64.StdEncoding.DecodeString(rec.VetSignature)
	if err != nil {
		s.logger.Printf("record %d: stored signature is not valid base64: %v", rec.ID, err)
		return false, nil
	}
	canonical, err := recordCanonicalBytes(rec)
	if err != nil {
		return false, fmt.Errorf("serialize record: %w", err)
	}

	if err := signing.Verify(pub, canonical, sig); err != nil {
		s.logger.Printf("record %d: signature rejected: %v", rec.ID, err)
		return false, nil
	}
	return true, nil
}

func (s *Service) signWith(ref string, password []byte, data []byte) (string, error) {
	rc, err := s.keys.ReadPrivateKey(ref)
	if err != nil {
		return "", fmt.Errorf("read private key %q: %w", ref, err)
	}
	defer rc.Close()

	key, err := keymat.LoadPrivateKey(rc, password)
	if err != nil {
		return "", err
	}
	return signing.SignToBase64(key, data)
}

// recordCanonical is the stable form of a medical record that vet
// signatures cover. Field order is part of the format.
type recordCanonical struct {
	RecordID      int64  `json:"recordId"`
	PetID         int64  `json:"petId"`
	VetID         int64  `json:"vetId"`
	RecordType    string `json:"recordType"`
	RecordDate    string `json:"recordDate"`
	Description   string `json:"description"`
	VaccineName   string `json:"vaccineName,omitempty"`
	VaccineBatch  string `json:"vaccineBatch,omitempty"`
	Manufacturer  string `json:"manufacturer,omitempty"`
	ValidityYears int    `json:"validityYears,omitempty"`
}

func recordCanonicalBytes(rec *model.MedicalRecord) ([]byte, error) {
	c := recordCanonical{
		RecordID:    rec.ID,
		PetID:       rec.PetID,
		VetID:       rec.VetID,
		RecordType:  string(rec.Type),
		RecordDate:  rec.Date.UTC().Format(dateLayout),
		Description: rec.Description,
	}
	if rec.Vaccine != nil {
		c.VaccineName = rec.Vaccine.Name
		c.VaccineBatch = rec.Vaccine.Batch
		c.Manufacturer = rec.Vaccine.Manufacturer
		c.ValidityYears = rec.Vaccine.ValidityYears
	}
	return json.Marshal(c)
}
