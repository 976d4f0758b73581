/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package certify

import (
	"encoding/json"
	"time"

	"github.com/vetledger/vetcert/internal/domain/model"
)

// CertTypeVaccination tags the payload of a pet vaccination certificate.
const CertTypeVaccination = "PET_VACCINATION"

const dateLayout = "2006-01-02"

// Payload is the canonical form of a certificate's business data. Field
// declaration order is the canonical key order: the JSON serialization of
// this struct is what gets signed and embedded, so the order must never
// change. Optional pet attributes serialize as explicit nulls; downstream
// consumers rely on key presence.
type Payload struct {
	CertType          string       `json:"certType"`
	IssuanceTimestamp int64        `json:"issuanceTimestamp"`
	CertificateNumber string       `json:"certificateNumber"`
	Issuer            IssuerBlock  `json:"issuer"`
	Subject           SubjectBlock `json:"subject"`
	Event             EventBlock   `json:"event"`
}

type IssuerBlock struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Country           string `json:"country"`
	IssuingVetID      int64  `json:"issuingVetId"`
	IssuingVetName    string `json:"issuingVetName"`
	IssuingVetLicense string `json:"issuingVetLicense"`
}

type SubjectBlock struct {
	PetID        int64      `json:"petId"`
	PetName      string     `json:"petName"`
	PetSpecies   string     `json:"petSpecies"`
	PetBreed     string     `json:"petBreed"`
	PetBirthDate *string    `json:"petBirthDate"`
	PetGender    *string    `json:"petGender"`
	PetColor     *string    `json:"petColor"`
	PetMicrochip *string    `json:"petMicrochip"`
	OwnerInfo    *OwnerInfo `json:"ownerInfo,omitempty"`
}

type OwnerInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EventBlock describes the source medical event. Exactly one of
// VaccinationDetails and Description is present, determined by record type.
type EventBlock struct {
	RecordID           int64               `json:"recordId"`
	RecordType         string              `json:"recordType"`
	RecordDate         string              `json:"recordDate"`
	VaccinationDetails *VaccinationDetails `json:"vaccinationDetails,omitempty"`
	Description        *string             `json:"description,omitempty"`
}

type VaccinationDetails struct {
	VaccineName   string  `json:"vaccineName"`
	Batch         string  `json:"batch"`
	Manufacturer  string  `json:"manufacturer"`
	ValidityYears int     `json:"validityYears"`
	ExpiryDate    *string `json:"expiryDate,omitempty"`
}

// BuildPayload assembles the canonical payload for a certificate.
// IssuanceTimestamp is wall-clock milliseconds at construction time and is
// the only non-reproducible field. owner may be nil, in which case the
// subject carries no owner block.
func BuildPayload(pet *model.Pet, owner *model.Owner, rec *model.MedicalRecord, vet *model.Veterinarian, clinic *model.Clinic, certificateNumber string) *Payload {
	p := &Payload{
		CertType:          CertTypeVaccination,
		IssuanceTimestamp: time.Now().UnixMilli(),
		CertificateNumber: certificateNumber,
		Issuer: IssuerBlock{
			ID:                clinic.ID,
			Name:              clinic.Name,
			Country:           clinic.Country,
			IssuingVetID:      vet.ID,
			IssuingVetName:    vet.Name,
			IssuingVetLicense: vet.License,
		},
		Subject: SubjectBlock{
			PetID:        pet.ID,
			PetName:      pet.Name,
			PetSpecies:   pet.Species,
			PetBreed:     pet.Breed,
			PetBirthDate: formatDate(pet.BirthDate),
			PetGender:    pet.Gender,
			PetColor:     pet.Color,
			PetMicrochip: pet.Microchip,
		},
		Event: EventBlock{
			RecordID:   rec.ID,
			RecordType: string(rec.Type),
			RecordDate: rec.Date.UTC().Format(dateLayout),
		},
	}

	if owner != nil {
		p.Subject.OwnerInfo = &OwnerInfo{ID: owner.ID, Name: owner.Name}
	}

	if rec.Type == model.RecordTypeVaccine && rec.Vaccine != nil {
		details := &VaccinationDetails{
			VaccineName:   rec.Vaccine.Name,
			Batch:         rec.Vaccine.Batch,
			Manufacturer:  rec.Vaccine.Manufacturer,
			ValidityYears: rec.Vaccine.ValidityYears,
		}
		if !rec.Date.IsZero() && rec.Vaccine.ValidityYears > 0 {
			expiry := rec.Date.UTC().AddDate(rec.Vaccine.ValidityYears, 0, 0).Format(dateLayout)
			details.ExpiryDate = &expiry
		}
		p.Event.VaccinationDetails = details
	} else {
		description := rec.Description
		p.Event.Description = &description
	}

	return p
}

// CanonicalBytes serializes the payload in its canonical form. The result
// is byte-for-byte reproducible for a given payload value.
func (p *Payload) CanonicalBytes() ([]byte, error) {
	return json.Marshal(p)
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}
