/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetledger/vetcert/internal/certify"
	"github.com/vetledger/vetcert/internal/domain/model"
	"github.com/vetledger/vetcert/internal/infra/keystore"
	"github.com/vetledger/vetcert/internal/infra/sqlite"
	"github.com/vetledger/vetcert/internal/keymat"
	"github.com/vetledger/vetcert/internal/qr"
	"github.com/vetledger/vetcert/internal/signing"
)

type testEnv struct {
	handler  *handler
	vetID    int64
	recordID int64
	vetPub   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.InitDB(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.CloseDB(db) })

	fs, err := keystore.NewFS(t.TempDir())
	require.NoError(t, err)

	key, err := keymat.Generate(1024)
	require.NoError(t, err)
	privPEM, err := keymat.EncodePrivatePEM(key, []byte("vet-pass"))
	require.NoError(t, err)
	pubPEM, err := keymat.EncodePublicPEM(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, fs.Write("vet/key.pem", privPEM, true))
	require.NoError(t, fs.Write("vet/pub.pem", pubPEM, false))

	clinicKey, err := keymat.Generate(1024)
	require.NoError(t, err)
	clinicPriv, err := keymat.EncodePrivatePEM(clinicKey, []byte("clinic-pass"))
	require.NoError(t, err)
	clinicPub, err := keymat.EncodePublicPEM(&clinicKey.PublicKey)
	require.NoError(t, err)
	require.NoError(t, fs.Write("clinic/key.pem", clinicPriv, true))
	require.NoError(t, fs.Write("clinic/pub.pem", clinicPub, false))

	now := time.Now().UTC()
	ownerID, err := sqlite.NewOwnerRepository(db).Create(ctx, &model.Owner{Name: "Alice Veld", CreatedAt: now})
	require.NoError(t, err)
	petID, err := sqlite.NewPetRepository(db).Create(ctx, &model.Pet{
		OwnerID: ownerID, Name: "Mora", Species: "DOG", Breed: "Border Collie", CreatedAt: now,
	})
	require.NoError(t, err)
	clinicID, err := sqlite.NewClinicRepository(db).Create(ctx, &model.Clinic{
		Name: "North Clinic", Country: "NL",
		PublicKeyRef: "clinic/pub.pem", PrivateKeyRef: "clinic/key.pem", CreatedAt: now,
	})
	require.NoError(t, err)
	vetID, err := sqlite.NewVeterinarianRepository(db).Create(ctx, &model.Veterinarian{
		ClinicID: clinicID, Name: "Dr. Bram Koster", License: "NL-83521",
		PublicKeyRef: "vet/pub.pem", PrivateKeyRef: "vet/key.pem", CreatedAt: now,
	})
	require.NoError(t, err)
	recordID, err := sqlite.NewMedicalRecordRepository(db).Create(ctx, &model.MedicalRecord{
		PetID: petID, VetID: vetID,
		Type: model.RecordTypeVaccine,
		Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Vaccine: &model.VaccineInfo{
			Name: "Rabivax", Batch: "RB-2231", Manufacturer: "Intervet", ValidityYears: 3,
		},
		CreatedAt: now,
	})
	require.NoError(t, err)

	svc := certify.NewService(db, fs, nil)
	return &testEnv{
		handler:  newHandler(svc, signing.NewVerifier(nil), nil),
		vetID:    vetID,
		recordID: recordID,
		vetPub:   string(pubPEM),
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) signAndIssue(t *testing.T, number string) map[string]any {
	t.Helper()
	w := e.do(t, http.MethodPost, fmt.Sprintf("/api/records/%d/sign", e.recordID),
		fmt.Sprintf(`{"vetId":%d,"password":"vet-pass"}`, e.vetID))
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, fmt.Sprintf("/api/records/%d/certificate", e.recordID),
		fmt.Sprintf(`{"vetId":%d,"certificateNumber":%q,"vetKeyPassword":"vet-pass","clinicKeyPassword":"clinic-pass"}`, e.vetID, number))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var cert map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cert))
	return cert
}

func TestHandler_SignIssueAndFetch(t *testing.T) {
	e := newTestEnv(t)
	cert := e.signAndIssue(t, "NL-2025-0001")

	assert.Equal(t, "NL-2025-0001", cert["certificateNumber"])
	assert.NotEmpty(t, cert["uid"])
	assert.NotEmpty(t, cert["vetSignature"])
	assert.NotEmpty(t, cert["clinicSignature"])

	id := int64(cert["id"].(float64))
	w := e.do(t, http.MethodGet, fmt.Sprintf("/api/certificates/%d", id), "")
	require.Equal(t, http.StatusOK, w.Code)

	var fetched map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, cert["uid"], fetched["uid"])
	payload, ok := fetched["payload"].(map[string]any)
	require.True(t, ok, "payload must be embedded JSON, not a string")
	assert.Equal(t, "PET_VACCINATION", payload["certType"])
}

func TestHandler_CertificateQR(t *testing.T) {
	e := newTestEnv(t)
	cert := e.signAndIssue(t, "NL-2025-0002")
	id := int64(cert["id"].(float64))

	w := e.do(t, http.MethodGet, fmt.Sprintf("/api/certificates/%d/qr", id), "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, strings.HasPrefix(resp["qr"], qr.Prefix))

	decoded, err := qr.Decode(resp["qr"])
	require.NoError(t, err)
	assert.Equal(t, cert["uid"], decoded.UID)
	assert.Equal(t, e.vetID, decoded.VetID)
}

func TestHandler_StatusMapping(t *testing.T) {
	e := newTestEnv(t)

	// issuing against an unsigned record
	w := e.do(t, http.MethodPost, fmt.Sprintf("/api/records/%d/certificate", e.recordID),
		fmt.Sprintf(`{"vetId":%d,"certificateNumber":"NL-2025-0003","vetKeyPassword":"vet-pass","clinicKeyPassword":"clinic-pass"}`, e.vetID))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	e.signAndIssue(t, "NL-2025-0003")

	// second certificate for the same record
	w = e.do(t, http.MethodPost, fmt.Sprintf("/api/records/%d/certificate", e.recordID),
		fmt.Sprintf(`{"vetId":%d,"certificateNumber":"NL-2025-0004","vetKeyPassword":"vet-pass","clinicKeyPassword":"clinic-pass"}`, e.vetID))
	assert.Equal(t, http.StatusConflict, w.Code)

	// signing someone else's record
	w = e.do(t, http.MethodPost, fmt.Sprintf("/api/records/%d/sign", e.recordID),
		fmt.Sprintf(`{"vetId":%d,"password":"vet-pass"}`, e.vetID+100))
	assert.Equal(t, http.StatusNotFound, w.Code, "unknown vet id")

	// unknown certificate
	w = e.do(t, http.MethodGet, "/api/certificates/9999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// malformed id
	w = e.do(t, http.MethodGet, "/api/certificates/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// malformed body
	w = e.do(t, http.MethodPost, fmt.Sprintf("/api/records/%d/sign", e.recordID), "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_WrongPasswordIsBadRequest(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, fmt.Sprintf("/api/records/%d/sign", e.recordID),
		fmt.Sprintf(`{"vetId":%d,"password":"nope"}`, e.vetID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_VerifyEndpoint(t *testing.T) {
	e := newTestEnv(t)
	cert := e.signAndIssue(t, "NL-2025-0005")

	// fetch the raw stored payload so the verified bytes are exact
	id := int64(cert["id"].(float64))
	w := e.do(t, http.MethodGet, fmt.Sprintf("/api/certificates/%d", id), "")
	require.Equal(t, http.StatusOK, w.Code)

	var raw struct {
		Payload      json.RawMessage `json:"payload"`
		VetSignature string          `json:"vetSignature"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))

	body, err := json.Marshal(map[string]string{
		"publicKey": e.vetPub,
		"data":      string(raw.Payload),
		"signature": raw.VetSignature,
	})
	require.NoError(t, err)

	w = e.do(t, http.MethodPost, "/api/verify", string(body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true}`, w.Body.String())

	// tampered data must fail
	tampered, err := json.Marshal(map[string]string{
		"publicKey": e.vetPub,
		"data":      string(raw.Payload) + " ",
		"signature": raw.VetSignature,
	})
	require.NoError(t, err)
	w = e.do(t, http.MethodPost, "/api/verify", string(tampered))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":false}`, w.Body.String())
}
