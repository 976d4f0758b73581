/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/vetledger/vetcert/internal/certify"
	"github.com/vetledger/vetcert/internal/domain"
	"github.com/vetledger/vetcert/internal/domain/model"
	"github.com/vetledger/vetcert/internal/keymat"
	"github.com/vetledger/vetcert/internal/qr"
	"github.com/vetledger/vetcert/internal/signing"
)

const (
	maxRequestBodyBytes = 1 << 20
)

type handler struct {
	svc      *certify.Service
	verifier *signing.Verifier
	logger   *log.Logger
	mux      *http.ServeMux
}

type responseSpec struct {
	status      int
	body        []byte
	contentType string
}

func newHandler(svc *certify.Service, verifier *signing.Verifier, logger *log.Logger) *handler {
	if logger == nil {
		logger = log.Default()
	}
	h := &handler{
		svc:      svc,
		verifier: verifier,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	h.mux.HandleFunc("POST /api/records/{id}/sign", h.signRecord)
	h.mux.HandleFunc("POST /api/records/{id}/certificate", h.issueCertificate)
	h.mux.HandleFunc("GET /api/certificates/{id}", h.getCertificate)
	h.mux.HandleFunc("GET /api/certificates/{id}/qr", h.getCertificateQR)
	h.mux.HandleFunc("POST /api/verify", h.verifySignature)
	return h
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type signRecordRequest struct {
	VetID    int64  `json:"vetId"`
	Password string `json:"password"`
}

func (h *handler) signRecord(w http.ResponseWriter, r *http.Request) {
	recordID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req signRecordRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	if err := h.svc.SignRecord(r.Context(), req.VetID, recordID, []byte(req.Password)); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResponse(w, responseSpec{status: http.StatusNoContent})
}

type issueRequest struct {
	VetID             int64  `json:"vetId"`
	CertificateNumber string `json:"certificateNumber"`
	VetKeyPassword    string `json:"vetKeyPassword"`
	ClinicKeyPassword string `json:"clinicKeyPassword"`
}

func (h *handler) issueCertificate(w http.ResponseWriter, r *http.Request) {
	recordID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req issueRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	cert, err := h.svc.Issue(r.Context(), certify.IssueRequest{
		VetID:             req.VetID,
		RecordID:          recordID,
		CertificateNumber: req.CertificateNumber,
		VetKeyPassword:    []byte(req.VetKeyPassword),
		ClinicKeyPassword: []byte(req.ClinicKeyPassword),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, certificateView(cert))
}

func (h *handler) getCertificate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	cert, err := h.svc.Certificate(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, certificateView(cert))
}

func (h *handler) getCertificateQR(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	cert, err := h.svc.Certificate(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	text, err := qr.Encode(cert)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"qr": text})
}

type verifyRequest struct {
	PublicKey string `json:"publicKey"`
	Data      string `json:"data"`
	Signature string `json:"signature"`
}

func (h *handler) verifySignature(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !h.readJSON(w, r, &req) {
		return
	}
	valid := h.verifier.VerifyEncoded(req.PublicKey, req.Data, req.Signature)
	h.writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

type certificateJSON struct {
	ID                int64           `json:"id"`
	UID               string          `json:"uid"`
	CertificateNumber string          `json:"certificateNumber"`
	MedicalRecordID   int64           `json:"medicalRecordId"`
	VetID             int64           `json:"vetId"`
	ClinicID          int64           `json:"clinicId"`
	Payload           json.RawMessage `json:"payload"`
	VetSignature      string          `json:"vetSignature"`
	ClinicSignature   string          `json:"clinicSignature"`
	IssuedAt          time.Time       `json:"issuedAt"`
}

func certificateView(cert *model.Certificate) certificateJSON {
	return certificateJSON{
		ID:                cert.ID,
		UID:               cert.UID,
		CertificateNumber: cert.Number,
		MedicalRecordID:   cert.MedicalRecordID,
		VetID:             cert.VetID,
		ClinicID:          cert.ClinicID,
		Payload:           json.RawMessage(cert.Payload),
		VetSignature:      cert.VetSignature,
		ClinicSignature:   cert.ClinicSignature,
		IssuedAt:          cert.IssuedAt,
	}
}

func (h *handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *handler) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		h.logger.Printf("failed reading request body: %v", err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return false
	}
	if err := r.Body.Close(); err != nil {
		h.logger.Printf("failed closing request body: %v", err)
		http.Error(w, "failed to close request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		h.logger.Printf("failed to parse request body: %v", err)
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps workflow errors onto HTTP statuses: duplicates conflict,
// prerequisite and key-material problems are the caller's fault, ownership
// is forbidden, unknown entities are not found.
func (h *handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, certify.ErrDuplicateCertificateForRecord),
		errors.Is(err, certify.ErrDuplicateCertificateNumber),
		errors.Is(err, domain.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, certify.ErrNotRecordOwner):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, certify.ErrRecordNotSigned),
		errors.Is(err, certify.ErrUnsupportedRecordType),
		errors.Is(err, keymat.ErrPasswordRequired),
		errors.Is(err, keymat.ErrDecryptionFailed),
		errors.Is(err, keymat.ErrKeyFormat),
		errors.Is(err, keymat.ErrUnsupportedKeyFormat):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Printf("request failed: %v", err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		h.logger.Printf("failed to encode response: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.writeResponse(w, responseSpec{
		status:      status,
		body:        body,
		contentType: "application/json",
	})
}

func (h *handler) writeResponse(w http.ResponseWriter, spec responseSpec) {
	if len(spec.body) > 0 {
		for k, v := range defaultHeaders {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", spec.contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(spec.body)))
		w.WriteHeader(spec.status)
		if _, err := w.Write(spec.body); err != nil {
			h.logger.Printf("failed writing response body: %v", err)
		}
		return
	}

	w.WriteHeader(spec.status)
}

var defaultHeaders = map[string]string{
	"Cache-Control":          "no-store",
	"X-Content-Type-Options": "nosniff",
}
