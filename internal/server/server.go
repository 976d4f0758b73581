/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/vetledger/vetcert/internal/certify"
	"github.com/vetledger/vetcert/internal/config"
	"github.com/vetledger/vetcert/internal/infra/keystore"
	"github.com/vetledger/vetcert/internal/infra/sqlite"
	"github.com/vetledger/vetcert/internal/signing"
)

// Server wires the HTTP listener and request handling stack.
type Server struct {
	cfg     config.ServerConfig
	db      *sql.DB
	handler *handler
	http    *http.Server
	logger  *log.Logger
}

// New constructs a Server using the provided configuration.
func New(cfg config.ServerConfig) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	db, err := sqlite.InitDB(context.Background(), cfg.DBPath)
	if err != nil {
		return nil, err
	}

	keys, err := keystore.NewFS(cfg.KeysDir)
	if err != nil {
		sqlite.CloseDB(db)
		return nil, err
	}

	svc := certify.NewService(db, keys, logger)
	h := newHandler(svc, signing.NewVerifier(logger), logger)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		cfg:     cfg,
		db:      db,
		handler: h,
		http:    httpSrv,
		logger:  logger,
	}, nil
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.logger.Printf("Run certificate server on %s.", s.http.Addr)

	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully takes down the HTTP server and closes the database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	sqlite.CloseDB(s.db)
	return err
}
