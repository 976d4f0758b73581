/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vetledger/vetcert/internal/config"
	"github.com/vetledger/vetcert/internal/infra/keystore"
	"github.com/vetledger/vetcert/internal/keymat"
	"github.com/vetledger/vetcert/internal/qr"
	"github.com/vetledger/vetcert/internal/server"
)

func main() {
	root := &cobra.Command{
		Use:   "vetcertd",
		Short: "Veterinary certificate server and key tooling",
	}
	root.AddCommand(serveCmd(), keygenCmd(), inspectCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var (
		addr    = envOr("VETCERT_ADDR", ":8080")
		dbPath  = envOr("VETCERT_DB", "vetcert.db")
		keysDir = envOr("VETCERT_KEYS", "keys")
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the certificate HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New(os.Stderr, "", log.LstdFlags)
			srv, err := server.New(config.ServerConfig{
				Addr:    addr,
				DBPath:  dbPath,
				KeysDir: keysDir,
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				logger.Printf("received %v, shutting down", sig)
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", addr, "listen address (env VETCERT_ADDR)")
	cmd.Flags().StringVar(&dbPath, "db", dbPath, "sqlite database path (env VETCERT_DB)")
	cmd.Flags().StringVar(&keysDir, "keys", keysDir, "keystore directory (env VETCERT_KEYS)")
	return cmd
}

func keygenCmd() *cobra.Command {
	var (
		keysDir  = envOr("VETCERT_KEYS", "keys")
		ref      string
		bits     int
		password string
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an RSA key pair into the keystore",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ref == "" {
				return fmt.Errorf("--ref is required (e.g. vets/1)")
			}
			if password == "" {
				return fmt.Errorf("--password is required; the private key is stored encrypted")
			}

			fs, err := keystore.NewFS(keysDir)
			if err != nil {
				return err
			}

			key, err := keymat.Generate(bits)
			if err != nil {
				return err
			}
			privPEM, err := keymat.EncodePrivatePEM(key, []byte(password))
			if err != nil {
				return err
			}
			pubPEM, err := keymat.EncodePublicPEM(&key.PublicKey)
			if err != nil {
				return err
			}

			privRef := path.Join(ref, "key.pem")
			pubRef := path.Join(ref, "pub.pem")
			if err := fs.Write(privRef, privPEM, true); err != nil {
				return err
			}
			if err := fs.Write(pubRef, pubPEM, false); err != nil {
				return err
			}

			fmt.Printf("private: %s\npublic:  %s\n", privRef, pubRef)
			return nil
		},
	}
	cmd.Flags().StringVar(&keysDir, "keys", keysDir, "keystore directory (env VETCERT_KEYS)")
	cmd.Flags().StringVar(&ref, "ref", "", "key reference prefix inside the keystore")
	cmd.Flags().IntVar(&bits, "bits", 2048, "RSA key size")
	cmd.Flags().StringVar(&password, "password", "", "password protecting the private key")
	return cmd
}

func inspectCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "inspect [qr-text]",
		Short: "Decode and pretty-print a certificate QR text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			switch {
			case len(args) == 1:
				text = args[0]
			case file != "":
				raw, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				text = strings.TrimSpace(string(raw))
			default:
				return fmt.Errorf("pass the QR text as an argument or via --file")
			}

			out, err := qr.Inspect(text)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read the QR text from a file")
	return cmd
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
