package config

import "log"

// ServerConfig captures the tunables required to start the certificate server.
type ServerConfig struct {
	Addr    string
	DBPath  string
	KeysDir string
	Logger  *log.Logger
}
