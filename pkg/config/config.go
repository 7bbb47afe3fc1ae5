// Package config loads connection settings for the visualsort CLI from the
// environment, optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/russellsayshi/visualsort/pkg/transport"
	"github.com/russellsayshi/visualsort/pkg/visualarr"
)

const (
	EnvHost            = "VISUALSORT_HOST"
	EnvPort            = "VISUALSORT_PORT"
	EnvTransport       = "VISUALSORT_TRANSPORT"
	EnvWsEndpoint      = "VISUALSORT_WS_ENDPOINT"
	EnvConnectAttempts = "VISUALSORT_CONNECT_ATTEMPTS"
	EnvStrictHandshake = "VISUALSORT_STRICT_HANDSHAKE"
)

type Config struct {
	Host            string
	Port            int
	Transport       string
	WsEndpoint      string
	ConnectAttempts int
	StrictHandshake bool
}

func Default() Config {
	return Config{
		Host:            visualarr.DefaultHost,
		Port:            visualarr.DefaultPort,
		Transport:       transport.Transport_Tcp,
		WsEndpoint:      "/ws",
		ConnectAttempts: 1,
	}
}

// Load reads the given .env files (".env" when none are named), then the
// process environment. A missing .env file is not an error. Variables already
// set in the environment win over .env entries.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	return FromEnv(os.LookupEnv)
}

func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvHost); ok && v != "" {
		cfg.Host = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.ParseUint(v, 0, 16)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s=%q: %w", EnvPort, v, err)
		}
		cfg.Port = int(port)
	}
	if v, ok := lookup(EnvTransport); ok && v != "" {
		cfg.Transport = v
	}
	if v, ok := lookup(EnvWsEndpoint); ok && v != "" {
		cfg.WsEndpoint = v
	}
	if v, ok := lookup(EnvConnectAttempts); ok && v != "" {
		attempts, err := strconv.Atoi(v)
		if err != nil || attempts < 1 {
			return Config{}, fmt.Errorf("invalid %s=%q: must be a positive integer", EnvConnectAttempts, v)
		}
		cfg.ConnectAttempts = attempts
	}
	if v, ok := lookup(EnvStrictHandshake); ok && v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s=%q: %w", EnvStrictHandshake, v, err)
		}
		cfg.StrictHandshake = strict
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Transport {
	case transport.Transport_Tcp, transport.Transport_Websocket:
	default:
		return fmt.Errorf("invalid transport %q (want %s or %s)", c.Transport, transport.Transport_Tcp, transport.Transport_Websocket)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ConnectAttempts < 1 {
		return fmt.Errorf("invalid connect attempts %d", c.ConnectAttempts)
	}
	return nil
}

// VisualArrayParams maps the config onto proxy parameters.
func (c Config) VisualArrayParams() visualarr.VisualArrayParams {
	return visualarr.VisualArrayParams{
		Host:              c.Host,
		Port:              c.Port,
		Transport:         c.Transport,
		WebsocketEndpoint: c.WsEndpoint,
		StrictHandshake:   c.StrictHandshake,
	}
}
