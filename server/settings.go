package server

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Neumenon/mathtex/config"
	"github.com/Neumenon/mathtex/mathtex"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 8080
	// DefaultMaxBodyBytes limits request payloads to 1 MB.
	DefaultMaxBodyBytes int64 = 1 << 20
	DefaultReadTimeout        = 10 * time.Second
	DefaultWriteTimeout       = 30 * time.Second
	DefaultIdleTimeout        = 60 * time.Second
	DefaultMaxBatch           = 256
	DefaultWorkers            = 8
)

// Settings captures runtime configuration for the conversion service.
type Settings struct {
	Enabled      bool
	Host         string
	Port         int
	MaxBodyBytes int64
	MaxBatch     int
	Workers      int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Env applies to requests that do not name their own flags.
	Env mathtex.Env
}

// SettingsFromConfig builds Settings from a loaded config. The config has
// already applied its MATHTEX_* overrides.
func SettingsFromConfig(cfg *config.Config) Settings {
	settings := Settings{
		Enabled:      true,
		Host:         DefaultHost,
		Port:         DefaultPort,
		MaxBodyBytes: DefaultMaxBodyBytes,
		MaxBatch:     DefaultMaxBatch,
		Workers:      DefaultWorkers,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
		Env:          mathtex.DefaultEnv(),
	}
	if cfg != nil {
		srv := cfg.Server
		if host := strings.TrimSpace(srv.Addr); host != "" {
			settings.Host = host
		}
		if srv.Port >= 0 && srv.Port <= 65535 {
			settings.Port = srv.Port
		}
		settings.MaxBodyBytes = srv.MaxBodyBytes
		settings.MaxBatch = srv.MaxBatch
		settings.Workers = srv.Workers
		settings.ReadTimeout = srv.ReadTimeout
		settings.WriteTimeout = srv.WriteTimeout
		settings.Env = cfg.Env()
	}
	settings.normalize()
	return settings
}

func (s *Settings) normalize() {
	s.Host = strings.TrimSpace(s.Host)
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.MaxBatch <= 0 {
		s.MaxBatch = DefaultMaxBatch
	}
	if s.Workers <= 0 {
		s.Workers = DefaultWorkers
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.Env == nil {
		s.Env = mathtex.DefaultEnv()
	}
}

// Address returns the TCP bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the HTTP base URL for the server.
func (s Settings) URL() string {
	return "http://" + s.Address()
}
