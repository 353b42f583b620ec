// Package config loads mathtex.yaml and applies MATHTEX_* environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Neumenon/mathtex/mathtex"
	"github.com/Neumenon/mathtex/symtab"
)

// FileName is the config file looked up in the working directory.
const FileName = "mathtex.yaml"

// Environment variables that override the file.
const (
	EnvTableDir = "MATHTEX_TABLE_DIR"
	EnvAddr     = "MATHTEX_ADDR"
	EnvPort     = "MATHTEX_PORT"
	EnvEnvs     = "MATHTEX_ENVS"
	EnvJudgeURL = "MATHTEX_JUDGE_URL"
)

const defaultConfigYAML = `# mathtex configuration
version: 1

# Directory holding commands.csv and styled.csv. Empty uses the built-in tables.
table_dir: ""

# LaTeX packages assumed available when emitting.
envs: [amsmath, amssymb, mathbb]

# Directory for mathtex.log. Empty logs to stderr.
log_dir: ""

server:
  addr: 127.0.0.1
  port: 8080
  read_timeout: 10s
  write_timeout: 30s
  max_body_bytes: 1048576
  max_batch: 256
  workers: 8

judge:
  # Normalizer endpoint. Empty disables judging.
  endpoint: ""
  timeout: 10s

harness:
  workers: 8
`

// Config models mathtex.yaml.
type Config struct {
	Version  int           `yaml:"version"`
	TableDir string        `yaml:"table_dir"`
	Envs     []string      `yaml:"envs"`
	LogDir   string        `yaml:"log_dir"`
	Server   ServerConfig  `yaml:"server"`
	Judge    JudgeConfig   `yaml:"judge"`
	Harness  HarnessConfig `yaml:"harness"`

	// Path is where the config was read from, empty for defaults.
	Path string `yaml:"-"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	MaxBatch     int           `yaml:"max_batch"`
	Workers      int           `yaml:"workers"`
}

// JudgeConfig points at the LaTeX normalizer.
type JudgeConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// HarnessConfig configures corpus runs.
type HarnessConfig struct {
	Workers int `yaml:"workers"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var c Config
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), &c); err != nil {
		panic("config: built-in defaults: " + err.Error())
	}
	return &c
}

// Load reads path, falling back to defaults when it does not exist, then
// applies environment overrides. An empty path means FileName in the
// working directory.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FileName
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.Path = path
		cfg.TableDir = resolvePath(filepath.Dir(path), cfg.TableDir)
		cfg.LogDir = resolvePath(filepath.Dir(path), cfg.LogDir)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// WriteDefault writes the commented default file to path unless one exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvTableDir)); v != "" {
		c.TableDir = v
	}
	if v := strings.TrimSpace(getenv(EnvAddr)); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(getenv, EnvEnvs); ok {
		c.Envs = mathtex.ParseEnv(v).Names()
	}
	if v := strings.TrimSpace(getenv(EnvJudgeURL)); v != "" {
		c.Judge.Endpoint = v
	}
	return nil
}

// lookup treats a variable set to the empty string as unset except for
// MATHTEX_ENVS, where "none" clears the list.
func lookup(getenv func(string) string, key string) (string, bool) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return "", false
	}
	if strings.EqualFold(v, "none") {
		return "", true
	}
	return v, true
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}
	if c.Server.MaxBatch <= 0 {
		c.Server.MaxBatch = 256
	}
	if c.Server.Workers <= 0 {
		c.Server.Workers = 8
	}
	if c.Judge.Timeout <= 0 {
		c.Judge.Timeout = 10 * time.Second
	}
	if c.Harness.Workers <= 0 {
		c.Harness.Workers = 8
	}
}

func (c *Config) validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported version %d", c.Version)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	if c.Judge.Endpoint != "" && !strings.HasPrefix(c.Judge.Endpoint, "http://") && !strings.HasPrefix(c.Judge.Endpoint, "https://") {
		return fmt.Errorf("judge.endpoint must be an http(s) URL")
	}
	return nil
}

// Env returns the configured flag set.
func (c *Config) Env() mathtex.Env {
	return mathtex.NewEnv(c.Envs...)
}

// ListenAddr returns host:port for the server.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Addr, strconv.Itoa(c.Server.Port))
}

// Table loads the configured symbol table, or the built-in one.
func (c *Config) Table() (*symtab.Table, error) {
	if c.TableDir == "" {
		return symtab.Default(), nil
	}
	t, err := symtab.LoadDir(c.TableDir)
	if err != nil {
		return nil, fmt.Errorf("config: tables: %w", err)
	}
	return t, nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}
