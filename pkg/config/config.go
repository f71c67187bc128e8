/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config loads the suite configuration from a TOML or YAML file.
package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hyperledger/aries-framework-go/component/log"
	"gopkg.in/yaml.v3"
)

const (
	defaultHost     = "0.0.0.0"
	defaultPort     = 3000
	defaultLogLevel = "info"
	defaultTimeout  = 30 * time.Second

	suiteSeedPhrase   = "aries-protocol-test-suite"
	subjectSeedPhrase = "aries-protocol-test-subject"
)

var logger = log.New("aries-protocol-test/config")

// Subject describes the agent under test.
type Subject struct {
	Name        string
	Version     string
	Endpoint    string
	VerKey      string
	Seed        string
	RoutingKeys []string
}

// Config is the suite configuration.
type Config struct {
	Host     string
	Port     int
	Endpoint string
	LogLevel string
	Timeout  time.Duration
	// Tests selects cases by flat name, every case when empty.
	Tests    []string
	Features []string
	SavePath string
	// Seed derives the suite identity.
	Seed    string
	Subject Subject
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Host:     defaultHost,
		Port:     defaultPort,
		Endpoint: fmt.Sprintf("http://localhost:%d", defaultPort),
		LogLevel: defaultLogLevel,
		Timeout:  defaultTimeout,
		Seed:     seedFrom(suiteSeedPhrase),
		Subject: Subject{
			Endpoint: "http://localhost:3001",
			Seed:     seedFrom(subjectSeedPhrase),
		},
	}
}

func seedFrom(phrase string) string {
	sum := sha256.Sum256([]byte(phrase))

	return hex.EncodeToString(sum[:])
}

// Addr is the address the suite listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// fileConfig is the file form of Config. Unset keys keep their default.
type fileConfig struct {
	Host     *string      `toml:"host" yaml:"host"`
	Port     *int         `toml:"port" yaml:"port"`
	Endpoint *string      `toml:"endpoint" yaml:"endpoint"`
	LogLevel *string      `toml:"log_level" yaml:"log_level"`
	Timeout  *string      `toml:"timeout" yaml:"timeout"`
	Tests    []string     `toml:"tests" yaml:"tests"`
	Features []string     `toml:"features" yaml:"features"`
	SavePath *string      `toml:"save_path" yaml:"save_path"`
	Seed     *string      `toml:"seed" yaml:"seed"`
	Subject  *fileSubject `toml:"subject" yaml:"subject"`
}

type fileSubject struct {
	Name        *string  `toml:"name" yaml:"name"`
	Version     *string  `toml:"version" yaml:"version"`
	Endpoint    *string  `toml:"endpoint" yaml:"endpoint"`
	VerKey      *string  `toml:"verkey" yaml:"verkey"`
	Seed        *string  `toml:"seed" yaml:"seed"`
	RoutingKeys []string `toml:"routing_keys" yaml:"routing_keys"`
}

// Load overlays the file at path onto Default. A missing file yields the defaults. Files ending in
// .yaml or .yml are read as YAML, anything else as TOML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		logger.Infof("no configuration at %s, using defaults", path)

		return Default(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var raw fileConfig

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &raw)
	default:
		err = decodeTOML(data, &raw)
	}

	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	cfg := Default()

	if err = raw.overlay(cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	return cfg, nil
}

func decodeTOML(data []byte, raw *fileConfig) error {
	meta, err := toml.Decode(string(data), raw)
	if err != nil {
		return err
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}

		return fmt.Errorf("unknown keys %s", strings.Join(keys, ", "))
	}

	return nil
}

func decodeYAML(data []byte, raw *fileConfig) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	err := decoder.Decode(raw)
	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}

func (f *fileConfig) overlay(cfg *Config) error {
	setString(&cfg.Host, f.Host)
	setString(&cfg.Endpoint, f.Endpoint)
	setString(&cfg.LogLevel, f.LogLevel)
	setString(&cfg.SavePath, f.SavePath)
	setString(&cfg.Seed, f.Seed)

	if f.Port != nil {
		cfg.Port = *f.Port
	}

	if f.Timeout != nil {
		timeout, err := time.ParseDuration(strings.TrimSpace(*f.Timeout))
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}

		cfg.Timeout = timeout
	}

	if f.Tests != nil {
		cfg.Tests = f.Tests
	}

	if f.Features != nil {
		cfg.Features = f.Features
	}

	if s := f.Subject; s != nil {
		setString(&cfg.Subject.Name, s.Name)
		setString(&cfg.Subject.Version, s.Version)
		setString(&cfg.Subject.Endpoint, s.Endpoint)
		setString(&cfg.Subject.VerKey, s.VerKey)
		setString(&cfg.Subject.Seed, s.Seed)

		if s.RoutingKeys != nil {
			cfg.Subject.RoutingKeys = s.RoutingKeys
		}
	}

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}

	if err := checkEndpoint(c.Endpoint); err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}

	if err := checkEndpoint(c.Subject.Endpoint); err != nil {
		return fmt.Errorf("subject endpoint: %w", err)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout %s must be positive", c.Timeout)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	if c.Subject.VerKey == "" && c.Subject.Seed == "" {
		return errors.New("subject needs a verkey or a seed")
	}

	for _, expr := range c.Tests {
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("tests: %w", err)
		}
	}

	return nil
}

func checkEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}

	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("unsupported scheme in %q", endpoint)
	}

	if u.Host == "" {
		return fmt.Errorf("no host in %q", endpoint)
	}

	return nil
}
