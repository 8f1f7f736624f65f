// Copyright (C) 2025 hashrand-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package config loads HashRand's runtime configuration from the
// environment, following a .env file (via godotenv) if present. Nothing
// here is ever persisted back to disk: Config is load-once, read-only.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is HashRand's full runtime configuration, assembled once at
// startup from the process environment (spec.md §6 enumerates every key).
type Config struct {
	Environment string

	MasterKey [32]byte

	RefreshTTL time.Duration
	AccessTTL  time.Duration
	MagicTTL   time.Duration

	EmailDryRun bool

	ListenAddr string
	UIHost     string

	Storage StorageConfig
	SMTP    SMTPConfig
	Logging LoggingConfig
	Metrics MetricsConfig
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver string // "memory" or "postgres"
	DSN    string
}

// SMTPConfig configures the outbound magic-link email adapter.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// LoggingConfig mirrors the teacher's logging knobs, adapted to zap's level/format vocabulary.
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool
	Addr    string
	Path    string
}

const (
	envMasterKey    = "SERVER_MASTER_KEY"
	envRefreshTTL   = "REFRESH_TTL_SECONDS"
	envAccessTTL    = "ACCESS_TTL_SECONDS"
	envMagicTTL     = "MAGIC_TTL_SECONDS"
	envEmailDryRun  = "EMAIL_DRY_RUN"
	envListenAddr   = "LISTEN_ADDR"
	envUIHost       = "UI_HOST"
	envStorageDrv   = "STORAGE_DRIVER"
	envStorageDSN   = "STORAGE_DSN"
	envSMTPHost     = "SMTP_HOST"
	envSMTPPort     = "SMTP_PORT"
	envSMTPUser     = "SMTP_USERNAME"
	envSMTPPassword = "SMTP_PASSWORD"
	envSMTPFrom     = "SMTP_FROM"
	envLogLevel     = "LOG_LEVEL"
	envLogFormat    = "LOG_FORMAT"
	envMetricsOn    = "METRICS_ENABLED"
	envMetricsAddr  = "METRICS_ADDR"
	envMetricsPath  = "METRICS_PATH"
	envEnvironment  = "HASHRAND_ENV"
)

// Load reads .env (if present, ignoring a missing file) then builds a
// Config from the process environment, applying spec.md §6's defaults and
// failing on a missing or malformed SERVER_MASTER_KEY.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv(envEnvironment, "development"),
		ListenAddr:  getEnv(envListenAddr, ":8080"),
		UIHost:      getEnv(envUIHost, "http://localhost:5173"),
		EmailDryRun: getEnvBool(envEmailDryRun, false),
		Storage: StorageConfig{
			Driver: getEnv(envStorageDrv, "memory"),
			DSN:    getEnv(envStorageDSN, ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv(envSMTPHost, "localhost"),
			Port:     getEnvInt(envSMTPPort, 1025),
			Username: getEnv(envSMTPUser, ""),
			Password: getEnv(envSMTPPassword, ""),
			From:     getEnv(envSMTPFrom, "no-reply@hashrand.local"),
		},
		Logging: LoggingConfig{
			Level:  getEnv(envLogLevel, "info"),
			Format: getEnv(envLogFormat, "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool(envMetricsOn, true),
			Addr:    getEnv(envMetricsAddr, ":9090"),
			Path:    getEnv(envMetricsPath, "/metrics"),
		},
	}

	refreshSecs, err := getEnvPositiveInt(envRefreshTTL, 3*86400)
	if err != nil {
		return nil, err
	}
	accessSecs, err := getEnvPositiveInt(envAccessTTL, 900)
	if err != nil {
		return nil, err
	}
	magicSecs, err := getEnvPositiveInt(envMagicTTL, 900)
	if err != nil {
		return nil, err
	}
	cfg.RefreshTTL = time.Duration(refreshSecs) * time.Second
	cfg.AccessTTL = time.Duration(accessSecs) * time.Second
	cfg.MagicTTL = time.Duration(magicSecs) * time.Second

	key, err := parseMasterKey(os.Getenv(envMasterKey))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", envMasterKey, err)
	}
	cfg.MasterKey = key

	return cfg, nil
}

// parseMasterKey accepts 32 raw bytes encoded as hex or standard base64.
func parseMasterKey(raw string) ([32]byte, error) {
	var key [32]byte
	if raw == "" {
		return key, fmt.Errorf("required")
	}

	if b, err := hex.DecodeString(raw); err == nil && len(b) == 32 {
		copy(key[:], b)
		return key, nil
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil && len(b) == 32 {
		copy(key[:], b)
		return key, nil
	}
	if b, err := base64.RawURLEncoding.DecodeString(raw); err == nil && len(b) == 32 {
		copy(key[:], b)
		return key, nil
	}
	return key, fmt.Errorf("must decode to exactly 32 bytes as hex or base64")
}

func getEnv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func getEnvBool(name string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	if v == "" {
		return def
	}
	return v == "true" || v == "1" || v == "yes"
}

func getEnvInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvPositiveInt(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: must be a positive integer, got %q", name, v)
	}
	return n, nil
}

// IsProduction reports whether Environment is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
