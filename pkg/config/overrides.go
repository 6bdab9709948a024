package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const envPrefix = "PUSTOK_"

// applyOverrides layers an optional YAML config file and PUSTOK_* environment
// variables on top of the per-environment defaults. Environment variables win
// over the file, e.g. PUSTOK_SERVER_PORT overrides server.port.
func applyOverrides(cfg *Config) error {
	k := koanf.New(".")

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return errors.WithStack(err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return errors.WithStack(err)
	}

	if k.Exists("database.path") {
		cfg.DatabaseFilePath = k.String("database.path")
	}
	if k.Exists("database.debug") {
		cfg.DatabaseDebug = k.Bool("database.debug")
	}
	if k.Exists("database.busy.timeout") {
		cfg.DatabaseBusyTimeout = time.Duration(k.Int("database.busy.timeout")) * time.Millisecond
	}
	if k.Exists("server.host") {
		cfg.ServerHost = k.String("server.host")
	}
	if k.Exists("server.port") {
		cfg.ServerPort = k.Int("server.port")
	}
	if k.Exists("uploads.dir") {
		cfg.UploadsDir = k.String("uploads.dir")
	}
	if k.Exists("jwt.secret") {
		cfg.JWTSecret = k.String("jwt.secret")
	}

	return nil
}
