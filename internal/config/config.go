// Package config loads this application's environment-driven settings,
// mirroring the teacher's own config.Load(dataDirOverride) call site
// (see cmd/server/main.go): a .env file loaded via
// github.com/joho/godotenv if present, environment variables read on
// top of it, and a CLI-flag override taking highest priority.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting the server and
// scheduler need at startup.
type Config struct {
	DataDir         string // root directory for FileStore + SQLiteIndex files
	Port            int    // HTTP listen port
	LogLevel        string // "debug", "info", "warn", "error"
	S3BackupEnabled bool
	S3Region        string
	S3AccessKeyID   string
	S3SecretKey     string
	S3Bucket        string
}

const (
	defaultDataDir  = "./data"
	defaultPort     = 8080
	defaultLogLevel = "info"
)

// Load reads .env (if present, via godotenv) then the process
// environment, applying defaults for anything unset. dataDirOverride,
// when non-empty, wins over KANOSYM_DATA_DIR — the same CLI-flag-beats-
// environment precedence the teacher's own config.Load uses for its
// data-dir flag.
func Load(dataDirOverride string) (Config, error) {
	_ = godotenv.Load() // optional; a missing .env file is not an error

	cfg := Config{
		DataDir:         envOr("KANOSYM_DATA_DIR", defaultDataDir),
		Port:            envIntOr("KANOSYM_PORT", defaultPort),
		LogLevel:        envOr("KANOSYM_LOG_LEVEL", defaultLogLevel),
		S3BackupEnabled: envBoolOr("KANOSYM_S3_BACKUP_ENABLED", false),
		S3Region:        os.Getenv("KANOSYM_S3_REGION"),
		S3AccessKeyID:   os.Getenv("KANOSYM_S3_ACCESS_KEY_ID"),
		S3SecretKey:     os.Getenv("KANOSYM_S3_SECRET_ACCESS_KEY"),
		S3Bucket:        os.Getenv("KANOSYM_S3_BUCKET"),
	}

	if dataDirOverride != "" {
		cfg.DataDir = dataDirOverride
	}

	return cfg, Validate(cfg)
}

// Validate collects every offending field rather than stopping at the
// first, matching the validator style used throughout this repository
// (internal/validate).
func Validate(cfg Config) error {
	var errs ValidationErrors
	if cfg.DataDir == "" {
		errs = append(errs, ValidationError{Field: "data_dir", Message: "must not be empty"})
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, ValidationError{Field: "port", Message: "must be in 1..65535"})
	}
	if cfg.S3BackupEnabled {
		if cfg.S3Region == "" {
			errs = append(errs, ValidationError{Field: "s3_region", Message: "required when S3 backup is enabled"})
		}
		if cfg.S3AccessKeyID == "" {
			errs = append(errs, ValidationError{Field: "s3_access_key_id", Message: "required when S3 backup is enabled"})
		}
		if cfg.S3SecretKey == "" {
			errs = append(errs, ValidationError{Field: "s3_secret_access_key", Message: "required when S3 backup is enabled"})
		}
		if cfg.S3Bucket == "" {
			errs = append(errs, ValidationError{Field: "s3_bucket", Message: "required when S3 backup is enabled"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolOr(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
