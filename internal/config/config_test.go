package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"KANOSYM_DATA_DIR", "KANOSYM_PORT", "KANOSYM_LOG_LEVEL",
		"KANOSYM_S3_BACKUP_ENABLED", "KANOSYM_S3_REGION",
		"KANOSYM_S3_ACCESS_KEY_ID", "KANOSYM_S3_SECRET_ACCESS_KEY", "KANOSYM_S3_BUCKET",
	}
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.S3BackupEnabled)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	clearEnv(t)
	os.Setenv("KANOSYM_PORT", "9090")
	os.Setenv("KANOSYM_LOG_LEVEL", "debug")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_DataDirOverrideWinsOverEnv(t *testing.T) {
	clearEnv(t)
	os.Setenv("KANOSYM_DATA_DIR", "/env/path")
	cfg, err := Load("/flag/path")
	require.NoError(t, err)
	assert.Equal(t, "/flag/path", cfg.DataDir)
}

func TestLoad_InvalidPortFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	os.Setenv("KANOSYM_PORT", "not-a-number")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}

func TestValidate_RejectsOutOfRangePort(t *testing.T) {
	cfg := Config{DataDir: "./data", Port: 70000, LogLevel: "info"}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestValidate_RequiresS3FieldsWhenBackupEnabled(t *testing.T) {
	cfg := Config{DataDir: "./data", Port: 8080, LogLevel: "info", S3BackupEnabled: true}
	err := Validate(cfg)
	require.Error(t, err)
	verrs, ok := err.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, verrs, 4)
}

func TestValidate_AcceptsCompleteS3Config(t *testing.T) {
	cfg := Config{
		DataDir: "./data", Port: 8080, LogLevel: "info",
		S3BackupEnabled: true, S3Region: "us-east-1", S3AccessKeyID: "id", S3SecretKey: "secret", S3Bucket: "bucket",
	}
	assert.NoError(t, Validate(cfg))
}
