package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "localhost", cfg.SMTP.Domain)
	assert.Equal(t, int64(64*1024), cfg.SMTP.MaxMessageSize)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "localhost:587", cfg.SMTPAddress())
	assert.Equal(t, "http://localhost:8080", cfg.URL())
	assert.Empty(t, cfg.SeedDir)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "smtp:\n" +
		"  port: 2525\n" +
		"  max_message_size: 1048576\n" +
		"http:\n" +
		"  host: 0.0.0.0\n" +
		"  port: 9090\n" +
		"seed_dir: ./mail\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, int64(1048576), cfg.SMTP.MaxMessageSize)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTPAddress())
	assert.Equal(t, "./mail", cfg.SeedDir)

	// Unset keys keep their defaults
	assert.Equal(t, "localhost", cfg.SMTP.Host)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SMTPVIEW_SMTP_PORT", "1025")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1025, cfg.SMTP.Port)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, Validate(cfg))

	bad := cfg
	bad.SMTP.Port = 0
	assert.Error(t, Validate(bad))

	bad = cfg
	bad.HTTP.Port = 70000
	assert.Error(t, Validate(bad))

	bad = cfg
	bad.SMTP.MaxMessageSize = -1
	assert.Error(t, Validate(bad))
}
