package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"cert without key", func(c *Config) { c.tlsCert = "cert.pem" }, true},
		{"cert and key", func(c *Config) { c.tlsCert, c.tlsKey = "cert.pem", "key.pem" }, false},
		{"port too low", func(c *Config) { c.port = 0 }, true},
		{"port too high", func(c *Config) { c.port = 65536 }, true},
		{"zero rate", func(c *Config) { c.rateLimit = 0 }, true},
		{"zero burst", func(c *Config) { c.rateBurst = 0 }, true},
		{"client url", func(c *Config) { c.clientURL = "https://party.example/play" }, false},
		{"relative client url", func(c *Config) { c.clientURL = "/play" }, true},
		{"client url bad scheme", func(c *Config) { c.clientURL = "javascript:alert(1)" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			if tt.wantErr {
				assert.Error(t, cfg.validate())
			} else {
				assert.NoError(t, cfg.validate())
			}
		})
	}
}

func TestConfigScheme(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "http", cfg.scheme())

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	assert.Equal(t, "https", cfg.scheme())
}

func TestFlagsFromEnvironment(t *testing.T) {
	t.Setenv("IMPOSTOR_PORT", "9191")
	t.Setenv("IMPOSTOR_RATE_BURST", "3")
	t.Setenv("IMPOSTOR_ALLOWED_ORIGIN", "https://party.example")

	cfg := &Config{}
	cmd := newCmd(cfg)
	require.NoError(t, cmd.ParseFlags([]string{"--rate-burst", "7"}))

	assert.Equal(t, 9191, cfg.port)
	assert.Equal(t, 7, cfg.rateBurst, "flags win over the environment")
	assert.Equal(t, "https://party.example", cfg.allowedOrigin)
	assert.Equal(t, "0.0.0.0", cfg.bind)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "impostor.env")
	require.NoError(t, os.WriteFile(path, []byte("IMPOSTOR_WORDS=/srv/words.txt\n"), 0o644))

	t.Setenv("IMPOSTOR_ENV_FILE", path)
	t.Setenv("IMPOSTOR_WORDS", "")
	require.NoError(t, os.Unsetenv("IMPOSTOR_WORDS"))

	require.NoError(t, loadEnvFile())
	assert.Equal(t, "/srv/words.txt", os.Getenv("IMPOSTOR_WORDS"))

	t.Setenv("IMPOSTOR_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, loadEnvFile(), "an explicitly named file must exist")
}
