package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 8080
database:
  host: localhost
  port: 5432
  user: app
  password: pw
  dbname: familytree
  sslmode: disable
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.ChatModel)
	assert.Equal(t, int64(25), cfg.Upload.MaxImageMB)
	assert.Equal(t, int64(10), cfg.Upload.MaxPhotoMB)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("DATABASE_URL", "postgres://env-url/familytree")

	path := writeConfig(t, `
jwt:
  secret: file-secret
database:
  host: localhost
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "env-key", cfg.OpenAI.APIKey)
	assert.Equal(t, "postgres://env-url/familytree", cfg.Database.DSN())
}

func TestDSNFromFields(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "app",
		Password: "pw",
		DBName:   "familytree",
		SSLMode:  "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=app password=pw dbname=familytree sslmode=disable",
		db.DSN())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
