package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, DefaultBucket, cfg.Storage.Bucket)
	assert.Equal(t, time.Hour, cfg.Storage.SignedURLTTL)
	assert.Equal(t, int64(50*1024*1024), cfg.Storage.MaxUploadBytes())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.True(t, cfg.IsDev())
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeConfig(t, "port: 9000\nnot_a_field: true\n"))
	assert.Error(t, err)
}

func TestLoadParsesNestedSections(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
env: prod
storage:
  driver: gcs
  bucket: media-test
  signed_url_ttl: 15m
ai:
  provider: openai_compatible
  max_tokens: 512
`))
	require.NoError(t, err)

	assert.False(t, cfg.IsDev())
	assert.Equal(t, StorageGCS, cfg.Storage.Driver)
	assert.Equal(t, "media-test", cfg.Storage.Bucket)
	assert.Equal(t, 15*time.Minute, cfg.Storage.SignedURLTTL)
	assert.Equal(t, AIOpenAICompatible, cfg.AI.Provider)
	assert.Equal(t, 512, cfg.AI.MaxTokens)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("STORAGE_ENDPOINT", "https://storage.example.com/")
	t.Setenv("STORAGE_SECRET_ACCESS_KEY", "service-role")
	t.Setenv("STORAGE_ACCESS_KEY_ID", "key")
	t.Setenv("AI_API_KEY", "sk-test")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/signage")

	cfg, err := Load(writeConfig(t, "port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "https://storage.example.com", cfg.Storage.Endpoint)
	assert.True(t, cfg.Storage.HasCredentials())
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, "postgres://u:p@db/signage", cfg.Database.DSNValue())
}

func TestInvalidEnvPort(t *testing.T) {
	t.Setenv("PORT", "eighty")
	_, err := Load(writeConfig(t, ""))
	assert.Error(t, err)
}

func TestMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	_, err := Load(writeConfig(t, "database:\n  driver: oracle\n"))
	assert.Error(t, err)
}

func TestDSNValue(t *testing.T) {
	pg := DatabaseConfig{Driver: DriverPostgres, Host: "db", User: "app", Password: "pw", Name: "signage"}
	assert.Equal(t, "host=db port=5432 user=app dbname=signage sslmode=disable password=pw", pg.DSNValue())

	my := DatabaseConfig{Driver: DriverMySQL, Host: "db", User: "app", Password: "pw", Name: "signage"}
	assert.Equal(t, "app:pw@tcp(db:3306)/signage?charset=utf8mb4&loc=UTC&parseTime=True", my.DSNValue())

	lite := DatabaseConfig{Driver: DriverSQLite, Name: "local"}
	assert.Equal(t, "local.db", lite.DSNValue())
}

func TestResolvePath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "logs")
	assert.Equal(t, abs, ResolvePath(abs))
	assert.Equal(t, filepath.Join(ExecutableDir(), "logs"), ResolvePath("logs"))
	assert.Equal(t, ExecutableDir(), ResolvePath("  "))
}
