package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, "addnew", cfg.Import.UploadAction)
	assert.Equal(t, 10, cfg.Import.PreviewRows)
	assert.Equal(t, "none", cfg.Import.ResourceType)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8081
store:
  type: postgres
import:
  upload_action: addupdate
  preview_rows: 25
  language: ja
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Store.Type)
	assert.Equal(t, "addupdate", cfg.Import.UploadAction)
	assert.Equal(t, 25, cfg.Import.PreviewRows)
	assert.Equal(t, "ja", cfg.Import.Language)

	// untouched keys keep their defaults
	assert.Equal(t, "manual", cfg.Import.AuthMethod)
	assert.Equal(t, "filefield", cfg.Import.PasswordAction)
	assert.Equal(t, "./data/uploads", cfg.Storage.BasePath)
	assert.Same(t, cfg, Get())
}

func TestGetDatabaseURLFallsBackToEnv(t *testing.T) {
	globalConfig = &Config{}
	t.Setenv("DATABASE_URL", "postgres://localhost/importusers")
	assert.Equal(t, "postgres://localhost/importusers", GetDatabaseURL())

	globalConfig = &Config{Database: DatabaseConfig{URL: "postgres://db/other"}}
	assert.Equal(t, "postgres://db/other", GetDatabaseURL())
}
