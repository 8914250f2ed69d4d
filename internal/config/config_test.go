package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{
		"DB_TYPE":     "sqlite",
		"DB_DATABASE": ":memory:",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, "msgpack", cfg.PayloadFormat)
	assert.True(t, cfg.RaiseLoadErrors)
	assert.False(t, cfg.CommitOnMethodReturn)
	assert.False(t, cfg.IncludeModelInternalFunctions)
	assert.False(t, cfg.SerializeNaively)
	assert.True(t, cfg.ExposeProperty)
}

func TestLoadOptions(t *testing.T) {
	setEnv(t, map[string]string{
		"DB_TYPE":                          "postgres",
		"DB_DATABASE":                      "models",
		"DB_USER":                          "app",
		"COMMIT_ON_METHOD_RETURN":          "true",
		"INCLUDE_MODEL_INTERNAL_FUNCTIONS": "1",
		"RAISE_LOAD_ERRORS":                "false",
		"PAYLOAD_FORMAT":                   "JSON",
		"EXPOSE_PROPERTY":                  "false",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.CommitOnMethodReturn)
	assert.True(t, cfg.IncludeModelInternalFunctions)
	assert.False(t, cfg.RaiseLoadErrors)
	assert.Equal(t, "json", cfg.PayloadFormat)
	assert.False(t, cfg.ExposeProperty)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing database": {"DB_TYPE": "sqlite"},
		"unknown db type":  {"DB_TYPE": "oracle", "DB_DATABASE": "x", "DB_USER": "u"},
		"bad format":       {"DB_TYPE": "sqlite", "DB_DATABASE": "x", "PAYLOAD_FORMAT": "xml"},
		"authz without id": {"DB_TYPE": "sqlite", "DB_DATABASE": "x", "AUTHZ_URL": "http://authz:8080"},
		"mysql needs user": {"DB_TYPE": "mysql", "DB_DATABASE": "x"},
	}

	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			setEnv(t, vars)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("DB_TYPE=sqlite\nDB_DATABASE=from-file.db\nPORT=4000\n"), 0o600))

	t.Setenv("ENV_FILE", file)
	t.Setenv("PORT", "5000")
	for _, k := range []string{"DB_TYPE", "DB_DATABASE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file.db", cfg.DBDatabase)
	assert.Equal(t, "5000", cfg.Port)
}
