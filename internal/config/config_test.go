package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults when config file is missing", func(t *testing.T) {
		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8081", cfg.Auth.URL)
		assert.Equal(t, "http://localhost:8082", cfg.Budget.URL)
		assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
		assert.Equal(t, StoreFile, cfg.Store.Driver)
		assert.False(t, cfg.Production)
	})

	t.Run("should read values from yaml file", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "calmcash.yaml")
		content := `
auth:
  url: https://auth.example.com/some/path
budget:
  url: https://budget.example.com
store:
  driver: sqlite
  path: /tmp/calmcash.db
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://auth.example.com", cfg.Auth.URL)
		assert.Equal(t, "https://budget.example.com", cfg.Budget.URL)
		assert.Equal(t, StoreSQLite, cfg.Store.Driver)
		assert.Equal(t, "/tmp/calmcash.db", cfg.Store.ResolvedPath())
	})

	t.Run("should let environment variables override file values", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "calmcash.yaml")
		require.NoError(t, os.WriteFile(path, []byte("auth:\n  url: https://auth.example.com\n"), 0o600))
		t.Setenv("CALMCASH_AUTH_URL", "https://override.example.com")
		t.Setenv("CALMCASH_HTTP_TIMEOUT", "3s")

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://override.example.com", cfg.Auth.URL)
		assert.Equal(t, 3*time.Second, cfg.HTTP.Timeout)
	})

	t.Run("should reject postgres store without dsn", func(t *testing.T) {
		// given
		t.Setenv("CALMCASH_STORE_DRIVER", "postgres")

		// when
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store.dsn")
	})

	t.Run("should reject unknown store driver", func(t *testing.T) {
		// given
		t.Setenv("CALMCASH_STORE_DRIVER", "redis")

		// when
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.Error(t, err)
	})
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		production bool
		want       string
		wantErr    bool
	}{
		{name: "localhost over http", raw: "http://localhost:8081", want: "http://localhost:8081"},
		{name: "loopback over http", raw: "http://127.0.0.1:9000/x", want: "http://127.0.0.1:9000"},
		{name: "remote over https", raw: "https://api.example.com/v1", want: "https://api.example.com"},
		{name: "remote over http", raw: "http://api.example.com", wantErr: true},
		{name: "localhost over http in production", raw: "http://localhost:8081", production: true, wantErr: true},
		{name: "relative url", raw: "/auth", wantErr: true},
		{name: "garbage", raw: "::not a url", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateURL("auth.url", tt.raw, tt.production)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_ResolvedPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	assert.Equal(t, filepath.Join("/xdg", "calmcash", "session.json"), Store{Driver: StoreFile}.ResolvedPath())
	assert.Equal(t, filepath.Join("/xdg", "calmcash", "session.db"), Store{Driver: StoreSQLite}.ResolvedPath())
}
