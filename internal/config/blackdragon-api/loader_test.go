package blackdragon_api_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingKeyIsConfigError(t *testing.T) {
	t.Setenv("AUTH_JWT_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	var cfgErr ErrConfig
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("AUTH_JWT_KEY", "env-secret")
	t.Setenv("AUTH_TOKEN_TTL", "45m")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Auth.JWTKey)
	assert.Equal(t, 45*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 8, cfg.Auth.PasswordMinLength)
	assert.Equal(t, LedgerPostgres, cfg.Auth.Ledger)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, 2*time.Second, cfg.DB.QueryTimeout)

	tc := cfg.Auth.AsTokenConfig()
	assert.Equal(t, []byte("env-secret"), tc.Secret)
	assert.Equal(t, "blackdragon", tc.Issuer)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  jwt_key: file-secret
  issuer: dojo
  ledger: memory
server:
  http_addr: ":18080"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-secret", cfg.Auth.JWTKey)
	assert.Equal(t, "dojo", cfg.Auth.Issuer)
	assert.Equal(t, LedgerMemory, cfg.Auth.Ledger)
	assert.Equal(t, ":18080", cfg.Server.HTTPAddr)
}

func TestValidate_BadLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  jwt_key: k\n  ledger: redis\n"), 0o600))

	_, err := Load(path)
	var cfgErr ErrConfig
	assert.ErrorAs(t, err, &cfgErr)
}

func TestValidate_BlankJWTKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  jwt_key: \"   \"\n"), 0o600))

	_, err := Load(path)
	var cfgErr ErrConfig
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "jwt_key")
}
