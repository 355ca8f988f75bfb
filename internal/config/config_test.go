package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr)
	assert.Equal(t, "data/pdfmind.db", cfg.Database.Path)
	assert.Equal(t, "pdfmind/pdfs", cfg.Storage.KeyPrefix)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxBytes)
	assert.Equal(t, 8000, cfg.Chat.ContextCharLimit)
	assert.Equal(t, 24*60, cfg.Auth.TokenTTLMinutes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PDFMIND_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("PDFMIND_STORAGE_BUCKET", "my-bucket")
	t.Setenv("PDFMIND_AUTH_JWTSECRET", "sekrit")
	t.Setenv("PDFMIND_UPLOAD_MAXBYTES", "1048576")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, "my-bucket", cfg.Storage.Bucket)
	assert.Equal(t, "sekrit", cfg.Auth.JWTSecret)
	assert.Equal(t, int64(1048576), cfg.Upload.MaxBytes)
}
