package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/woozymasta/gpx2geojson/internal/convert"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, convert.DefaultOptions(), cfg.Defaults)
	assert.Equal(t, "0.0.0.0", cfg.Server.Addr)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DefaultMaxBodyBytes, cfg.Server.MaxBodyBytes)
	assert.True(t, cfg.Server.GzipEnabled())
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, runtime.NumCPU(), cfg.Batch.Concurrency)

	assert.Equal(t, cfg, Default())
}

func TestLoad_PartialDefaultsKeepOtherKeys(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, `
defaults:
  includeTime: false
  types: [Track]
server:
  port: 9090
  gzip: false
output:
  format: yaml
`))
	require.NoError(t, err)

	assert.False(t, cfg.Defaults.IncludeTime)
	assert.True(t, cfg.Defaults.IncludeElevation)
	assert.True(t, cfg.Defaults.IncludeMetadata)
	assert.Equal(t, []convert.ElementType{convert.TypeTrack}, cfg.Defaults.Types)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Server.GzipEnabled())
	assert.Equal(t, "yaml", cfg.Output.Format)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name, contents, want string
	}{
		{"port", "server:\n  port: 70000\n", "server.port must be between 1 and 65535"},
		{"body", "server:\n  max_body_bytes: -1\n", "server.max_body_bytes must be > 0"},
		{"format", "output:\n  format: xml\n", "output.format must be json or yaml"},
		{"concurrency", "batch:\n  concurrency: -2\n", "batch.concurrency must be > 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tt.contents))
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestLoad_UnknownType(t *testing.T) {
	_, err := Load(writeTempConfig(t, "defaults:\n  types: [lake]\n"))
	assert.ErrorIs(t, err, convert.ErrInvalidOptions)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
