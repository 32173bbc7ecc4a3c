package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, "reports", cfg.Storage.ReportPrefix)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 3306, cfg.Database.Port)

	assert.Equal(t, "PTA", cfg.Analysis.SheetName)
	assert.Equal(t, []int{1}, cfg.Analysis.SkipRows)
	assert.Equal(t, 3, cfg.Analysis.OriginOffset)
	assert.Equal(t, "VP", cfg.Analysis.DefaultSchema)
	assert.Equal(t, []string{"xlsx", "xlsm"}, cfg.Analysis.AllowedExtensions)
	assert.Equal(t, 200, cfg.Analysis.MaxFileSizeMB)
	assert.Equal(t, 300, cfg.Analysis.CacheTTLSeconds)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	env := "ANALYSIS_SHEET_NAME=PTA_2024\nANALYSIS_ORIGIN_OFFSET=5\nSERVER_PORT=9090\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))

	t.Cleanup(func() {
		os.Unsetenv("ANALYSIS_SHEET_NAME")
		os.Unsetenv("ANALYSIS_ORIGIN_OFFSET")
		os.Unsetenv("SERVER_PORT")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "PTA_2024", cfg.Analysis.SheetName)
	assert.Equal(t, 5, cfg.Analysis.OriginOffset)
	assert.Equal(t, "9090", cfg.Server.Port)
}
