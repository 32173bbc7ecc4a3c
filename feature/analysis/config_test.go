package analysis

import (
	"testing"
	"time"

	"spring-change/core/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SchemaType(t *testing.T) {
	cfg := DefaultConfig()

	got, err := cfg.SchemaType("")
	require.NoError(t, err)
	assert.Equal(t, schema.VP, got)

	got, err = cfg.SchemaType(" vu ")
	require.NoError(t, err)
	assert.Equal(t, schema.VU, got)

	_, err = cfg.SchemaType("XX")
	assert.ErrorIs(t, err, schema.ErrUnknownType)
}

func TestConfig_IsAllowed(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		want bool
	}{
		{"pta.xlsx", true},
		{"PTA.XLSM", true},
		{"pta.xls", false},
		{"pta.csv", false},
		{"pta", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.IsAllowed(tt.name))
		})
	}
}

func TestConfig_Limits(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, int64(200*1024*1024), cfg.MaxFileSize())
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL())

	cfg.MaxFileSizeMB = 0
	assert.Zero(t, cfg.MaxFileSize())
}
