package analysis

import (
	"path/filepath"
	"strings"
	"time"

	"spring-change/core/schema"
)

// Config holds the spreadsheet ingestion and reconciliation settings.
type Config struct {
	// SheetName is the sheet read from every uploaded workbook.
	SheetName string `mapstructure:"sheet_name" default:"PTA"`
	// SkipRows lists 0-based sheet lines dropped before the header is taken.
	SkipRows []int `mapstructure:"skip_rows" default:"1"`
	// OriginOffset maps a data row position to its spreadsheet row number.
	OriginOffset int `mapstructure:"origin_offset" default:"3"`
	// DefaultSchema is used when a session is created without a type.
	DefaultSchema string `mapstructure:"default_schema" default:"VP"`
	// AllowedExtensions lists accepted upload extensions, without the dot.
	AllowedExtensions []string `mapstructure:"allowed_extensions" default:"xlsx,xlsm"`
	// MaxFileSizeMB caps a single upload.
	MaxFileSizeMB int `mapstructure:"max_file_size_mb" default:"200"`
	// CacheTTLSeconds keeps reconciliation results for identical inputs. 0 disables the cache.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"300"`
	// SessionTTLMinutes evicts idle sessions.
	SessionTTLMinutes int `mapstructure:"session_ttl_minutes" default:"120"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		SheetName:         "PTA",
		SkipRows:          []int{1},
		OriginOffset:      3,
		DefaultSchema:     string(schema.VP),
		AllowedExtensions: []string{"xlsx", "xlsm"},
		MaxFileSizeMB:     200,
		CacheTTLSeconds:   300,
		SessionTTLMinutes: 120,
	}
}

// SchemaType resolves name, falling back to the default schema when blank.
func (c Config) SchemaType(name string) (schema.Type, error) {
	if strings.TrimSpace(name) == "" {
		name = c.DefaultSchema
	}
	return schema.ParseType(name)
}

// IsAllowed reports whether the file name carries an accepted extension.
func (c Config) IsAllowed(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range c.AllowedExtensions {
		if strings.EqualFold(strings.TrimPrefix(strings.TrimSpace(allowed), "."), ext) {
			return true
		}
	}
	return false
}

// MaxFileSize returns the upload limit in bytes. Zero means unlimited.
func (c Config) MaxFileSize() int64 {
	if c.MaxFileSizeMB <= 0 {
		return 0
	}
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// CacheTTL returns the result cache lifetime.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// SessionTTL returns the idle session lifetime. Zero keeps sessions forever.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}
