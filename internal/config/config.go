package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config is the recognized option surface of the engine.
// Every field has a documented default; invalid values fall back to it
// rather than failing startup.
type Config struct {
	LogLevel         string `toml:"log_level" validate:"oneof=DEBUG INFO WARN ERROR FATAL"`
	MaxFileSizeMB    int    `toml:"max_file_size_mb" validate:"min=1"`
	BackupCount      int    `toml:"backup_count" validate:"min=0"`
	RotationStrategy string `toml:"rotation_strategy" validate:"oneof=size time hybrid"`
	RotationInterval string `toml:"rotation_interval" validate:"oneof=hourly daily"`

	EnableAllLog           bool `toml:"enable_all_log"`
	EnableCoreLog          bool `toml:"enable_core_log"`
	EnableErrorLog         bool `toml:"enable_error_log"`
	EnablePluginSeparation bool `toml:"enable_plugin_separation"`

	EnableCompression    bool `toml:"enable_compression"`
	CompressionAfterDays int  `toml:"compression_after_days" validate:"min=0"`

	AutoCleanEnabled bool `toml:"auto_clean_enabled"`
	MaxTotalSizeMB   int  `toml:"max_total_size_mb" validate:"min=1"`
	MaxAgeDays       int  `toml:"max_age_days" validate:"min=1"`

	EnableSensitiveFilter bool `toml:"enable_sensitive_filter"`
	// Comma-separated keyword list. Whitespace around entries is ignored.
	SensitiveKeywords string `toml:"sensitive_keywords"`

	// Cron expression for the background retention pass.
	CleanupSchedule string `toml:"cleanup_schedule"`
}

// DefaultKeywords is the built-in redaction keyword set.
var DefaultKeywords = []string{
	"token", "password", "passwd", "pwd", "secret",
	"api_key", "apikey", "access_key", "accesskey",
	"private_key", "privatekey", "credential", "auth",
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		LogLevel:               "DEBUG",
		MaxFileSizeMB:          10,
		BackupCount:            5,
		RotationStrategy:       "size",
		RotationInterval:       "daily",
		EnableAllLog:           true,
		EnableCoreLog:          true,
		EnableErrorLog:         true,
		EnablePluginSeparation: true,
		EnableCompression:      true,
		CompressionAfterDays:   1,
		AutoCleanEnabled:       true,
		MaxTotalSizeMB:         500,
		MaxAgeDays:             30,
		EnableSensitiveFilter:  true,
		SensitiveKeywords:      strings.Join(DefaultKeywords, ","),
		CleanupSchedule:        "@hourly",
	}
}

// Load reads a TOML config file over the defaults. A missing or
// unparseable file yields the defaults; the error is advisory and the
// returned Config is always usable.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), err
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize resets any field that fails validation back to its default.
// Configuration errors are never fatal.
func (c *Config) Normalize() {
	def := Default()
	err := validator.New().Struct(c)
	if err == nil {
		return
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		*c = def
		return
	}
	for _, fe := range verrs {
		switch fe.StructField() {
		case "LogLevel":
			c.LogLevel = def.LogLevel
		case "MaxFileSizeMB":
			c.MaxFileSizeMB = def.MaxFileSizeMB
		case "BackupCount":
			c.BackupCount = def.BackupCount
		case "RotationStrategy":
			c.RotationStrategy = def.RotationStrategy
		case "RotationInterval":
			c.RotationInterval = def.RotationInterval
		case "CompressionAfterDays":
			c.CompressionAfterDays = def.CompressionAfterDays
		case "MaxTotalSizeMB":
			c.MaxTotalSizeMB = def.MaxTotalSizeMB
		case "MaxAgeDays":
			c.MaxAgeDays = def.MaxAgeDays
		}
	}
}

// Keywords parses the sensitive keyword list.
func (c *Config) Keywords() []string {
	var out []string
	for _, k := range strings.Split(c.SensitiveKeywords, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// SetKeywords installs a keyword list given in list form.
func (c *Config) SetKeywords(keywords []string) {
	c.SensitiveKeywords = strings.Join(keywords, ",")
}

// MaxFileBytes is the per-sink rotation threshold in bytes.
func (c *Config) MaxFileBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// MaxTotalBytes is the aggregate retention size ceiling in bytes.
func (c *Config) MaxTotalBytes() int64 {
	return int64(c.MaxTotalSizeMB) * 1024 * 1024
}
