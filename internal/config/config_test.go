package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.LogLevel != "DEBUG" || cfg.MaxFileSizeMB != 10 || cfg.BackupCount != 5 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxFileBytes() != 10*1024*1024 {
		t.Errorf("MaxFileBytes = %d", cfg.MaxFileBytes())
	}
	if !reflect.DeepEqual(cfg.Keywords(), DefaultKeywords) {
		t.Errorf("Keywords = %v", cfg.Keywords())
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logplus.toml")
	data := `
log_level = "INFO"
max_file_size_mb = 25
backup_count = 3
enable_compression = false
sensitive_keywords = "password, token , "
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "INFO" || cfg.MaxFileSizeMB != 25 || cfg.BackupCount != 3 {
		t.Errorf("loaded values wrong: %+v", cfg)
	}
	if cfg.EnableCompression {
		t.Error("explicit false was not honored")
	}
	// Untouched keys keep their defaults.
	if cfg.MaxAgeDays != 30 || !cfg.AutoCleanEnabled {
		t.Errorf("defaults lost on load: %+v", cfg)
	}
	if got := cfg.Keywords(); !reflect.DeepEqual(got, []string{"password", "token"}) {
		t.Errorf("Keywords = %v", got)
	}
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Error("expected advisory error for a missing file")
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("missing file did not yield defaults: %+v", cfg)
	}
}

func TestNormalize_ResetsInvalidFields(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "LOUD"
	cfg.MaxFileSizeMB = -5
	cfg.RotationStrategy = "sometimes"
	cfg.BackupCount = 2 // valid, must survive

	cfg.Normalize()

	if cfg.LogLevel != "DEBUG" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.MaxFileSizeMB != 10 {
		t.Errorf("MaxFileSizeMB = %d", cfg.MaxFileSizeMB)
	}
	if cfg.RotationStrategy != "size" {
		t.Errorf("RotationStrategy = %q", cfg.RotationStrategy)
	}
	if cfg.BackupCount != 2 {
		t.Errorf("valid BackupCount was reset to %d", cfg.BackupCount)
	}
}

func TestSetKeywords(t *testing.T) {
	cfg := Default()
	cfg.SetKeywords([]string{"alpha", "beta"})
	if got := cfg.Keywords(); !reflect.DeepEqual(got, []string{"alpha", "beta"}) {
		t.Errorf("Keywords = %v", got)
	}
}
