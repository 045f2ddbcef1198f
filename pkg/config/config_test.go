package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "fractal.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  h2c: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Server.Listen != ":3400" {
		t.Fatalf("default listen=%q", cfg.Server.Listen)
	}
	if cfg.Directives.IncludeParam != "include" || cfg.Directives.ExcludeParam != "exclude" || cfg.Directives.PresetParam != "preset" {
		t.Fatalf("default params=%+v", cfg.Directives)
	}
	if cfg.Directives.MaxLength != 2048 || cfg.Directives.CacheSize != 1024 {
		t.Fatalf("default limits=%+v", cfg.Directives)
	}
	if cfg.Presets.AutoReload.Enabled {
		t.Fatalf("presets.auto_reload.enabled default should be false")
	}
	if cfg.Presets.AutoReload.DebounceMs != 300 {
		t.Fatalf("presets.auto_reload.debounce_ms default=%d", cfg.Presets.AutoReload.DebounceMs)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Fatalf("metrics.path default=%q", cfg.Metrics.Path)
	}
	if !cfg.Logging.AccessLog {
		t.Fatalf("access_log default should be true")
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("logging.level default=%q", cfg.Logging.Level)
	}
}

func TestLoad_ExplicitAccessLogFalse(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  access_log: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Logging.AccessLog {
		t.Fatalf("explicit access_log=false must be kept")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
directives:
  max_length: 100
`)
	t.Setenv("FRACTAL_LISTEN", ":9999")
	t.Setenv("FRACTAL_H2C", "true")
	t.Setenv("FRACTAL_DIRECTIVES_MAX_LENGTH", "512")
	t.Setenv("FRACTAL_PRESETS_FILE", "/tmp/presets.yaml")
	t.Setenv("FRACTAL_PRESETS_AUTO_RELOAD_ENABLED", "1")
	t.Setenv("FRACTAL_PRESETS_AUTO_RELOAD_DEBOUNCE_MS", "450")
	t.Setenv("FRACTAL_CORS_ALLOW_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("FRACTAL_ACCESS_LOG", "false")
	t.Setenv("FRACTAL_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Server.Listen != ":9999" || !cfg.Server.H2C {
		t.Fatalf("server=%+v", cfg.Server)
	}
	if cfg.Directives.MaxLength != 512 {
		t.Fatalf("max_length=%d", cfg.Directives.MaxLength)
	}
	if cfg.Presets.File != "/tmp/presets.yaml" || !cfg.Presets.AutoReload.Enabled || cfg.Presets.AutoReload.DebounceMs != 450 {
		t.Fatalf("presets=%+v", cfg.Presets)
	}
	if len(cfg.CORS.AllowOrigins) != 2 || cfg.CORS.AllowOrigins[1] != "https://b.example" {
		t.Fatalf("cors=%+v", cfg.CORS)
	}
	if cfg.Logging.AccessLog || cfg.Logging.Level != "debug" {
		t.Fatalf("logging=%+v", cfg.Logging)
	}
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	path := writeConfigFile(t, "")
	t.Setenv("FRACTAL_DIRECTIVES_MAX_LENGTH", "lots")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for non-numeric FRACTAL_DIRECTIVES_MAX_LENGTH")
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]string{
		"same params": `
directives:
  include_param: "with"
  exclude_param: "with"
`,
		"negative max length": `
directives:
  max_length: -1
`,
		"bad metrics path": `
metrics:
  path: "metrics"
`,
		"bad level": `
logging:
  level: "loud"
`,
		"bad origin": `
cors:
  allow_origins: ["example.com"]
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfigFile(t, content)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	if err := os.WriteFile(p, []byte("FRACTAL_TEST_DOTENV=hello\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("FRACTAL_TEST_DOTENV", "")
	_ = os.Unsetenv("FRACTAL_TEST_DOTENV")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), p); err != nil {
		t.Fatalf("LoadDotEnv err=%v", err)
	}
	if got := os.Getenv("FRACTAL_TEST_DOTENV"); got != "hello" {
		t.Fatalf("FRACTAL_TEST_DOTENV=%q", got)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Listen == "" || cfg.Directives.IncludeParam == "" {
		t.Fatalf("Default() should apply defaults: %+v", cfg)
	}
}
