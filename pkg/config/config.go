package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix = "FRACTAL"

	defaultListen          = ":3400"
	defaultIncludeParam    = "include"
	defaultExcludeParam    = "exclude"
	defaultPresetParam     = "preset"
	defaultMaxLength       = 2048
	defaultCacheSize       = 1024
	defaultDebounceMs      = 300
	defaultMetricsPath     = "/metrics"
	defaultShutdownTimeout = 10000
)

type LoggingConfig struct {
	Level                 string `yaml:"level"`
	Development           bool   `yaml:"development"`
	AccessLog             bool   `yaml:"access_log"`
	AccessLogPath         string `yaml:"access_log_path"`
	AccessLogFormat       string `yaml:"access_log_format"`
	AccessLogFormatPreset string `yaml:"access_log_format_preset"`

	accessLogSet bool `yaml:"-"`
}

// UnmarshalYAML records whether access_log was written explicitly so the
// default (on) does not override an explicit false.
func (c *LoggingConfig) UnmarshalYAML(value *yaml.Node) error {
	type rawLogging LoggingConfig
	var raw rawLogging
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*c = LoggingConfig(raw)
	c.accessLogSet = false
	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		if strings.TrimSpace(value.Content[i].Value) == "access_log" {
			c.accessLogSet = true
		}
	}
	return nil
}

type DirectivesConfig struct {
	IncludeParam string `yaml:"include_param"`
	ExcludeParam string `yaml:"exclude_param"`
	PresetParam  string `yaml:"preset_param"`
	// MaxLength bounds the raw include/exclude query values, in bytes.
	MaxLength int `yaml:"max_length"`
	CacheSize int `yaml:"cache_size"`
}

type Config struct {
	Server struct {
		Listen            string `yaml:"listen"`
		ReadTimeoutMs     int    `yaml:"read_timeout_ms"`
		WriteTimeoutMs    int    `yaml:"write_timeout_ms"`
		ShutdownTimeoutMs int    `yaml:"shutdown_timeout_ms"`
		// PidFile is written on start and removed on exit; `fractal -s reload` reads it.
		PidFile string `yaml:"pid_file"`
		// H2C serves cleartext HTTP/2 next to HTTP/1.1.
		H2C bool `yaml:"h2c"`
	} `yaml:"server"`

	Directives DirectivesConfig `yaml:"directives"`

	Presets struct {
		File string `yaml:"file"`
		// AutoReload watches the presets file and reloads it at runtime.
		AutoReload struct {
			Enabled    bool `yaml:"enabled"`
			DebounceMs int  `yaml:"debounce_ms"`
		} `yaml:"auto_reload"`
	} `yaml:"presets"`

	CORS struct {
		Enabled      bool     `yaml:"enabled"`
		AllowOrigins []string `yaml:"allow_origins"`
	} `yaml:"cors"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Logging LoggingConfig `yaml:"logging"`
}

// Load reads a YAML config, applies defaults, FRACTAL_* environment overrides and validates.
func Load(path string) (*Config, error) {
	// #nosec G304 -- path is provided by trusted config/flag.
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse is Load without the file read.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env file %q: %w", f, err)
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = defaultListen
	}
	if cfg.Server.ReadTimeoutMs <= 0 {
		cfg.Server.ReadTimeoutMs = 30000
	}
	if cfg.Server.WriteTimeoutMs <= 0 {
		cfg.Server.WriteTimeoutMs = 30000
	}
	if cfg.Server.ShutdownTimeoutMs <= 0 {
		cfg.Server.ShutdownTimeoutMs = defaultShutdownTimeout
	}
	if strings.TrimSpace(cfg.Directives.IncludeParam) == "" {
		cfg.Directives.IncludeParam = defaultIncludeParam
	}
	if strings.TrimSpace(cfg.Directives.ExcludeParam) == "" {
		cfg.Directives.ExcludeParam = defaultExcludeParam
	}
	if strings.TrimSpace(cfg.Directives.PresetParam) == "" {
		cfg.Directives.PresetParam = defaultPresetParam
	}
	if cfg.Directives.MaxLength == 0 {
		cfg.Directives.MaxLength = defaultMaxLength
	}
	if cfg.Directives.CacheSize == 0 {
		cfg.Directives.CacheSize = defaultCacheSize
	}
	if strings.TrimSpace(cfg.Presets.File) == "" {
		cfg.Presets.File = "./presets.yaml"
	}
	if cfg.Presets.AutoReload.DebounceMs <= 0 {
		cfg.Presets.AutoReload.DebounceMs = defaultDebounceMs
	}
	if strings.TrimSpace(cfg.Metrics.Path) == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if !cfg.Logging.accessLogSet {
		cfg.Logging.AccessLog = true
	}
}

// envOverrides lists the FRACTAL_* variables. Nil pointers mean "not set".
type envOverrides struct {
	Listen            *string  `envconfig:"LISTEN"`
	ReadTimeoutMs     *int     `envconfig:"READ_TIMEOUT_MS"`
	WriteTimeoutMs    *int     `envconfig:"WRITE_TIMEOUT_MS"`
	H2C               *bool    `envconfig:"H2C"`
	PidFile           *string  `envconfig:"PID_FILE"`
	MaxLength         *int     `envconfig:"DIRECTIVES_MAX_LENGTH"`
	CacheSize         *int     `envconfig:"DIRECTIVES_CACHE_SIZE"`
	PresetsFile       *string  `envconfig:"PRESETS_FILE"`
	AutoReload        *bool    `envconfig:"PRESETS_AUTO_RELOAD_ENABLED"`
	DebounceMs        *int     `envconfig:"PRESETS_AUTO_RELOAD_DEBOUNCE_MS"`
	CORSEnabled       *bool    `envconfig:"CORS_ENABLED"`
	CORSAllowOrigins  []string `envconfig:"CORS_ALLOW_ORIGINS"`
	MetricsEnabled    *bool    `envconfig:"METRICS_ENABLED"`
	LogLevel          *string  `envconfig:"LOG_LEVEL"`
	AccessLog         *bool    `envconfig:"ACCESS_LOG"`
	AccessLogPath     *string  `envconfig:"ACCESS_LOG_PATH"`
	AccessLogFormat   *string  `envconfig:"ACCESS_LOG_FORMAT"`
	AccessLogPreset   *string  `envconfig:"ACCESS_LOG_FORMAT_PRESET"`
	LogDevelopment    *bool    `envconfig:"LOG_DEVELOPMENT"`
}

func applyEnvOverrides(cfg *Config) error {
	var ov envOverrides
	if err := envconfig.Process(EnvPrefix, &ov); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	setString(&cfg.Server.Listen, ov.Listen)
	setInt(&cfg.Server.ReadTimeoutMs, ov.ReadTimeoutMs)
	setInt(&cfg.Server.WriteTimeoutMs, ov.WriteTimeoutMs)
	setBool(&cfg.Server.H2C, ov.H2C)
	setString(&cfg.Server.PidFile, ov.PidFile)
	setInt(&cfg.Directives.MaxLength, ov.MaxLength)
	setInt(&cfg.Directives.CacheSize, ov.CacheSize)
	setString(&cfg.Presets.File, ov.PresetsFile)
	setBool(&cfg.Presets.AutoReload.Enabled, ov.AutoReload)
	setInt(&cfg.Presets.AutoReload.DebounceMs, ov.DebounceMs)
	setBool(&cfg.CORS.Enabled, ov.CORSEnabled)
	if len(ov.CORSAllowOrigins) > 0 {
		cfg.CORS.AllowOrigins = ov.CORSAllowOrigins
	}
	setBool(&cfg.Metrics.Enabled, ov.MetricsEnabled)
	setString(&cfg.Logging.Level, ov.LogLevel)
	setBool(&cfg.Logging.Development, ov.LogDevelopment)
	setBool(&cfg.Logging.AccessLog, ov.AccessLog)
	setString(&cfg.Logging.AccessLogPath, ov.AccessLogPath)
	setString(&cfg.Logging.AccessLogFormat, ov.AccessLogFormat)
	setString(&cfg.Logging.AccessLogFormatPreset, ov.AccessLogPreset)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		*dst = strings.TrimSpace(*v)
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func validate(cfg *Config) error {
	if cfg.Directives.MaxLength < 0 {
		return errors.New("directives.max_length must be >= 0")
	}
	if cfg.Directives.CacheSize < 0 {
		return errors.New("directives.cache_size must be >= 0")
	}
	params := map[string]string{}
	for field, v := range map[string]string{
		"include_param": cfg.Directives.IncludeParam,
		"exclude_param": cfg.Directives.ExcludeParam,
		"preset_param":  cfg.Directives.PresetParam,
	} {
		if other, ok := params[v]; ok {
			return fmt.Errorf("directives.%s and directives.%s must differ", field, other)
		}
		params[v] = field
	}
	if cfg.Presets.AutoReload.Enabled && cfg.Presets.AutoReload.DebounceMs <= 0 {
		return errors.New("presets.auto_reload.debounce_ms must be > 0 when presets.auto_reload.enabled=true")
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return errors.New("metrics.path must start with '/'")
	}
	if _, err := zapcore.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	for _, o := range cfg.CORS.AllowOrigins {
		o = strings.TrimSpace(o)
		if o != "*" && !strings.Contains(o, "://") {
			return fmt.Errorf("cors.allow_origins entry %q must be '*' or a URL origin", o)
		}
	}
	return nil
}
