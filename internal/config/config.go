package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dshills/redline/internal/admission"
)

// Config represents the redline configuration. An empty Model means the
// provider's default model.
type Config struct {
	Provider    string           `json:"provider" yaml:"provider" validate:"oneof=anthropic openai ollama lmstudio"`
	Model       string           `json:"model" yaml:"model"`
	Format      string           `json:"format" yaml:"format" validate:"oneof=text json"`
	MaxFindings int              `json:"maxFindings" yaml:"maxFindings" validate:"gte=0"`
	Include     []string         `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude     []string         `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Admission   admission.Policy `json:"admission" yaml:"admission"`
	Privacy     PrivacyConfig    `json:"privacy" yaml:"privacy"`
	Cache       CacheConfig      `json:"cache" yaml:"cache"`
	Log         LogConfig        `json:"log" yaml:"log"`
	Server      ServerConfig     `json:"server" yaml:"server"`
}

// PrivacyConfig controls what the transmission gate lets through.
type PrivacyConfig struct {
	RedactSecrets   bool `json:"redactSecrets" yaml:"redactSecrets"`
	AllowUnredacted bool `json:"allowUnredacted" yaml:"allowUnredacted"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Dir        string `json:"dir,omitempty" yaml:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds" yaml:"ttlSeconds" validate:"gte=0"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	// File, when set, receives JSON logs with rotation.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr               string `json:"addr" yaml:"addr" validate:"required"`
	SessionIdleSeconds int    `json:"sessionIdleSeconds" yaml:"sessionIdleSeconds" validate:"gt=0"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:    "anthropic",
		Format:      "text",
		MaxFindings: 50,
		Admission:   admission.DefaultPolicy(),
		Privacy: PrivacyConfig{
			RedactSecrets: true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Log: LogConfig{
			Level: "warn",
		},
		Server: ServerConfig{
			Addr:               "127.0.0.1:8787",
			SessionIdleSeconds: 1800,
		},
	}
}

var validate = validator.New()

// Validate checks enumerations and the admission policy.
func (c Config) Validate() error {
	if err := c.Admission.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory for redline.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "redline"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "redline"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "redline"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "redline"), nil
	default:
		return filepath.Join(home, ".config", "redline"), nil
	}
}

// ConfigPath returns the config file to use. REDLINE_CONFIG wins; otherwise
// the first of config.json, config.yaml and config.yml that exists in
// ConfigDir, falling back to config.json.
func ConfigPath() (string, error) {
	if p := os.Getenv("REDLINE_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return filepath.Join(dir, "config.json"), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFile decodes the file at path over base. A missing file returns base
// unchanged, so keys absent from the file keep their base values.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	cfg := base
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, as YAML when the extension asks for it.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Init writes a default config file. It refuses to overwrite unless force
// is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s", path)
	}
	return Save(Default(), path)
}

// Set updates a single key in the config file at path.
func Set(path, key, value string) error {
	cfg, err := LoadFile(path, Default())
	if err != nil {
		return err
	}
	if err := SetField(&cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return Save(cfg, path)
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without replacing variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags; keys are SetField names.
func Load(overrides map[string]string) (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	cfg, err := LoadFile(path, Default())
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKeys maps environment variables to SetField keys.
var envKeys = []struct {
	env string
	key string
}{
	{"REDLINE_PROVIDER", "provider"},
	{"REDLINE_MODEL", "model"},
	{"REDLINE_FORMAT", "format"},
	{"REDLINE_MAX_FINDINGS", "maxFindings"},
	{"REDLINE_MAX_FILES", "maxFiles"},
	{"REDLINE_MAX_FILE_SIZE", "maxFileSize"},
	{"REDLINE_MAX_TOTAL_SIZE", "maxTotalSize"},
	{"REDLINE_ALLOW_SENSITIVE", "allowSensitive"},
	{"REDLINE_REDACT", "redactSecrets"},
	{"REDLINE_ALLOW_UNREDACTED", "allowUnredacted"},
	{"REDLINE_CACHE", "cacheEnabled"},
	{"REDLINE_LOG_LEVEL", "logLevel"},
	{"REDLINE_LOG_FILE", "logFile"},
	{"REDLINE_ADDR", "addr"},
}

func mergeEnv(cfg *Config) error {
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k, v := range overrides {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := SetField(cfg, k, overrides[k]); err != nil {
			return err
		}
	}
	return nil
}

// Keys lists the names accepted by SetField.
func Keys() []string {
	return []string{
		"provider", "model", "format", "maxFindings",
		"maxFiles", "maxFileSize", "maxTotalSize", "allowSensitive", "workers",
		"redactSecrets", "allowUnredacted",
		"cacheEnabled", "cacheDir", "cacheTTL",
		"logLevel", "logFile", "addr", "sessionIdle",
	}
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	var err error
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "format":
		cfg.Format = value
	case "maxFindings":
		cfg.MaxFindings, err = parseInt(key, value)
	case "maxFiles":
		cfg.Admission.MaxFileCount, err = parseInt(key, value)
	case "maxFileSize":
		cfg.Admission.MaxFileSizeBytes, err = ParseSize(value)
	case "maxTotalSize":
		cfg.Admission.MaxTotalSizeBytes, err = ParseSize(value)
	case "allowSensitive":
		cfg.Admission.AllowSensitive, err = parseBool(key, value)
	case "workers":
		cfg.Admission.Workers, err = parseInt(key, value)
	case "redactSecrets":
		cfg.Privacy.RedactSecrets, err = parseBool(key, value)
	case "allowUnredacted":
		cfg.Privacy.AllowUnredacted, err = parseBool(key, value)
	case "cacheEnabled":
		cfg.Cache.Enabled, err = parseBool(key, value)
	case "cacheDir":
		cfg.Cache.Dir = value
	case "cacheTTL":
		cfg.Cache.TTLSeconds, err = parseInt(key, value)
	case "logLevel":
		cfg.Log.Level = value
	case "logFile":
		cfg.Log.File = value
	case "addr":
		cfg.Server.Addr = value
	case "sessionIdle":
		cfg.Server.SessionIdleSeconds, err = parseInt(key, value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return err
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false: %w", key, err)
	}
	return b, nil
}

// ParseSize parses a byte count with an optional binary unit suffix:
// "512", "64K", "64KB", "2M", "2MB", "1G", "1GB". Case is ignored.
func ParseSize(s string) (int64, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	mult := int64(1)
	for _, u := range []struct {
		suffix string
		mult   int64
	}{
		{"GB", 1 << 30}, {"G", 1 << 30},
		{"MB", 1 << 20}, {"M", 1 << 20},
		{"KB", 1 << 10}, {"K", 1 << 10},
		{"B", 1},
	} {
		if strings.HasSuffix(v, u.suffix) {
			v = strings.TrimSpace(strings.TrimSuffix(v, u.suffix))
			mult = u.mult
			break
		}
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}
