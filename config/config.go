package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/text/language"
)

const (
	AppName = "movielist-cli"

	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	DefaultLanguage     = "en-US"
	DefaultInitialYear  = 2012
	DefaultDebounce     = 300 * time.Millisecond

	configFileName = "config.json"
	logFileName    = "movielist.log"
)

const (
	// ErrCodeInvalid means the config file could not be read or parsed, or a field is invalid.
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingAPIKey means no API key was found in flags, env or file.
	ErrCodeMissingAPIKey = "config_missing_api_key"
)

// Error is a configuration error tagged with a stable code.
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "config error"
	}
	switch e.Code {
	case ErrCodeMissingAPIKey:
		return fmt.Sprintf("%s: no API key configured (set MOVIELIST_API_KEY, --api-key or api_key in %s)", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Code, e.Path)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code extracts the error code from err, or "" when err is not an *Error.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// FileConfig is the on-disk config.json shape. Every field is optional.
type FileConfig struct {
	APIKey          string `json:"api_key"`
	BaseURL         string `json:"base_url"`
	ImageBaseURL    string `json:"image_base_url"`
	Language        string `json:"language"`
	InitialYear     int    `json:"initial_year"`
	DebounceMS      int    `json:"debounce_ms"`
	DropStaleSearch *bool  `json:"drop_stale_search"`
	LogFile         string `json:"log_file"`
	LogLevel        string `json:"log_level"`
	Debug           bool   `json:"debug"`
}

// Overrides carries command line values. Empty strings and nil pointers
// leave the lower-priority value in place.
type Overrides struct {
	APIKey          string
	BaseURL         string
	Language        string
	InitialYear     int
	DropStaleSearch *bool
	LogLevel        string
	Debug           *bool
}

// Config is the effective configuration after merging defaults, the config
// file, environment and overrides.
type Config struct {
	APIKey          string
	BaseURL         string
	ImageBaseURL    string
	Language        string
	InitialYear     int
	Debounce        time.Duration
	DropStaleSearch bool
	LogFile         string
	LogLevel        string
	Debug           bool

	Path string
}

func Default() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		ImageBaseURL: DefaultImageBaseURL,
		Language:     DefaultLanguage,
		InitialYear:  DefaultInitialYear,
		Debounce:     DefaultDebounce,
	}
}

// Load resolves the configuration. Priority: overrides > env > file > defaults.
func Load(overrides Overrides) (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: configFileName, Err: err}
	}
	return LoadFrom(path, overrides)
}

// LoadFrom is Load with an explicit config file path. A missing file is fine.
func LoadFrom(path string, overrides Overrides) (Config, error) {
	cfg := Default()
	cfg.Path = path

	file, err := readFile(path)
	if err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	applyFile(&cfg, file)
	if err := applyEnv(&cfg); err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	applyOverrides(&cfg, overrides)

	if cfg.LogFile == "" {
		if logPath, err := LogPath(); err == nil {
			cfg.LogFile = logPath
		}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	return cfg, nil
}

// RequireAPIKey fails with ErrCodeMissingAPIKey when no key is configured.
func (c Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &Error{Code: ErrCodeMissingAPIKey, Path: c.Path}
	}
	return nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url %q is not an absolute URL", c.BaseURL)
	}
	tag, err := language.Parse(c.Language)
	if err != nil {
		return fmt.Errorf("language %q: %w", c.Language, err)
	}
	c.Language = tag.String()
	if c.InitialYear < 1874 || c.InitialYear > time.Now().Year() {
		return fmt.Errorf("initial_year %d is out of range", c.InitialYear)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce %s must not be negative", c.Debounce)
	}
	if c.LogLevel != "" {
		level := hclog.LevelFromString(c.LogLevel)
		if level == hclog.NoLevel {
			return fmt.Errorf("log_level %q is not one of trace, debug, info, warn, error", c.LogLevel)
		}
		c.LogLevel = level.String()
	}
	return nil
}

func readFile(path string) (FileConfig, error) {
	var file FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return file, nil
		}
		return file, err
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return file, err
	}
	return file, nil
}

func applyFile(cfg *Config, file FileConfig) {
	if v := strings.TrimSpace(file.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(file.BaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(file.ImageBaseURL); v != "" {
		cfg.ImageBaseURL = v
	}
	if v := strings.TrimSpace(file.Language); v != "" {
		cfg.Language = v
	}
	if file.InitialYear != 0 {
		cfg.InitialYear = file.InitialYear
	}
	if file.DebounceMS != 0 {
		cfg.Debounce = time.Duration(file.DebounceMS) * time.Millisecond
	}
	if file.DropStaleSearch != nil {
		cfg.DropStaleSearch = *file.DropStaleSearch
	}
	if v := strings.TrimSpace(file.LogFile); v != "" {
		cfg.LogFile = v
	}
	if v := strings.TrimSpace(file.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	cfg.Debug = cfg.Debug || file.Debug
}

func applyEnv(cfg *Config) error {
	if v := firstEnv("MOVIELIST_API_KEY", "TMDB_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := firstEnv("MOVIELIST_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := firstEnv("MOVIELIST_LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := firstEnv("MOVIELIST_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := firstEnv("MOVIELIST_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MOVIELIST_DEBUG: %w", err)
		}
		cfg.Debug = debug
	}
	return nil
}

func applyOverrides(cfg *Config, o Overrides) {
	if v := strings.TrimSpace(o.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(o.BaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(o.Language); v != "" {
		cfg.Language = v
	}
	if o.InitialYear != 0 {
		cfg.InitialYear = o.InitialYear
	}
	if o.DropStaleSearch != nil {
		cfg.DropStaleSearch = *o.DropStaleSearch
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if o.Debug != nil {
		cfg.Debug = *o.Debug
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// Path is the config file location under the user config directory.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, configFileName), nil
}

// LogPath is the default log file location under the user cache directory.
func LogPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, logFileName), nil
}
