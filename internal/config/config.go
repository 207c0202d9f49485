package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListen        = "127.0.0.1:8080"
	DefaultTimezone      = "Europe/Paris"
	DefaultLanguage      = "fr"
	DefaultLogLevel      = "info"
	DefaultBaseURL       = "https://api.aladhan.com/v1"
	DefaultUserAgent     = "prayer-ics"
	DefaultCacheControl  = "s-maxage=21600, stale-while-revalidate=86400"
	DefaultRefreshCron   = "0 */6 * * *"
	DefaultLatHeader     = "X-Vercel-IP-Latitude"
	DefaultLonHeader     = "X-Vercel-IP-Longitude"
	DefaultLatitude      = 48.8566
	DefaultLongitude     = 2.3522
	DefaultMethod        = "12"
	DefaultSchool        = "0"
	DefaultLatAdjustment = "3"
	DefaultHorizonDays   = 365
	MaxHorizonDays       = 400
)

// UpstreamConfig describes the prayer-time calculation API.
type UpstreamConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	// Timeout bounds a single month request. Zero leaves the transport
	// defaults in place.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultsConfig holds the values used when a request omits a parameter or
// supplies one that does not parse.
type DefaultsConfig struct {
	Latitude                 float64 `yaml:"latitude" json:"latitude"`
	Longitude                float64 `yaml:"longitude" json:"longitude"`
	Method                   string  `yaml:"method" json:"method"`
	School                   string  `yaml:"school" json:"school"`
	LatitudeAdjustmentMethod string  `yaml:"latitude_adjustment_method" json:"latitude_adjustment_method"`
	HorizonDays              int     `yaml:"horizon_days" json:"horizon_days"`
	MaxHorizonDays           int     `yaml:"max_horizon_days" json:"max_horizon_days"`
}

// GeoHeadersConfig names the request headers carrying IP geolocation.
type GeoHeadersConfig struct {
	Latitude  string `yaml:"latitude" json:"latitude"`
	Longitude string `yaml:"longitude" json:"longitude"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the feed endpoints.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// ExportConfig describes a feed rendered to disk on the refresh schedule.
type ExportConfig struct {
	// Name is used in logs only.
	Name string `yaml:"name" json:"name"`
	// Path is the output .ics file.
	Path string `yaml:"path" json:"path"`
	// Query uses the same parameters as the HTTP endpoint,
	// e.g. "lat=51.5074&lon=-0.1278&city=London&alarm=10".
	Query string `yaml:"query" json:"query"`
}

// Config is the top-level application configuration.
type Config struct {
	Listen   string `yaml:"listen" json:"listen"`
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Timezone is the document timezone used until the upstream reports one.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Language selects display strings when the request has no lang parameter.
	// Supported: "fr" (default), "en".
	Language string `yaml:"language" json:"language"`

	CacheControl string `yaml:"cache_control" json:"cache_control"`

	Upstream   UpstreamConfig   `yaml:"upstream" json:"upstream"`
	Defaults   DefaultsConfig   `yaml:"defaults" json:"defaults"`
	GeoHeaders GeoHeadersConfig `yaml:"geo_headers" json:"geo_headers"`

	// RefreshCron is the cron schedule for Exports.
	RefreshCron string         `yaml:"refresh" json:"refresh"`
	Exports     []ExportConfig `yaml:"exports" json:"exports"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	switch c.Language {
	case "fr", "en":
	default:
		c.Language = DefaultLanguage
	}
	if c.CacheControl == "" {
		c.CacheControl = DefaultCacheControl
	}

	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = DefaultBaseURL
	}
	if c.Upstream.UserAgent == "" {
		c.Upstream.UserAgent = DefaultUserAgent
	}
	if c.Upstream.Timeout < 0 {
		c.Upstream.Timeout = 0
	}

	d := &c.Defaults
	if d.Latitude == 0 && d.Longitude == 0 {
		d.Latitude = DefaultLatitude
		d.Longitude = DefaultLongitude
	}
	if d.Method == "" {
		d.Method = DefaultMethod
	}
	if d.School == "" {
		d.School = DefaultSchool
	}
	if d.LatitudeAdjustmentMethod == "" {
		d.LatitudeAdjustmentMethod = DefaultLatAdjustment
	}
	if d.MaxHorizonDays <= 0 || d.MaxHorizonDays > MaxHorizonDays {
		d.MaxHorizonDays = MaxHorizonDays
	}
	if d.HorizonDays <= 0 {
		d.HorizonDays = DefaultHorizonDays
	}
	if d.HorizonDays > d.MaxHorizonDays {
		d.HorizonDays = d.MaxHorizonDays
	}

	if c.GeoHeaders.Latitude == "" {
		c.GeoHeaders.Latitude = DefaultLatHeader
	}
	if c.GeoHeaders.Longitude == "" {
		c.GeoHeaders.Longitude = DefaultLonHeader
	}

	if c.RefreshCron == "" {
		c.RefreshCron = DefaultRefreshCron
	}
	if c.Exports == nil {
		c.Exports = []ExportConfig{}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, 0o600)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// WriteFileAtomic writes data to a temp file in the target directory, syncs
// it, applies perm and renames it over path.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".prayerics-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// No-op once the rename succeeded.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
