package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"pentasched/internal/dateutil"
)

const (
	defaultTimezone = dateutil.DefaultTimezone
	defaultLocale   = "fr"
	defaultLogLevel = "info"
	defaultFormat   = FormatText
)

// Output formats understood by the CLI.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatICS  = "ics"
)

// ScheduleConfig describes a single pentabarf schedule document on disk.
type ScheduleConfig struct {
	// ID is an internal identifier used for logging, metrics and ICS UIDs.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Path is the local XML file. "-" means stdin.
	Path string `yaml:"path" json:"path"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA zone the schedules' dates and times are
	// expressed in (e.g. "Europe/Paris").
	Timezone string `yaml:"timezone" json:"timezone"`

	// Locale is the BCP 47 tag whose casing rules normalize track types.
	Locale string `yaml:"locale" json:"locale"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Format selects the CLI output: text, json or ics.
	Format string `yaml:"format" json:"format"`

	// CalendarName is written as X-WR-CALNAME in ICS output.
	CalendarName string `yaml:"calendar_name,omitempty" json:"calendar_name,omitempty"`

	// MetricsFile, if set, receives parse metrics in the node_exporter
	// textfile format after each run.
	MetricsFile string `yaml:"metrics_file,omitempty" json:"metrics_file,omitempty"`

	// Schedules is the list of schedule documents to read.
	Schedules []ScheduleConfig `yaml:"schedules" json:"schedules"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:  defaultTimezone,
		Locale:    defaultLocale,
		LogLevel:  defaultLogLevel,
		Format:    defaultFormat,
		Schedules: []ScheduleConfig{},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.Locale == "" {
		c.Locale = defaultLocale
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatICS:
		// ok
	default:
		// Unknown value; fall back to text rather than failing the run.
		c.Format = defaultFormat
	}
	if c.Schedules == nil {
		c.Schedules = []ScheduleConfig{}
	}
	for i := range c.Schedules {
		s := &c.Schedules[i]
		if s.ID == "" && s.Path != "" {
			s.ID = SourceID(s.Path)
		}
		if s.Name == "" {
			s.Name = s.ID
		}
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Language resolves Locale.
func (c *Config) Language() (language.Tag, error) {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("config: locale %q: %w", c.Locale, err)
	}
	return tag, nil
}

// SourceID derives a schedule ID from a file path: the base name without
// extension ("/srv/cdl-2024.xml" -> "cdl-2024").
func SourceID(path string) string {
	if path == "-" || path == "" {
		return "stdin"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
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
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".pentasched-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
