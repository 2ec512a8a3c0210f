// Package config loads folio's YAML configuration and builds its logger.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/metcalfc/folio/internal/reader"
)

const (
	appName        = "folio"
	configFileName = "config.yaml"
)

type (
	LibraryConfig struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path,omitempty"`
	}

	ReaderConfig struct {
		PageSize int    `yaml:"page_size"`
		FontSize int    `yaml:"font_size"`
		Theme    string `yaml:"theme"`
	}

	Config struct {
		Library LibraryConfig `yaml:"library"`
		Reader  ReaderConfig  `yaml:"reader"`
		Logging LoggingConfig `yaml:"logging"`
	}
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Library: LibraryConfig{Backend: "json"},
		Reader: ReaderConfig{
			PageSize: reader.DefaultPageSize,
			FontSize: reader.DefaultFontSize,
			Theme:    string(reader.Light),
		},
		Logging: LoggingConfig{
			ConsoleLogger: LoggerConfig{Level: "normal"},
			FileLogger:    LoggerConfig{Level: "none", Mode: "append"},
		},
	}
}

// DefaultPath returns XDG_CONFIG_HOME/folio/config.yaml or
// ~/.config/folio/config.yaml
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, configFileName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName, configFileName)
}

// Load reads the configuration at path over the defaults, then applies
// environment overrides. With an empty path the default location is used and
// a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Unmarshal decodes YAML into cfg, rejecting unknown keys.
func Unmarshal(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Marshal encodes cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("FOLIO_LIBRARY_BACKEND"); ok {
		c.Library.Backend = v
	}
	if v, ok := os.LookupEnv("FOLIO_LIBRARY_PATH"); ok {
		c.Library.Path = v
	}
	if v, ok := os.LookupEnv("FOLIO_LOG_LEVEL"); ok {
		c.Logging.ConsoleLogger.Level = v
	}
	if v, ok := os.LookupEnv("FOLIO_PAGE_SIZE"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: FOLIO_PAGE_SIZE: %w", err)
		}
		c.Reader.PageSize = n
	}
	return nil
}

// Validate checks every field and reports the first problem found.
func (c *Config) Validate() error {
	switch c.Library.Backend {
	case "json", "bolt":
	default:
		return fmt.Errorf("config: library.backend must be json or bolt, got %q", c.Library.Backend)
	}
	if c.Reader.PageSize < 1 {
		return fmt.Errorf("config: reader.page_size must be positive, got %d", c.Reader.PageSize)
	}
	if c.Reader.FontSize < reader.MinFontSize || c.Reader.FontSize > reader.MaxFontSize {
		return fmt.Errorf("config: reader.font_size must be between %d and %d, got %d",
			reader.MinFontSize, reader.MaxFontSize, c.Reader.FontSize)
	}
	if _, err := reader.ParseTheme(c.Reader.Theme); err != nil {
		return fmt.Errorf("config: reader.theme: %w", err)
	}
	if err := c.Logging.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
