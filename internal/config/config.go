// Package config persists user settings for stitch-sync in a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/TechnicallyShaun/stitch-sync/internal/domain"
)

// FileName is the name of the config file within the config directory
const FileName = "config.toml"

// EnvPrefix prefixes environment overrides, e.g. STITCH_SYNC_WATCH_DIR.
const EnvPrefix = "STITCH_SYNC"

// Setting keys
const (
	KeyWatchDir     = "watch_dir"
	KeyMachine      = "machine"
	KeyOutputFormat = "output_format"
	KeyLogLevel     = "log_level"
)

// Default values for optional settings
const (
	DefaultWatchDir = "~/Downloads"
	DefaultLogLevel = "info"
)

var keys = []string{KeyWatchDir, KeyMachine, KeyOutputFormat, KeyLogLevel}

// ErrUnknownKey is returned for a key that is not a known setting.
var ErrUnknownKey = errors.New("unknown config key")

// Config holds the effective settings: file values over defaults, with
// environment overrides on top.
type Config struct {
	WatchDir     string `mapstructure:"watch_dir"`
	Machine      string `mapstructure:"machine"`
	OutputFormat string `mapstructure:"output_format"`
	LogLevel     string `mapstructure:"log_level"`
}

// Store reads and writes the config file.
type Store struct {
	path string
	v    *viper.Viper
	// file holds only the values present in the config file, so that
	// writing back never persists defaults or environment overrides.
	file map[string]string
}

// Keys returns the known setting keys in display order.
func Keys() []string {
	return slices.Clone(keys)
}

// DefaultPath returns <user config dir>/stitch-sync/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "stitch-sync", FileName), nil
}

// Open loads the config at path. An empty path means DefaultPath. A missing
// file is not an error: every setting then takes its default.
func Open(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	s := &Store{path: path}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) reload() error {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	file := make(map[string]string)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read config %s: %w", s.path, err)
		}
	} else {
		for _, k := range keys {
			if v.InConfig(k) {
				file[k] = v.GetString(k)
			}
		}
	}

	v.SetDefault(KeyWatchDir, DefaultWatchDir)
	v.SetDefault(KeyMachine, "")
	v.SetDefault(KeyOutputFormat, domain.DefaultFormat)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)

	s.v = v
	s.file = file
	return nil
}

// Path returns the config file location.
func (s *Store) Path() string {
	return s.path
}

// Config returns the effective settings with ~ expanded in paths.
func (s *Store) Config() (Config, error) {
	var cfg Config
	if err := s.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.WatchDir = ExpandTilde(cfg.WatchDir)
	cfg.OutputFormat = domain.NormalizeExt(cfg.OutputFormat)
	return cfg, nil
}

// Get returns the effective value of key.
func (s *Store) Get(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	return s.v.GetString(key), nil
}

// IsPersisted reports whether key has a value in the config file.
func (s *Store) IsPersisted(key string) bool {
	_, ok := s.file[key]
	return ok
}

// Set stores value under key and writes the file.
func (s *Store) Set(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if key == KeyOutputFormat {
		value = domain.NormalizeExt(value)
	}
	s.file[key] = value
	return s.save()
}

// Clear removes key from the file so it falls back to its default.
func (s *Store) Clear(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if _, ok := s.file[key]; !ok {
		return nil
	}
	delete(s.file, key)
	return s.save()
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := viper.New()
	out.SetConfigType("toml")
	for k, val := range s.file {
		out.Set(k, val)
	}
	if err := out.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write config %s: %w", s.path, err)
	}
	return s.reload()
}

func checkKey(key string) error {
	if !slices.Contains(keys, key) {
		return fmt.Errorf("%w: %s (valid keys: %s)", ErrUnknownKey, key, strings.Join(keys, ", "))
	}
	return nil
}

// ExpandTilde expands ~ at the beginning of a path to the user's home directory.
func ExpandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
