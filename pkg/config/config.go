//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package config loads xmledit settings from the application directory,
// the environment and the command line.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultAutosaveInterval = 30 * time.Second
	DefaultLogLevel         = "info"
	DefaultMaxLogFiles      = 10
	DefaultIndent           = "  "
)

// Environment variables
const (
	EnvAppDir           = "XMLEDIT_APP_DIR"
	EnvAutosaveInterval = "XMLEDIT_AUTOSAVE_INTERVAL"
	EnvLogLevel         = "XMLEDIT_LOG_LEVEL"
)

// FileName is the name of the optional settings file in the application directory.
const FileName = "config.yaml"

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	AppDir           string
	AutosaveInterval time.Duration
	LogLevel         string
	MaxLogFiles      int
	Indent           string
	WatchFiles       bool
}

// fileConfig mirrors config.yaml. Absent keys keep their defaults.
type fileConfig struct {
	AutosaveInterval *string `yaml:"autosave_interval"`
	LogLevel         *string `yaml:"log_level"`
	MaxLogFiles      *int    `yaml:"max_log_files"`
	Indent           *string `yaml:"indent"`
	WatchFiles       *bool   `yaml:"watch_files"`
}

// ResolveAppDir picks the application directory: the flag value if set,
// then XMLEDIT_APP_DIR, then ~/.xmledit.
func ResolveAppDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if dir := os.Getenv(EnvAppDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".xmledit"
	}
	return filepath.Join(home, ".xmledit")
}

// Load reads {appDir}/.env and {appDir}/config.yaml, applies environment
// overrides and validates the result. Missing files are not errors.
func Load(appDir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(appDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	c := &Config{
		AppDir:           appDir,
		AutosaveInterval: DefaultAutosaveInterval,
		LogLevel:         DefaultLogLevel,
		MaxLogFiles:      DefaultMaxLogFiles,
		Indent:           DefaultIndent,
		WatchFiles:       true,
	}
	if err := c.readFile(filepath.Join(appDir, FileName)); err != nil {
		return nil, err
	}
	if value := os.Getenv(EnvAutosaveInterval); value != "" {
		d, err := parseInterval(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvAutosaveInterval, err)
		}
		c.AutosaveInterval = d
	}
	if value := os.Getenv(EnvLogLevel); value != "" {
		c.LogLevel = value
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if f.AutosaveInterval != nil {
		d, err := parseInterval(*f.AutosaveInterval)
		if err != nil {
			return fmt.Errorf("%s autosave_interval: %w", path, err)
		}
		c.AutosaveInterval = d
	}
	if f.LogLevel != nil {
		c.LogLevel = *f.LogLevel
	}
	if f.MaxLogFiles != nil {
		c.MaxLogFiles = *f.MaxLogFiles
	}
	if f.Indent != nil {
		c.Indent = *f.Indent
	}
	if f.WatchFiles != nil {
		c.WatchFiles = *f.WatchFiles
	}
	return nil
}

// parseInterval accepts a Go duration ("45s") or a plain number of seconds.
func parseInterval(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(value)
}

// SetAutosaveInterval applies a command line override.
func (c *Config) SetAutosaveInterval(d time.Duration) error {
	previous := c.AutosaveInterval
	c.AutosaveInterval = d
	if err := c.Validate(); err != nil {
		c.AutosaveInterval = previous
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.AppDir, validation.Required),
		validation.Field(&c.AutosaveInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.MaxLogFiles, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.Indent, validation.By(onlyBlanks)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func onlyBlanks(value interface{}) error {
	s, _ := value.(string)
	if strings.Trim(s, " \t") != "" {
		return errors.New("must contain only spaces and tabs")
	}
	return nil
}

func (c *Config) DraftsDir() string {
	return filepath.Join(c.AppDir, "drafts")
}

func (c *Config) RecentFilesPath() string {
	return filepath.Join(c.AppDir, "recent_files.txt")
}

func (c *Config) LogDir() string {
	return filepath.Join(c.AppDir, "logs")
}
