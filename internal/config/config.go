package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/vipyr-labs/deobf/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Recognised keys.
const (
	KeyDefaultType = "default_type"
	KeyColor       = "color"
	KeyLogLevel    = "log.level"
	KeyLogFormat   = "log.format"
	KeyLogFile     = "log.file"
	KeyLogRotate   = "log.rotate"
	KeyAliases     = "aliases"
	KeyMirror      = "mirror"
)

var knownKeys = []string{
	KeyDefaultType, KeyColor, KeyLogLevel, KeyLogFormat,
	KeyLogFile, KeyLogRotate, KeyMirror,
}

var boolKeys = []string{KeyColor, KeyLogRotate}

// Settings is the resolved configuration with defaults applied.
type Settings struct {
	DefaultType string
	Color       bool
	Log         LogSettings
	Aliases     map[string]string
	Mirror      string
}

// LogSettings controls the diagnostic logger.
type LogSettings struct {
	Level  string
	Format string
	File   string
	Rotate bool
}

// Dir returns the config directory. VIPYR_DEOBF_HOME overrides the default
// of ~/.vipyr-deobf.
func Dir() string {
	if dir := os.Getenv(branding.EnvVar("home")); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
// A missing file is not an error; a malformed one is.
func Load() error {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading config file %s: %w", FilePath(), err)
	}
	return nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Current returns the effective settings.
func Current() Settings {
	s := Settings{
		DefaultType: viper.GetString(KeyDefaultType),
		Color:       true,
		Log: LogSettings{
			Level:  "warn",
			Format: "console",
			File:   viper.GetString(KeyLogFile),
			Rotate: viper.GetBool(KeyLogRotate),
		},
		Aliases: viper.GetStringMapString(KeyAliases),
		Mirror:  viper.GetString(KeyMirror),
	}
	if viper.IsSet(KeyColor) {
		s.Color = viper.GetBool(KeyColor)
	}
	if v := viper.GetString(KeyLogLevel); v != "" {
		s.Log.Level = v
	}
	if v := viper.GetString(KeyLogFormat); v != "" {
		s.Log.Format = v
	}
	return s
}

// Set writes a config key-value pair and saves the config file. Alias
// entries are set as "aliases.<name>".
func Set(key, value string) error {
	key = strings.ToLower(key)
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}

	var v any = value
	if slices.Contains(boolKeys, key) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		v = b
	}

	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, v)

	configFile := FilePath()
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// IsKnownKey reports whether key can be read or written.
func IsKnownKey(key string) bool {
	if alias, ok := strings.CutPrefix(key, KeyAliases+"."); ok {
		return alias != "" && !strings.Contains(alias, ".")
	}
	return slices.Contains(knownKeys, key)
}
