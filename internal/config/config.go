// Package config provides the configuration structure for the morse-service.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/book-expert/morse-service/internal/audio"
	"github.com/book-expert/morse-service/internal/core"
	"github.com/book-expert/morse-service/internal/fileutil"
	"github.com/book-expert/morse-service/internal/userconfig"
	"github.com/pelletier/go-toml/v2"
)

// Store backends.
const (
	BackendFile = "file"
	BackendKV   = "nats-kv"
)

// Defaults for values left empty in the configuration.
const (
	defaultNATSURL            = "nats://127.0.0.1:4222"
	defaultEncodeSubject      = "morse.encode"
	defaultDecodeSubject      = "morse.decode"
	defaultConfigGetSubject   = "morse.config.get"
	defaultConfigSetSubject   = "morse.config.set"
	defaultConfigListSubject  = "morse.config.list"
	defaultConfigKeysSubject  = "morse.config.keys"
	defaultAudioBucket        = "MORSE_AUDIO"
	defaultUserConfigBucket   = "MORSE_USER_CONFIGS"
	defaultUserConfigKVKey    = "user_configs"
	defaultUserConfigFileName = "user_configs.json"
	defaultOutputDirName      = "."
)

// ErrUnknownBackend is returned for a store backend other than "file" or "nats-kv".
var ErrUnknownBackend = errors.New("unknown store backend")

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                    string `toml:"url"`
	EncodeSubject          string `toml:"encode_subject"`
	DecodeSubject          string `toml:"decode_subject"`
	ConfigGetSubject       string `toml:"config_get_subject"`
	ConfigSetSubject       string `toml:"config_set_subject"`
	ConfigListSubject      string `toml:"config_list_subject"`
	ConfigKeysSubject      string `toml:"config_keys_subject"`
	AudioObjectStoreBucket string `toml:"audio_object_store_bucket"`
	UserConfigBucket       string `toml:"user_config_bucket"`
}

// AudioConfig holds the synthesis settings shared by all users.
type AudioConfig struct {
	SampleRate int `toml:"sample_rate"`
}

// DefaultsConfig overrides the settings new users start with. Unset fields
// keep the built-in defaults.
type DefaultsConfig struct {
	DotDurationMs  *int     `toml:"dd"`
	DashDurationMs *int     `toml:"dashd"`
	FrequencyHz    *int     `toml:"FREQ"`
	VolumeDb       *float64 `toml:"VOL"`
	WordGapMs      *int     `toml:"DBW"`
}

// StoreConfig selects where user settings are persisted.
type StoreConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
	KVKey   string `toml:"kv_key"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
	OutputDir   string `toml:"output_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS     NATSConfig     `toml:"nats"`
	Audio    AudioConfig    `toml:"audio"`
	Defaults DefaultsConfig `toml:"defaults"`
	Store    StoreConfig    `toml:"store"`
	Paths    PathsConfig    `toml:"paths"`
}

// Load loads the configuration for the morse-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return finish(&cfg)
}

// LoadFile loads the configuration from a TOML file. A missing file yields
// the built-in defaults.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err == nil {
		err = toml.Unmarshal(data, &cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	}

	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills every empty value with its default.
func (c *Config) ApplyDefaults() {
	setDefault(&c.NATS.URL, defaultNATSURL)
	setDefault(&c.NATS.EncodeSubject, defaultEncodeSubject)
	setDefault(&c.NATS.DecodeSubject, defaultDecodeSubject)
	setDefault(&c.NATS.ConfigGetSubject, defaultConfigGetSubject)
	setDefault(&c.NATS.ConfigSetSubject, defaultConfigSetSubject)
	setDefault(&c.NATS.ConfigListSubject, defaultConfigListSubject)
	setDefault(&c.NATS.ConfigKeysSubject, defaultConfigKeysSubject)
	setDefault(&c.NATS.AudioObjectStoreBucket, defaultAudioBucket)
	setDefault(&c.NATS.UserConfigBucket, defaultUserConfigBucket)

	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = audio.DefaultSampleRate
	}

	setDefault(&c.Store.Backend, BackendFile)
	setDefault(&c.Store.KVKey, defaultUserConfigKVKey)
	setDefault(&c.Paths.BaseLogsDir, os.TempDir())
	setDefault(&c.Paths.OutputDir, defaultOutputDirName)
	setDefault(&c.Store.Path, filepath.Join(fileutil.StateDir(), defaultUserConfigFileName))
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	err := audio.ValidateSampleRate(c.Audio.SampleRate)
	if err != nil {
		return fmt.Errorf("invalid [audio] section: %w", err)
	}

	err = userconfig.Validate(c.Defaults.UserConfig())
	if err != nil {
		return fmt.Errorf("invalid [defaults] section: %w", err)
	}

	if c.Store.Backend != BackendFile && c.Store.Backend != BackendKV {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Store.Backend)
	}

	return nil
}

// UserConfig returns the built-in user defaults with any configured overrides.
func (d DefaultsConfig) UserConfig() core.UserConfig {
	cfg := core.DefaultUserConfig()

	if d.DotDurationMs != nil {
		cfg.DotDurationMs = *d.DotDurationMs
	}

	if d.DashDurationMs != nil {
		cfg.DashDurationMs = *d.DashDurationMs
	}

	if d.FrequencyHz != nil {
		cfg.FrequencyHz = *d.FrequencyHz
	}

	if d.VolumeDb != nil {
		cfg.VolumeDb = *d.VolumeDb
	}

	if d.WordGapMs != nil {
		cfg.WordGapMs = *d.WordGapMs
	}

	return cfg
}

// EnsureDirectories creates the log and output directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.BaseLogsDir, c.Paths.OutputDir, filepath.Dir(c.Store.Path)} {
		err := fileutil.EnsureDir(dir)
		if err != nil {
			return err
		}
	}

	return nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
