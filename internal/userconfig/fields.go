// Package userconfig owns per-user Morse audio settings: defaults, validated
// mutation, and durable persistence of the whole store after every change.
package userconfig

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/book-expert/morse-service/internal/audio"
	"github.com/book-expert/morse-service/internal/core"
	"github.com/samber/lo"
)

// Recognized configuration keys. Names are case-sensitive.
const (
	KeyDotDuration  = "dd"
	KeyDashDuration = "dashd"
	KeyFrequency    = "FREQ"
	KeyVolume       = "VOL"
	KeyWordGap      = "DBW"
)

// Upper bounds for user values.
const (
	MaxDurationMs  = audio.MaxSegmentMs
	MaxFrequencyHz = 20000
	MaxVolumeDb    = 120.0
)

const (
	errFmtInvalidKey  = "%w: %q"
	errFmtNotInteger  = "%w: %s expects an integer, got %q"
	errFmtOutOfRange  = "%w: %s must be between 1 and %d, got %d"
	errFmtNotDecimal  = "%w: %s expects a decimal number, got %q"
	errFmtVolumeRange = "%w: %s must be between -%g and %g, got %q"
)

var (
	// ErrInvalidConfigKey is returned by Set for an unrecognized key.
	ErrInvalidConfigKey = errors.New("invalid configuration key")
	// ErrInvalidConfigValue is returned by Set when the value does not parse.
	ErrInvalidConfigValue = errors.New("invalid configuration value")
)

// Field describes one user-settable key.
type Field struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
	Integer     bool   `json:"integer"`
	Max         int    `json:"max,omitempty"`
}

var fields = []Field{
	{
		Key:         KeyDotDuration,
		Label:       "Dot Duration",
		Unit:        "ms",
		Description: "Duration of a dot in Morse code.",
		Integer:     true,
		Max:         MaxDurationMs,
	},
	{
		Key:         KeyDashDuration,
		Label:       "Dash Duration",
		Unit:        "ms",
		Description: "Duration of a dash in Morse code.",
		Integer:     true,
		Max:         MaxDurationMs,
	},
	{
		Key:         KeyFrequency,
		Label:       "Frequency",
		Unit:        "Hz",
		Description: "Frequency of the Morse code tone.",
		Integer:     true,
		Max:         MaxFrequencyHz,
	},
	{
		Key:         KeyVolume,
		Label:       "Volume",
		Unit:        "dB",
		Description: "Volume of the Morse code tone.",
		Integer:     false,
	},
	{
		Key:         KeyWordGap,
		Label:       "Word Gap",
		Unit:        "ms",
		Description: "Gap between words in Morse code.",
		Integer:     true,
		Max:         MaxDurationMs,
	},
}

// Fields returns the settable keys in canonical order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)

	return out
}

// Keys returns the canonical key names.
func Keys() []string {
	return lo.Map(fields, func(field Field, _ int) string {
		return field.Key
	})
}

// IsKey reports whether key is a recognized configuration key.
func IsKey(key string) bool {
	return lo.ContainsBy(fields, func(field Field) bool {
		return field.Key == key
	})
}

// Apply returns a copy of cfg with key set from rawValue. cfg is never modified.
func Apply(cfg core.UserConfig, key, rawValue string) (core.UserConfig, error) {
	if !IsKey(key) {
		return cfg, fmt.Errorf(errFmtInvalidKey, ErrInvalidConfigKey, key)
	}

	value := strings.TrimSpace(rawValue)

	if key == KeyVolume {
		volume, err := parseDecimal(key, value)
		if err != nil {
			return cfg, err
		}

		cfg.VolumeDb = volume

		return cfg, nil
	}

	number, err := parseBoundedInt(key, value, fieldMax(key))
	if err != nil {
		return cfg, err
	}

	switch key {
	case KeyDotDuration:
		cfg.DotDurationMs = number
	case KeyDashDuration:
		cfg.DashDurationMs = number
	case KeyFrequency:
		cfg.FrequencyHz = number
	case KeyWordGap:
		cfg.WordGapMs = number
	}

	return cfg, nil
}

// Settings renders cfg as display pairs in canonical key order.
func Settings(cfg core.UserConfig) []core.Setting {
	return []core.Setting{
		{Key: KeyDotDuration, Value: strconv.Itoa(cfg.DotDurationMs)},
		{Key: KeyDashDuration, Value: strconv.Itoa(cfg.DashDurationMs)},
		{Key: KeyFrequency, Value: strconv.Itoa(cfg.FrequencyHz)},
		{Key: KeyVolume, Value: strconv.FormatFloat(cfg.VolumeDb, 'g', -1, 64)},
		{Key: KeyWordGap, Value: strconv.Itoa(cfg.WordGapMs)},
	}
}

// Validate checks every field of cfg against its allowed range.
func Validate(cfg core.UserConfig) error {
	for _, setting := range Settings(cfg) {
		_, err := Apply(cfg, setting.Key, setting.Value)
		if err != nil {
			return err
		}
	}

	return nil
}

func fieldMax(key string) int {
	field, _ := lo.Find(fields, func(field Field) bool {
		return field.Key == key
	})

	return field.Max
}

func parseBoundedInt(key, value string, maxValue int) (int, error) {
	number, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf(errFmtNotInteger, ErrInvalidConfigValue, key, value)
	}

	if number <= 0 || number > maxValue {
		return 0, fmt.Errorf(errFmtOutOfRange, ErrInvalidConfigValue, key, maxValue, number)
	}

	return number, nil
}

func parseDecimal(key, value string) (float64, error) {
	number, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf(errFmtNotDecimal, ErrInvalidConfigValue, key, value)
	}

	if math.IsNaN(number) || math.Abs(number) > MaxVolumeDb {
		return 0, fmt.Errorf(errFmtVolumeRange, ErrInvalidConfigValue, key, MaxVolumeDb, MaxVolumeDb, value)
	}

	return number, nil
}
