// Package core defines the shared types and interfaces of the Morse service.
package core

import "context"

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// UserConfig holds one user's Morse audio settings. The JSON names are the
// persisted field names and the keys users set.
type UserConfig struct {
	DotDurationMs  int     `json:"dd"`
	DashDurationMs int     `json:"dashd"`
	FrequencyHz    int     `json:"FREQ"`
	VolumeDb       float64 `json:"VOL"`
	WordGapMs      int     `json:"DBW"`
}

// DefaultUserConfig returns the settings a new user starts with.
func DefaultUserConfig() UserConfig {
	return UserConfig{
		DotDurationMs:  100,
		DashDurationMs: 300,
		FrequencyHz:    440,
		VolumeDb:       -10,
		WordGapMs:      1000,
	}
}

// UserConfigStore resolves and mutates per-user settings.
type UserConfigStore interface {
	Get(ctx context.Context, userID string) (UserConfig, error)
	Set(ctx context.Context, userID, key, rawValue string) (UserConfig, error)
	List(ctx context.Context, userID string) ([]Setting, error)
}

// Setting is one displayable key/value pair of a UserConfig.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
