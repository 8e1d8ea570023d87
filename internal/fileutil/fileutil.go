// Package fileutil provides path, file name and display helpers for the
// morse-service command-line tools.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Environment variable names used for path resolution.
const (
	envStateDir = "MORSE_STATE_DIR"
)

const (
	appName                = "morse-service"
	dotLocalState          = ".local/state"
	defaultDirPermissions  = 0o750
	invalidCharReplacement = "_"
	extWAV                 = ".wav"
	fallbackBaseName       = "morse"
	maxBaseNameLength      = 64
)

// Data size constants.
const (
	kilobyte = 1024
	megabyte = kilobyte * 1024
)

// Time and size formatting constants.
const (
	secondsInMinute = 60
	formatSeconds   = "%.1fs"
	formatMinutes   = "%dm %.1fs"
	formatMB        = "%.1f MB"
	formatKB        = "%.1f KB"
	formatBytes     = "%d B"
)

const errFmtFailedToCreateDir = "failed to create directory %s: %w"

// StateDir returns the directory for persistent CLI state, respecting an
// environment variable override.
func StateDir() string {
	if stateDir := os.Getenv(envStateDir); stateDir != "" {
		return stateDir
	}

	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return filepath.Join(os.TempDir(), appName)
	}

	return filepath.Join(homeDir, dotLocalState, appName)
}

// EnsureDir ensures a directory exists at the given path, creating it if it doesn't.
func EnsureDir(path string) error {
	err := os.MkdirAll(path, defaultDirPermissions)
	if err != nil {
		return fmt.Errorf(errFmtFailedToCreateDir, path, err)
	}

	return nil
}

// SanitizeFilename removes or replaces characters that are invalid in most filesystems.
func SanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"<", invalidCharReplacement,
		">", invalidCharReplacement,
		":", invalidCharReplacement,
		"\"", invalidCharReplacement,
		"/", invalidCharReplacement,
		"\\", invalidCharReplacement,
		"|", invalidCharReplacement,
		"?", invalidCharReplacement,
		"*", invalidCharReplacement,
		"\x00", invalidCharReplacement,
	)

	return replacer.Replace(filename)
}

// WAVFileName derives a WAV file name from the encoded text, the way the
// audio of "sos" is delivered as "sos.wav".
func WAVFileName(text string) string {
	base := SanitizeFilename(strings.Join(strings.Fields(text), " "))

	runes := []rune(base)
	if len(runes) > maxBaseNameLength {
		base = strings.TrimSpace(string(runes[:maxBaseNameLength]))
	}

	if base == "" || strings.Trim(base, ".") == "" {
		base = fallbackBaseName
	}

	return base + extWAV
}

// FormatDuration formats a duration in a human-readable string (e.g. "5m 30.5s", "45.2s").
func FormatDuration(duration time.Duration) string {
	seconds := duration.Seconds()
	if seconds < secondsInMinute {
		return fmt.Sprintf(formatSeconds, seconds)
	}

	minutes := int(seconds / secondsInMinute)

	return fmt.Sprintf(formatMinutes, minutes, seconds-float64(minutes*secondsInMinute))
}

// FormatFileSize formats a file size in a human-readable string (e.g. "500.5 KB").
func FormatFileSize(bytes int64) string {
	switch {
	case bytes >= megabyte:
		return fmt.Sprintf(formatMB, float64(bytes)/megabyte)
	case bytes >= kilobyte:
		return fmt.Sprintf(formatKB, float64(bytes)/kilobyte)
	default:
		return fmt.Sprintf(formatBytes, bytes)
	}
}
