// Package events defines the request and reply messages exchanged with the
// morse-service over NATS.
package events

import (
	"time"

	"github.com/book-expert/morse-service/internal/core"
)

// Error codes carried in ErrorReply.Code.
const (
	CodeInvalidRequest = "invalid_request"
	CodeInvalidKey     = "invalid_key"
	CodeInvalidValue   = "invalid_value"
	CodePersistence    = "persistence"
	CodeInternal       = "internal"
)

// Header identifies a request and its caller.
type Header struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	UserID    int64     `json:"user_id"`
}

// EncodeRequest asks for the Morse form and the audio of Text.
type EncodeRequest struct {
	Header Header `json:"header"`
	Text   string `json:"text"`
}

// EncodeReply carries the Morse text and the object-store key of the WAV file.
type EncodeReply struct {
	Header     Header   `json:"header"`
	Morse      string   `json:"morse"`
	AudioKey   string   `json:"audio_key"`
	DurationMs int64    `json:"duration_ms"`
	Skipped    []string `json:"skipped,omitempty"`
}

// DecodeRequest asks for the text form of Morse.
type DecodeRequest struct {
	Header Header `json:"header"`
	Morse  string `json:"morse"`
}

// DecodeReply carries the decoded, lower-cased text.
type DecodeReply struct {
	Header  Header   `json:"header"`
	Text    string   `json:"text"`
	Skipped []string `json:"skipped,omitempty"`
}

// ConfigRequest reads a user's settings (get, list) or lists the keys.
type ConfigRequest struct {
	Header Header `json:"header"`
}

// ConfigSetRequest sets one key of a user's settings.
type ConfigSetRequest struct {
	Header Header `json:"header"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// ConfigReply carries a user's full settings.
type ConfigReply struct {
	Header Header          `json:"header"`
	Config core.UserConfig `json:"config"`
}

// ConfigListReply carries a user's settings as ordered display pairs.
type ConfigListReply struct {
	Header   Header         `json:"header"`
	Settings []core.Setting `json:"settings"`
}

// ConfigKeysReply describes every settable key.
type ConfigKeysReply struct {
	Header Header     `json:"header"`
	Keys   []KeyField `json:"keys"`
}

// KeyField describes one settable key.
type KeyField struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

// ErrorReply is sent instead of the regular reply when a request fails.
type ErrorReply struct {
	Header Header `json:"header"`
	Code   string `json:"code"`
	Error  string `json:"error"`
}
