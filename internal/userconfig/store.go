package userconfig

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/book-expert/logger"
	"github.com/book-expert/morse-service/internal/core"
)

// ErrPersistence wraps every failure to read or write the backend.
var ErrPersistence = errors.New("user config persistence failed")

// Log messages.
const (
	logLoaded         = "Loaded settings for %d users"
	logCreatedDefault = "Created default settings for user %s"
	logUpdated        = "User %s set %s to %s"
	logSaveFailed     = "Failed to persist user settings, keeping previous state: %v"
	logRepaired       = "Stored settings for user %s had invalid %s, using defaults for them"
)

// Store holds every user's settings in memory and rewrites the whole backend
// record after each mutation. One mutex serializes mutate-then-persist.
type Store struct {
	mu       sync.Mutex
	configs  Record
	defaults core.UserConfig
	backend  Backend
	log      *logger.Logger
}

// Open loads the backend record and returns a Store using defaults for new users.
// Invalid fields of stored entries are replaced with the defaults.
func Open(ctx context.Context, backend Backend, defaults core.UserConfig, log *logger.Logger) (*Store, error) {
	err := Validate(defaults)
	if err != nil {
		return nil, fmt.Errorf("invalid default user config: %w", err)
	}

	record, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	for userID, cfg := range record {
		fixed, replaced := repair(cfg, defaults)
		if len(replaced) > 0 {
			log.Warn(logRepaired, userID, strings.Join(replaced, ", "))

			record[userID] = fixed
		}
	}

	log.Info(logLoaded, len(record))

	return &Store{
		mu:       sync.Mutex{},
		configs:  record,
		defaults: defaults,
		backend:  backend,
		log:      log,
	}, nil
}

// UserID normalizes a numeric user identifier to its store key.
func UserID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Get returns the user's settings, creating and persisting defaults on first access.
func (s *Store) Get(ctx context.Context, userID string) (core.UserConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getLocked(ctx, userID)
}

// Set validates rawValue for key and stores it. An unseen user gets the
// defaults first, as with Get. Invalid input never changes an existing entry.
func (s *Store) Set(ctx context.Context, userID, key, rawValue string) (core.UserConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.configs[userID]
	if !exists {
		current = s.defaults
	}

	updated, err := Apply(current, key, rawValue)
	if err != nil {
		if !exists {
			_, createErr := s.getLocked(ctx, userID)
			if createErr != nil {
				err = errors.Join(err, createErr)
			}
		}

		return current, err
	}

	err = s.commitLocked(ctx, userID, updated)
	if err != nil {
		return current, err
	}

	s.log.Info(logUpdated, userID, key, rawValue)

	return updated, nil
}

// List returns the user's settings as display pairs in canonical key order.
func (s *Store) List(ctx context.Context, userID string) ([]core.Setting, error) {
	cfg, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return Settings(cfg), nil
}

// Snapshot returns a copy of every stored user config.
func (s *Store) Snapshot() Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.configs.clone()
}

// repair starts from defaults and copies every valid field of cfg over them.
// It returns the keys that were invalid.
func repair(cfg, defaults core.UserConfig) (core.UserConfig, []string) {
	fixed := defaults

	var replaced []string

	for _, setting := range Settings(cfg) {
		next, err := Apply(fixed, setting.Key, setting.Value)
		if err != nil {
			replaced = append(replaced, setting.Key)

			continue
		}

		fixed = next
	}

	return fixed, replaced
}

func (s *Store) getLocked(ctx context.Context, userID string) (core.UserConfig, error) {
	cfg, exists := s.configs[userID]
	if exists {
		return cfg, nil
	}

	err := s.commitLocked(ctx, userID, s.defaults)
	if err != nil {
		return core.UserConfig{}, err
	}

	s.log.Info(logCreatedDefault, userID)

	return s.defaults, nil
}

// commitLocked persists the record with userID set to cfg, and only then
// updates memory. Callers must hold s.mu.
func (s *Store) commitLocked(ctx context.Context, userID string, cfg core.UserConfig) error {
	next := s.configs.clone()
	next[userID] = cfg

	err := s.backend.Save(ctx, next)
	if err != nil {
		s.log.Error(logSaveFailed, err)

		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.configs = next

	return nil
}
