// Package userconfig_test tests the per-user settings store.
package userconfig_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/morse-service/internal/core"
	"github.com/book-expert/morse-service/internal/userconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMockSave = errors.New("mock save error")

// countingBackend wraps a FileBackend, counts saves, and can be told to fail.
type countingBackend struct {
	inner     *userconfig.FileBackend
	saves     atomic.Int32
	failSaves atomic.Bool
}

func (c *countingBackend) Load(ctx context.Context) (userconfig.Record, error) {
	return c.inner.Load(ctx)
}

func (c *countingBackend) Save(ctx context.Context, record userconfig.Record) error {
	if c.failSaves.Load() {
		return errMockSave
	}

	c.saves.Add(1)

	return c.inner.Save(ctx, record)
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "userconfig-test.log")
	require.NoError(t, err)

	return testLogger
}

func setupStore(t *testing.T) (*userconfig.Store, *countingBackend, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "user_configs.json")
	backend := &countingBackend{inner: userconfig.NewFileBackend(path)}

	store, err := userconfig.Open(context.Background(), backend, core.DefaultUserConfig(), newTestLogger(t))
	require.NoError(t, err)

	return store, backend, path
}

func reload(t *testing.T, path string) userconfig.Record {
	t.Helper()

	record, err := userconfig.NewFileBackend(path).Load(context.Background())
	require.NoError(t, err)

	return record
}

func TestStore_GetCreatesDefaultOnce(t *testing.T) {
	t.Parallel()

	store, backend, path := setupStore(t)
	ctx := context.Background()

	first, err := store.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultUserConfig(), first)

	second, err := store.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, int32(1), backend.saves.Load())
	assert.Equal(t, userconfig.Record{"42": core.DefaultUserConfig()}, reload(t, path))
}

func TestStore_ConcurrentFirstAccess(t *testing.T) {
	t.Parallel()

	store, backend, path := setupStore(t)
	ctx := context.Background()

	const workers = 32

	var waitGroup sync.WaitGroup

	results := make([]core.UserConfig, workers)

	for i := range workers {
		waitGroup.Add(1)

		go func() {
			defer waitGroup.Done()

			cfg, err := store.Get(ctx, "7")
			assert.NoError(t, err)

			results[i] = cfg
		}()
	}

	waitGroup.Wait()

	for _, cfg := range results {
		assert.Equal(t, core.DefaultUserConfig(), cfg)
	}

	assert.Equal(t, int32(1), backend.saves.Load())
	assert.Len(t, reload(t, path), 1)
}

func TestStore_ConcurrentSetsDifferentUsers(t *testing.T) {
	t.Parallel()

	store, _, path := setupStore(t)
	ctx := context.Background()

	const users = 16

	var waitGroup sync.WaitGroup

	for i := range users {
		waitGroup.Add(1)

		go func() {
			defer waitGroup.Done()

			_, err := store.Set(ctx, userconfig.UserID(int64(i)), userconfig.KeyFrequency, "880")
			assert.NoError(t, err)
		}()
	}

	waitGroup.Wait()

	record := reload(t, path)
	require.Len(t, record, users)

	for _, cfg := range record {
		assert.Equal(t, 880, cfg.FrequencyHz)
	}
}

func TestStore_Set(t *testing.T) {
	t.Parallel()

	store, _, path := setupStore(t)
	ctx := context.Background()

	updated, err := store.Set(ctx, "1", userconfig.KeyFrequency, "880")
	require.NoError(t, err)
	assert.Equal(t, 880, updated.FrequencyHz)

	cfg, err := store.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 880, cfg.FrequencyHz)
	assert.Equal(t, core.DefaultUserConfig().DotDurationMs, cfg.DotDurationMs)

	_, err = store.Set(ctx, "1", userconfig.KeyVolume, " -12.5 ")
	require.NoError(t, err)

	persisted := reload(t, path)["1"]
	assert.Equal(t, 880, persisted.FrequencyHz)
	assert.InDelta(t, -12.5, persisted.VolumeDb, 1e-9)
}

func TestStore_SetRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	store, backend, path := setupStore(t)
	ctx := context.Background()

	_, err := store.Set(ctx, "1", userconfig.KeyWordGap, "1500")
	require.NoError(t, err)

	before := reload(t, path)
	savesBefore := backend.saves.Load()

	testCases := []struct {
		name     string
		key      string
		value    string
		expected error
	}{
		{name: "non-numeric volume", key: userconfig.KeyVolume, value: "abc", expected: userconfig.ErrInvalidConfigValue},
		{name: "decimal duration", key: userconfig.KeyDotDuration, value: "1.5", expected: userconfig.ErrInvalidConfigValue},
		{name: "zero frequency", key: userconfig.KeyFrequency, value: "0", expected: userconfig.ErrInvalidConfigValue},
		{name: "negative word gap", key: userconfig.KeyWordGap, value: "-3", expected: userconfig.ErrInvalidConfigValue},
		{name: "infinite volume", key: userconfig.KeyVolume, value: "inf", expected: userconfig.ErrInvalidConfigValue},
		{name: "volume out of range", key: userconfig.KeyVolume, value: "500", expected: userconfig.ErrInvalidConfigValue},
		{name: "dot duration above limit", key: userconfig.KeyDotDuration, value: "60001", expected: userconfig.ErrInvalidConfigValue},
		{name: "huge dash duration", key: userconfig.KeyDashDuration, value: "1000000000000000", expected: userconfig.ErrInvalidConfigValue},
		{name: "huge word gap", key: userconfig.KeyWordGap, value: "100000000", expected: userconfig.ErrInvalidConfigValue},
		{name: "frequency above limit", key: userconfig.KeyFrequency, value: "20001", expected: userconfig.ErrInvalidConfigValue},
		{name: "unknown key", key: "bogus", value: "1", expected: userconfig.ErrInvalidConfigKey},
		{name: "wrong case key", key: "freq", value: "880", expected: userconfig.ErrInvalidConfigKey},
	}

	for _, testCase := range testCases {
		_, setErr := store.Set(ctx, "1", testCase.key, testCase.value)
		require.ErrorIs(t, setErr, testCase.expected, testCase.name)
	}

	cfg, err := store.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 1500, cfg.WordGapMs)
	assert.Equal(t, before, reload(t, path))
	assert.Equal(t, savesBefore, backend.saves.Load())
}

func TestStore_SetUnknownUserCreatesDefaults(t *testing.T) {
	t.Parallel()

	store, backend, path := setupStore(t)

	cfg, err := store.Set(context.Background(), "99", userconfig.KeyDashDuration, "250")
	require.NoError(t, err)

	expected := core.DefaultUserConfig()
	expected.DashDurationMs = 250

	assert.Equal(t, expected, cfg)
	assert.Equal(t, expected, reload(t, path)["99"])
	assert.Equal(t, int32(1), backend.saves.Load())
}

func TestStore_SetAcceptsLimits(t *testing.T) {
	t.Parallel()

	store, _, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.Set(ctx, "4", userconfig.KeyDotDuration, "60000")
	require.NoError(t, err)

	_, err = store.Set(ctx, "4", userconfig.KeyFrequency, "20000")
	require.NoError(t, err)

	cfg, err := store.Set(ctx, "4", userconfig.KeyVolume, "-120")
	require.NoError(t, err)

	assert.Equal(t, userconfig.MaxDurationMs, cfg.DotDurationMs)
	assert.Equal(t, userconfig.MaxFrequencyHz, cfg.FrequencyHz)
	assert.InDelta(t, -userconfig.MaxVolumeDb, cfg.VolumeDb, 1e-9)
}

func TestStore_RejectedSetForUnknownUserCreatesDefaults(t *testing.T) {
	t.Parallel()

	store, backend, path := setupStore(t)

	_, err := store.Set(context.Background(), "77", userconfig.KeyVolume, "abc")
	require.ErrorIs(t, err, userconfig.ErrInvalidConfigValue)

	assert.Equal(t, userconfig.Record{"77": core.DefaultUserConfig()}, reload(t, path))
	assert.Equal(t, int32(1), backend.saves.Load())
}

func TestStore_PersistenceFailureKeepsLastKnownGood(t *testing.T) {
	t.Parallel()

	store, backend, path := setupStore(t)
	ctx := context.Background()

	_, err := store.Set(ctx, "5", userconfig.KeyFrequency, "600")
	require.NoError(t, err)

	backend.failSaves.Store(true)

	_, err = store.Set(ctx, "5", userconfig.KeyFrequency, "700")
	require.ErrorIs(t, err, userconfig.ErrPersistence)
	require.ErrorIs(t, err, errMockSave)

	_, err = store.Get(ctx, "6")
	require.ErrorIs(t, err, userconfig.ErrPersistence)

	snapshot := store.Snapshot()
	assert.Equal(t, 600, snapshot["5"].FrequencyHz)
	assert.NotContains(t, snapshot, "6")

	backend.failSaves.Store(false)

	cfg, err := store.Get(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.FrequencyHz)
	assert.Equal(t, 600, reload(t, path)["5"].FrequencyHz)
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	store, _, _ := setupStore(t)
	ctx := context.Background()

	_, err := store.Set(ctx, "3", userconfig.KeyVolume, "-6.5")
	require.NoError(t, err)

	settings, err := store.List(ctx, "3")
	require.NoError(t, err)

	assert.Equal(t, []core.Setting{
		{Key: "dd", Value: "100"},
		{Key: "dashd", Value: "300"},
		{Key: "FREQ", Value: "440"},
		{Key: "VOL", Value: "-6.5"},
		{Key: "DBW", Value: "1000"},
	}, settings)
}

func TestStore_ReopenLoadsPersistedState(t *testing.T) {
	t.Parallel()

	store, _, path := setupStore(t)
	ctx := context.Background()

	_, err := store.Set(ctx, "8", userconfig.KeyDotDuration, "60")
	require.NoError(t, err)

	reopened, err := userconfig.Open(ctx, userconfig.NewFileBackend(path), core.DefaultUserConfig(), newTestLogger(t))
	require.NoError(t, err)

	cfg, err := reopened.Get(ctx, "8")
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.DotDurationMs)
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := userconfig.Open(context.Background(), userconfig.NewFileBackend(path), core.DefaultUserConfig(), newTestLogger(t))
	require.ErrorIs(t, err, userconfig.ErrPersistence)

	badDefaults := core.DefaultUserConfig()
	badDefaults.DotDurationMs = 0

	_, err = userconfig.Open(
		context.Background(),
		userconfig.NewFileBackend(filepath.Join(t.TempDir(), "ok.json")),
		badDefaults,
		newTestLogger(t),
	)
	require.ErrorIs(t, err, userconfig.ErrInvalidConfigValue)
}

func TestOpen_RepairsInvalidStoredEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "user_configs.json")
	stored := `{
		"1": {"dd": 0, "dashd": 250, "FREQ": -5, "VOL": -3, "DBW": 1000},
		"2": {"dashd": 400},
		"3": {"dd": 1000000000000000, "dashd": 300, "FREQ": 440, "VOL": -10, "DBW": 1000}
	}`
	require.NoError(t, os.WriteFile(path, []byte(stored), 0o600))

	store, err := userconfig.Open(context.Background(), userconfig.NewFileBackend(path), core.DefaultUserConfig(), newTestLogger(t))
	require.NoError(t, err)

	snapshot := store.Snapshot()

	assert.Equal(t, core.UserConfig{
		DotDurationMs:  100,
		DashDurationMs: 250,
		FrequencyHz:    440,
		VolumeDb:       -3,
		WordGapMs:      1000,
	}, snapshot["1"])

	// A missing VOL decodes as 0 dB, which is a valid value.
	assert.Equal(t, core.UserConfig{
		DotDurationMs:  100,
		DashDurationMs: 400,
		FrequencyHz:    440,
		VolumeDb:       0,
		WordGapMs:      1000,
	}, snapshot["2"])

	assert.Equal(t, core.DefaultUserConfig(), snapshot["3"])

	for userID, cfg := range snapshot {
		require.NoError(t, userconfig.Validate(cfg), userID)
	}
}

func TestUserID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "123456789", userconfig.UserID(123456789))
	assert.Equal(t, "-100", userconfig.UserID(-100))
}
