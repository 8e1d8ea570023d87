package userconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nats-io/nats.go"
)

const (
	fileMode       = 0o600
	dirPermissions = 0o750
)

// Backend reads and rewrites the full persisted record.
type Backend interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, record Record) error
}

// FileBackend stores the record as a JSON file, replaced atomically on save.
type FileBackend struct {
	path string
}

// NewFileBackend creates a FileBackend for path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Load reads the record. A missing file yields an empty record.
func (f *FileBackend) Load(_ context.Context) (Record, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, nil
		}

		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	return Unmarshal(data)
}

// Save writes the record to a temp file in the same directory and renames it over the target.
func (f *FileBackend) Save(_ context.Context, record Record) error {
	data, err := Marshal(record)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)

	err = os.MkdirAll(dir, dirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}

	tempPath := tempFile.Name()

	_, writeErr := tempFile.Write(data)
	syncErr := tempFile.Sync()
	closeErr := tempFile.Close()

	err = errors.Join(writeErr, syncErr, closeErr)
	if err == nil {
		err = os.Chmod(tempPath, fileMode)
	}

	if err == nil {
		err = os.Rename(tempPath, f.path)
	}

	if err != nil {
		_ = os.Remove(tempPath)

		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}

	return nil
}

// KVBackend stores the record under a single key of a JetStream key-value bucket.
type KVBackend struct {
	kv  nats.KeyValue
	key string
}

// NewKVBackend binds to bucketName, creating it if it does not exist yet.
func NewKVBackend(jetstreamContext nats.JetStreamContext, bucketName, key string) (*KVBackend, error) {
	kv, err := jetstreamContext.KeyValue(bucketName)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = jetstreamContext.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      bucketName,
			Description: "Per-user Morse audio settings.",
			History:     1,
			Storage:     nats.FileStorage,
			Replicas:    1,
		})
	}

	if err != nil {
		return nil, fmt.Errorf("failed to bind key-value bucket '%s': %w", bucketName, err)
	}

	return &KVBackend{kv: kv, key: key}, nil
}

// Load reads the record. A missing key yields an empty record.
func (b *KVBackend) Load(_ context.Context) (Record, error) {
	entry, err := b.kv.Get(b.key)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return Record{}, nil
		}

		return nil, fmt.Errorf("failed to get key '%s': %w", b.key, err)
	}

	return Unmarshal(entry.Value())
}

// Save replaces the stored record.
func (b *KVBackend) Save(_ context.Context, record Record) error {
	data, err := Marshal(record)
	if err != nil {
		return err
	}

	_, err = b.kv.Put(b.key, data)
	if err != nil {
		return fmt.Errorf("failed to put key '%s': %w", b.key, err)
	}

	return nil
}
