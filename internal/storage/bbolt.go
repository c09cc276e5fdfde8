package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	bolterrors "go.etcd.io/bbolt/errors"
	"go.uber.org/zap"
)

// DefaultOpenTimeout bounds how long Open waits for the file lock held by
// another running instance.
const DefaultOpenTimeout = 5 * time.Second

// ErrLocked is returned when another process holds the database.
var ErrLocked = errors.New("database is locked by another process")

// BoltDB wraps bolt database operations
type BoltDB struct {
	db     *bbolt.DB
	path   string
	logger *zap.SugaredLogger
}

// Open creates dir if needed and opens (or creates) the named database file
// inside it. Buckets are created by migrations, not here.
func Open(dir, filename string, timeout time.Duration, logger *zap.SugaredLogger) (*BoltDB, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	if timeout <= 0 {
		timeout = DefaultOpenTimeout
	}

	dbPath := filepath.Join(dir, filename)
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		if errors.Is(err, bolterrors.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, dbPath)
		}
		return nil, fmt.Errorf("failed to open bolt database %s: %w", dbPath, err)
	}

	logger.Debugw("Opened database", "path", dbPath)
	return &BoltDB{db: db, path: dbPath, logger: logger}, nil
}

// Path returns the database file path
func (b *BoltDB) Path() string {
	return b.path
}

// Close closes the database
func (b *BoltDB) Close() error {
	return b.db.Close()
}

// GetSchemaVersion returns the recorded schema version, 0 for a fresh file.
func (b *BoltDB) GetSchemaVersion() (uint64, error) {
	var version uint64
	err := b.db.View(func(tx *bbolt.Tx) error {
		version = schemaVersion(tx)
		return nil
	})
	return version, err
}

func schemaVersion(tx *bbolt.Tx) uint64 {
	bucket := tx.Bucket([]byte(MetaBucket))
	if bucket == nil {
		return 0
	}
	versionBytes := bucket.Get([]byte(SchemaVersionKey))
	if len(versionBytes) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(versionBytes)
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// getSetting reads a value from the settings bucket.
func (b *BoltDB) getSetting(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(SettingsBucket))
		if bucket == nil {
			return fmt.Errorf("settings bucket not found")
		}
		if v := bucket.Get([]byte(key)); v != nil {
			value, found = string(v), true
		}
		return nil
	})
	return value, found, err
}

// putSetting writes a value to the settings bucket.
func (b *BoltDB) putSetting(key, value string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(SettingsBucket))
		if bucket == nil {
			return fmt.Errorf("settings bucket not found")
		}
		return bucket.Put([]byte(key), []byte(value))
	})
}

// InstalledAt returns when the database was first migrated.
func (b *BoltDB) InstalledAt() (time.Time, error) {
	value, found, err := b.getSetting(InstalledAtKey)
	if err != nil {
		return time.Time{}, err
	}
	if !found {
		return time.Time{}, fmt.Errorf("%s not recorded", InstalledAtKey)
	}
	return time.Parse(time.RFC3339, value)
}

// RecordVersion stores version as the last version that ran against this
// database and returns the one it replaces, or "" on first run.
func (b *BoltDB) RecordVersion(version string) (string, error) {
	previous, _, err := b.getSetting(LastVersionKey)
	if err != nil {
		return "", err
	}
	if previous == version {
		return previous, nil
	}
	if err := b.putSetting(LastVersionKey, version); err != nil {
		return "", err
	}
	return previous, nil
}
