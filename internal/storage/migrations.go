package storage

import (
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

// Migration is one forward-only schema step. Up runs inside the same write
// transaction that records the new version, so a failed step leaves no trace.
type Migration struct {
	Version uint64
	Name    string
	Up      func(tx *bbolt.Tx) error
}

// Migrations is the ordered schema history of the local database.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create_settings",
		Up: func(tx *bbolt.Tx) error {
			settings, err := tx.CreateBucketIfNotExists([]byte(SettingsBucket))
			if err != nil {
				return err
			}
			if settings.Get([]byte(InstalledAtKey)) != nil {
				return nil
			}
			return settings.Put([]byte(InstalledAtKey), []byte(time.Now().UTC().Format(time.RFC3339)))
		},
	},
	{
		Version: 2,
		Name:    "create_runs",
		Up: func(tx *bbolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists([]byte(RunsBucket))
			return err
		},
	},
}

// LatestSchemaVersion is the version a fully migrated database reports.
func LatestSchemaVersion() uint64 {
	var latest uint64
	for _, m := range Migrations {
		if m.Version > latest {
			latest = m.Version
		}
	}
	return latest
}

// ApplyPending applies every migration newer than the recorded schema version,
// in version order, one transaction per migration. Running it against an
// up-to-date database is a no-op. It returns the number of steps applied.
func (b *BoltDB) ApplyPending(migrations []Migration) (int, error) {
	ordered := make([]Migration, len(migrations))
	copy(ordered, migrations)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	for i := 1; i < len(ordered); i++ {
		if ordered[i].Version == ordered[i-1].Version {
			return 0, fmt.Errorf("duplicate migration version %d", ordered[i].Version)
		}
	}

	current, err := b.GetSchemaVersion()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range ordered {
		if m.Version <= current {
			continue
		}

		err := b.db.Update(func(tx *bbolt.Tx) error {
			meta, err := tx.CreateBucketIfNotExists([]byte(MetaBucket))
			if err != nil {
				return err
			}
			history, err := tx.CreateBucketIfNotExists([]byte(MigrationsBucket))
			if err != nil {
				return err
			}

			if err := m.Up(tx); err != nil {
				return err
			}

			record := &MigrationRecord{Version: m.Version, Name: m.Name, AppliedAt: time.Now().UTC()}
			data, err := record.MarshalBinary()
			if err != nil {
				return err
			}
			if err := history.Put(itob(m.Version), data); err != nil {
				return err
			}
			return meta.Put([]byte(SchemaVersionKey), itob(m.Version))
		})
		if err != nil {
			return applied, fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}

		b.logger.Infow("Applied migration", "version", m.Version, "name", m.Name)
		current = m.Version
		applied++
	}

	return applied, nil
}

// AppliedMigrations lists the recorded migration history in version order.
func (b *BoltDB) AppliedMigrations() ([]MigrationRecord, error) {
	var records []MigrationRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(MigrationsBucket))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var r MigrationRecord
			if err := r.UnmarshalBinary(v); err != nil {
				return err
			}
			records = append(records, r)
			return nil
		})
	})
	return records, err
}
