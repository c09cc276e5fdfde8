package storage

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.etcd.io/bbolt"
)

// RecordRun stores a server lifetime keyed by a time-ordered ULID.
func (b *BoltDB) RecordRun(address, version string, startedAt time.Time) (*RunRecord, error) {
	id := ulid.MustNew(ulid.Timestamp(startedAt), ulid.DefaultEntropy())
	record := &RunRecord{
		ID:        id.String(),
		Address:   address,
		Version:   version,
		StartedAt: startedAt.UTC(),
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(RunsBucket))
		if bucket == nil {
			return fmt.Errorf("runs bucket not found")
		}
		data, err := record.MarshalBinary()
		if err != nil {
			return err
		}
		return bucket.Put(id[:], data)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// LastRun returns the most recent run, or nil when none has been recorded.
func (b *BoltDB) LastRun() (*RunRecord, error) {
	var record *RunRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(RunsBucket))
		if bucket == nil {
			return fmt.Errorf("runs bucket not found")
		}
		_, v := bucket.Cursor().Last()
		if v == nil {
			return nil
		}
		record = &RunRecord{}
		return record.UnmarshalBinary(v)
	})
	return record, err
}

// CountRuns returns how many server lifetimes have been recorded.
func (b *BoltDB) CountRuns() (int, error) {
	var n int
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(RunsBucket))
		if bucket == nil {
			return fmt.Errorf("runs bucket not found")
		}
		n = bucket.Stats().KeyN
		return nil
	})
	return n, err
}
