package storage

import (
	"encoding/json"
	"time"
)

// Bucket names for bbolt database
const (
	MetaBucket       = "meta"
	MigrationsBucket = "migrations"
	SettingsBucket   = "settings"
	RunsBucket       = "runs"
)

// Meta and settings keys
const (
	SchemaVersionKey = "schema"
	InstalledAtKey   = "installed_at"
	LastVersionKey   = "last_version"
)

// MigrationRecord is stored under the migration's big-endian version key.
type MigrationRecord struct {
	Version   uint64    `json:"version"`
	Name      string    `json:"name"`
	AppliedAt time.Time `json:"applied_at"`
}

// RunRecord describes one server lifetime.
type RunRecord struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
}

// MarshalBinary implements encoding.BinaryMarshaler
func (r *MigrationRecord) MarshalBinary() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (r *MigrationRecord) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, r)
}

// MarshalBinary implements encoding.BinaryMarshaler
func (r *RunRecord) MarshalBinary() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (r *RunRecord) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, r)
}
