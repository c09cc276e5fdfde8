package observability

import (
	"errors"
	"fmt"
)

var errDatabaseNil = errors.New("database is nil")

// SchemaBehindError is reported when pending migrations were not applied.
type SchemaBehindError struct {
	Have uint64
	Want uint64
}

func (e *SchemaBehindError) Error() string {
	return fmt.Sprintf("schema version %d is behind %d", e.Have, e.Want)
}
