package store

import dErrors "agripass/pkg/domain-errors"

var (
	// ErrNotFound keeps storage-specific lookups consistent across the
	// in-memory and Postgres implementations.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "passport not found")

	// ErrDuplicateToken reports a create racing on an already-persisted
	// token. Callers must never silently overwrite an existing record.
	ErrDuplicateToken = dErrors.New(dErrors.CodeConflict, "passport token already exists")
)
