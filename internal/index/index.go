package index

import "github.com/starford/jotbox/internal/metadata"

// Verify *DB satisfies metadata.Store at compile time.
var _ metadata.Store = (*DB)(nil)
