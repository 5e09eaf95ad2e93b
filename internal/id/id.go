// Package id mints identifiers for persisted entities.
package id

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// New returns a fresh entity ID.
func New() string {
	return uuid.NewString()
}

// BatchRef returns a human-readable import batch reference like
// "IMP-20250205-3f2a". Batches also carry a full ID from New; the ref is
// what operators see in notes and logs.
func BatchRef(t time.Time) string {
	return fmt.Sprintf("IMP-%s-%s", t.Format("20060102"), uuid.NewString()[:4])
}
