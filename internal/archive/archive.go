// Package archive persists raw ShipStation fetch payloads for audit and
// replay. Archiving is best-effort: a failed write is logged by callers and
// never fails a sync pass.
package archive

import (
	"context"
	"fmt"
	"time"
)

// Archiver stores raw payloads under a source-scoped key.
type Archiver interface {
	// Store persists one payload for the given source identifier.
	Store(ctx context.Context, sourceIdentifier string, payload []byte) error
}

// Key builds the object key for one fetch payload.
func Key(prefix, sourceIdentifier string, at time.Time) string {
	return fmt.Sprintf("%s%s/%s.json", prefix, sourceIdentifier, at.UTC().Format("20060102T150405Z"))
}

// noopArchiver discards payloads. Used when archiving is disabled or the S3
// archiver could not be initialised.
type noopArchiver struct{}

// NewNoopArchiver creates an archiver that discards everything.
func NewNoopArchiver() Archiver {
	return &noopArchiver{}
}

// Store discards the payload.
func (a *noopArchiver) Store(ctx context.Context, sourceIdentifier string, payload []byte) error {
	return nil
}
