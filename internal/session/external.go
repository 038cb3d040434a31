package session

import (
	"context"
	"time"
)

// External is the fixed contract for a secondary session-persistence
// collaborator. Implementations are discovered at construction time and
// wired through Options.External; the store never probes for methods at
// runtime. All calls are best-effort from the store's point of view.
type External interface {
	// Allocate registers a session key with the collaborator and returns the
	// collaborator's own id for it.
	Allocate(ctx context.Context, key string, ttl time.Duration, metadata map[string]string) (string, error)

	// Validate reports whether the collaborator still considers key live.
	Validate(ctx context.Context, key string) (bool, error)

	// Delete removes key from the collaborator. Deleting an unknown key is
	// not an error.
	Delete(ctx context.Context, key string) error
}
