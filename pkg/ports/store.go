package ports

import (
	"context"

	"github.com/julescmay/machina/pkg/flow"
)

// SnapshotStore persists machine positions keyed by session ID, enabling
// stop-and-resume runs.
type SnapshotStore interface {
	// Save persists the snapshot for a session ID.
	Save(ctx context.Context, sessionID string, snap *flow.Snapshot) error

	// Load retrieves the snapshot for a session ID. Returns
	// flow.ErrSnapshotNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*flow.Snapshot, error)

	// Delete removes the snapshot for a session ID. Deleting an unknown
	// session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the known session IDs.
	List(ctx context.Context) ([]string, error)
}
