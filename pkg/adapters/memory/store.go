// Package memory provides an in-process SnapshotStore, the default for the
// serve command and for tests.
package memory

import (
	"context"
	"sync"

	"github.com/julescmay/machina/pkg/flow"
)

// Store implements ports.SnapshotStore in memory. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string]flow.Snapshot
}

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[string]flow.Snapshot)}
}

// Save stores a copy of the snapshot.
func (s *Store) Save(ctx context.Context, sessionID string, snap *flow.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *snap
	copied.Flags = make(map[string]bool, len(snap.Flags))
	for f, v := range snap.Flags {
		copied.Flags[f] = v
	}
	s.data[sessionID] = copied
	return nil
}

// Load returns a copy of the stored snapshot.
func (s *Store) Load(ctx context.Context, sessionID string) (*flow.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[sessionID]
	if !ok {
		return nil, flow.ErrSnapshotNotFound
	}
	copied := snap
	copied.Flags = make(map[string]bool, len(snap.Flags))
	for f, v := range snap.Flags {
		copied.Flags[f] = v
	}
	return &copied, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the known session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
