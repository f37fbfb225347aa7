package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julescmay/machina/pkg/flow"
)

// RunSnapshotStoreContract verifies a SnapshotStore implementation against
// the behavior every adapter must share. Call it from the adapter's own
// test with a freshly initialized, empty store.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	snap := &flow.Snapshot{
		Flow:      "wizard",
		Current:   "keyroom",
		Flags:     map[string]bool{"has_key": true},
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}

	t.Run("LoadMissing", func(t *testing.T) {
		_, err := store.Load(ctx, "ghost")
		require.ErrorIs(t, err, flow.ErrSnapshotNotFound)
	})

	t.Run("SaveLoad", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "sess-1", snap))

		loaded, err := store.Load(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, snap.Flow, loaded.Flow)
		assert.Equal(t, snap.Current, loaded.Current)
		assert.Equal(t, snap.Flags, loaded.Flags)
	})

	t.Run("Overwrite", func(t *testing.T) {
		second := &flow.Snapshot{Flow: "wizard", Current: "vault", UpdatedAt: time.Now().UTC()}
		require.NoError(t, store.Save(ctx, "sess-1", second))

		loaded, err := store.Load(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, "vault", loaded.Current)
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "sess-2", snap))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, "sess-1")
		assert.Contains(t, ids, "sess-2")
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "sess-1"))

		_, err := store.Load(ctx, "sess-1")
		require.ErrorIs(t, err, flow.ErrSnapshotNotFound)

		// Deleting twice is fine.
		require.NoError(t, store.Delete(ctx, "sess-1"))
	})
}
