package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julescmay/machina/pkg/adapters/memory"
	"github.com/julescmay/machina/pkg/flow"
	"github.com/julescmay/machina/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, memory.New())
}

func TestMemoryStore_CopiesOnSave(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	snap := &flow.Snapshot{Flow: "f", Current: "a", Flags: map[string]bool{"x": true}}
	require.NoError(t, store.Save(ctx, "s", snap))

	// Mutating the caller's snapshot must not leak into the store.
	snap.Current = "b"
	snap.Flags["y"] = true

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.Current)
	assert.Equal(t, map[string]bool{"x": true}, loaded.Flags)
}
