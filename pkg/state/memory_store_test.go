package state_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-entities/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTripAndIsolation(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	ref := state.ModuleRef("counter")

	_, _, ok, err := store.Load(ctx, ref)
	require.NoError(t, err)
	assert.False(t, ok)

	snapshot := cooldownSnapshot(t, 3, 9)
	saved, err := store.Save(ctx, ref, snapshot, state.Meta{SnapshotID: "s1", Extra: map[string]string{"by": "editor"}})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ETag)

	snapshot.Descriptor[0] = 'X'
	loaded, meta, ok, err := store.Load(ctx, ref)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, loaded.Equal(cooldownSnapshot(t, 3, 9)), "stored snapshot must not alias the caller's buffer")
	assert.Equal(t, "s1", meta.SnapshotID)

	meta.Extra["by"] = "mutated"
	_, again, _, err := store.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "editor", again.Extra["by"])
}

func TestMemoryStoreRejectsStaleETag(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	ref := state.MainRef()

	first, err := store.Save(ctx, ref, cooldownSnapshot(t, 1, 1), state.Meta{})
	require.NoError(t, err)
	_, err = store.Save(ctx, ref, cooldownSnapshot(t, 2, 2), state.Meta{ETag: first.ETag})
	require.NoError(t, err)

	_, err = store.Save(ctx, ref, cooldownSnapshot(t, 3, 3), state.Meta{ETag: first.ETag})
	require.ErrorIs(t, err, state.ErrETagMismatch)

	require.NoError(t, store.Delete(ctx, ref))
	_, _, ok, err := store.Load(ctx, ref)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreRejectsInvalidRefs(t *testing.T) {
	store := state.NewMemoryStore()
	_, _, _, err := store.Load(context.Background(), state.Ref{Namespace: "nope"})
	require.Error(t, err)
	_, err = store.Save(context.Background(), state.ModuleRef(""), cooldownSnapshot(t, 0, 0), state.Meta{})
	require.Error(t, err)
}
