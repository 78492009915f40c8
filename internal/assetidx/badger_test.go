package assetidx

import (
	"context"
	"testing"

	"github.com/quantmind-br/pagesync-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *BadgerIndex {
	t.Helper()
	idx, err := New(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestLookup_Miss(t *testing.T) {
	idx := newTestIndex(t)

	_, err := idx.Lookup(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, domain.ErrIndexMiss)
}

func TestRecordAndLookup(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Record(ctx, "deadbeef", "deadbeef.webp"))

	key, err := idx.Lookup(ctx, "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef.webp", key)
}

func TestRecord_Overwrite(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Record(ctx, "cafe", "cafe.png"))
	require.NoError(t, idx.Record(ctx, "cafe", "cafe.webp"))

	key, err := idx.Lookup(ctx, "cafe")
	require.NoError(t, err)
	assert.Equal(t, "cafe.webp", key)
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := New(Options{Directory: dir})
	require.NoError(t, err)
	require.NoError(t, idx.Record(ctx, "feed", "feed.webp"))
	require.NoError(t, idx.Close())

	reopened, err := New(Options{Directory: dir})
	require.NoError(t, err)
	defer reopened.Close()

	key, err := reopened.Lookup(ctx, "feed")
	require.NoError(t, err)
	assert.Equal(t, "feed.webp", key)
}
