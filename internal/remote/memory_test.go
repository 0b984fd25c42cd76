package remote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	body := []byte("sealed")
	require.NoError(t, m.Put(ctx, "b1", "manifest", body))

	// stored bytes are a copy
	body[0] = 'X'

	got, err := m.Get(ctx, "b1", "manifest")
	require.NoError(t, err)
	assert.Equal(t, "sealed", string(got))

	_, err = m.Get(ctx, "b2", "manifest")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	require.NoError(t, m.Delete(ctx, "b1", "manifest"))
	require.NoError(t, m.Delete(ctx, "b1", "manifest"))

	_, err = m.Get(ctx, "b1", "manifest")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestMemoryStore_ListSortedByPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	for _, p := range []string{"chunks/envelopes/1", "chunks/envelopes/0", "chunks/bills/0", "manifest"} {
		require.NoError(t, m.Put(ctx, "b1", p, []byte("x")))
	}
	require.NoError(t, m.Put(ctx, "other", "chunks/envelopes/5", []byte("x")))

	paths, err := m.List(ctx, "b1", "chunks/envelopes/")
	require.NoError(t, err)
	assert.Equal(t, []string{"chunks/envelopes/0", "chunks/envelopes/1"}, paths)

	all, err := m.List(ctx, "b1", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := m.List(ctx, "empty", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_InvalidAddress(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	assert.ErrorIs(t, m.Put(ctx, "", "manifest", nil), ErrEmptyBudgetID)
	assert.ErrorIs(t, m.Put(ctx, "b1", "", nil), ErrEmptyPath)
	_, err := m.List(ctx, "", "")
	assert.ErrorIs(t, err, ErrEmptyBudgetID)
}

func TestMemoryStore_PingHonoursContext(t *testing.T) {
	m := NewMemoryStore()
	assert.NoError(t, m.Ping(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Ping(ctx), context.Canceled)
}
