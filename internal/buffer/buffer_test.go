package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/five82/trawl/internal/hub"
)

func ids(entries []hub.Entry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func batch(idList ...int64) []hub.Entry {
	out := make([]hub.Entry, len(idList))
	for i, id := range idList {
		out[i] = hub.Entry{ID: id}
	}
	return out
}

func requireOrdered(t *testing.T, b *Buffer) {
	t.Helper()
	entries := b.Entries()
	for i := 1; i < len(entries); i++ {
		require.Greater(t, entries[i].ID, entries[i-1].ID, "ids must be strictly ascending at %d", i)
	}
}

func TestBuffer_AppendOrdersAndRejectsRegression(t *testing.T) {
	t.Parallel()

	b := New(10)
	require.True(t, b.Empty())
	require.Equal(t, int64(-1), b.LeftOffBottom())

	for _, id := range []int64{3, 5, 9} {
		evicted, err := b.Append(hub.Entry{ID: id})
		require.NoError(t, err)
		require.Nil(t, evicted)
	}
	require.Equal(t, []int64{3, 5, 9}, ids(b.Entries()))
	require.Equal(t, int64(9), b.LeftOffBottom())

	_, err := b.Append(hub.Entry{ID: 9})
	require.ErrorIs(t, err, ErrOrderViolation)
	_, err = b.Append(hub.Entry{ID: 4})
	require.ErrorIs(t, err, ErrOrderViolation)
	require.Equal(t, []int64{3, 5, 9}, ids(b.Entries()))
}

func TestBuffer_AppendBeyondCapacityEvictsOneHeadPerAppend(t *testing.T) {
	t.Parallel()

	b := New(3)
	for id := int64(1); id <= 3; id++ {
		evicted, err := b.Append(hub.Entry{ID: id})
		require.NoError(t, err)
		require.Nil(t, evicted)
	}

	for id := int64(4); id <= 8; id++ {
		evicted, err := b.Append(hub.Entry{ID: id})
		require.NoError(t, err)
		require.NotNil(t, evicted)
		require.Equal(t, id-3, evicted.ID)
		require.Equal(t, 3, b.Len())
		requireOrdered(t, b)
	}
	require.Equal(t, []int64{6, 7, 8}, ids(b.Entries()))
}

func TestBuffer_DefaultCapacityBound(t *testing.T) {
	t.Parallel()

	b := New(0)
	require.Equal(t, DefaultCapacity, b.Capacity())

	evictions := 0
	for id := int64(1); id <= DefaultCapacity+250; id++ {
		evicted, err := b.Append(hub.Entry{ID: id})
		require.NoError(t, err)
		if evicted != nil {
			evictions++
		}
		require.LessOrEqual(t, b.Len(), DefaultCapacity)
	}
	require.Equal(t, 250, evictions)
	head, ok := b.Head()
	require.True(t, ok)
	require.Equal(t, int64(251), head.ID)
	requireOrdered(t, b)
}

func TestBuffer_PrependBatch(t *testing.T) {
	t.Parallel()

	t.Run("into empty buffer", func(t *testing.T) {
		t.Parallel()
		b := New(10)
		require.NoError(t, b.PrependBatch(batch(39, 40, 41)))
		require.Equal(t, []int64{39, 40, 41}, ids(b.Entries()))
	})

	t.Run("below head", func(t *testing.T) {
		t.Parallel()
		b := New(10)
		_, err := b.Append(hub.Entry{ID: 50})
		require.NoError(t, err)
		require.NoError(t, b.PrependBatch(batch(10, 20, 49)))
		require.Equal(t, []int64{10, 20, 49, 50}, ids(b.Entries()))
	})

	t.Run("rejects max id at or above head", func(t *testing.T) {
		t.Parallel()
		b := New(10)
		_, err := b.Append(hub.Entry{ID: 50})
		require.NoError(t, err)
		require.ErrorIs(t, b.PrependBatch(batch(48, 50)), ErrOrderViolation)
		require.ErrorIs(t, b.PrependBatch(batch(49, 60)), ErrOrderViolation)
		require.Equal(t, []int64{50}, ids(b.Entries()))
	})

	t.Run("rejects unordered batch", func(t *testing.T) {
		t.Parallel()
		b := New(10)
		require.ErrorIs(t, b.PrependBatch(batch(3, 2, 1)), ErrOrderViolation)
		require.ErrorIs(t, b.PrependBatch(batch(1, 1)), ErrOrderViolation)
		require.True(t, b.Empty())
	})

	t.Run("is not capped", func(t *testing.T) {
		t.Parallel()
		b := New(2)
		_, err := b.Append(hub.Entry{ID: 100})
		require.NoError(t, err)
		require.NoError(t, b.PrependBatch(batch(1, 2, 3, 4)))
		require.Equal(t, 5, b.Len())
	})
}

func TestBuffer_IndexAndGet(t *testing.T) {
	t.Parallel()

	b := New(10)
	require.NoError(t, b.PrependBatch(batch(2, 4, 6, 8)))

	require.Equal(t, 0, b.Index(2))
	require.Equal(t, 3, b.Index(8))
	require.Equal(t, -1, b.Index(5))
	require.Equal(t, -1, b.Index(100))

	e, ok := b.Get(2)
	require.True(t, ok)
	require.Equal(t, int64(6), e.ID)
	_, ok = b.Get(4)
	require.False(t, ok)

	entries := b.Entries()
	entries[0].ID = 999
	head, _ := b.Head()
	require.Equal(t, int64(2), head.ID, "Entries must return a copy")

	b.Reset()
	require.True(t, b.Empty())
	_, ok = b.Tail()
	require.False(t, ok)
}

func TestBuffer_ViewIsStableAcrossMutation(t *testing.T) {
	t.Parallel()

	b := New(3)
	for id := int64(1); id <= 3; id++ {
		_, err := b.Append(hub.Entry{ID: id})
		require.NoError(t, err)
	}
	view := b.View()
	require.Equal(t, []int64{1, 2, 3}, ids(view))

	_, err := b.Append(hub.Entry{ID: 4})
	require.NoError(t, err)
	_, err = b.Append(hub.Entry{ID: 5})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, ids(view))
	require.Equal(t, []int64{3, 4, 5}, ids(b.View()))

	require.NoError(t, b.PrependBatch(batch(1, 2)))
	require.Equal(t, []int64{1, 2, 3}, ids(view))
	require.Equal(t, []int64{1, 2, 3, 4, 5}, ids(b.View()))

	require.Len(t, append(view, hub.Entry{ID: 99}), 4)
	require.Equal(t, []int64{1, 2, 3, 4, 5}, ids(b.View()), "appending to a view must not touch the buffer")
}
