package pointcloud

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueuePopsHighestFirst(t *testing.T) {
	q := NewQueue()
	q.Push(1, 5)
	q.Push(2, 10)
	q.Push(3, 1)

	id, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, int32(2), id, "expected id 2 (z=10) to pop first")

	id, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, int32(1), id, "expected id 1 (z=5) to pop second")

	id, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, int32(3), id, "expected id 3 (z=1) to pop third")

	require.True(t, q.Empty(), "queue should be empty after popping all entries")
}

func TestQueueRemove(t *testing.T) {
	q := NewQueue()
	q.Push(1, 5)
	q.Push(2, 10)

	require.True(t, q.Remove(2), "expected Remove to report success for a queued id")
	require.False(t, q.Contains(2), "id 2 should no longer be contained after Remove")
	require.False(t, q.Remove(2), "removing an already-removed id should report false")

	id, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, int32(1), id, "expected remaining id 1 to pop")
}
