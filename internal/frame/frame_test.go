package frame

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakfield/vmemsim/internal/simerr"
)

func TestManager_AllocateFIFOOrder(t *testing.T) {
	m := NewManager(3)
	require.EqualValues(t, 3, m.TotalFrames())
	require.EqualValues(t, 3, m.FreeCount())

	f0, ok := m.Allocate()
	require.True(t, ok)
	require.EqualValues(t, 0, f0)

	f1, ok := m.Allocate()
	require.True(t, ok)
	require.EqualValues(t, 1, f1)

	require.EqualValues(t, 1, m.FreeCount())
}

func TestManager_AllocateExhausted(t *testing.T) {
	m := NewManager(1)
	_, ok := m.Allocate()
	require.True(t, ok)

	_, ok = m.Allocate()
	require.False(t, ok)
}

func TestManager_FreeReturnsFrameToQueue(t *testing.T) {
	m := NewManager(2)
	f, _ := m.Allocate()
	require.NoError(t, m.Free(f))
	require.EqualValues(t, 2, m.FreeCount())

	// Freed frame is reusable: it rejoins the back of the FIFO queue, so the
	// still-free frame 1 is handed out first, then the freed frame.
	got, ok := m.Allocate()
	require.True(t, ok)
	require.EqualValues(t, 1, got)

	got, ok = m.Allocate()
	require.True(t, ok)
	require.Equal(t, f, got)
}

func TestManager_FreeOutOfRange(t *testing.T) {
	m := NewManager(2)
	err := m.Free(5)
	require.ErrorIs(t, err, simerr.ErrInvalidFrame)
}

func TestManager_FrameUniquenessAcrossLifecycle(t *testing.T) {
	m := NewManager(4)
	seen := make(map[uint32]int)
	for i := 0; i < 4; i++ {
		f, ok := m.Allocate()
		require.True(t, ok)
		seen[f]++
	}
	require.Len(t, seen, 4)
	for _, count := range seen {
		require.Equal(t, 1, count)
	}
}
