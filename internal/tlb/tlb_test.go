package tlb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTLB_CapacityZeroNeverHits(t *testing.T) {
	c := New(0)
	c.Update(1, 10, true, true, true)
	_, ok := c.Lookup(1)
	require.False(t, ok)
	require.Equal(t, 0, c.Len())
}

func TestTLB_UpdateThenLookupHits(t *testing.T) {
	c := New(2)
	c.Update(1, 10, true, true, true)

	e, ok := c.Lookup(1)
	require.True(t, ok)
	require.EqualValues(t, 10, e.PFN)
}

func TestTLB_LRUEvictsOldest(t *testing.T) {
	c := New(2)
	c.Update(1, 10, true, true, true)
	c.Update(2, 20, true, true, true)

	// Touch 1 so it becomes the most recently used.
	_, ok := c.Lookup(1)
	require.True(t, ok)

	// Inserting a third entry evicts 2 (the least recently used).
	c.Update(3, 30, true, true, true)

	_, ok = c.Lookup(2)
	require.False(t, ok)

	_, ok = c.Lookup(1)
	require.True(t, ok)
	_, ok = c.Lookup(3)
	require.True(t, ok)
}

func TestTLB_DeleteRemovesEntry(t *testing.T) {
	c := New(2)
	c.Update(1, 10, true, true, true)
	c.Delete(1)

	_, ok := c.Lookup(1)
	require.False(t, ok)

	// Deleting an absent key is a no-op.
	c.Delete(99)
}

func TestTLB_FlushTwiceStaysEmpty(t *testing.T) {
	c := New(4)
	c.Update(1, 10, true, true, true)
	c.Flush()
	require.Equal(t, 0, c.Len())

	c.Flush()
	require.Equal(t, 0, c.Len())
}

func TestTLB_UpdateOverwritesExistingEntry(t *testing.T) {
	c := New(2)
	c.Update(1, 10, true, true, true)
	c.Update(1, 11, false, false, false)

	e, ok := c.Lookup(1)
	require.True(t, ok)
	require.EqualValues(t, 11, e.PFN)
	require.Equal(t, 1, c.Len())
}
