package process

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakfield/vmemsim/internal/pagetable"
)

func newTestProcess(maxFrames uint32) *Process {
	pt := pagetable.New(32, 12)
	return New(1, pt, maxFrames)
}

func TestProcess_AllocationQuota(t *testing.T) {
	p := newTestProcess(4)
	require.EqualValues(t, 4, p.AllocationQuota())

	p.AllocateMemory([]uint32{10, 11})
	require.EqualValues(t, 2, p.AllocatedFrames())
	require.EqualValues(t, 2, p.AllocationQuota())
}

func TestProcess_TakeAndReturnFrame(t *testing.T) {
	p := newTestProcess(2)
	p.AllocateMemory([]uint32{5})

	f, ok := p.TakeFrame()
	require.True(t, ok)
	require.EqualValues(t, 5, f)

	_, ok = p.TakeFrame()
	require.False(t, ok)

	p.ReturnFrame(f)
	got, ok := p.TakeFrame()
	require.True(t, ok)
	require.Equal(t, f, got)
}

func TestProcess_FreeMemoryDecrementsAllocatedNotBelowZero(t *testing.T) {
	p := newTestProcess(1)
	p.FreeMemory()
	require.EqualValues(t, 0, p.AllocatedFrames())

	p.AllocateMemory([]uint32{1})
	p.FreeMemory()
	require.EqualValues(t, 0, p.AllocatedFrames())
}

func TestStats_DerivedRates(t *testing.T) {
	var s Stats
	require.Equal(t, 0.0, s.TLBHitRate())
	require.Equal(t, 0.0, s.PTHitRate())

	s.Accesses = 4
	s.TLBHits = 1
	s.TLBMisses = 3
	s.PTHits = 2

	require.Equal(t, 0.25, s.TLBHitRate())
	require.InDelta(t, 0.6667, s.PTHitRate(), 0.001)
}
