// Package frame implements the physical frame manager: a global FIFO pool of
// free frame numbers, handed out to processes and returned on free. FIFO
// ordering keeps reuse simple and predictable: the frame freed longest ago
// is the next one handed out.
package frame

import (
	"container/list"

	"github.com/oakfield/vmemsim/internal/simerr"
)

// Manager is the physical frame manager (PFM): a queue of free PFNs plus the
// fixed total frame count.
type Manager struct {
	free  *list.List
	total uint32
}

// NewManager constructs a manager with totalFrames free frames enqueued
// 0..totalFrames-1, in order.
func NewManager(totalFrames uint32) *Manager {
	m := &Manager{
		free:  list.New(),
		total: totalFrames,
	}
	for i := uint32(0); i < totalFrames; i++ {
		m.free.PushBack(i)
	}
	return m
}

// TotalFrames returns the fixed total frame count.
func (m *Manager) TotalFrames() uint32 { return m.total }

// FreeCount returns the number of frames currently in the free queue.
func (m *Manager) FreeCount() uint32 { return uint32(m.free.Len()) }

// Allocate pops the head of the free queue, or reports false if exhausted.
func (m *Manager) Allocate() (uint32, bool) {
	el := m.free.Front()
	if el == nil {
		return 0, false
	}
	m.free.Remove(el)
	return el.Value.(uint32), true
}

// Free returns pfn to the pool. It rejects out-of-range frame numbers.
func (m *Manager) Free(pfn uint32) error {
	if pfn >= m.total {
		return simerr.ErrInvalidFrame
	}
	m.free.PushBack(pfn)
	return nil
}
