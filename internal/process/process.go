// Package process models a simulated process: its page table, its private
// frame allocation, and its translation statistics.
package process

import "github.com/oakfield/vmemsim/internal/pagetable"

// Stats holds the per-process translation counters used to report hit rates.
type Stats struct {
	Accesses  uint64
	TLBHits   uint64
	TLBMisses uint64
	PTHits    uint64
	PTMisses  uint64
}

// TLBHitRate returns TLBHits/Accesses, or 0 if there have been no accesses.
func (s Stats) TLBHitRate() float64 {
	if s.Accesses == 0 {
		return 0
	}
	return float64(s.TLBHits) / float64(s.Accesses)
}

// PTHitRate returns PTHits/TLBMisses, or 0 if there have been no TLB misses.
func (s Stats) PTHitRate() float64 {
	if s.TLBMisses == 0 {
		return 0
	}
	return float64(s.PTHits) / float64(s.TLBMisses)
}

// Process holds one page table and the set of physical frames this process
// is entitled to use.
type Process struct {
	ID        uint32
	PageTable *pagetable.PageTable

	maxFrames       uint32
	available       []uint32
	allocatedFrames uint32

	Stats Stats
}

// New constructs a process with the given maximum frame quota and page
// table. It owns no frames yet.
func New(id uint32, pt *pagetable.PageTable, maxFrames uint32) *Process {
	return &Process{
		ID:        id,
		PageTable: pt,
		maxFrames: maxFrames,
	}
}

// MaxFrames returns the process's frame quota.
func (p *Process) MaxFrames() uint32 { return p.maxFrames }

// AllocatedFrames returns the number of frames currently counted against
// the process's quota.
func (p *Process) AllocatedFrames() uint32 { return p.allocatedFrames }

// AllocationQuota returns the number of additional frames the process may
// still be handed.
func (p *Process) AllocationQuota() uint32 {
	if p.allocatedFrames >= p.maxFrames {
		return 0
	}
	return p.maxFrames - p.allocatedFrames
}

// TakeFrame pops one frame from the process's private available list.
func (p *Process) TakeFrame() (uint32, bool) {
	if len(p.available) == 0 {
		return 0, false
	}
	f := p.available[0]
	p.available = p.available[1:]
	return f, true
}

// ReturnFrame pushes a frame back onto the process's available list without
// touching the allocated-frame count (it is already counted).
func (p *Process) ReturnFrame(pfn uint32) {
	p.available = append(p.available, pfn)
}

// AllocateMemory appends newly granted frames to the available list and
// recounts allocated frames.
func (p *Process) AllocateMemory(frames []uint32) {
	p.available = append(p.available, frames...)
	p.allocatedFrames += uint32(len(frames))
}

// FreeMemory decrements the allocated-frame count by one, reflecting a
// frame released back to the PFM. Replacement (reusing an already-owned
// frame via CLOCK) does not call this: a process's quota tracks how many
// frames it owns, not how many are currently mapped, so swapping a mapping
// in place never changes what it owns.
func (p *Process) FreeMemory() {
	if p.allocatedFrames > 0 {
		p.allocatedFrames--
	}
}
