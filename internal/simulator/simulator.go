// Package simulator implements the translator/orchestrator: it sequences
// TLB, page table, and page-fault handling for each access, and exposes the
// administrative operations (switch, allocate, free).
//
// The lookup order mirrors any multi-level cache: check the fastest cache
// first (TLB), fall through to the authoritative structure (the page
// table), and only pay the expensive path (a fault and possible eviction)
// when both miss.
package simulator

import (
	"context"
	"fmt"
	"math/bits"
	"sort"

	"github.com/oakfield/vmemsim/internal/frame"
	"github.com/oakfield/vmemsim/internal/pagetable"
	"github.com/oakfield/vmemsim/internal/process"
	"github.com/oakfield/vmemsim/internal/report"
	"github.com/oakfield/vmemsim/internal/simerr"
	"github.com/oakfield/vmemsim/internal/tlb"
)

// SentinelFailedTranslation is the all-ones value returned in place of a
// physical address when translation fails, so a caller that forgets to
// check the error still gets an address that can't collide with a real one.
const SentinelFailedTranslation uint32 = 0xFFFFFFFF

// Config bundles the construction parameters pulled straight from the CLI's
// positional arguments.
type Config struct {
	PageSize           uint32
	AddressBits        uint32
	PhysicalMemBytes   uint64
	TLBSize            int
	ProcessMemSizes    []uint32
	PreallocatedFrames int
}

// Simulator is the top-level orchestrator: a shared TLB and PFM plus one
// page table per process, switching between processes by id.
type Simulator struct {
	pageSize       uint32
	pageOffsetBits uint32
	offsetMask     uint32

	tlb        *tlb.TLB
	pfm        *frame.Manager
	processes  map[uint32]*process.Process
	order      []uint32
	currentPID uint32
	hasCurrent bool

	logger *report.Logger
}

// New constructs a simulator and its processes in argument order, pid 0..N-1,
// each pre-allocated cfg.PreallocatedFrames frames with identity mappings
// for vpn 0..K-1, a startup convenience so a fresh process has some mapped
// memory to touch before it ever calls alloc.
func New(cfg Config, logger *report.Logger) (*Simulator, error) {
	if cfg.PageSize == 0 || cfg.PageSize&(cfg.PageSize-1) != 0 {
		return nil, fmt.Errorf("vmemsim: page size must be a power of two, got %d", cfg.PageSize)
	}
	if len(cfg.ProcessMemSizes) == 0 {
		return nil, fmt.Errorf("vmemsim: at least one process_mem_size is required")
	}

	pageOffsetBits := uint32(bits.TrailingZeros32(cfg.PageSize))
	totalFrames := cfg.PhysicalMemBytes / uint64(cfg.PageSize)
	if totalFrames == 0 {
		return nil, fmt.Errorf("vmemsim: physical memory too small for page size %d", cfg.PageSize)
	}

	s := &Simulator{
		pageSize:       cfg.PageSize,
		pageOffsetBits: pageOffsetBits,
		offsetMask:     cfg.PageSize - 1,
		tlb:            tlb.New(cfg.TLBSize),
		pfm:            frame.NewManager(uint32(totalFrames)),
		processes:      make(map[uint32]*process.Process),
		logger:         logger,
	}

	prealloc := cfg.PreallocatedFrames
	if prealloc < 0 {
		prealloc = 0
	}

	for i, memSize := range cfg.ProcessMemSizes {
		pid := uint32(i)
		numPages := pagesFromBytes(memSize, cfg.PageSize)
		if numPages > uint32(totalFrames) {
			return nil, fmt.Errorf("vmemsim: process %d requires %d pages, only %d physical frames exist", pid, numPages, totalFrames)
		}

		pt := pagetable.New(cfg.AddressBits, pageOffsetBits)
		proc := process.New(pid, pt, numPages)

		k := prealloc
		if uint32(k) > numPages {
			k = int(numPages)
		}
		if uint32(k) > s.pfm.FreeCount() {
			k = int(s.pfm.FreeCount())
		}
		startup := make([]uint32, 0, k)
		for j := 0; j < k; j++ {
			f, ok := s.pfm.Allocate()
			if !ok {
				break
			}
			startup = append(startup, f)
		}
		proc.AllocateMemory(startup)
		for vpn := 0; vpn < len(startup); vpn++ {
			f, _ := proc.TakeFrame()
			pt.Update(uint32(vpn), f, true, false, true, true, true, 0)
		}

		s.processes[pid] = proc
		s.order = append(s.order, pid)
	}

	s.currentPID = 0
	s.hasCurrent = true
	return s, nil
}

func pagesFromBytes(size, pageSize uint32) uint32 {
	return (size + pageSize - 1) / pageSize
}

func (s *Simulator) current() (*process.Process, error) {
	if !s.hasCurrent {
		return nil, simerr.ErrUnknownProcess
	}
	p, ok := s.processes[s.currentPID]
	if !ok {
		return nil, simerr.ErrUnknownProcess
	}
	return p, nil
}

func (s *Simulator) decompose(va uint32) (vpn, offset uint32) {
	return va >> s.pageOffsetBits, va & s.offsetMask
}

// SwitchProcess sets the current process and flushes the shared TLB, so
// every process sees a cold TLB on entry. An unknown pid is fatal.
func (s *Simulator) SwitchProcess(ctx context.Context, pid uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := s.processes[pid]; !ok {
		return simerr.ErrUnknownProcess
	}
	s.currentPID = pid
	s.hasCurrent = true
	s.tlb.Flush()
	s.logger.Switched(pid)
	return nil
}

// Translate resolves a virtual address for the current process, consulting
// the TLB, then the page table, then page-fault handling, in that order. On
// failure it returns SentinelFailedTranslation alongside the underlying
// error.
func (s *Simulator) Translate(ctx context.Context, va uint32) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return SentinelFailedTranslation, err
	}

	proc, err := s.current()
	if err != nil {
		return SentinelFailedTranslation, err
	}
	proc.Stats.Accesses++

	vpn, offset := s.decompose(va)

	if e, ok := s.tlb.Lookup(vpn); ok {
		proc.Stats.TLBHits++
		s.logger.TLBHit(vpn, e.PFN)
		pa := (e.PFN << s.pageOffsetBits) | offset
		s.logger.Translated(va, pa)
		return pa, nil
	}
	proc.Stats.TLBMisses++

	if pfn, ok := proc.PageTable.Lookup(vpn); ok {
		proc.Stats.PTHits++
		s.logger.PageTableHit(vpn, pfn)
		s.tlb.Update(vpn, pfn, true, true, true)
		pa := (pfn << s.pageOffsetBits) | offset
		s.logger.Translated(va, pa)
		return pa, nil
	}
	proc.Stats.PTMisses++
	s.logger.PageFault(vpn)

	if err := s.handlePageFault(proc, vpn); err != nil {
		s.logger.TranslationFailed(va)
		return SentinelFailedTranslation, err
	}

	if pfn, ok := proc.PageTable.Lookup(vpn); ok {
		s.tlb.Update(vpn, pfn, true, true, true)
		pa := (pfn << s.pageOffsetBits) | offset
		s.logger.Translated(va, pa)
		return pa, nil
	}

	s.logger.TranslationFailed(va)
	return SentinelFailedTranslation, simerr.ErrReplacementFailed
}

// handlePageFault resolves a missing VPN: bounds-check, try a free frame
// from the process's own allocation, and fall back to CLOCK replacement
// when none is available.
func (s *Simulator) handlePageFault(proc *process.Process, vpn uint32) error {
	if !proc.PageTable.IsValidRange(vpn) {
		return simerr.ErrOutOfRangeVPN
	}

	if f, ok := proc.TakeFrame(); ok {
		proc.PageTable.Update(vpn, f, true, false, true, true, true, 0)
		return nil
	}

	return proc.PageTable.ReplaceUsingClock(vpn, func(frameNo uint32) {
		s.logger.WriteBack(frameNo)
	})
}

// AllocateMemory hands the current process ceil(bytes/page_size) frames
// from the PFM, rejecting a request that would exceed the process's quota
// or the PFM's free count. No PTEs are created: new pages materialize on
// first access (fault-on-first-touch), so a large reservation doesn't force
// the whole range to be mapped up front.
func (s *Simulator) AllocateMemory(ctx context.Context, bytes uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	proc, err := s.current()
	if err != nil {
		return err
	}

	pages := pagesFromBytes(bytes, s.pageSize)
	quota := proc.AllocationQuota()
	if pages > quota {
		s.logger.AllocationRejected(fmt.Sprintf("requested %d pages exceeds quota %d for process %d", pages, quota, proc.ID))
		return simerr.ErrQuotaExceeded
	}
	free := s.pfm.FreeCount()
	if pages > free {
		s.logger.AllocationRejected(fmt.Sprintf("requested %d pages exceeds %d free physical frames", pages, free))
		return simerr.ErrNoFreeFrame
	}

	frames := make([]uint32, 0, pages)
	for i := uint32(0); i < pages; i++ {
		f, ok := s.pfm.Allocate()
		if !ok {
			return simerr.ErrNoFreeFrame
		}
		frames = append(frames, f)
	}
	proc.AllocateMemory(frames)
	s.logger.Allocated(int(pages), proc.ID)
	return nil
}

// FreeMemory releases the page containing va, if mapped: the PTE is
// removed, the frame returns to the PFM, the process's allocated-frame
// count decrements, and the TLB entry for that VPN is deleted.
func (s *Simulator) FreeMemory(ctx context.Context, va uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	proc, err := s.current()
	if err != nil {
		return err
	}

	vpn, _ := s.decompose(va)
	if !proc.PageTable.IsValidRange(vpn) {
		return simerr.ErrOutOfRangeVPN
	}

	frameNo, ok := proc.PageTable.Remove(vpn)
	if !ok {
		return nil
	}
	if err := s.pfm.Free(frameNo); err != nil {
		return err
	}
	proc.FreeMemory()
	s.tlb.Delete(vpn)
	s.logger.Freed(vpn)
	return nil
}

// Process returns the process for pid, for reporting and tests.
func (s *Simulator) Process(pid uint32) (*process.Process, bool) {
	p, ok := s.processes[pid]
	return p, ok
}

// ProcessIDs returns process ids in ascending argument order.
func (s *Simulator) ProcessIDs() []uint32 {
	ids := append([]uint32(nil), s.order...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// FreeFrameCount exposes the PFM's free count, for reporting and tests.
func (s *Simulator) FreeFrameCount() uint32 { return s.pfm.FreeCount() }

// TLBLen exposes the current TLB occupancy, for tests.
func (s *Simulator) TLBLen() int { return s.tlb.Len() }

// ReportStats prints the final per-process statistics block, in ascending
// pid order.
func (s *Simulator) ReportStats(logger *report.Logger) {
	for _, pid := range s.ProcessIDs() {
		proc := s.processes[pid]
		st := proc.Stats
		logger.Raw("Process %d stats: accesses=%d tlb_hits=%d tlb_misses=%d pt_hits=%d pt_misses=%d tlb_hit_rate=%.2f pt_hit_rate=%.2f",
			pid, st.Accesses, st.TLBHits, st.TLBMisses, st.PTHits, st.PTMisses, st.TLBHitRate(), st.PTHitRate())
	}
}
