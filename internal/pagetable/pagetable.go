// Package pagetable implements the two-level sparse page table, keeping its
// CLOCK ring synchronized with the set of valid entries.
//
// The PageTable plays the role of a frame table and internal/clockring.Ring
// plays the replacer, with the table passing itself into Ring.SelectVictim
// instead of the ring holding a back-pointer, so the ring stays reusable
// against any entry store.
package pagetable

import (
	"log/slog"

	"github.com/oakfield/vmemsim/internal/clockring"
	"github.com/oakfield/vmemsim/internal/pte"
	"github.com/oakfield/vmemsim/internal/simerr"
)

// PageTable owns the PTEs for one process, reached through two levels of
// sparse index tables, and a CLOCK ring over the currently valid VPNs.
type PageTable struct {
	l1Bits uint
	l2Bits uint

	l1 map[uint32]map[uint32]*pte.PTE
	ring *clockring.Ring
}

// New returns an empty page table for an address space of addressBits bits
// with pages of 2^pageOffsetBits bytes. l2Bits = ceil((addressBits -
// pageOffsetBits) / 2); the L1 index takes the remaining high bits.
func New(addressBits, pageOffsetBits uint) *PageTable {
	vpnBits := addressBits - pageOffsetBits
	l2Bits := (vpnBits + 1) / 2
	l1Bits := vpnBits - l2Bits
	return &PageTable{
		l1Bits: l1Bits,
		l2Bits: l2Bits,
		l1:     make(map[uint32]map[uint32]*pte.PTE),
		ring:   clockring.New(),
	}
}

// VPNBits returns the total number of VPN bits (L1 + L2).
func (t *PageTable) VPNBits() uint { return t.l1Bits + t.l2Bits }

func (t *PageTable) split(vpn uint32) (l1, l2 uint32) {
	l2mask := uint32(1)<<t.l2Bits - 1
	l2 = vpn & l2mask
	l1 = vpn >> t.l2Bits
	return
}

// IsValidRange reports whether vpn fits within the configured VPN bit width.
func (t *PageTable) IsValidRange(vpn uint32) bool {
	if t.VPNBits() >= 32 {
		return true
	}
	return vpn < uint32(1)<<t.VPNBits()
}

func (t *PageTable) rawEntry(vpn uint32) *pte.PTE {
	l1, l2 := t.split(vpn)
	sub, ok := t.l1[l1]
	if !ok {
		return nil
	}
	return sub[l2]
}

// Lookup returns the frame mapped to vpn if a stored PTE exists and is
// valid. On a hit it bumps the reference counter and re-adds vpn to the
// CLOCK ring (idempotent). Out-of-range or missing VPNs return a miss.
func (t *PageTable) Lookup(vpn uint32) (uint32, bool) {
	if !t.IsValidRange(vpn) {
		slog.Warn("pagetable: lookup out of range", "vpn", vpn)
		return 0, false
	}
	e := t.rawEntry(vpn)
	if e == nil || !e.Valid {
		return 0, false
	}
	e.ReferenceInc()
	t.ring.Add(vpn)
	return e.Frame, true
}

// Update inserts or overwrites the PTE for vpn, allocating L1/L2 maps on
// demand. If valid is true the VPN is added to the CLOCK ring; otherwise it
// is removed. Out-of-range VPNs are logged and ignored.
func (t *PageTable) Update(vpn uint32, frameNo uint32, valid, dirty, read, write, execute bool, referenceInit uint8) {
	if !t.IsValidRange(vpn) {
		slog.Warn("pagetable: update out of range, ignored", "vpn", vpn)
		return
	}
	l1, l2 := t.split(vpn)
	sub, ok := t.l1[l1]
	if !ok {
		sub = make(map[uint32]*pte.PTE)
		t.l1[l1] = sub
	}
	e, ok := sub[l2]
	if !ok {
		e = &pte.PTE{}
		sub[l2] = e
	}
	e.Frame = frameNo
	e.Valid = valid
	e.Dirty = dirty
	e.Read = read
	e.Write = write
	e.Execute = execute
	e.Reference = referenceInit

	if valid {
		t.ring.Add(vpn)
	} else {
		t.ring.Remove(vpn)
	}
}

// Remove deletes the PTE for vpn, returning the frame it held. It prunes an
// L2 sub-map that becomes empty and removes vpn from the CLOCK ring.
func (t *PageTable) Remove(vpn uint32) (uint32, bool) {
	l1, l2 := t.split(vpn)
	sub, ok := t.l1[l1]
	if !ok {
		return 0, false
	}
	e, ok := sub[l2]
	if !ok {
		return 0, false
	}
	frameNo := e.Frame
	delete(sub, l2)
	if len(sub) == 0 {
		delete(t.l1, l1)
	}
	t.ring.Remove(vpn)
	return frameNo, true
}

// Entry returns a mutable handle to vpn's PTE if it is stored and valid.
func (t *PageTable) Entry(vpn uint32) (*pte.PTE, bool) {
	e := t.rawEntry(vpn)
	if e == nil || !e.Valid {
		return nil, false
	}
	return e, true
}

// ReferenceOf implements clockring.EntryAccessor.
func (t *PageTable) ReferenceOf(vpn uint32) (uint8, bool) {
	e := t.rawEntry(vpn)
	if e == nil || !e.Valid {
		return 0, false
	}
	return e.Reference, true
}

// DecrementReference implements clockring.EntryAccessor.
func (t *PageTable) DecrementReference(vpn uint32) {
	if e := t.rawEntry(vpn); e != nil {
		e.ReferenceDec()
	}
}

// WriteBackFunc is invoked with the victim's frame before it is reused, only
// when the victim PTE was dirty. Callers use it to emit the "Writing frame
// N back to disk" log line; this package makes no assumption about disk
// persistence itself, only that a dirty page needs one more step before its
// frame can be handed to someone else.
type WriteBackFunc func(frameNo uint32)

// ReplaceUsingClock drives replacement when the frame allocator has no free
// frame: it asks CLOCK for a victim, evicts it (write-back callback first if
// dirty), and installs newVPN into the freed frame with valid=true,
// dirty=false, reference=0. It retries past stale ring entries and reports
// failure (ErrReplacementFailed) only when CLOCK has nothing left to offer.
func (t *PageTable) ReplaceUsingClock(newVPN uint32, onWriteBack WriteBackFunc) error {
	for {
		victimVPN, ok := t.ring.SelectVictim(t)
		if !ok {
			return simerr.ErrReplacementFailed
		}

		victim := t.rawEntry(victimVPN)
		if victim == nil || !victim.Valid {
			// Stale ring entry: SelectVictim already pruned it from the ring
			// internally when it detected the breach, but guard here too in
			// case of races introduced by future callers.
			t.ring.Remove(victimVPN)
			continue
		}

		oldFrame := victim.Frame
		if victim.Dirty && onWriteBack != nil {
			onWriteBack(oldFrame)
		}
		t.Remove(victimVPN)
		t.Update(newVPN, oldFrame, true, false, true, true, true, 0)
		return nil
	}
}

// Reset clears every PTE and the CLOCK ring.
func (t *PageTable) Reset() {
	t.l1 = make(map[uint32]map[uint32]*pte.PTE)
	t.ring.Reset()
}

// AllocatedEntries returns the number of stored PTEs (valid or not).
func (t *PageTable) AllocatedEntries() int {
	n := 0
	for _, sub := range t.l1 {
		n += len(sub)
	}
	return n
}

// allocatedL2Tables returns the number of L2 sub-maps currently live: exactly
// one per populated L1 slot, recomputed fresh so it can never drift from
// AllocatedEntries after a Remove prunes an empty sub-map.
func (t *PageTable) allocatedL2Tables() int {
	return len(t.l1)
}

// TotalMemoryUsage estimates the two-level table's footprint: one pointer-
// sized slot per allocated L1 entry, one per allocated L2 sub-table, plus
// pte.SizeBytes per stored entry. Reported only, never enforced.
func (t *PageTable) TotalMemoryUsage() uint64 {
	const l1SlotBytes = 8
	const l2TableOverhead = 8
	entries := uint64(t.AllocatedEntries())
	return uint64(len(t.l1))*l1SlotBytes + uint64(t.allocatedL2Tables())*l2TableOverhead + entries*pte.SizeBytes
}

// SingleLevelMemoryUsage estimates what a flat, single-level page table
// covering the whole VPN space would cost, for comparison against the
// sparse two-level table's actual usage.
func (t *PageTable) SingleLevelMemoryUsage() uint64 {
	bits := t.VPNBits()
	if bits >= 63 {
		bits = 62
	}
	return (uint64(1) << bits) * pte.SizeBytes
}

// RingLen exposes the CLOCK ring size, for invariant tests.
func (t *PageTable) RingLen() int { return t.ring.Len() }

// RingContains exposes ring membership, for invariant tests.
func (t *PageTable) RingContains(vpn uint32) bool { return t.ring.Contains(vpn) }
