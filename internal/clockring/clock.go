// Package clockring implements the ordered, deduplicated VPN ring used by the
// page table's CLOCK replacement engine.
//
// Unlike a fixed-slot clock that tracks slot ids [0..capacity) in a plain
// slice, the VPN space here is sparse and effectively unbounded, so the ring
// is backed by a container/list.List plus a map for O(1) dedup — the same
// container/list-plus-map pairing an LRU cache uses for its list, repurposed
// here for circular rather than most-recently-used traversal.
package clockring

import (
	"container/list"
	"log/slog"
)

// EntryAccessor lets the ring read and mutate PTE reference counters without
// the ring holding a back-pointer to its owning page table: the table passes
// itself into SelectVictim instead, which keeps the ring reusable against any
// entry store rather than coupled to one concrete page table type.
type EntryAccessor interface {
	// ReferenceOf returns the reference counter of vpn and whether a valid
	// entry exists for it.
	ReferenceOf(vpn uint32) (ref uint8, ok bool)
	// DecrementReference applies one aging step to vpn's reference counter.
	DecrementReference(vpn uint32)
}

// Ring is the CLOCK ring: unique VPNs in insertion/traversal order plus a
// single hand. It is owned exclusively by its page table, which holds it by
// pointer and never shares it.
type Ring struct {
	order *list.List
	index map[uint32]*list.Element
	hand  *list.Element
}

// New returns an empty ring.
func New() *Ring {
	return &Ring{
		order: list.New(),
		index: make(map[uint32]*list.Element),
	}
}

// Len reports the number of VPNs currently tracked.
func (r *Ring) Len() int { return r.order.Len() }

// Contains reports whether vpn is present in the ring.
func (r *Ring) Contains(vpn uint32) bool {
	_, ok := r.index[vpn]
	return ok
}

// Add appends vpn to the ring if it is not already present. Idempotent.
func (r *Ring) Add(vpn uint32) {
	if _, ok := r.index[vpn]; ok {
		return
	}
	el := r.order.PushBack(vpn)
	r.index[vpn] = el
	if r.hand == nil {
		r.hand = el
	}
}

// Remove erases vpn from the ring if present, advancing the hand past it.
func (r *Ring) Remove(vpn uint32) {
	el, ok := r.index[vpn]
	if !ok {
		return
	}
	if r.hand == el {
		r.hand = r.successor(el)
	}
	r.order.Remove(el)
	delete(r.index, vpn)
	if r.order.Len() == 0 {
		r.hand = nil
	}
}

// Reset drops the ring and hand entirely.
func (r *Ring) Reset() {
	r.order.Init()
	r.index = make(map[uint32]*list.Element)
	r.hand = nil
}

// successor returns the element following el, wrapping to Front if el is the
// last element. It must be called before el is removed from the list.
func (r *Ring) successor(el *list.Element) *list.Element {
	if next := el.Next(); next != nil {
		return next
	}
	return r.order.Front()
}

// SelectVictim performs the circular CLOCK scan: each position is inspected
// once per pass; a reference of zero is an immediate victim; otherwise the
// hand advances. A full pass with no victim triggers an aging pass (decrement
// every tracked reference) and the scan restarts. Since aging strictly
// decreases every counter and they start at or below MaxReference, the
// procedure is guaranteed to terminate within MaxReference+1 aging passes.
func (r *Ring) SelectVictim(acc EntryAccessor) (uint32, bool) {
	for {
		if r.order.Len() == 0 {
			return 0, false
		}

		scanned := 0
		size := r.order.Len()
		for scanned < size {
			if r.hand == nil {
				r.hand = r.order.Front()
			}
			vpn := r.hand.Value.(uint32)

			ref, ok := acc.ReferenceOf(vpn)
			if !ok {
				// Consistency breach: the ring named a VPN with no stored
				// PTE. Log and drop it, then continue scanning from where
				// we are (the ring just got smaller).
				slog.Warn("clockring: victim scan found stale ring entry", "vpn", vpn)
				r.Remove(vpn)
				size = r.order.Len()
				if size == 0 {
					return 0, false
				}
				continue
			}

			if ref == 0 {
				next := r.successor(r.hand)
				victim := vpn
				r.hand = next
				return victim, true
			}

			r.hand = r.successor(r.hand)
			scanned++
		}

		// One full pass completed with no zero reference: age everything.
		r.agingPass(acc)
	}
}

// agingPass decrements the reference counter of every tracked VPN once.
func (r *Ring) agingPass(acc EntryAccessor) {
	for el := r.order.Front(); el != nil; el = el.Next() {
		acc.DecrementReference(el.Value.(uint32))
	}
}
