// Package simerr collects the sentinel errors shared across the simulator's
// subsystems, in the style of internal/storage/common.go's sentinel var block.
package simerr

import "errors"

var (
	// ErrOutOfRangeVPN is returned when a VPN falls outside the address space.
	ErrOutOfRangeVPN = errors.New("vmemsim: virtual page number out of range")

	// ErrNoFreeFrame is returned when the physical frame manager has no free
	// frame left to hand out.
	ErrNoFreeFrame = errors.New("vmemsim: no free physical frame available")

	// ErrReplacementFailed is returned when CLOCK has no victim to offer,
	// which can only happen when the owning page table's ring is empty.
	ErrReplacementFailed = errors.New("vmemsim: clock replacement found no victim")

	// ErrInvalidFrame is returned when a frame is returned to the manager
	// outside of [0, total_frames).
	ErrInvalidFrame = errors.New("vmemsim: frame number out of range")

	// ErrUnknownProcess is returned when switching to or addressing a pid
	// that was never configured; fatal to the run.
	ErrUnknownProcess = errors.New("vmemsim: unknown process id")

	// ErrInstructionParseError is returned for a malformed instruction line;
	// non-fatal, the scanner moves on to the next line.
	ErrInstructionParseError = errors.New("vmemsim: malformed instruction")

	// ErrQuotaExceeded is returned when an allocation would exceed a
	// process's allocation quota.
	ErrQuotaExceeded = errors.New("vmemsim: allocation exceeds process quota")
)
