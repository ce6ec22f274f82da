// Package report wraps a bare *log.Logger for the simulator's observable,
// human-readable log lines. These strings are a grep contract for
// log-scraping tests and tooling, so they are written with no timestamp
// prefix and never routed through log/slog's structured key=value
// formatting, which is reserved for internal diagnostics that callers don't
// need a stable format for (consistency warnings, stale-entry breaches).
package report

import (
	"fmt"
	"io"
	"log"
)

// Logger emits the observable, human-readable lines the simulator reports.
type Logger struct {
	l *log.Logger
}

// New returns a Logger writing to w with no prefix or timestamp.
func New(w io.Writer) *Logger {
	return &Logger{l: log.New(w, "", 0)}
}

func (r *Logger) TLBHit(vpn, pfn uint32) {
	r.l.Printf("TLB hit for VPN %d, PFN %d", vpn, pfn)
}

func (r *Logger) PageTableHit(vpn, pfn uint32) {
	r.l.Printf("Page table hit for VPN %d, PFN %d", vpn, pfn)
}

func (r *Logger) PageFault(vpn uint32) {
	r.l.Printf("Page fault for VPN %d", vpn)
}

func (r *Logger) WriteBack(frameNo uint32) {
	r.l.Printf("Writing frame %d back to disk", frameNo)
}

func (r *Logger) Translated(va, pa uint32) {
	r.l.Printf("Translated Virtual Address %s to Physical Address %s", hex(va), hex(pa))
}

func (r *Logger) TranslationFailed(va uint32) {
	r.l.Printf("Error: translation failed for Virtual Address %s", hex(va))
}

func (r *Logger) Allocated(pages int, pid uint32) {
	r.l.Printf("Allocated %d pages for process %d", pages, pid)
}

func (r *Logger) AllocationRejected(reason string) {
	r.l.Printf("Allocation rejected: %s", reason)
}

func (r *Logger) Switched(pid uint32) {
	r.l.Printf("Switched current process to %d", pid)
}

func (r *Logger) Freed(vpn uint32) {
	r.l.Printf("Freed VPN %d", vpn)
}

func (r *Logger) Raw(format string, args ...any) {
	r.l.Printf(format, args...)
}

func hex(v uint32) string {
	return fmt.Sprintf("0x%x", v)
}
