// Package instr scans the instruction file's three-verb grammar:
//
//	<pid> switch
//	<pid> alloc <hex_bytes>
//	<pid> access <hex_virtual_address>
//
// Parsing is line-oriented and tolerant: a malformed line is reported to the
// caller but does not abort the scan, so one bad line in a long trace doesn't
// discard the rest of it.
package instr

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/oakfield/vmemsim/internal/simerr"
)

// Kind identifies which of the three instruction verbs a line carries.
type Kind int

const (
	// KindUnknown marks a line whose verb was not recognized; the caller
	// should log a warning and continue.
	KindUnknown Kind = iota
	KindSwitch
	KindAlloc
	KindAccess
)

// Instruction is one parsed line of the instruction file.
type Instruction struct {
	Kind    Kind
	PID     uint32
	Value   uint32 // hex bytes for alloc, hex virtual address for access
	Raw     string
	Verb    string
}

// ParseLine parses a single whitespace-separated instruction line. Blank
// lines (after trimming) return (Instruction{}, false, nil) to signal
// "nothing to do" rather than an error.
func ParseLine(line string) (Instruction, bool, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Instruction{}, false, nil
	}

	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return Instruction{}, true, fmt.Errorf("%w: %q", simerr.ErrInstructionParseError, line)
	}

	pid64, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return Instruction{}, true, fmt.Errorf("%w: bad pid %q", simerr.ErrInstructionParseError, fields[0])
	}
	ins := Instruction{PID: uint32(pid64), Raw: trimmed, Verb: fields[1]}

	switch fields[1] {
	case "switch":
		ins.Kind = KindSwitch
		return ins, true, nil
	case "alloc":
		if len(fields) < 3 {
			return Instruction{}, true, fmt.Errorf("%w: alloc missing size: %q", simerr.ErrInstructionParseError, line)
		}
		v, err := strconv.ParseUint(fields[2], 16, 32)
		if err != nil {
			return Instruction{}, true, fmt.Errorf("%w: bad hex size %q", simerr.ErrInstructionParseError, fields[2])
		}
		ins.Kind = KindAlloc
		ins.Value = uint32(v)
		return ins, true, nil
	case "access":
		if len(fields) < 3 {
			return Instruction{}, true, fmt.Errorf("%w: access missing address: %q", simerr.ErrInstructionParseError, line)
		}
		v, err := strconv.ParseUint(fields[2], 16, 32)
		if err != nil {
			return Instruction{}, true, fmt.Errorf("%w: bad hex address %q", simerr.ErrInstructionParseError, fields[2])
		}
		ins.Kind = KindAccess
		ins.Value = uint32(v)
		return ins, true, nil
	default:
		ins.Kind = KindUnknown
		return ins, true, nil
	}
}

// Scan reads successive instructions from r, invoking onLine for each
// parsed line, including lines with an unknown verb. onErr receives
// non-fatal parse errors for rejected lines so the
// caller can log and continue; Scan itself never returns a parse error,
// only an I/O error from the underlying reader.
func Scan(r io.Reader, onLine func(Instruction), onErr func(error)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		ins, present, err := ParseLine(scanner.Text())
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			continue
		}
		if !present {
			continue
		}
		onLine(ins)
	}
	return scanner.Err()
}
