// Command vmemsim simulates the address-translation path of a paging
// machine over a stream of administrative and access instructions.
//
// Usage:
//
//	vmemsim [-config path] <page_size> <virtual_address_bits> \
//	    <physical_memory_bytes> <tlb_size> <process_mem_size>... <instruction_file>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/oakfield/vmemsim/internal/instr"
	"github.com/oakfield/vmemsim/internal/report"
	"github.com/oakfield/vmemsim/internal/simulator"
	"github.com/oakfield/vmemsim/internal/vmconfig"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("vmemsim", flag.ContinueOnError)
	configPath := fs.String("config", "vmemsim.yaml", "path to an optional ambient config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	positional := fs.Args()

	if len(positional) < 6 {
		return fmt.Errorf("usage: vmemsim [-config path] <page_size> <virtual_address_bits> <physical_memory_bytes> <tlb_size> <process_mem_size>... <instruction_file>")
	}

	cfg, err := vmconfig.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	configureLogging(cfg.Log.Level)

	pageSize, err := parseDecimalUint32(positional[0], "page_size")
	if err != nil {
		return err
	}
	addressBits, err := parseDecimalUint32(positional[1], "virtual_address_bits")
	if err != nil {
		return err
	}
	physMem, err := strconv.ParseUint(positional[2], 10, 64)
	if err != nil {
		return fmt.Errorf("bad physical_memory_bytes %q: %w", positional[2], err)
	}
	tlbSize, err := strconv.Atoi(positional[3])
	if err != nil {
		return fmt.Errorf("bad tlb_size %q: %w", positional[3], err)
	}

	memSizeArgs := positional[4 : len(positional)-1]
	instructionFile := positional[len(positional)-1]

	processMemSizes := make([]uint32, 0, len(memSizeArgs))
	for _, a := range memSizeArgs {
		v, err := parseDecimalUint32(a, "process_mem_size")
		if err != nil {
			return err
		}
		processMemSizes = append(processMemSizes, v)
	}

	sim, err := simulator.New(simulator.Config{
		PageSize:           pageSize,
		AddressBits:        addressBits,
		PhysicalMemBytes:   physMem,
		TLBSize:            tlbSize,
		ProcessMemSizes:    processMemSizes,
		PreallocatedFrames: cfg.Simulator.PreallocatedFrames,
	}, report.New(os.Stdout))
	if err != nil {
		return fmt.Errorf("create simulator: %w", err)
	}

	f, err := os.Open(instructionFile)
	if err != nil {
		return fmt.Errorf("open instruction file: %w", err)
	}
	defer func() { _ = f.Close() }()

	logger := report.New(os.Stdout)
	ctx := context.Background()

	var fatalErr error
	scanErr := instr.Scan(f,
		func(ins instr.Instruction) {
			if fatalErr != nil {
				return
			}
			fatalErr = dispatch(ctx, sim, ins)
		},
		func(parseErr error) {
			slog.Warn("vmemsim: skipping malformed instruction line", "error", parseErr)
		},
	)
	if scanErr != nil {
		return fmt.Errorf("read instruction file: %w", scanErr)
	}
	if fatalErr != nil {
		return fatalErr
	}

	sim.ReportStats(logger)
	return nil
}

// dispatch executes one parsed instruction, returning a non-nil error only
// for a switch to an unknown process, which signals a malformed trace file
// and isn't worth continuing past. Allocation and translation failures are
// recoverable: they are already logged by the simulator's report.Logger and
// do not stop the run.
func dispatch(ctx context.Context, sim *simulator.Simulator, ins instr.Instruction) error {
	switch ins.Kind {
	case instr.KindSwitch:
		if err := sim.SwitchProcess(ctx, ins.PID); err != nil {
			return fmt.Errorf("switch to process %d: %w", ins.PID, err)
		}
	case instr.KindAlloc:
		_ = sim.AllocateMemory(ctx, ins.Value)
	case instr.KindAccess:
		_, _ = sim.Translate(ctx, ins.Value)
	default:
		slog.Warn("vmemsim: unknown instruction verb, ignored", "verb", ins.Verb, "line", ins.Raw)
	}
	return nil
}

func parseDecimalUint32(s, field string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q: %w", field, s, err)
	}
	return uint32(v), nil
}

func configureLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetLogLoggerLevel(lvl)
}
