// Copyright 2025, The urisc Authors

package emulator

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/xlab/treeprint"

	"github.com/uflarisc/urisc/cpu"
	"github.com/uflarisc/urisc/internal"
	"github.com/uflarisc/urisc/io"
	"github.com/uflarisc/urisc/memory"
)

var _emulator_defines = map[string]string{
	"IMAGE_WORD_BITS": fmt.Sprintf("%v", io.IMAGE_WORD_BITS),
}

// Emulator state. CPU + memory + program image.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Rom io.Image // Image loaded into memory on reset.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		memory.Defines(),
	)
}

// Reset clears the machine and loads the program into memory. An assembled
// program listing replaces the image; with an empty listing the image is
// loaded as is.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	if emu.Program != nil && len(emu.Program.Lines) != 0 {
		emu.Rom = io.Image{}
		emu.Rom.Append(emu.Program.Binary())
	}

	if mem, ok := emu.Cpu.Memory.(*memory.Memory); ok {
		mem.Reset()
	}
	emu.Cpu.Reset()

	err = emu.Cpu.LoadProgram(emu.Rom.Words())
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: reset, %d words, entry 0x%04x", len(emu.Rom.Entries), emu.Cpu.Pc.Load())
	}

	return
}

// Cycles returns the total cycles since a reset.
func (emu *Emulator) Cycles() int {
	return emu.Cpu.Cycles
}

// Pc returns current program counter.
func (emu *Emulator) Pc() uint32 {
	return emu.Cpu.Pc.Load()
}

// Decoded returns the instruction at the program counter.
func (emu *Emulator) Decoded() (dec cpu.Decoded) {
	word, err := emu.Cpu.Memory.Load(emu.Pc())
	if err != nil {
		return cpu.Decode(0)
	}

	return cpu.Decode(word)
}

// lineNoOf returns the source line that assembled the word at address.
func (emu *Emulator) lineNoOf(address uint32) int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(address)
	if dbg.Line == nil {
		return 0
	}

	return dbg.LineNo
}

// LineNo returns the current line number for the next instruction.
func (emu *Emulator) LineNo() int {
	return emu.lineNoOf(emu.Pc())
}

// Tick performs a single cycle of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	if emu.Cpu.Halted {
		done = true
		return
	}

	address := emu.Pc()
	cycle := emu.Cpu.Cycles
	defer func() {
		if err != nil {
			err = &ErrRuntime{Cycle: cycle, Address: address, LineNo: emu.lineNoOf(address), Err: err}
		}
	}()

	_, err = emu.Cpu.Step()
	if err != nil {
		return
	}

	done = emu.Cpu.Halted

	return
}

// Run ticks the emulator until halt, a runtime error, or maxCycles cycles.
// A CPU that is already halted reports STATUS_HALTED without ticking.
func (emu *Emulator) Run(maxCycles int) (status cpu.Status, err error) {
	if emu.Cpu.Halted {
		status = cpu.STATUS_HALTED
		return
	}

	for range maxCycles {
		var done bool
		done, err = emu.Tick()
		if err != nil {
			status = cpu.STATUS_RUNNING
			return
		}
		if done {
			status = cpu.STATUS_HALTED
			break
		}
	}

	if status != cpu.STATUS_HALTED {
		status = cpu.STATUS_CYCLE_LIMIT
	}

	if emu.Verbose {
		log.Printf("emulator: %v, %d cycles", status, emu.Cpu.Cycles)
	}

	return
}

// Report returns the machine state as a tree: program counter, instruction
// register, flags, registers and cache statistics.
func (emu *Emulator) Report(status cpu.Status) (tree treeprint.Tree) {
	snap := emu.Cpu.Snapshot()

	tree = treeprint.New()
	tree.SetValue(f("urisc: %v", status))

	tree.AddMetaNode("cycles", fmt.Sprintf("%d", emu.Cpu.Cycles))
	tree.AddMetaNode("pc", fmt.Sprintf("0x%04x", snap.Pc))
	tree.AddMetaNode("ir", fmt.Sprintf("%032b %v", snap.Ir, cpu.Decode(snap.Ir)))
	tree.AddMetaNode("flags", snap.Flags.String())

	regs := tree.AddBranch("registers")
	for n, value := range snap.Registers {
		regs.AddMetaNode(fmt.Sprintf("r%d", n), fmt.Sprintf("0x%08x %d", value, int32(value)))
	}

	caches := tree.AddBranch("caches")
	for _, cache := range []*memory.Cache{emu.Cpu.ICache, emu.Cpu.DCache} {
		caches.AddNode(cache.Stats())
	}

	return
}
