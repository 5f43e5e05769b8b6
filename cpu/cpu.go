package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/uflarisc/urisc/memory"
)

const (
	CYCLE_LIMIT = 1000 // Default safety bound on cycles per run.
)

var _cpu_defines = map[string]string{
	"REGISTER_COUNT": fmt.Sprintf("%v", REGISTER_COUNT),
	"ZERO_REGISTER":  fmt.Sprintf("%v", ZERO_REGISTER),
	"LINK_REGISTER":  fmt.Sprintf("%v", LINK_REGISTER),
	"CYCLE_LIMIT":    fmt.Sprintf("%v", CYCLE_LIMIT),
	"BRANCH_LIMIT":   fmt.Sprintf("%#x", FIELD_REG_LIMIT),
	"JUMP_LIMIT":     fmt.Sprintf("%#x", FIELD_ADDR_LIMIT),
}

// Stage is the step of the instruction cycle the machine is in.
type Stage int

const (
	STAGE_FETCH   = Stage(0) // fetch
	STAGE_DECODE  = Stage(1) // decode
	STAGE_EXECUTE = Stage(2) // execute
	STAGE_HALTED  = Stage(3) // halted
)

func (stage Stage) String() string {
	switch stage {
	case STAGE_FETCH:
		return "fetch"
	case STAGE_DECODE:
		return "decode"
	case STAGE_EXECUTE:
		return "execute"
	case STAGE_HALTED:
		return "halted"
	}
	return fmt.Sprintf("Stage(%d)", int(stage))
}

// Status is the reason Run returned.
type Status int

const (
	STATUS_RUNNING     = Status(0) // running
	STATUS_HALTED      = Status(1) // halted
	STATUS_CYCLE_LIMIT = Status(2) // cycle limit exceeded
)

func (status Status) String() string {
	switch status {
	case STATUS_RUNNING:
		return "running"
	case STATUS_HALTED:
		return "halted"
	case STATUS_CYCLE_LIMIT:
		return "cycle limit exceeded"
	}
	return fmt.Sprintf("Status(%d)", int(status))
}

// Record describes one executed cycle.
type Record struct {
	Decoded
	Cycle   int    // Cycle number, from 0.
	Address uint32 // Address the word was fetched from.
	Pc      uint32 // Program counter after the cycle.
}

func (rec Record) String() string {
	return fmt.Sprintf("%4d %04x: %v %v", rec.Cycle, rec.Address, rec.Bits(), rec.Decoded.String())
}

// Snapshot is a copy of the architectural state.
type Snapshot struct {
	Pc        uint32
	Ir        uint32
	Registers [REGISTER_COUNT]uint32
	Flags     Flags
}

// Cpu is the execution engine. It owns all of the machine state.
type Cpu struct {
	Verbose bool         // Set to enable verbose logging.
	Trace   func(Record) // Called after every cycle, if set.

	Register Bank  // General purpose registers.
	Pc       Latch // Program counter.
	Ir       Latch // Instruction register.
	Flags    Flags // Condition flags.

	Memory memory.Storage // Main memory.
	ICache *memory.Cache  // Instruction side cache.
	DCache *memory.Cache  // Data side cache.

	Stage  Stage // Current stage.
	Halted bool  // Set once halt has executed.
	Cycles int   // Cycles since reset.
}

// Values is the register snapshot taken at decode, before execute can
// modify the register file.
type Values struct {
	A uint32 // Value of RA.
	B uint32 // Value of RB.
	C uint32 // Value of RC.
}

// NewCpu creates a machine with zeroed memory and registers.
func NewCpu() (cpu *Cpu) {
	mem := memory.NewMemory()

	cpu = &Cpu{
		Register: &RegisterFile{},
		Pc:       &ProgramCounter{},
		Ir:       &InstructionRegister{},
		Memory:   mem,
		ICache:   memory.NewCache("Instruction Cache", mem),
		DCache:   memory.NewCache("Data Cache", mem),
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset clears registers, flags, caches and counters. Memory is untouched.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	for n := range REGISTER_COUNT {
		cpu.Register.Write(n, 0)
	}
	cpu.Pc.Write(0)
	cpu.Ir.Write(0)
	cpu.Flags = Flags{}
	cpu.ICache.Reset()
	cpu.DCache.Reset()
	cpu.Stage = STAGE_FETCH
	cpu.Halted = false
	cpu.Cycles = 0
}

// LoadProgram writes (address, word) pairs into main memory, and points the
// program counter at the first address yielded. Callers holding an unordered
// table must yield it in the order they want executed first.
func (cpu *Cpu) LoadProgram(words iter.Seq2[uint32, uint32]) (err error) {
	first := true
	var entry uint32
	for address, word := range words {
		err = cpu.Memory.Store(address, word)
		if err != nil {
			return
		}
		if first {
			entry = address
			first = false
		}
	}
	cpu.Pc.Write(entry)

	if cpu.Verbose {
		log.Printf("cpu: program loaded, pc 0x%04x", cpu.Pc.Load())
	}

	return
}

// Fetch latches the word at PC into IR and advances PC.
func (cpu *Cpu) Fetch() (address uint32, word uint32, err error) {
	cpu.Stage = STAGE_FETCH

	address = cpu.Pc.Load()
	word, err = cpu.ICache.Load(address)
	if err != nil {
		return
	}

	cpu.Ir.Write(word)
	cpu.Pc.Write(address + 1)

	return
}

// Decode splits IR and snapshots the registers the operation uses.
func (cpu *Cpu) Decode() (dec Decoded, vals Values, err error) {
	cpu.Stage = STAGE_DECODE

	dec = Decode(cpu.Ir.Load())

	for _, reg := range dec.Registers() {
		if int(reg) >= REGISTER_COUNT {
			err = fmt.Errorf("%w: r%d", ErrRegisterInvalid, reg)
			return
		}
	}

	switch dec.Opcode.Form() {
	case FORM_ALU3, FORM_BRANCH:
		vals.A = cpu.Register.Load(int(dec.Ra))
		vals.B = cpu.Register.Load(int(dec.Rb))
	case FORM_ALU2, FORM_MEMORY:
		vals.A = cpu.Register.Load(int(dec.Ra))
	}

	switch dec.Opcode.Form() {
	case FORM_MEMORY, FORM_CONST, FORM_REG:
		vals.C = cpu.Register.Load(int(dec.Rc))
	}

	return
}

// writeBack stores a result in rc, unless rc is the zero register.
func (cpu *Cpu) writeBack(rc uint8, value uint32) {
	if rc == ZERO_REGISTER {
		return
	}
	cpu.Register.Write(int(rc), value)
}

// Execute runs the execute, memory and write-back stages of an operation.
func (cpu *Cpu) Execute(operation Operation, vals Values) (err error) {
	cpu.Stage = STAGE_EXECUTE

	switch op := operation.(type) {
	case ThreeReg:
		var result uint32
		result, cpu.Flags = Alu(op.Code, vals.A, vals.B)
		cpu.writeBack(op.Rc, result)
	case RegPair:
		switch op.Code {
		case OPCODE_LOAD:
			var value uint32
			value, err = cpu.DCache.Load(vals.A)
			if err != nil {
				return
			}
			cpu.writeBack(op.Rc, value)
		case OPCODE_STORE:
			err = cpu.DCache.Store(vals.C, vals.A)
		default:
			var result uint32
			result, cpu.Flags = Alu(op.Code, vals.A, 0)
			cpu.writeBack(op.Rc, result)
		}
	case DestReg:
		var result uint32
		result, cpu.Flags = Alu(op.Code, 0, 0)
		cpu.writeBack(op.Rc, result)
	case ImmReg:
		value := vals.C
		imm := uint32(op.Immediate)
		switch op.Code {
		case OPCODE_LCL_MSB:
			value = (imm << 16) | (value & 0x0000ffff)
		case OPCODE_LCL_LSB:
			value = (value & 0xffff0000) | imm
		}
		cpu.writeBack(op.Rc, value)
	case JumpAddr:
		if op.Code == OPCODE_JAL {
			cpu.Register.Write(LINK_REGISTER, cpu.Pc.Load())
		}
		cpu.Pc.Write(op.Address)
	case JumpReg:
		cpu.Pc.Write(vals.C)
	case Branch:
		var taken bool
		taken, err = compare(op.Code, vals.A, vals.B)
		if err != nil {
			return
		}
		if taken {
			cpu.Pc.Write(uint32(op.Target))
		}
	case Halt:
		cpu.Halted = true
		cpu.Stage = STAGE_HALTED
	case Unknown:
		if cpu.Verbose {
			log.Printf("cpu: unknown opcode 0x%02x, ignored", uint8(op.Code))
		}
	default:
		panic(fmt.Sprintf("unhandled operation %T", operation))
	}

	return
}

// Step runs a single fetch, decode, execute and write-back cycle.
func (cpu *Cpu) Step() (rec Record, err error) {
	if cpu.Halted {
		err = ErrHalted
		return
	}

	address := cpu.Pc.Load()
	var word uint32

	defer func() {
		if err != nil {
			err = &ErrFault{Address: address, Word: word, Err: err}
		}
	}()

	_, word, err = cpu.Fetch()
	if err != nil {
		return
	}

	dec, vals, err := cpu.Decode()
	if err != nil {
		return
	}

	err = cpu.Execute(dec.Operation(), vals)
	if err != nil {
		return
	}

	rec = Record{
		Decoded: dec,
		Cycle:   cpu.Cycles,
		Address: address,
		Pc:      cpu.Pc.Load(),
	}
	cpu.Cycles++

	if !cpu.Halted {
		cpu.Stage = STAGE_FETCH
	}

	if cpu.Verbose {
		log.Printf("cpu: %v", rec)
	}
	if cpu.Trace != nil {
		cpu.Trace(rec)
	}

	return
}

// Run steps the machine until halt, a fault, or maxCycles cycles have run.
func (cpu *Cpu) Run(maxCycles int) (status Status, err error) {
	if cpu.Halted {
		status = STATUS_HALTED
		return
	}

	for range maxCycles {
		_, err = cpu.Step()
		if err != nil {
			status = STATUS_RUNNING
			return
		}
		if cpu.Halted {
			status = STATUS_HALTED
			return
		}
	}

	status = STATUS_CYCLE_LIMIT
	if cpu.Verbose {
		log.Printf("cpu: %v after %d cycles", status, maxCycles)
	}

	return
}

// Snapshot returns a copy of PC, IR, registers and flags.
func (cpu *Cpu) Snapshot() (snap Snapshot) {
	snap.Pc = cpu.Pc.Load()
	snap.Ir = cpu.Ir.Load()
	for n := range REGISTER_COUNT {
		snap.Registers[n] = cpu.Register.Load(n)
	}
	snap.Flags = cpu.Flags

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	snap := cpu.Snapshot()

	text += fmt.Sprintf("% 5s: %04X_%04X\n", "pc", snap.Pc>>16, snap.Pc&0xffff)
	text += fmt.Sprintf("% 5s: %032b\n", "ir", snap.Ir)
	text += fmt.Sprintf("% 5s: %v\n", "flags", snap.Flags)
	for n, val := range snap.Registers {
		text += fmt.Sprintf("% 5s: %04X_%04X\n", fmt.Sprintf("r%d", n), val>>16, val&0xffff)
	}

	return
}
