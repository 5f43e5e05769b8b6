package cpu

const (
	REGISTER_COUNT = 32 // General purpose registers.
	ZERO_REGISTER  = 0  // Never written by write-back.
	LINK_REGISTER  = 31 // Return address of jal.
)

// Bank is an indexed register storage.
type Bank interface {
	Load(index int) uint32
	Write(index int, value uint32)
}

// Latch is a single 32-bit register.
type Latch interface {
	Load() uint32
	Write(value uint32)
}

// RegisterFile is the general purpose register bank. It does not protect
// register 0; the write-back stage does.
type RegisterFile struct {
	Data [REGISTER_COUNT]uint32
}

var _ Bank = (*RegisterFile)(nil)

func (rf *RegisterFile) Load(index int) uint32 {
	return rf.Data[index]
}

func (rf *RegisterFile) Write(index int, value uint32) {
	rf.Data[index] = value
}

// Valid returns true if index names a register.
func (rf *RegisterFile) Valid(index int) bool {
	return index >= 0 && index < len(rf.Data)
}

// ProgramCounter holds the address of the next instruction to fetch.
type ProgramCounter struct {
	Value uint32
}

var _ Latch = (*ProgramCounter)(nil)

func (pc *ProgramCounter) Load() uint32 {
	return pc.Value
}

func (pc *ProgramCounter) Write(value uint32) {
	pc.Value = value
}

// InstructionRegister holds the most recently fetched word.
type InstructionRegister struct {
	Value uint32
}

var _ Latch = (*InstructionRegister)(nil)

func (ir *InstructionRegister) Load() uint32 {
	return ir.Value
}

func (ir *InstructionRegister) Write(value uint32) {
	ir.Value = value
}
