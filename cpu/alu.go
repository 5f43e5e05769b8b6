package cpu

import (
	"fmt"
	"math/bits"
)

const (
	SIGN_BIT   = uint32(1 << 31)
	SHIFT_MASK = 0x1f // Shift amounts are modulo 32.
)

// Flags are the condition flags, recomputed by every ALU operation.
type Flags struct {
	Zero     bool
	Negative bool
	Carry    bool
	Overflow bool
}

// String returns the flags as "ZNCV", with '-' for clear flags.
func (fl Flags) String() string {
	bit := func(set bool, name byte) byte {
		if set {
			return name
		}
		return '-'
	}
	return string([]byte{
		bit(fl.Zero, 'Z'),
		bit(fl.Negative, 'N'),
		bit(fl.Carry, 'C'),
		bit(fl.Overflow, 'V'),
	})
}

// Mask32 truncates a value to 32 bits.
func Mask32(value int64) uint32 {
	return uint32(value & 0xffffffff)
}

// IsAlu returns true if the opcode is computed by the ALU.
func (op Opcode) IsAlu() bool {
	switch op {
	case OPCODE_ADD, OPCODE_SUB, OPCODE_ZEROS, OPCODE_XOR, OPCODE_OR,
		OPCODE_NOT, OPCODE_AND, OPCODE_ASL, OPCODE_ASR, OPCODE_LSL,
		OPCODE_LSR, OPCODE_PASSA, OPCODE_MUL, OPCODE_DIV, OPCODE_MOD,
		OPCODE_NEG, OPCODE_INC, OPCODE_DEC:
		return true
	}
	return false
}

// Alu performs the opcode's operation on a and b, and returns the result
// with freshly computed flags. Opcodes outside the ALU yield 0.
func Alu(op Opcode, a, b uint32) (result uint32, flags Flags) {
	switch op {
	case OPCODE_ADD:
		return aluAdd(a, b)
	case OPCODE_INC:
		return aluAdd(a, 1)
	case OPCODE_SUB:
		return aluSub(a, b)
	case OPCODE_NEG:
		return aluSub(0, a)
	case OPCODE_DEC:
		return aluSub(a, 1)
	case OPCODE_AND:
		result = a & b
	case OPCODE_OR:
		result = a | b
	case OPCODE_XOR:
		result = a ^ b
	case OPCODE_NOT:
		result = ^a
	case OPCODE_ASL, OPCODE_LSL:
		result = a << (b & SHIFT_MASK)
	case OPCODE_LSR:
		result = a >> (b & SHIFT_MASK)
	case OPCODE_ASR:
		result = uint32(int32(a) >> (b & SHIFT_MASK))
	case OPCODE_PASSA:
		result = a
	case OPCODE_ZEROS:
		result = 0
	case OPCODE_MUL:
		result = a * b
	case OPCODE_DIV:
		if b != 0 {
			result = a / b
		}
	case OPCODE_MOD:
		if b != 0 {
			result = a % b
		}
	}

	flags = logicFlags(result)
	return
}

// logicFlags never report carry or overflow.
func logicFlags(result uint32) Flags {
	return Flags{
		Zero:     result == 0,
		Negative: result&SIGN_BIT != 0,
	}
}

func aluAdd(a, b uint32) (result uint32, flags Flags) {
	result, carry := bits.Add32(a, b, 0)

	flags = logicFlags(result)
	flags.Carry = carry != 0
	flags.Overflow = (a&SIGN_BIT) == (b&SIGN_BIT) && (result&SIGN_BIT) != (a&SIGN_BIT)
	return
}

// aluSub uses the borrow convention: carry is set when b > a.
func aluSub(a, b uint32) (result uint32, flags Flags) {
	result, borrow := bits.Sub32(a, b, 0)

	flags = logicFlags(result)
	flags.Carry = borrow != 0
	flags.Overflow = (a&SIGN_BIT) != (b&SIGN_BIT) && (result&SIGN_BIT) != (a&SIGN_BIT)
	return
}

// compare evaluates a branch condition. bgt and blt compare signed values.
func compare(op Opcode, a, b uint32) (taken bool, err error) {
	switch op {
	case OPCODE_BEQ:
		taken = a == b
	case OPCODE_BNE:
		taken = a != b
	case OPCODE_BGT:
		taken = int32(a) > int32(b)
	case OPCODE_BLT:
		taken = int32(a) < int32(b)
	default:
		err = fmt.Errorf("%w: %v", ErrMnemonicUnknown, op)
	}
	return
}
