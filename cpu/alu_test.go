package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask32(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		value  int64
		masked uint32
	}{
		{0, 0},
		{-1, 0xffffffff},
		{-5, 0xfffffffb},
		{0x1_ffff_ffff, 0xffffffff},
		{0x1_2345_6789, 0x23456789},
		{0x7fffffff, 0x7fffffff},
	}

	for _, entry := range table {
		assert.Equal(entry.masked, Mask32(entry.value), "%#x", entry.value)
	}
}

func TestAlu(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		op     Opcode
		a, b   uint32
		result uint32
		flags  Flags
	}{
		{OPCODE_ADD, 10, 20, 30, Flags{}},
		{OPCODE_ADD, 0xffffffff, 1, 0, Flags{Zero: true, Carry: true}},
		{OPCODE_ADD, 0x7fffffff, 1, 0x80000000, Flags{Negative: true, Overflow: true}},
		{OPCODE_ADD, 0x80000000, 0x80000000, 0, Flags{Zero: true, Carry: true, Overflow: true}},
		{OPCODE_SUB, 5, 10, 0xfffffffb, Flags{Negative: true, Carry: true}},
		{OPCODE_SUB, 10, 5, 5, Flags{}},
		{OPCODE_SUB, 7, 7, 0, Flags{Zero: true}},
		{OPCODE_SUB, 0x80000000, 1, 0x7fffffff, Flags{Overflow: true}},
		{OPCODE_NEG, 1, 0xdead, 0xffffffff, Flags{Negative: true, Carry: true}},
		{OPCODE_NEG, 0, 0, 0, Flags{Zero: true}},
		{OPCODE_NEG, 0x80000000, 0, 0x80000000, Flags{Negative: true, Carry: true, Overflow: true}},
		{OPCODE_INC, 0xffffffff, 0xdead, 0, Flags{Zero: true, Carry: true}},
		{OPCODE_INC, 41, 0, 42, Flags{}},
		{OPCODE_DEC, 0, 0, 0xffffffff, Flags{Negative: true, Carry: true}},
		{OPCODE_DEC, 1, 0, 0, Flags{Zero: true}},
		{OPCODE_AND, 0xf0f0f0f0, 0xff00ff00, 0xf000f000, Flags{Negative: true}},
		{OPCODE_OR, 0x0f, 0xf0, 0xff, Flags{}},
		{OPCODE_XOR, 0x1234, 0x1234, 0, Flags{Zero: true}},
		{OPCODE_NOT, 0, 0, 0xffffffff, Flags{Negative: true}},
		{OPCODE_NOT, 0xffffffff, 0, 0, Flags{Zero: true}},
		{OPCODE_LSL, 1, 31, 0x80000000, Flags{Negative: true}},
		{OPCODE_LSL, 1, 32, 1, Flags{}},
		{OPCODE_ASL, 0x80000001, 1, 2, Flags{}},
		{OPCODE_LSR, 0x80000000, 31, 1, Flags{}},
		{OPCODE_LSR, 0x80000000, 33, 0x40000000, Flags{}},
		{OPCODE_ASR, 0xf0000000, 4, 0xff000000, Flags{Negative: true}},
		{OPCODE_ASR, 0x70000000, 4, 0x07000000, Flags{}},
		{OPCODE_ASR, 0x80000000, 31, 0xffffffff, Flags{Negative: true}},
		{OPCODE_PASSA, 0xcafe, 0xbeef, 0xcafe, Flags{}},
		{OPCODE_ZEROS, 0xcafe, 0xbeef, 0, Flags{Zero: true}},
		{OPCODE_MUL, 6, 7, 42, Flags{}},
		{OPCODE_MUL, 0x10000, 0x10000, 0, Flags{Zero: true}},
		{OPCODE_DIV, 42, 5, 8, Flags{}},
		{OPCODE_DIV, 42, 0, 0, Flags{Zero: true}},
		{OPCODE_MOD, 42, 5, 2, Flags{}},
		{OPCODE_MOD, 42, 0, 0, Flags{Zero: true}},
		{OPCODE_LOAD, 1, 2, 0, Flags{Zero: true}},
	}

	for _, entry := range table {
		result, flags := Alu(entry.op, entry.a, entry.b)
		assert.Equal(entry.result, result, "%v %#x %#x", entry.op, entry.a, entry.b)
		assert.Equal(entry.flags, flags, "%v %#x %#x", entry.op, entry.a, entry.b)
	}
}

func TestAluIsAlu(t *testing.T) {
	assert := assert.New(t)

	for op := range opTable {
		switch op.Form() {
		case FORM_ALU1, FORM_ALU2, FORM_ALU3:
			assert.True(op.IsAlu(), op.String())
		default:
			assert.False(op.IsAlu(), op.String())
		}
	}
}

func TestFlagsString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("----", Flags{}.String())
	assert.Equal("ZNCV", Flags{Zero: true, Negative: true, Carry: true, Overflow: true}.String())
	assert.Equal("-N-V", Flags{Negative: true, Overflow: true}.String())
}

func FuzzAlu(f *testing.F) {
	f.Add(uint32(0), uint32(0))
	f.Add(uint32(0xffffffff), uint32(1))
	f.Add(uint32(0x80000000), uint32(0x7fffffff))

	logical := []Opcode{
		OPCODE_AND, OPCODE_OR, OPCODE_XOR, OPCODE_NOT,
		OPCODE_ASL, OPCODE_ASR, OPCODE_LSL, OPCODE_LSR,
		OPCODE_PASSA, OPCODE_ZEROS,
	}

	f.Fuzz(func(t *testing.T, a, b uint32) {
		assert := assert.New(t)

		result, _ := Alu(OPCODE_ADD, a, 0)
		assert.Equal(a, result)

		result, flags := Alu(OPCODE_XOR, a, a)
		assert.Equal(uint32(0), result)
		assert.True(flags.Zero)

		result, _ = Alu(OPCODE_AND, a, 0xffffffff)
		assert.Equal(a, result)

		sum, flags := Alu(OPCODE_ADD, a, b)
		assert.Equal(Mask32(int64(a)+int64(b)), sum)
		assert.Equal(uint64(a)+uint64(b) > 0xffffffff, flags.Carry)

		diff, flags := Alu(OPCODE_SUB, a, b)
		assert.Equal(Mask32(int64(a)-int64(b)), diff)
		assert.Equal(b > a, flags.Carry)

		for _, op := range logical {
			result, flags := Alu(op, a, b)
			assert.Equal(result == 0, flags.Zero, op.String())
			assert.Equal(result&SIGN_BIT != 0, flags.Negative, op.String())
			assert.False(flags.Carry, op.String())
			assert.False(flags.Overflow, op.String())
		}
	})
}
