package cpu

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Lines: []Line{
			{LineNo: 1, Address: 0, Words: []string{"lcl_lsb", "r1", "0x10"},
				Word: uint32(MakeWordI(OPCODE_LCL_LSB, 0x10, 1))},
			{LineNo: 2, Address: 1, Words: []string{"lcl_lsb", "r2", "0x20"},
				Word: uint32(MakeWordI(OPCODE_LCL_LSB, 0x20, 2))},
			{LineNo: 4, Address: 2, Words: []string{"add", "r3", "r1", "r2"},
				Word: uint32(MakeWordR(OPCODE_ADD, 1, 2, 3))},
		},
	}

	dbg := prog.Debug(0)
	assert.NotNil(dbg.Line)
	assert.Equal(1, dbg.LineNo)

	dbg = prog.Debug(1)
	assert.NotNil(dbg.Line)
	assert.Equal(2, dbg.LineNo)

	dbg = prog.Debug(2)
	assert.NotNil(dbg.Line)
	assert.Equal(4, dbg.LineNo)
	assert.Equal([]string{"add", "r3", "r1", "r2"}, dbg.Words)
}

func TestProgram_Debug_NotFound(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Lines: []Line{
			{LineNo: 1, Address: 0, Words: []string{"halt"}, Word: uint32(MakeWordR(OPCODE_HALT, 0, 0, 0))},
		},
	}

	dbg := prog.Debug(10)
	assert.Nil(dbg.Line)

	prog = &Program{}
	dbg = prog.Debug(0)
	assert.Nil(dbg.Line)
}

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"address 0x20",
		"halt",
		"address 0x10",
		"inc r1, r1",
		"j 0x20",
	)

	var addresses []uint32
	for address := range prog.Binary() {
		addresses = append(addresses, address)
	}
	assert.Equal([]uint32{0x20, 0x10, 0x11}, addresses)

	words := maps.Collect(prog.Binary())
	assert.Equal(map[uint32]uint32{
		0x10: 0x1b_01_00_01,
		0x11: 0x16_000020,
		0x20: 0xff_00_00_00,
	}, words)

	// Early termination
	count := 0
	for range prog.Binary() {
		count++
		break
	}
	assert.Equal(1, count)
}

func TestProgram_Decoded(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"address 0x20",
		"halt",
		"address 0x10",
		"inc r1, r1",
		"j 0x20",
	)

	var text []string
	var addresses []uint32
	for address, dec := range prog.Decoded() {
		addresses = append(addresses, address)
		text = append(text, dec.String())
	}

	assert.True(slices.IsSorted(addresses))
	assert.Equal([]string{"inc r1, r1", "j 0x000020", "halt"}, text)

	// Listing order is unchanged.
	assert.Equal(uint32(0x20), prog.Lines[0].Address)
}
