package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assemble(t *testing.T, program ...string) (prog *Program) {
	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	return
}

func lineEqual(t *testing.T, expected, lines []Line) {
	assert := assert.New(t)

	assert.Equal(len(expected), len(lines))
	if len(expected) == len(lines) {
		for n := range len(expected) {
			assert.Equal(expected[n], lines[n])
		}
	}
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Lines))

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("r31", asm.Equate["LR"])
	assert.Equal("r0", asm.Equate["ZERO"])
}

func TestAssemblerForms(t *testing.T) {
	prog := assemble(t,
		"add r3, r1, r2",
		"lcl_msb r9, 0xbeef",
		"load r4, r5",
		"store r6, r7",
		"zeros r2",
		"NEG R8 R1",
		"jr LR",
		"jal 0x123456",
		"bgt r1, r2, 200",
		"halt",
	)

	expected := []Line{
		{1, 0, []string{"add", "r3", "r1", "r2"}, 0x01_01_02_03, ""},
		{2, 1, []string{"lcl_msb", "r9", "0xbeef"}, 0x0e_beef_09, ""},
		{3, 2, []string{"load", "r4", "r5"}, 0x10_05_00_04, ""},
		{4, 3, []string{"store", "r6", "r7"}, 0x11_07_00_06, ""},
		{5, 4, []string{"zeros", "r2"}, 0x03_00_00_02, ""},
		{6, 5, []string{"NEG", "R8", "R1"}, 0x1a_01_00_08, ""},
		{7, 6, []string{"jr", "r31"}, 0x13_00_00_1f, ""},
		{8, 7, []string{"jal", "0x123456"}, 0x12_123456, ""},
		{9, 8, []string{"bgt", "r1", "r2", "200"}, 0x1d_01_02_c8, ""},
		{10, 9, []string{"halt"}, 0xff_00_00_00, ""},
	}

	lineEqual(t, expected, prog.Lines)
}

func TestAssemblerEqu(t *testing.T) {
	prog := assemble(t,
		".equ TEN 10",
		"lcl_lsb r1, TEN",
		"lcl_lsb r2, $(TEN * 3)",
		"lcl_lsb r3, $(LINENO)",
		".equ COUNTER r7",
		"inc COUNTER, COUNTER",
		"lcl_msb r4, 'A'",
		"lcl_lsb r5, ~0xffff0000",
	)

	expected := []Line{
		{2, 0, []string{"lcl_lsb", "r1", "10"}, 0x0f_000a_01, ""},
		{3, 1, []string{"lcl_lsb", "r2", "0x1e"}, 0x0f_001e_02, ""},
		{4, 2, []string{"lcl_lsb", "r3", "0x4"}, 0x0f_0004_03, ""},
		{6, 3, []string{"inc", "r7", "r7"}, 0x1b_07_00_07, ""},
		{7, 4, []string{"lcl_msb", "r4", "65"}, 0x0e_0041_04, ""},
		{8, 5, []string{"lcl_lsb", "r5", "~0xffff0000"}, 0x0f_ffff_05, ""},
	}

	lineEqual(t, expected, prog.Lines)
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("BASE", "0x40")
	asm.Predefine("BASE", "0x80")

	prog, err := asm.Parse(strings.NewReader("address BASE\nhalt\n"))
	assert.NoError(err)
	if assert.Equal(1, len(prog.Lines)) {
		assert.Equal(uint32(0x80), prog.Lines[0].Address)
	}
}

func TestAssemblerLabel(t *testing.T) {
	prog := assemble(t,
		"start: beq r0, r0, done",
		"inc r1, r1",
		"LOOP: AND_ALSO:",
		"j start",
		"",
		"; nothing here",
		"done: halt ; stop",
		"jal LOOP",
	)

	expected := []Line{
		{1, 0, []string{"beq", "r0", "r0", "done"}, 0x14_00_00_03, "done"},
		{2, 1, []string{"inc", "r1", "r1"}, 0x1b_01_00_01, ""},
		{4, 2, []string{"j", "start"}, 0x16_000000, ""},
		{7, 3, []string{"halt"}, 0xff_00_00_00, ""},
		{8, 4, []string{"jal", "LOOP"}, 0x12_000002, ""},
	}

	lineEqual(t, expected, prog.Lines)
}

func TestAssemblerAddress(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		"address 0x100",
		"entry: j main",
		"address 0x10",
		"main: halt",
	}, "\n")))
	assert.NoError(err)

	expected := []Line{
		{2, 0x100, []string{"j", "main"}, 0x16_000010, "main"},
		{4, 0x10, []string{"halt"}, 0xff_00_00_00, ""},
	}
	lineEqual(t, expected, prog.Lines)

	assert.Equal(uint32(0x100), asm.Label["entry"])
	assert.Equal(uint32(0x10), asm.Label["main"])
}

func TestAssemblerMacro(t *testing.T) {
	prog := assemble(t,
		".macro SET rn value",
		"lcl_msb rn, $(value >> 16)",
		"lcl_lsb rn, $(value & 0xffff)",
		".endm",
		"SET r5, 0x12345678",
		".macro COUNTDOWN reg",
		"@top: dec reg, reg",
		"bne reg, r0, @top",
		".endm",
		"COUNTDOWN r1",
		"COUNTDOWN r2",
	)

	expected := []Line{
		{2, 0, []string{"lcl_msb", "r5", "0x1234"}, 0x0e_1234_05, ""},
		{3, 1, []string{"lcl_lsb", "r5", "0x5678"}, 0x0f_5678_05, ""},
		{7, 2, []string{"dec", "r1", "r1"}, 0x1c_01_00_01, ""},
		{8, 3, []string{"bne", "r1", "r0", "COUNTDOWN_10_top"}, 0x15_01_00_02, ""},
		{7, 4, []string{"dec", "r2", "r2"}, 0x1c_02_00_02, ""},
		{8, 5, []string{"bne", "r2", "r0", "COUNTDOWN_11_top"}, 0x15_02_00_04, ""},
	}

	lineEqual(t, expected, prog.Lines)
}

func TestAssemblerErrSyntax(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	// Various syntax errors
	table := [](struct {
		prog string
		line int
	}){
		{"DUP:\nDUP:\n", 2},
		{"lcl_lsb r0, nothing", 1},
		{"lcl_lsb r0, $(\"aaa\")", 1},
		{"lcl_lsb r0, $(more(\"aaa\"))", 1},
		{"lcl_lsb r0, $(0x10000000000000000)", 1},
		{"lcl_lsb r0, 0x10000", 1},
		{".equ", 1},
		{".equ A", 1},
		{".equ A 1\n.equ A 2\n", 2},
		{".macro A B C\n.endm\nA 1\n", 3},
		{".macro A B\nB r1\n.endm\nhalt\nA frob\n", 5},
		{".macro A B\n.macro C\n.endm\n.endm", 2},
		{".macro A B\n.endm\n.macro A\n.endm\n", 3},
		{".macro A B\n.endm\n.endm\n", 3},
		{".macro\n", 1},
		{".macro A\nhalt\n", 2},
		{"frob r1\n", 1},
		{"add\n", 1},
		{"add r1, r2", 1},
		{"add r1, r2, r3, r4", 1},
		{"add r1, r2, r32", 1},
		{"add r1, r2, x9", 1},
		{"zeros 7", 1},
		{"halt r0", 1},
		{"j", 1},
		{"j all over", 1},
		{"j 0x1000000", 1},
		{"halt\nj nowhere", 2},
		{"beq r0, r0, 256", 1},
		{"beq r0, r0, far\naddress 0x100\nfar: halt", 1},
		{"address", 1},
		{"address bogus", 1},
		{"halt\naddress 0\nhalt", 3},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		var se *ErrSyntax
		assert.NotNil(err, entry.prog)
		if err != nil {
			assert.True(errors.As(err, &se), entry.prog)
			assert.Equal(entry.line, se.LineNo, entry.prog)
		}
	}
}

func TestAssemblerErrKinds(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	table := []struct {
		prog string
		err  error
	}{
		{"frob", ErrMnemonicUnknown},
		{"add r1, r2", ErrOpcodeValueMissing},
		{"add r1, r2, r3, r4", ErrOpcodeExtraArgs},
		{"inc r99, r1", ErrRegisterInvalid},
		{"halt\naddress 0\nhalt", ErrAddressOverlap},
		{".equ A 1\n.equ A 2", ErrEquateDuplicate},
		{"X:\nX:", ErrLabelDuplicate},
		{".endm", ErrMacroLonelyEndm},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		assert.ErrorIs(err, entry.err, entry.prog)
	}

	_, err := asm.Parse(strings.NewReader("j nowhere"))
	var missing ErrLabelMissing
	assert.True(errors.As(err, &missing))
	assert.Equal(ErrLabelMissing("nowhere"), missing)

	_, err = asm.Parse(strings.NewReader("beq r1, r2, 0x100"))
	var rng ErrOperandRange
	assert.True(errors.As(err, &rng))
	assert.Equal(ErrOperandRange{Field: "target", Value: 0x100, Limit: 0xff}, rng)
}

func TestAssemblerRun(t *testing.T) {
	assert := assert.New(t)

	// Sum 1..10 into r2
	prog := assemble(t,
		".equ N 10",
		"lcl_lsb r1, N",
		"loop: add r2, r2, r1",
		"dec r1, r1",
		"bne r1, ZERO, loop",
		"halt",
	)

	cpu := NewCpu()
	cpu.Reset()
	assert.NoError(cpu.LoadProgram(prog.Binary()))

	status, err := cpu.Run(CYCLE_LIMIT)
	assert.NoError(err)
	assert.Equal(STATUS_HALTED, status)
	assert.Equal(uint32(55), cpu.Register.Load(2))
	assert.Equal(uint32(0), cpu.Register.Load(1))
	assert.Equal(1+3*10+1, cpu.Cycles)
}
