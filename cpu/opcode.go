package cpu

import (
	"fmt"
	"strings"
)

// Opcode is the 8-bit operation selector in bits 31-24 of an instruction word.
type Opcode uint8

const (
	OPCODE_ADD     = Opcode(0x01) // add
	OPCODE_SUB     = Opcode(0x02) // sub
	OPCODE_ZEROS   = Opcode(0x03) // zeros
	OPCODE_XOR     = Opcode(0x04) // xor
	OPCODE_OR      = Opcode(0x05) // or
	OPCODE_NOT     = Opcode(0x06) // not
	OPCODE_AND     = Opcode(0x07) // and
	OPCODE_ASL     = Opcode(0x08) // asl
	OPCODE_ASR     = Opcode(0x09) // asr
	OPCODE_LSL     = Opcode(0x0a) // lsl
	OPCODE_LSR     = Opcode(0x0b) // lsr
	OPCODE_PASSA   = Opcode(0x0c) // passa
	OPCODE_LCL_MSB = Opcode(0x0e) // lcl_msb
	OPCODE_LCL_LSB = Opcode(0x0f) // lcl_lsb
	OPCODE_LOAD    = Opcode(0x10) // load
	OPCODE_STORE   = Opcode(0x11) // store
	OPCODE_JAL     = Opcode(0x12) // jal
	OPCODE_JR      = Opcode(0x13) // jr
	OPCODE_BEQ     = Opcode(0x14) // beq
	OPCODE_BNE     = Opcode(0x15) // bne
	OPCODE_J       = Opcode(0x16) // j
	OPCODE_MUL     = Opcode(0x17) // mul
	OPCODE_DIV     = Opcode(0x18) // div
	OPCODE_MOD     = Opcode(0x19) // mod
	OPCODE_NEG     = Opcode(0x1a) // neg
	OPCODE_INC     = Opcode(0x1b) // inc
	OPCODE_DEC     = Opcode(0x1c) // dec
	OPCODE_BGT     = Opcode(0x1d) // bgt
	OPCODE_BLT     = Opcode(0x1e) // blt
	OPCODE_HALT    = Opcode(0xff) // halt
)

// MNEMONIC_UNKNOWN is the mnemonic of any opcode not in the instruction set.
const MNEMONIC_UNKNOWN = "unknown"

// Shape is the field layout of an instruction word.
type Shape int

const (
	SHAPE_R = Shape(0) // R: opcode, RA, RB, RC
	SHAPE_I = Shape(1) // I: opcode, imm16, RC
	SHAPE_J = Shape(2) // J: opcode, addr24
)

func (shape Shape) String() string {
	switch shape {
	case SHAPE_R:
		return "R"
	case SHAPE_I:
		return "I"
	case SHAPE_J:
		return "J"
	}
	return fmt.Sprintf("Shape(%d)", int(shape))
}

// Form is the operand signature of an opcode, in assembly order.
type Form int

const (
	FORM_UNKNOWN = Form(iota) // no operands, raw word only
	FORM_ALU3                 // rc, ra, rb
	FORM_ALU2                 // rc, ra
	FORM_ALU1                 // rc
	FORM_CONST                // rc, imm16
	FORM_MEMORY               // rc, ra
	FORM_JUMP                 // addr24
	FORM_REG                  // rc
	FORM_BRANCH               // ra, rb, target8
	FORM_NONE                 // no operands
)

// Shape returns the word layout used by the form.
func (form Form) Shape() Shape {
	switch form {
	case FORM_CONST:
		return SHAPE_I
	case FORM_JUMP:
		return SHAPE_J
	}
	return SHAPE_R
}

// Operands returns the number of assembly operands of the form.
func (form Form) Operands() int {
	switch form {
	case FORM_ALU3, FORM_BRANCH:
		return 3
	case FORM_ALU2, FORM_CONST, FORM_MEMORY:
		return 2
	case FORM_ALU1, FORM_JUMP, FORM_REG:
		return 1
	}
	return 0
}

type opInfo struct {
	mnemonic string
	form     Form
}

var opTable = map[Opcode]opInfo{
	OPCODE_ADD:     {"add", FORM_ALU3},
	OPCODE_SUB:     {"sub", FORM_ALU3},
	OPCODE_ZEROS:   {"zeros", FORM_ALU1},
	OPCODE_XOR:     {"xor", FORM_ALU3},
	OPCODE_OR:      {"or", FORM_ALU3},
	OPCODE_NOT:     {"not", FORM_ALU2},
	OPCODE_AND:     {"and", FORM_ALU3},
	OPCODE_ASL:     {"asl", FORM_ALU3},
	OPCODE_ASR:     {"asr", FORM_ALU3},
	OPCODE_LSL:     {"lsl", FORM_ALU3},
	OPCODE_LSR:     {"lsr", FORM_ALU3},
	OPCODE_PASSA:   {"passa", FORM_ALU2},
	OPCODE_LCL_MSB: {"lcl_msb", FORM_CONST},
	OPCODE_LCL_LSB: {"lcl_lsb", FORM_CONST},
	OPCODE_LOAD:    {"load", FORM_MEMORY},
	OPCODE_STORE:   {"store", FORM_MEMORY},
	OPCODE_JAL:     {"jal", FORM_JUMP},
	OPCODE_JR:      {"jr", FORM_REG},
	OPCODE_BEQ:     {"beq", FORM_BRANCH},
	OPCODE_BNE:     {"bne", FORM_BRANCH},
	OPCODE_J:       {"j", FORM_JUMP},
	OPCODE_MUL:     {"mul", FORM_ALU3},
	OPCODE_DIV:     {"div", FORM_ALU3},
	OPCODE_MOD:     {"mod", FORM_ALU3},
	OPCODE_NEG:     {"neg", FORM_ALU2},
	OPCODE_INC:     {"inc", FORM_ALU2},
	OPCODE_DEC:     {"dec", FORM_ALU2},
	OPCODE_BGT:     {"bgt", FORM_BRANCH},
	OPCODE_BLT:     {"blt", FORM_BRANCH},
	OPCODE_HALT:    {"halt", FORM_NONE},
}

// mnemonicMap maps mnemonic names to opcodes.
var mnemonicMap = func() map[string]Opcode {
	mnemonics := make(map[string]Opcode, len(opTable))
	for op, info := range opTable {
		mnemonics[info.mnemonic] = op
	}
	return mnemonics
}()

// Lookup returns the opcode of a mnemonic.
func Lookup(mnemonic string) (op Opcode, ok bool) {
	op, ok = mnemonicMap[strings.ToLower(mnemonic)]
	return
}

// Known returns true if the opcode is part of the instruction set.
func (op Opcode) Known() (ok bool) {
	_, ok = opTable[op]
	return
}

// Form returns the operand form of the opcode.
func (op Opcode) Form() Form {
	return opTable[op].form
}

// String returns the mnemonic of the opcode.
func (op Opcode) String() string {
	info, ok := opTable[op]
	if !ok {
		return MNEMONIC_UNKNOWN
	}
	return info.mnemonic
}

// Instruction word field extraction.
const (
	FIELD_REG_LIMIT    = 0xff     // RA, RB, RC and branch targets.
	FIELD_IMM_LIMIT    = 0xffff   // 16-bit immediate.
	FIELD_ADDR_LIMIT   = 0xffffff // 24-bit jump address.
	FIELD_OPCODE_SHIFT = 24
)

// Word is a raw 32-bit instruction word.
type Word uint32

func (word Word) Opcode() Opcode {
	return Opcode(word >> FIELD_OPCODE_SHIFT)
}

func (word Word) Ra() uint8 {
	return uint8(word >> 16)
}

func (word Word) Rb() uint8 {
	return uint8(word >> 8)
}

func (word Word) Rc() uint8 {
	return uint8(word)
}

func (word Word) Immediate() uint16 {
	return uint16(word >> 8)
}

func (word Word) Address() uint32 {
	return uint32(word) & FIELD_ADDR_LIMIT
}

// Bits returns the 32 character binary pattern of the word.
func (word Word) Bits() string {
	return fmt.Sprintf("%032b", uint32(word))
}

// MakeWordR builds an R-type instruction word.
func MakeWordR(op Opcode, ra, rb, rc uint8) Word {
	return Word(uint32(op)<<FIELD_OPCODE_SHIFT | uint32(ra)<<16 | uint32(rb)<<8 | uint32(rc))
}

// MakeWordI builds an I-type instruction word.
func MakeWordI(op Opcode, imm uint16, rc uint8) Word {
	return Word(uint32(op)<<FIELD_OPCODE_SHIFT | uint32(imm)<<8 | uint32(rc))
}

// MakeWordJ builds a J-type instruction word.
func MakeWordJ(op Opcode, address uint32) Word {
	return Word(uint32(op)<<FIELD_OPCODE_SHIFT | (address & FIELD_ADDR_LIMIT))
}

// Decoded is an instruction word split into every field view.
// Callers select the views relevant to the opcode.
type Decoded struct {
	Word      Word
	Opcode    Opcode
	Mnemonic  string
	Ra        uint8
	Rb        uint8
	Rc        uint8
	Immediate uint16
	Address   uint32
}

// Decode splits a word into its fields. An opcode outside the instruction
// set decodes as MNEMONIC_UNKNOWN with all fields zeroed, keeping the raw word.
func Decode(word uint32) (dec Decoded) {
	w := Word(word)
	op := w.Opcode()

	dec = Decoded{
		Word:     w,
		Opcode:   op,
		Mnemonic: op.String(),
	}

	if !op.Known() {
		return
	}

	dec.Ra = w.Ra()
	dec.Rb = w.Rb()
	dec.Rc = w.Rc()
	dec.Immediate = w.Immediate()
	dec.Address = w.Address()

	return
}

// Bits returns the binary pattern of the decoded word.
func (dec Decoded) Bits() string {
	return dec.Word.Bits()
}

// Operands returns the fields used by the opcode, in assembly order.
func (dec Decoded) Operands() (operands []uint32) {
	switch dec.Opcode.Form() {
	case FORM_ALU3:
		operands = []uint32{uint32(dec.Rc), uint32(dec.Ra), uint32(dec.Rb)}
	case FORM_ALU2, FORM_MEMORY:
		operands = []uint32{uint32(dec.Rc), uint32(dec.Ra)}
	case FORM_ALU1, FORM_REG:
		operands = []uint32{uint32(dec.Rc)}
	case FORM_CONST:
		operands = []uint32{uint32(dec.Rc), uint32(dec.Immediate)}
	case FORM_JUMP:
		operands = []uint32{dec.Address}
	case FORM_BRANCH:
		operands = []uint32{uint32(dec.Ra), uint32(dec.Rb), uint32(dec.Rc)}
	}

	return
}

// String returns the assembly language representation of the instruction.
func (dec Decoded) String() string {
	r := func(index uint8) string { return fmt.Sprintf("r%d", index) }

	switch dec.Opcode.Form() {
	case FORM_ALU3:
		return fmt.Sprintf("%v %v, %v, %v", dec.Mnemonic, r(dec.Rc), r(dec.Ra), r(dec.Rb))
	case FORM_ALU2, FORM_MEMORY:
		return fmt.Sprintf("%v %v, %v", dec.Mnemonic, r(dec.Rc), r(dec.Ra))
	case FORM_ALU1, FORM_REG:
		return fmt.Sprintf("%v %v", dec.Mnemonic, r(dec.Rc))
	case FORM_CONST:
		return fmt.Sprintf("%v %v, 0x%04x", dec.Mnemonic, r(dec.Rc), dec.Immediate)
	case FORM_JUMP:
		return fmt.Sprintf("%v 0x%06x", dec.Mnemonic, dec.Address)
	case FORM_BRANCH:
		return fmt.Sprintf("%v %v, %v, %d", dec.Mnemonic, r(dec.Ra), r(dec.Rb), dec.Rc)
	case FORM_NONE:
		return dec.Mnemonic
	}

	return fmt.Sprintf("%v [%v]", MNEMONIC_UNKNOWN, dec.Bits())
}

// Encode assembles a mnemonic and its operands, in assembly order, into a
// word. Fields not used by the mnemonic are zero.
func Encode(mnemonic string, operands ...uint32) (word uint32, err error) {
	op, ok := Lookup(mnemonic)
	if !ok {
		err = ErrMnemonicUnknown
		return
	}

	form := op.Form()
	if len(operands) != form.Operands() {
		err = ErrOperandCount
		return
	}

	check := func(field string, value uint32, limit uint32) {
		if err == nil && value > limit {
			err = ErrOperandRange{Field: field, Value: value, Limit: limit}
		}
	}

	var w Word
	switch form {
	case FORM_ALU3:
		check("rc", operands[0], FIELD_REG_LIMIT)
		check("ra", operands[1], FIELD_REG_LIMIT)
		check("rb", operands[2], FIELD_REG_LIMIT)
		w = MakeWordR(op, uint8(operands[1]), uint8(operands[2]), uint8(operands[0]))
	case FORM_ALU2, FORM_MEMORY:
		check("rc", operands[0], FIELD_REG_LIMIT)
		check("ra", operands[1], FIELD_REG_LIMIT)
		w = MakeWordR(op, uint8(operands[1]), 0, uint8(operands[0]))
	case FORM_ALU1, FORM_REG:
		check("rc", operands[0], FIELD_REG_LIMIT)
		w = MakeWordR(op, 0, 0, uint8(operands[0]))
	case FORM_CONST:
		check("rc", operands[0], FIELD_REG_LIMIT)
		check("imm16", operands[1], FIELD_IMM_LIMIT)
		w = MakeWordI(op, uint16(operands[1]), uint8(operands[0]))
	case FORM_JUMP:
		check("addr24", operands[0], FIELD_ADDR_LIMIT)
		w = MakeWordJ(op, operands[0])
	case FORM_BRANCH:
		check("ra", operands[0], FIELD_REG_LIMIT)
		check("rb", operands[1], FIELD_REG_LIMIT)
		check("target", operands[2], FIELD_REG_LIMIT)
		w = MakeWordR(op, uint8(operands[0]), uint8(operands[1]), uint8(operands[2]))
	case FORM_NONE:
		w = MakeWordR(op, 0, 0, 0)
	}
	if err != nil {
		return
	}

	word = uint32(w)
	return
}
