package cpu

import (
	"errors"

	"github.com/uflarisc/urisc/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalted          = errors.New(f("cpu halted"))
	ErrRegisterInvalid = errors.New(f("register invalid"))

	// Instruction encode errors
	ErrMnemonicUnknown = errors.New(f("unknown mnemonic"))
	ErrOperandCount    = errors.New(f("operand count"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrAddressSyntax      = errors.New(f("address syntax"))
	ErrAddressOverlap     = errors.New(f("address already assembled"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrOperandRange reports an operand too wide for its instruction field.
type ErrOperandRange struct {
	Field string
	Value uint32
	Limit uint32
}

func (err ErrOperandRange) Error() string {
	return f("%v 0x%x exceeds 0x%x", err.Field, err.Value, err.Limit)
}

// ErrFault is a fatal execution fault, tagged with the failing instruction.
type ErrFault struct {
	Address uint32 // Address the instruction was fetched from.
	Word    uint32 // Instruction word, if it was fetched.
	Err     error
}

func (err *ErrFault) Error() string {
	return f("fault at 0x%04x [%032b] %v", err.Address, err.Word, err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseRegister string

func (err ErrParseRegister) Error() string {
	return f("'%v' is not a register", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
