package emulator

import (
	"github.com/uflarisc/urisc/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Cycle   int    // Cycle that failed.
	Address uint32 // Address of the failing instruction.
	LineNo  int    // Source line, or 0 if unknown.
	Err     error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("cycle %d address 0x%04x %v", err.Cycle, err.Address, err.Err)
	}
	return f("line %d cycle %d address 0x%04x %v", err.LineNo, err.Cycle, err.Address, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
