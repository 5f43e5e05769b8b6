package memory

import (
	"errors"

	"github.com/uflarisc/urisc/translate"
)

var f = translate.From

var (
	// Memory errors
	ErrAddressRange = errors.New(f("address out of range"))
)

// ErrAccess records the address of a failed memory access.
type ErrAccess struct {
	Address uint32
	Store   bool
	Err     error
}

func (err *ErrAccess) Error() string {
	if err.Store {
		return f("store 0x%08x %v", err.Address, err.Err)
	}
	return f("load 0x%08x %v", err.Address, err.Err)
}

func (err *ErrAccess) Unwrap() error {
	return err.Err
}
