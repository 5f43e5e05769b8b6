package io

import (
	"errors"

	"github.com/uflarisc/urisc/translate"
)

var f = translate.From

var (
	// Image errors
	ErrAddressSyntax = errors.New(f("address syntax"))
	ErrWordSyntax    = errors.New(f("word syntax"))
	ErrWordMissing   = errors.New(f("address without word"))
)

// ErrImage reports the line of an image that failed to load.
type ErrImage struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrImage) Error() string {
	return f("image line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrImage) Unwrap() error {
	return err.Err
}
