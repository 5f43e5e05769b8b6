package cpu

import (
	"iter"
	"slices"
)

// Line is one assembled source line, and the word it produced.
type Line struct {
	LineNo    int      // Source line number.
	Address   uint32   // Memory address of the word.
	Words     []string // Source words, after expansion.
	Word      uint32   // Encoded instruction.
	LinkLabel string   // Label resolved at link time, if any.
}

// Program is an assembled program listing.
type Program struct {
	Lines []Line
}

// Debug is the listing line for an address.
type Debug struct {
	*Line
}

// Debug finds the listing line that produced the word at address.
func (prog *Program) Debug(address uint32) (dbg Debug) {
	for n, line := range prog.Lines {
		if line.Address == address {
			dbg = Debug{Line: &prog.Lines[n]}
			break
		}
	}

	return
}

// Binary iterates over the (address, word) pairs of the program, in
// assembly order.
func (prog *Program) Binary() iter.Seq2[uint32, uint32] {
	return func(yield func(address uint32, word uint32) bool) {
		for _, line := range prog.Lines {
			if !yield(line.Address, line.Word) {
				return
			}
		}
	}
}

// Decoded iterates over the decoded instructions of the program, in
// address order.
func (prog *Program) Decoded() iter.Seq2[uint32, Decoded] {
	return func(yield func(address uint32, dec Decoded) bool) {
		lines := slices.Clone(prog.Lines)
		slices.SortStableFunc(lines, func(a, b Line) int {
			switch {
			case a.Address < b.Address:
				return -1
			case a.Address > b.Address:
				return 1
			}
			return 0
		})
		for _, line := range lines {
			if !yield(line.Address, Decode(line.Word)) {
				return
			}
		}
	}
}
