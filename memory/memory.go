// Package memory implements the main memory and the lookaside caches of the
// simulated machine.
//
// Main memory is a flat array of 32-bit words. The caches sit in front of it,
// one for instruction fetch and one for data access; they are write-through
// and never evict.
package memory

import (
	"fmt"
	"iter"
	"maps"
)

const (
	MEMORY_SIZE = 65536 // Number of 32-bit words in main memory.
)

var _memory_defines = map[string]string{
	"MEMORY_SIZE": fmt.Sprintf("%v", MEMORY_SIZE),
	"MEMORY_LAST": fmt.Sprintf("%#x", MEMORY_SIZE-1),
}

// Storage is a word-addressed load/store port.
type Storage interface {
	Load(address uint32) (value uint32, err error)
	Store(address uint32, value uint32) (err error)
}

// Memory is the main memory of the machine.
type Memory struct {
	Data [MEMORY_SIZE]uint32
}

var _ Storage = (*Memory)(nil)

// NewMemory creates a zeroed main memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Defines for the memory.
func Defines() iter.Seq2[string, string] {
	return maps.All(_memory_defines)
}

// Load reads the word at address.
func (mem *Memory) Load(address uint32) (value uint32, err error) {
	if address >= MEMORY_SIZE {
		err = &ErrAccess{Address: address, Err: ErrAddressRange}
		return
	}

	value = mem.Data[address]
	return
}

// Store writes value at address.
func (mem *Memory) Store(address uint32, value uint32) (err error) {
	if address >= MEMORY_SIZE {
		err = &ErrAccess{Address: address, Store: true, Err: ErrAddressRange}
		return
	}

	mem.Data[address] = value
	return
}

// Reset zeroes the memory.
func (mem *Memory) Reset() {
	clear(mem.Data[:])
}

// Used iterates over the non-zero words of memory, in address order.
func (mem *Memory) Used() iter.Seq2[uint32, uint32] {
	return func(yield func(address uint32, value uint32) bool) {
		for address, value := range mem.Data {
			if value == 0 {
				continue
			}
			if !yield(uint32(address), value) {
				return
			}
		}
	}
}
