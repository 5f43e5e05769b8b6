// Package cpu implements the processor and assembler for the μRISC system.
//
// The CPU consists of a program counter (PC), an instruction register (IR),
// thirty-two 32-bit general-purpose registers (r0-r31), an ALU with zero,
// negative, carry and overflow flags, and write-through instruction and data
// caches in front of main memory. Each cycle fetches, decodes and executes a
// single instruction. Register r0 is never written by an instruction, and jal
// stores its return address in r31.
//
// The assembler provides an assembly language for the μRISC instruction set,
// supporting macros, labels, equates, the address directive, and compile-time
// expression evaluation.
package cpu
