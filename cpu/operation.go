package cpu

// Operation is a decoded instruction, reduced to the fields its opcode uses.
// The set of implementations is closed; see Decoded.Operation.
type Operation interface {
	Opcode() Opcode
	operation()
}

// ThreeReg is a two-source ALU operation: rc = ra OP rb.
type ThreeReg struct {
	Code Opcode
	Rc   uint8
	Ra   uint8
	Rb   uint8
}

// RegPair is a single-source operation on rc and ra: ALU unary ops, load and store.
type RegPair struct {
	Code Opcode
	Rc   uint8
	Ra   uint8
}

// DestReg writes rc only.
type DestReg struct {
	Code Opcode
	Rc   uint8
}

// ImmReg merges a 16-bit constant into rc.
type ImmReg struct {
	Code      Opcode
	Rc        uint8
	Immediate uint16
}

// JumpAddr transfers control to a 24-bit absolute address.
type JumpAddr struct {
	Code    Opcode
	Address uint32
}

// JumpReg transfers control to the address held in rc.
type JumpReg struct {
	Rc uint8
}

// Branch conditionally transfers control to an 8-bit absolute target.
type Branch struct {
	Code   Opcode
	Ra     uint8
	Rb     uint8
	Target uint8
}

// Halt stops the machine.
type Halt struct{}

// Unknown is an opcode outside the instruction set. It executes as a no-op.
type Unknown struct {
	Code Opcode
}

func (op ThreeReg) Opcode() Opcode { return op.Code }
func (op RegPair) Opcode() Opcode  { return op.Code }
func (op DestReg) Opcode() Opcode  { return op.Code }
func (op ImmReg) Opcode() Opcode   { return op.Code }
func (op JumpAddr) Opcode() Opcode { return op.Code }
func (op JumpReg) Opcode() Opcode  { return OPCODE_JR }
func (op Branch) Opcode() Opcode   { return op.Code }
func (op Halt) Opcode() Opcode     { return OPCODE_HALT }
func (op Unknown) Opcode() Opcode  { return op.Code }

func (ThreeReg) operation() {}
func (RegPair) operation()  {}
func (DestReg) operation()  {}
func (ImmReg) operation()   {}
func (JumpAddr) operation() {}
func (JumpReg) operation()  {}
func (Branch) operation()   {}
func (Halt) operation()     {}
func (Unknown) operation()  {}

// Operation returns the operation variant for the decoded word.
func (dec Decoded) Operation() Operation {
	op := dec.Opcode

	switch op.Form() {
	case FORM_ALU3:
		return ThreeReg{Code: op, Rc: dec.Rc, Ra: dec.Ra, Rb: dec.Rb}
	case FORM_ALU2, FORM_MEMORY:
		return RegPair{Code: op, Rc: dec.Rc, Ra: dec.Ra}
	case FORM_ALU1:
		return DestReg{Code: op, Rc: dec.Rc}
	case FORM_CONST:
		return ImmReg{Code: op, Rc: dec.Rc, Immediate: dec.Immediate}
	case FORM_JUMP:
		return JumpAddr{Code: op, Address: dec.Address}
	case FORM_REG:
		return JumpReg{Rc: dec.Rc}
	case FORM_BRANCH:
		return Branch{Code: op, Ra: dec.Ra, Rb: dec.Rb, Target: dec.Rc}
	case FORM_NONE:
		return Halt{}
	}

	return Unknown{Code: op}
}

// Registers returns the register indexes the operation reads or writes.
func (dec Decoded) Registers() (regs []uint8) {
	switch dec.Opcode.Form() {
	case FORM_ALU3:
		regs = []uint8{dec.Rc, dec.Ra, dec.Rb}
	case FORM_ALU2, FORM_MEMORY:
		regs = []uint8{dec.Rc, dec.Ra}
	case FORM_ALU1, FORM_CONST, FORM_REG:
		regs = []uint8{dec.Rc}
	case FORM_BRANCH:
		regs = []uint8{dec.Ra, dec.Rb}
	}
	return
}
