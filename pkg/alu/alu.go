// Package alu implements the arithmetic/logic unit: two 8-bit operands,
// a 4-bit opcode selecting one of eight operations, an 8-bit output, and
// the carry/zero/negative flags the CPU's status register is built from.
package alu

import "github.com/kellanburns/octo8/pkg/bits"

// Op selects one of the ALU's eight combinational operations.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpNot
	OpInc
	OpDec
	OpOr
	OpAnd
	OpXor
)

// Flag bit positions within the CPU's status register.
const (
	FlagCarry    uint = 0
	FlagZero     uint = 1
	FlagNegative uint = 2
)

// ALU holds the combinational unit's current inputs, output, and derived
// flags. Setting Opcode runs the selected operation immediately against the
// current A/B; setting A or B only loads the operand (clearing the negative
// flag) and leaves Output unchanged.
type ALU struct {
	a, b   bits.Vector
	opcode Op
	output bits.Vector
	carry  uint32
	// negative is set by SUB and DEC, when the raw result would have
	// required a borrow out of the top bit.
	negative bool
}

// New returns an ALU with zeroed operands and output.
func New() *ALU {
	return &ALU{a: bits.NewDefault(0), b: bits.NewDefault(0), output: bits.NewDefault(0)}
}

// A returns the current A operand.
func (u *ALU) A() bits.Vector { return u.a }

// B returns the current B operand.
func (u *ALU) B() bits.Vector { return u.b }

// SetA loads a new A operand, clearing the negative flag.
func (u *ALU) SetA(v bits.Vector) {
	u.negative = false
	u.a = v
}

// SetB loads a new B operand; also clears the negative flag.
func (u *ALU) SetB(v bits.Vector) {
	u.negative = false
	u.b = v
}

// Output returns the result of the last operation.
func (u *ALU) Output() bits.Vector { return u.output }

// Carry returns the carry flag produced by the last ADD.
func (u *ALU) Carry() bool { return u.carry != 0 }

// Negative returns the negative flag, set by SUB/DEC underflow and cleared
// by any write to A or B.
func (u *ALU) Negative() bool { return u.negative }

// Zero is derived on read, not stored: it reflects whether A-B == 0
// regardless of which operation last ran.
func (u *ALU) Zero() bool {
	diff, _ := u.a.Sub(u.b)
	return diff.IsZero()
}

// SetOpcode selects an operation and runs it immediately against the
// current A/B, updating Output and the carry/negative flags.
func (u *ALU) SetOpcode(op Op) {
	u.opcode = op
	switch op {
	case OpAdd:
		u.add()
	case OpSub:
		u.sub()
	case OpNot:
		u.output = u.a.Not()
	case OpInc:
		u.output, _ = u.a.Add(bits.NewDefault(1))
	case OpDec:
		u.output, u.negative = u.subtract(u.a, bits.NewDefault(1))
	case OpOr:
		u.output = u.a.Or(u.b)
	case OpAnd:
		u.output = u.a.And(u.b)
	case OpXor:
		u.output = u.a.Xor(u.b)
	}
}

// Opcode returns the last-selected operation.
func (u *ALU) Opcode() Op { return u.opcode }

func (u *ALU) add() {
	sum, carry := u.a.Add(u.b)
	u.output = sum
	u.carry = carry
}

// sub reproduces this ISA's SUB underflow behavior: when the subtraction
// borrows (B > A), the negative flag is set and the output comes from
// underflowOutput rather than the conventional two's-complement result —
// a deliberately preserved quirk, not the textbook behavior.
func (u *ALU) sub() {
	u.output, u.negative = u.subtract(u.a, u.b)
}

// subtract runs a-b and reports whether it borrowed, returning the
// underflow-quirk output in place of the raw difference when it did.
func (u *ALU) subtract(a, b bits.Vector) (bits.Vector, bool) {
	diff, borrow := a.Sub(b)
	if borrow != 0 {
		return underflowOutput(a, b), true
	}
	return diff, false
}

// underflowOutput reproduces the quirk in the underlying subtractor: the
// borrow magnitude's bottom bit is dropped (an integer halving, not a true
// bit drop) before the remaining 7 bits are reversed and a fixed low bit
// is appended. Distinct magnitudes that differ only in their low bit alias
// onto the same output byte.
func underflowOutput(a, b bits.Vector) bits.Vector {
	magnitude := b.Int() - a.Int()
	halved := bits.New(magnitude>>1, 7)
	return bits.New((halved.Reversed().Int()<<1)|1, 8)
}
