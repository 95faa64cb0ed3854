// Package isa holds the static instruction-set data: the opcode table, the
// register-code table, and the per-mnemonic operand encoding rules that
// both the operation compiler (pkg/compiler) and the CPU's dispatch table
// (pkg/cpu) are built from.
package isa

// OpCode identifies one of the 22 mnemonics this ISA supports.
type OpCode uint8

const (
	HLT OpCode = iota
	LDA
	LDB
	LDC
	LDD
	STA
	STB
	STC
	STD
	ADD
	SUB
	INC
	DEC
	CMP
	JIL
	JIG
	JIE
	JNE
	PUSH
	POP
	CALL
	RET

	OpCodeCount
)

// OperandKind classifies how a mnemonic's single operand byte is encoded,
// driving the operation compiler (pkg/compiler/encoder.go). The CPU's
// execute handlers (pkg/cpu/exec.go) decode the same layouts without
// consulting this table.
type OperandKind int

const (
	// OperandNone: the operand byte is always 00000000 (RET, HLT).
	OperandNone OperandKind = iota
	// OperandAddress: the operand byte is a resolved 8-bit RAM address
	// (LDx, STx, JIL/JIG/JIE/JNE, CALL).
	OperandAddress
	// OperandRegisterPair: high nibble is the second register code, low
	// nibble is the first (ADD, SUB, CMP).
	OperandRegisterPair
	// OperandRegister: low nibble is a single register code, high nibble
	// zero (INC, DEC, PUSH, POP).
	OperandRegister
)

// Info is the static metadata the catalog carries per opcode.
type Info struct {
	Mnemonic string
	Encoding uint8 // the 8-bit opcode byte emitted before the operand byte
	Operand  OperandKind
}

// Catalog maps every OpCode to its Info, populated in init() below.
var Catalog [OpCodeCount]Info

func init() {
	entries := []struct {
		op       OpCode
		mnemonic string
		operand  OperandKind
	}{
		{HLT, "hlt", OperandNone},
		{LDA, "lda", OperandAddress},
		{LDB, "ldb", OperandAddress},
		{LDC, "ldc", OperandAddress},
		{LDD, "ldd", OperandAddress},
		{STA, "sta", OperandAddress},
		{STB, "stb", OperandAddress},
		{STC, "stc", OperandAddress},
		{STD, "std", OperandAddress},
		{ADD, "add", OperandRegisterPair},
		{SUB, "sub", OperandRegisterPair},
		{INC, "inc", OperandRegister},
		{DEC, "dec", OperandRegister},
		{CMP, "cmp", OperandRegisterPair},
		{JIL, "jil", OperandAddress},
		{JIG, "jig", OperandAddress},
		{JIE, "jie", OperandAddress},
		{JNE, "jne", OperandAddress},
		{PUSH, "push", OperandRegister},
		{POP, "pop", OperandRegister},
		{CALL, "call", OperandAddress},
		{RET, "ret", OperandNone},
	}
	for _, e := range entries {
		Catalog[e.op] = Info{Mnemonic: e.mnemonic, Encoding: uint8(e.op), Operand: e.operand}
	}
}

// ByMnemonic looks up the OpCode for a mnemonic string (case-sensitive,
// lowercase, matching the assembly dialect's source text).
func ByMnemonic(mnemonic string) (OpCode, bool) {
	for op := OpCode(0); op < OpCodeCount; op++ {
		if Catalog[op].Mnemonic == mnemonic {
			return op, true
		}
	}
	return 0, false
}

// Register identifies one of the six addressable registers by its 4-bit
// code.
type Register uint8

const (
	AX Register = iota
	BX
	CX
	DX
	ACC
	SR
)

// registerNames maps assembly register names to their 4-bit code.
var registerNames = map[string]Register{
	"ax":  AX,
	"bx":  BX,
	"cx":  CX,
	"dx":  DX,
	"acc": ACC,
	"sr":  SR,
}

// RegisterByName resolves an assembly register name to its code.
func RegisterByName(name string) (Register, bool) {
	r, ok := registerNames[name]
	return r, ok
}

// LoadOpFor and StoreOpFor map one of the four general-purpose registers
// (ax..dx) to the load (LDx) or store (STx) opcode that targets it; ACC and
// SR have neither.
func LoadOpFor(reg Register) (OpCode, bool) {
	switch reg {
	case AX:
		return LDA, true
	case BX:
		return LDB, true
	case CX:
		return LDC, true
	case DX:
		return LDD, true
	default:
		return 0, false
	}
}

func StoreOpFor(reg Register) (OpCode, bool) {
	switch reg {
	case AX:
		return STA, true
	case BX:
		return STB, true
	case CX:
		return STC, true
	case DX:
		return STD, true
	default:
		return 0, false
	}
}
