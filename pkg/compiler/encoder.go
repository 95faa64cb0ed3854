package compiler

import (
	"strconv"
	"strings"

	"github.com/kellanburns/octo8/pkg/isa"
)

// encodeInstruction turns one already-symbol-resolved InstructionRecord
// into its two opcode+operand bytes. Arg1/Arg2 are expected to already be
// either a resolved decimal RAM address, a `$<decimal>` literal, a raw
// 8-bit binary string, or (for register operands) a bare register name —
// whichever the mnemonic's operand kind calls for.
func encodeInstruction(rec InstructionRecord) ([2]byte, error) {
	op, ok := isa.ByMnemonic(rec.Op)
	if !ok {
		return [2]byte{}, newCompileError(rec.Line, "%q is not a valid operation", rec.Op)
	}
	opcodeByte := isa.Catalog[op].Encoding

	switch isa.Catalog[op].Operand {
	case isa.OperandNone:
		return [2]byte{opcodeByte, 0}, nil

	case isa.OperandAddress:
		addr, err := resolveAddressOperand(rec)
		if err != nil {
			return [2]byte{}, err
		}
		return [2]byte{opcodeByte, addr}, nil

	case isa.OperandRegisterPair:
		first, err := registerCode(rec.Line, rec.Arg1)
		if err != nil {
			return [2]byte{}, err
		}
		second, err := registerCode(rec.Line, rec.Arg2)
		if err != nil {
			return [2]byte{}, err
		}
		// low nibble = first register named, high nibble = second.
		operand := (second << 4) | first
		return [2]byte{opcodeByte, operand}, nil

	case isa.OperandRegister:
		reg, err := registerCode(rec.Line, rec.Arg1)
		if err != nil {
			return [2]byte{}, err
		}
		return [2]byte{opcodeByte, reg}, nil

	default:
		return [2]byte{}, newCompileError(rec.Line, "%q has no known operand encoding", rec.Op)
	}
}

// resolveAddressOperand reads whichever operand slot load/store/jump/call
// mnemonics carry their address in (the second operand if present, else
// the first), accepting a `$<decimal>` literal (restricted to 0-15), a raw
// 8-bit binary string, or an already-resolved decimal address.
func resolveAddressOperand(rec InstructionRecord) (byte, error) {
	token := rec.Arg2
	if token == "" {
		token = rec.Arg1
	}
	return parseAddressToken(token, rec)
}

func parseAddressToken(token string, rec InstructionRecord) (byte, error) {
	if strings.HasPrefix(token, "$") {
		n, err := strconv.Atoi(token[1:])
		if err != nil || n < 0 || n > 15 {
			return 0, newCompileError(rec.Line, "%q -> wrong RAM syntax", token)
		}
		return byte(n), nil
	}
	if len(token) == 8 && isBinaryString(token) {
		v, err := strconv.ParseUint(token, 2, 8)
		if err != nil {
			return 0, newCompileError(rec.Line, "%q -> wrong RAM address", token)
		}
		return byte(v), nil
	}
	// An already-resolved decimal address (assigned by the assembler's
	// symbol resolution pass).
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 || n > 255 {
		return 0, newCompileError(rec.Line, "%q -> wrong RAM address", token)
	}
	return byte(n), nil
}

func isBinaryString(s string) bool {
	for _, r := range s {
		if r != '0' && r != '1' {
			return false
		}
	}
	return len(s) > 0
}

// registerCode resolves a bare register name (ax/bx/cx/dx/acc/sr) to its
// 4-bit code.
func registerCode(line int, name string) (byte, error) {
	reg, ok := isa.RegisterByName(name)
	if !ok {
		return 0, newCompileError(line, "register %q is not a valid register", name)
	}
	return byte(reg), nil
}
