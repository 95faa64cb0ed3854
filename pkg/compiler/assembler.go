package compiler

import (
	"strconv"
)

// Assemble runs the full assembler pipeline over a parsed Program: build
// the variable and subroutine symbol tables, resolve every instruction's
// operands against them, encode instructions to bytes, and lay out the
// final [instructions | padding | subroutines | data] image exactly
// ramSize bytes long.
func Assemble(prog *Program, ramSize int) ([]string, error) {
	variables := assignVariableAddresses(prog.Data, ramSize)
	subroutines := assignSubroutineAddresses(prog.Subroutines, ramSize, len(variables))

	resolvedText, err := resolveInstructions(prog.Text, variables, subroutines)
	if err != nil {
		return nil, err
	}
	instructionBytes, err := encodeInstructions(resolvedText)
	if err != nil {
		return nil, err
	}

	subroutineBytes, err := encodeSubroutines(subroutines, variables)
	if err != nil {
		return nil, err
	}

	dataBytes := encodeVariables(variables)

	used := len(instructionBytes) + len(subroutineBytes) + len(dataBytes)
	if used > ramSize {
		return nil, newLayoutError("program does not fit: %d bytes of instructions+subroutines+data exceeds RAM size %d", used, ramSize)
	}
	padding := make([]byte, ramSize-used)

	image := make([]byte, 0, ramSize)
	image = append(image, instructionBytes...)
	image = append(image, padding...)
	image = append(image, subroutineBytes...)
	image = append(image, dataBytes...)

	return bytesToLines(image), nil
}

// resolvedVariable and resolvedSubroutine carry the RAM address the
// assembler assigned, alongside the record they were parsed from.
type resolvedVariable struct {
	DataRecord
	Address int
}

type resolvedSubroutine struct {
	SubroutineRecord
	Address int
}

// assignVariableAddresses assigns descending addresses starting at
// ramSize-1: the first declared variable lands at ramSize-1, the k-th at
// ramSize-k.
func assignVariableAddresses(data []DataRecord, ramSize int) []resolvedVariable {
	out := make([]resolvedVariable, len(data))
	for i, d := range data {
		out[i] = resolvedVariable{DataRecord: d, Address: ramSize - 1 - i}
	}
	return out
}

// assignSubroutineAddresses assigns each subroutine a start address equal
// to (previous subroutine's address) - 2*len(body), the first computed
// working down from just below the data block. Processing runs in reverse
// declaration order, but the returned slice preserves declaration order
// so later passes can emit subroutine bytes in a single contiguous,
// declaration-ordered run.
func assignSubroutineAddresses(subs []SubroutineRecord, ramSize, numVariables int) []resolvedSubroutine {
	out := make([]resolvedSubroutine, len(subs))
	prev := ramSize - numVariables
	for i := len(subs) - 1; i >= 0; i-- {
		addr := prev - len(subs[i].Lines)*2
		out[i] = resolvedSubroutine{SubroutineRecord: subs[i], Address: addr}
		prev = addr
	}
	return out
}

// resolveInstructions rewrites every instruction's Arg1/Arg2 by looking
// the token up first in the variable table, then the subroutine table;
// untouched tokens pass through as literal registers or $-literals.
func resolveInstructions(instrs []InstructionRecord, variables []resolvedVariable, subroutines []resolvedSubroutine) ([]InstructionRecord, error) {
	out := make([]InstructionRecord, len(instrs))
	for i, instr := range instrs {
		out[i] = resolveOne(instr, variables, subroutines)
	}
	return out, nil
}

func resolveOne(instr InstructionRecord, variables []resolvedVariable, subroutines []resolvedSubroutine) InstructionRecord {
	instr.Arg1 = resolveToken(instr.Arg1, variables, subroutines)
	if instr.Arg2 != "" {
		instr.Arg2 = resolveToken(instr.Arg2, variables, subroutines)
	}
	return instr
}

func resolveToken(token string, variables []resolvedVariable, subroutines []resolvedSubroutine) string {
	for _, v := range variables {
		if v.Name == token {
			return strconv.Itoa(v.Address)
		}
	}
	for _, s := range subroutines {
		if s.Label == token {
			return strconv.Itoa(s.Address)
		}
	}
	return token
}

func encodeInstructions(instrs []InstructionRecord) ([]byte, error) {
	out := make([]byte, 0, len(instrs)*2)
	for _, instr := range instrs {
		bs, err := encodeInstruction(instr)
		if err != nil {
			return nil, err
		}
		out = append(out, bs[0], bs[1])
	}
	return out, nil
}

func encodeSubroutines(subs []resolvedSubroutine, variables []resolvedVariable) ([]byte, error) {
	out := make([]byte, 0)
	for _, s := range subs {
		for _, line := range s.Lines {
			resolved := resolveOne(line, variables, nil)
			bs, err := encodeInstruction(resolved)
			if err != nil {
				return nil, err
			}
			out = append(out, bs[0], bs[1])
		}
	}
	return out, nil
}

// encodeVariables emits one byte per variable, in ascending address order
// — i.e. the reverse of declaration order, since declaration order assigns
// descending addresses.
func encodeVariables(variables []resolvedVariable) []byte {
	out := make([]byte, len(variables))
	for i, v := range variables {
		out[len(variables)-1-i] = byte(v.Value)
	}
	return out
}

func bytesToLines(image []byte) []string {
	lines := make([]string, len(image))
	for i, b := range image {
		lines[i] = byteToBinaryString(b)
	}
	return lines
}

func byteToBinaryString(b byte) string {
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		if b&(1<<(7-i)) != 0 {
			out[i] = '1'
		} else {
			out[i] = '0'
		}
	}
	return string(out)
}
