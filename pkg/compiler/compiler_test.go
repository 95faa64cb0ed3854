package compiler

import (
	"errors"
	"strings"
	"testing"
)

func TestParseSectionsAndDataGrammar(t *testing.T) {
	src := "section .data\nx = 5\nsection .text\nlda x\ninc ax\nhlt\n"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(prog.Data) != 1 || prog.Data[0].Name != "x" || prog.Data[0].Value != 5 {
		t.Fatalf("Data = %+v", prog.Data)
	}
	if len(prog.Text) != 3 {
		t.Fatalf("Text = %+v", prog.Text)
	}
	if prog.Text[0].Op != "lda" || prog.Text[0].Arg1 != "x" {
		t.Errorf("Text[0] = %+v", prog.Text[0])
	}
}

func TestParseCommentsAndWhitespaceStripped(t *testing.T) {
	src := "section .text\n  lda x  ; load x into ax\nhlt\n"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(prog.Text) != 2 || prog.Text[0].Op != "lda" {
		t.Fatalf("Text = %+v", prog.Text)
	}
}

func TestParseTwoOperandInstruction(t *testing.T) {
	src := "section .text\nadd ax, bx\nhlt\n"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if prog.Text[0].Arg1 != "ax" || prog.Text[0].Arg2 != "bx" {
		t.Errorf("Text[0] = %+v", prog.Text[0])
	}
}

func TestParseDataGrammarRejectsWrongSpacing(t *testing.T) {
	src := "section .data\nx=5\n"
	_, err := Parse(src)
	if err == nil {
		t.Fatal("expected a compile error for missing spaces")
	}
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CompileError, got %T", err)
	}
}

func TestParseMissingSecondOperand(t *testing.T) {
	// "add ax" is missing its second operand.
	src := "section .text\nadd ax\n"
	prog, err := Parse(src)
	if err != nil {
		// A malformed "operation ref1, ref2" line fails at parse time.
		var ce *CompileError
		if !errors.As(err, &ce) {
			t.Fatalf("expected *CompileError, got %T", err)
		}
		return
	}
	// If it parsed (single-token arg1, empty arg2), encoding must catch it
	// with the offending line still attached.
	_, err = encodeInstruction(prog.Text[0])
	if err == nil {
		t.Fatal("expected add with a missing second operand to fail")
	}
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CompileError, got %T", err)
	}
	if ce.Line != 2 {
		t.Errorf("CompileError.Line = %d, want 2 (the add line)", ce.Line)
	}
}

func TestSubroutineGrammarAppendsSyntheticRet(t *testing.T) {
	src := "section .subroutines\nfoo:\ninc ax\nret\n"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(prog.Subroutines) != 1 {
		t.Fatalf("Subroutines = %+v", prog.Subroutines)
	}
	sub := prog.Subroutines[0]
	if sub.Label != "foo" {
		t.Errorf("Label = %q, want foo", sub.Label)
	}
	if len(sub.Lines) != 2 || sub.Lines[1].Op != "ret" {
		t.Fatalf("Lines = %+v", sub.Lines)
	}
}

func TestSubroutineMissingRetFails(t *testing.T) {
	src := "section .subroutines\nfoo:\ninc ax\n"
	_, err := Parse(src)
	if err == nil {
		t.Fatal("expected a compile error for a subroutine missing ret")
	}
}

func TestSubroutineNestedFails(t *testing.T) {
	src := "section .subroutines\nfoo:\nbar:\ninc ax\nret\nret\n"
	_, err := Parse(src)
	if err == nil {
		t.Fatal("expected a compile error for a nested subroutine")
	}
}

func TestEncodeLoadAndHalt(t *testing.T) {
	bs, err := encodeInstruction(InstructionRecord{Op: "lda", Arg1: "200"})
	if err != nil {
		t.Fatalf("encodeInstruction: %v", err)
	}
	if bs[0] != 1 || bs[1] != 200 {
		t.Errorf("lda 200 = %v, want [1 200]", bs)
	}

	bs, err = encodeInstruction(InstructionRecord{Op: "hlt"})
	if err != nil {
		t.Fatalf("encodeInstruction: %v", err)
	}
	if bs[0] != 0 || bs[1] != 0 {
		t.Errorf("hlt = %v, want [0 0]", bs)
	}
}

func TestEncodeAddRegisterPair(t *testing.T) {
	bs, err := encodeInstruction(InstructionRecord{Op: "add", Arg1: "ax", Arg2: "bx"})
	if err != nil {
		t.Fatalf("encodeInstruction: %v", err)
	}
	// low nibble = first (ax=0), high nibble = second (bx=1) -> 0x10.
	if bs[1] != 0x10 {
		t.Errorf("operand = %#02x, want 0x10", bs[1])
	}
}

func TestEncodeDollarLiteral(t *testing.T) {
	bs, err := encodeInstruction(InstructionRecord{Op: "jil", Arg1: "$5"})
	if err != nil {
		t.Fatalf("encodeInstruction: %v", err)
	}
	if bs[1] != 5 {
		t.Errorf("operand = %d, want 5", bs[1])
	}
}

func TestEncodeUnknownMnemonic(t *testing.T) {
	_, err := encodeInstruction(InstructionRecord{Op: "xyz", Arg1: "1"})
	if err == nil {
		t.Fatal("expected an error for an unknown mnemonic")
	}
}

func TestEncodeUnknownRegister(t *testing.T) {
	_, err := encodeInstruction(InstructionRecord{Op: "inc", Arg1: "zz"})
	if err == nil {
		t.Fatal("expected an error for an unknown register")
	}
}

func TestAssembleLoadVariableLandsAtTopOfRAM(t *testing.T) {
	src := "section .data\nx = 3\nsection .text\nlda x\nhlt\n"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	const ramSize = 256
	lines, err := Assemble(prog, ramSize)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(lines) != ramSize {
		t.Fatalf("got %d lines, want %d", len(lines), ramSize)
	}
	// x is the only (first) variable -> address ramSize-1.
	if lines[ramSize-1] != "00000011" {
		t.Errorf("data cell = %s, want 00000011 (3)", lines[ramSize-1])
	}
	// lda opcode=1, operand = ramSize-1 = 255 = 0xFF.
	if lines[0] != "00000001" {
		t.Errorf("instruction[0] = %s, want 00000001 (lda opcode)", lines[0])
	}
	if lines[1] != "11111111" {
		t.Errorf("instruction[1] = %s, want 11111111 (address 255)", lines[1])
	}
}

func TestAssembleVariableAddressesDescendFromTop(t *testing.T) {
	src := "section .data\na = 1\nb = 2\nc = 3\nsection .text\nhlt\n"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	const ramSize = 256
	lines, err := Assemble(prog, ramSize)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	// a (first declared) -> ramSize-1, b -> ramSize-2, c -> ramSize-3.
	if lines[ramSize-1] != "00000001" {
		t.Errorf("a at %d = %s, want 1", ramSize-1, lines[ramSize-1])
	}
	if lines[ramSize-2] != "00000010" {
		t.Errorf("b at %d = %s, want 2", ramSize-2, lines[ramSize-2])
	}
	if lines[ramSize-3] != "00000011" {
		t.Errorf("c at %d = %s, want 3", ramSize-3, lines[ramSize-3])
	}
}

func TestAssembleEveryInstructionIsTwoBytes(t *testing.T) {
	src := "section .text\ninc ax\ndec bx\nhlt\n"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	lines, err := Assemble(prog, 256)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	for i, l := range lines {
		if len(l) != 8 || strings.Trim(l, "01") != "" {
			t.Fatalf("line %d = %q is not an 8-bit binary string", i, l)
		}
	}
	// inc ax, dec bx, hlt occupy exactly bytes 0-5, opcode then operand.
	want := []string{"00001011", "00000000", "00001100", "00000001", "00000000", "00000000"}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("byte %d = %s, want %s", i, lines[i], w)
		}
	}
}

func TestAssembleOverfullProgramFails(t *testing.T) {
	var b strings.Builder
	b.WriteString("section .text\n")
	for i := 0; i < 130; i++ {
		b.WriteString("inc ax\n")
	}
	b.WriteString("hlt\n")
	prog, err := Parse(b.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = Assemble(prog, 256)
	if err == nil {
		t.Fatal("expected a layout error for an over-full program")
	}
	var le *LayoutError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LayoutError, got %T", err)
	}
}

func TestAssembleSubroutineCallRoundTrip(t *testing.T) {
	src := "section .text\ncall foo\nhlt\nsection .subroutines\nfoo:\ninc ax\nret\n"
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	lines, err := Assemble(prog, 256)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(lines) != 256 {
		t.Fatalf("got %d lines, want 256", len(lines))
	}
}
