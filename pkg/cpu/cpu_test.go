package cpu

import (
	"testing"

	"github.com/kellanburns/octo8/pkg/bits"
	"github.com/kellanburns/octo8/pkg/mem"
)

func loadProgram(t *testing.T, bytes_ []byte, ramSize int) (*CPU, *mem.RAM) {
	t.Helper()
	ram := mem.New(ramSize)
	lines := make([]string, ramSize)
	for i := 0; i < ramSize; i++ {
		if i < len(bytes_) {
			lines[i] = bits.NewDefault(int(bytes_[i])).String()
		} else {
			lines[i] = "00000000"
		}
	}
	if err := ram.FromLines(lines); err != nil {
		t.Fatalf("FromLines: %v", err)
	}
	return New(ram), ram
}

func runUntilHalt(c *CPU, maxCycles int) int {
	n := 0
	for !c.Halted() && n < maxCycles {
		c.Cycle()
		n++
	}
	return n
}

// lda x; hlt with x=3 at the top variable address.
func TestLoadVariableIntoAX(t *testing.T) {
	const ramSize = 256
	varAddr := byte(ramSize - 1)
	program := []byte{0x01, varAddr, 0x00, 0x00} // LDA varAddr; HLT
	c, ram := loadProgram(t, program, ramSize)
	ram.SetAddress(bits.NewDefault(int(varAddr)))
	ram.SetWriteEnable(true)
	ram.WriteBus(bits.NewDefault(3))
	ram.Flush()

	runUntilHalt(c, 10)

	if !c.Halted() {
		t.Fatal("expected machine to halt")
	}
	if got := c.AX().Int(); got != 3 {
		t.Errorf("ax = %d, want 3", got)
	}
}

// lda a; ldb b; add ax, bx; hlt with a=5, b=7.
func TestAddWritesAccumulatorAndClearsZero(t *testing.T) {
	const ramSize = 256
	aAddr, bAddr := byte(255), byte(254)
	program := []byte{
		0x01, aAddr, // lda a
		0x02, bAddr, // ldb b
		0x09, 0x10, // add ax(low nibble 0), bx(high nibble 1) -> operand 0x10
		0x00, 0x00, // hlt
	}
	c, ram := loadProgram(t, program, ramSize)
	ram.SetAddress(bits.NewDefault(int(aAddr)))
	ram.SetWriteEnable(true)
	ram.WriteBus(bits.NewDefault(5))
	ram.SetAddress(bits.NewDefault(int(bAddr)))
	ram.WriteBus(bits.NewDefault(7))
	ram.Flush()

	runUntilHalt(c, 10)

	if got := c.ACC().Int(); got != 12 {
		t.Errorf("acc = %d, want 12", got)
	}
	if c.Zero() {
		t.Error("zero flag should be clear for 5+7")
	}
}

// lda a; ldb b; cmp ax, bx; hlt with a=5, b=5 -> zero flag set,
// accumulator untouched (still 0).
func TestCompareEqualSetsZeroLeavesAccumulator(t *testing.T) {
	const ramSize = 256
	aAddr, bAddr := byte(255), byte(254)
	program := []byte{
		0x01, aAddr, // lda a
		0x02, bAddr, // ldb b
		0x0D, 0x10, // cmp ax, bx
		0x00, 0x00, // hlt
	}
	c, ram := loadProgram(t, program, ramSize)
	ram.SetAddress(bits.NewDefault(int(aAddr)))
	ram.SetWriteEnable(true)
	ram.WriteBus(bits.NewDefault(5))
	ram.SetAddress(bits.NewDefault(int(bAddr)))
	ram.WriteBus(bits.NewDefault(5))
	ram.Flush()

	runUntilHalt(c, 10)

	if !c.Zero() {
		t.Error("zero flag should be set for 5 cmp 5")
	}
	if got := c.ACC().Int(); got != 0 {
		t.Errorf("acc should be untouched by cmp, got %d", got)
	}
}

// lda $0; inc ax; jne $0; hlt — lda $0 loads RAM[0] (1) into ax. INC reads
// A=1 while the ALU's B still holds the 1 left by the PC increment, so the
// derived zero flag (A-B == 0) is set, JNE falls through and the machine
// halts on its first pass. Bounded by a cycle cap in case the loop never
// terminates.
func TestIncJNELoopTerminatesUnderCycleCap(t *testing.T) {
	const ramSize = 256
	program := []byte{
		0x01, 0x00, // lda $0 (RAM[0], which is this very instruction's opcode byte — exercised only for its jump-target shape)
		0x0B, 0x00, // inc ax
		0x11, 0x00, // jne $0
		0x00, 0x00, // hlt
	}
	c, _ := loadProgram(t, program, ramSize)

	n := runUntilHalt(c, 100000)
	if n >= 100000 {
		t.Fatal("loop did not terminate within the cycle cap")
	}
}

func TestCycleLawPCAdvancesByTwoPerInstruction(t *testing.T) {
	const ramSize = 256
	program := []byte{0x0B, 0x00, 0x0B, 0x00, 0x00, 0x00} // inc ax; inc ax; hlt
	c, _ := loadProgram(t, program, ramSize)

	c.Cycle()
	if got := c.PC().Int(); got != 2 {
		t.Errorf("PC after 1 cycle = %d, want 2", got)
	}
	c.Cycle()
	if got := c.PC().Int(); got != 4 {
		t.Errorf("PC after 2 cycles = %d, want 4", got)
	}
}

func TestJIETakenSetsPCToTarget(t *testing.T) {
	const ramSize = 256
	// cmp ax, ax (always equal -> zero flag set); jie $10; hlt (unreached); ... at addr 10: hlt
	program := make([]byte, 12)
	program[0], program[1] = 0x0D, 0x00 // cmp ax, ax
	program[2], program[3] = 0x10, 10   // jie $10
	program[4], program[5] = 0x00, 0x00 // hlt (not reached)
	program[10] = 0x00                  // hlt at address 10

	c, _ := loadProgram(t, program, ramSize)
	c.Cycle() // cmp
	c.Cycle() // jie, taken
	if got := c.PC().Int(); got != 10 {
		t.Errorf("PC after taken JIE = %d, want 10", got)
	}
}

func TestCallThenRetRestoresCallSite(t *testing.T) {
	const ramSize = 256
	// 0: call $10   -> 2 bytes, call site continuation at addr 2
	// 2: hlt
	// 10: ret
	program := make([]byte, 12)
	program[0], program[1] = 0x14, 10 // call $10
	program[2], program[3] = 0x00, 0  // hlt
	program[10] = 0x15                // ret

	c, _ := loadProgram(t, program, ramSize)
	c.Cycle() // call: PC -> 10
	if got := c.PC().Int(); got != 10 {
		t.Fatalf("PC after CALL = %d, want 10", got)
	}
	c.Cycle() // ret: PC -> 2 (call site's next instruction)
	if got := c.PC().Int(); got != 2 {
		t.Errorf("PC after RET = %d, want 2 (call site)", got)
	}
}

func TestUnknownOpcodeHalts(t *testing.T) {
	const ramSize = 256
	program := []byte{200, 0} // opcode 200 is outside the 22-entry dispatch table
	c, _ := loadProgram(t, program, ramSize)
	c.Cycle()
	if !c.Halted() {
		t.Error("an out-of-range opcode should halt the machine as a runtime-error guard")
	}
}

func TestPushPopSingleSlotStack(t *testing.T) {
	const ramSize = 256
	// inc ax; push ax; inc ax; pop bx; hlt — bx should end up holding the
	// value ax had right after the first inc (1), not the later one (2).
	program := []byte{
		0x0B, 0x00, // inc ax
		0x12, 0x00, // push ax
		0x0B, 0x00, // inc ax
		0x13, 0x01, // pop bx
		0x00, 0x00, // hlt
	}
	c, _ := loadProgram(t, program, ramSize)
	runUntilHalt(c, 10)
	if got := c.BX().Int(); got != 1 {
		t.Errorf("bx = %d, want 1", got)
	}
	if got := c.AX().Int(); got != 2 {
		t.Errorf("ax = %d, want 2", got)
	}
}

func TestObserverReceivesEveryPhase(t *testing.T) {
	const ramSize = 256
	program := []byte{0x00, 0x00} // hlt
	c, _ := loadProgram(t, program, ramSize)

	var phases []Phase
	if err := c.AddObserver(func(phase Phase, snap Snapshot) {
		phases = append(phases, phase)
	}); err != nil {
		t.Fatalf("AddObserver: %v", err)
	}
	c.Cycle()

	want := []Phase{PhaseFetchOne, PhaseIncrementPC, PhaseFetchTwo, PhaseDecode, PhaseExecute, PhaseEnd}
	if len(phases) != len(want) {
		t.Fatalf("got %d phase notifications, want %d", len(phases), len(want))
	}
	for i, p := range want {
		if phases[i] != p {
			t.Errorf("phase %d = %q, want %q", i, phases[i], p)
		}
	}
}

func TestReentrantObserverRegistrationRejected(t *testing.T) {
	const ramSize = 256
	program := []byte{0x00, 0x00} // hlt
	c, _ := loadProgram(t, program, ramSize)

	var reentrantErr error
	c.AddObserver(func(phase Phase, snap Snapshot) {
		reentrantErr = c.AddObserver(func(Phase, Snapshot) {})
	})
	c.Cycle()

	if reentrantErr == nil {
		t.Error("expected registering an observer from within a callback to fail")
	}
}

func TestIncDecFlags(t *testing.T) {
	const ramSize = 256
	program := []byte{0x0C, 0x00, 0x00, 0x00} // dec ax (0 -> underflow, sets negative)
	c, _ := loadProgram(t, program, ramSize)
	c.Cycle()
	if !c.Negative() {
		t.Error("dec of 0 should set the negative flag")
	}
	if got := c.AX().Int(); got != 1 {
		t.Errorf("ax after dec(0) = %d, want 1", got)
	}
}
