// Package cpu implements the six-phase fetch/decode/execute cycle over the
// register bank, ALU, and RAM that make up the virtual machine.
package cpu

import (
	"fmt"

	"github.com/kellanburns/octo8/pkg/alu"
	"github.com/kellanburns/octo8/pkg/bits"
	"github.com/kellanburns/octo8/pkg/isa"
	"github.com/kellanburns/octo8/pkg/mem"
)

type execFunc func(c *CPU, operand bits.Vector)

// Phase names one of the cycle's six steps, passed to observers.
type Phase string

const (
	PhaseFetchOne    Phase = "fetch_phase_one"
	PhaseIncrementPC Phase = "increment_program_counter"
	PhaseFetchTwo    Phase = "fetch_phase_two"
	PhaseDecode      Phase = "decode_phase"
	PhaseExecute     Phase = "execute_phase"
	PhaseEnd         Phase = "end_phase"
)

// Snapshot is a read-only copy of CPU state handed to observers, so a
// misbehaving observer has nothing live to mutate.
type Snapshot struct {
	AX, BX, CX, DX, ACC, SR, PC, SP bits.Vector
	Halted                          bool
	Cycles                          int
}

// Observer is called synchronously after each phase completes.
type Observer func(phase Phase, snapshot Snapshot)

// CPU holds the full machine state: the general-purpose register file, the
// instruction/address/program-counter registers, the accumulator, status
// register, single-slot stack pointer, the ALU, and the RAM it executes
// against.
type CPU struct {
	ram *mem.RAM
	alu *alu.ALU

	ax, bx, cx, dx *mem.Register
	ir             *mem.Register
	ar             *mem.Register
	pc             *mem.Register
	acc            *mem.Register
	sr             *mem.Register
	sp             *mem.Register

	halt             bool
	notSkipIncrement bool
	cycles           int

	currentInstruction bits.Vector
	currentAddress     bits.Vector

	dispatch [isa.OpCodeCount]execFunc

	observers []Observer
	notifying bool
}

// New returns a CPU with all registers zeroed, wired to execute against ram.
func New(ram *mem.RAM) *CPU {
	c := &CPU{
		ram: ram,
		alu: alu.New(),
		ax:  mem.NewRegister(8),
		bx:  mem.NewRegister(8),
		cx:  mem.NewRegister(8),
		dx:  mem.NewRegister(8),
		ir:  mem.NewRegister(8),
		ar:  mem.NewRegister(8),
		pc:  mem.NewRegister(8),
		acc: mem.NewRegister(8),
		sr:  mem.NewRegister(8),
		sp:  mem.NewRegister(8),
	}
	c.dispatch = buildDispatch()
	return c
}

// Halted reports whether HLT has been executed.
func (c *CPU) Halted() bool { return c.halt }

// Cycles reports the number of completed fetch/decode/execute cycles.
func (c *CPU) Cycles() int { return c.cycles }

// Snapshot accessors, all ungated debug reads for the status emitter
// (pkg/status) and tests; instruction semantics never use these.
func (c *CPU) AX() bits.Vector  { return c.ax.Peek() }
func (c *CPU) BX() bits.Vector  { return c.bx.Peek() }
func (c *CPU) CX() bits.Vector  { return c.cx.Peek() }
func (c *CPU) DX() bits.Vector  { return c.dx.Peek() }
func (c *CPU) ACC() bits.Vector { return c.acc.Peek() }
func (c *CPU) SR() bits.Vector  { return c.sr.Peek() }
func (c *CPU) PC() bits.Vector  { return c.pc.Peek() }
func (c *CPU) SP() bits.Vector  { return c.sp.Peek() }

// Carry, Zero, and Negative read the three status flags out of SR's
// current contents (bit 0, bit 1, bit 2 respectively).
func (c *CPU) Carry() bool    { return c.sr.Peek().Bit(0) == 1 }
func (c *CPU) Zero() bool     { return c.sr.Peek().Bit(1) == 1 }
func (c *CPU) Negative() bool { return c.sr.Peek().Bit(2) == 1 }

// Cycle advances the machine by exactly one two-byte instruction, running
// all six phases and notifying any registered observers after each one.
// A halted CPU's Cycle is a no-op.
func (c *CPU) Cycle() {
	if c.halt {
		return
	}
	c.notSkipIncrement = true
	c.fetchPhaseOne()
	c.notify(PhaseFetchOne)
	c.incrementProgramCounter()
	c.notify(PhaseIncrementPC)
	c.fetchPhaseTwo()
	c.notify(PhaseFetchTwo)
	c.decodePhase()
	c.notify(PhaseDecode)
	c.executePhase()
	c.notify(PhaseExecute)
	c.endPhase()
	c.notify(PhaseEnd)
	c.cycles++
}

// AddObserver registers a callback invoked synchronously after each phase.
// Registration is append-only; calling it from within an observer callback
// is rejected, since it would mutate the list being iterated mid-notify.
func (c *CPU) AddObserver(o Observer) error {
	if c.notifying {
		return fmt.Errorf("cpu: cannot register an observer from within an observer callback")
	}
	c.observers = append(c.observers, o)
	return nil
}

// notify invokes every registered observer with a fresh, read-only
// snapshot of CPU state.
func (c *CPU) notify(phase Phase) {
	if len(c.observers) == 0 {
		return
	}
	snap := c.Snapshot()
	c.notifying = true
	for _, o := range c.observers {
		o(phase, snap)
	}
	c.notifying = false
}

// Snapshot captures the CPU's current state for an observer or driver to
// inspect without holding a reference into live registers.
func (c *CPU) Snapshot() Snapshot {
	return Snapshot{
		AX:     c.AX(),
		BX:     c.BX(),
		CX:     c.CX(),
		DX:     c.DX(),
		ACC:    c.ACC(),
		SR:     c.SR(),
		PC:     c.PC(),
		SP:     c.SP(),
		Halted: c.halt,
		Cycles: c.cycles,
	}
}

// fetchPhaseOne reads the opcode byte at PC into IR.
func (c *CPU) fetchPhaseOne() {
	c.pc.SetReadEnable(true)
	c.ram.SetReadEnable(true)
	c.ram.SetAddress(c.pc.Read())
	c.ir.SetWriteEnable(true)
	c.ir.Write(c.ram.Bus())
	c.flushAll()
}

// fetchPhaseTwo reads the operand byte at the (already incremented) PC into
// AR.
func (c *CPU) fetchPhaseTwo() {
	c.pc.SetReadEnable(true)
	c.ram.SetReadEnable(true)
	c.ram.SetAddress(c.pc.Read())
	c.ar.SetWriteEnable(true)
	c.ar.Write(c.ram.Bus())
	c.flushAll()
}

// incrementProgramCounter is the first of the cycle's two PC increments,
// advancing PC past the opcode byte it just fetched.
func (c *CPU) incrementProgramCounter() {
	if c.notSkipIncrement {
		c.bumpPC()
	}
	c.flushAll()
}

// decodePhase snapshots IR and AR into the values the execute phase acts
// on. Peek bypasses the read-enable gate, which the prior phase's flush
// already cleared.
func (c *CPU) decodePhase() {
	c.currentInstruction = c.ir.Peek()
	c.currentAddress = c.ar.Peek()
}

// executePhase dispatches on the decoded opcode. An opcode outside the
// dispatch table's range halts the machine rather than executing
// undefined behavior.
func (c *CPU) executePhase() {
	op := c.currentInstruction.Int()
	if op < 0 || op >= len(c.dispatch) || c.dispatch[op] == nil {
		c.halt = true
		c.flushAll()
		return
	}
	c.dispatch[op](c, c.currentAddress)
	c.flushAll()
}

// endPhase is the cycle's second PC increment, completing the two-byte
// instruction advance unless a branch already set PC directly this cycle.
func (c *CPU) endPhase() {
	if c.notSkipIncrement {
		c.bumpPC()
	}
	c.flushAll()
}

// bumpPC adds 1 to PC through the ALU, the shared increment logic behind
// both of the cycle's PC-advancing phases.
func (c *CPU) bumpPC() {
	c.pc.SetReadEnable(true)
	c.alu.SetA(c.pc.Read())
	c.alu.SetB(bits.NewDefault(1))
	c.alu.SetOpcode(alu.OpAdd)
	c.pc.SetWriteEnable(true)
	c.pc.Write(c.alu.Output())
}

// writeStatus latches the ALU's current flags into SR: carry at bit 0,
// zero at bit 1, negative at bit 2.
func (c *CPU) writeStatus() {
	sr := bits.New(0, 8)
	if c.alu.Carry() {
		sr = sr.Or(bits.New(1, 8))
	}
	if c.alu.Zero() {
		sr = sr.Or(bits.New(1<<1, 8))
	}
	if c.alu.Negative() {
		sr = sr.Or(bits.New(1<<2, 8))
	}
	c.sr.SetWriteEnable(true)
	c.sr.Write(sr)
}

// flushAll clears every register's and RAM's bus-enable signals, required
// after each phase so the next phase starts from a clean gate state.
func (c *CPU) flushAll() {
	c.ax.Flush()
	c.bx.Flush()
	c.cx.Flush()
	c.dx.Flush()
	c.ir.Flush()
	c.ar.Flush()
	c.pc.Flush()
	c.acc.Flush()
	c.sr.Flush()
	c.sp.Flush()
	c.ram.Flush()
}

// registerByNibble maps a 4-bit register code to its register; codes are
// only ever drawn from the 6 defined in pkg/isa.
func (c *CPU) registerByNibble(code byte) *mem.Register {
	switch isa.Register(code) {
	case isa.AX:
		return c.ax
	case isa.BX:
		return c.bx
	case isa.CX:
		return c.cx
	case isa.DX:
		return c.dx
	case isa.ACC:
		return c.acc
	case isa.SR:
		return c.sr
	default:
		return c.ax
	}
}
