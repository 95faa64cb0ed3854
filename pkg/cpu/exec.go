package cpu

import (
	"github.com/kellanburns/octo8/pkg/alu"
	"github.com/kellanburns/octo8/pkg/bits"
	"github.com/kellanburns/octo8/pkg/isa"
	"github.com/kellanburns/octo8/pkg/mem"
)

// buildDispatch returns the fixed, opcode-indexed array of instruction
// handlers.
func buildDispatch() [isa.OpCodeCount]execFunc {
	var d [isa.OpCodeCount]execFunc
	d[isa.HLT] = execHLT
	d[isa.LDA] = execLDA
	d[isa.LDB] = execLDB
	d[isa.LDC] = execLDC
	d[isa.LDD] = execLDD
	d[isa.STA] = execSTA
	d[isa.STB] = execSTB
	d[isa.STC] = execSTC
	d[isa.STD] = execSTD
	d[isa.ADD] = execADD
	d[isa.SUB] = execSUB
	d[isa.INC] = execINC
	d[isa.DEC] = execDEC
	d[isa.CMP] = execCMP
	d[isa.JIL] = execJIL
	d[isa.JIG] = execJIG
	d[isa.JIE] = execJIE
	d[isa.JNE] = execJNE
	d[isa.PUSH] = execPUSH
	d[isa.POP] = execPOP
	d[isa.CALL] = execCALL
	d[isa.RET] = execRET
	return d
}

func execHLT(c *CPU, operand bits.Vector) {
	c.halt = true
}

func execLDA(c *CPU, operand bits.Vector) { c.load(c.ax, operand) }
func execLDB(c *CPU, operand bits.Vector) { c.load(c.bx, operand) }
func execLDC(c *CPU, operand bits.Vector) { c.load(c.cx, operand) }
func execLDD(c *CPU, operand bits.Vector) { c.load(c.dx, operand) }

func execSTA(c *CPU, operand bits.Vector) { c.store(c.ax, operand) }
func execSTB(c *CPU, operand bits.Vector) { c.store(c.bx, operand) }
func execSTC(c *CPU, operand bits.Vector) { c.store(c.cx, operand) }
func execSTD(c *CPU, operand bits.Vector) { c.store(c.dx, operand) }

// load routes RAM[operand] into reg.
func (c *CPU) load(reg *mem.Register, operand bits.Vector) {
	c.ram.SetAddress(operand)
	c.ram.SetReadEnable(true)
	reg.SetWriteEnable(true)
	reg.Write(c.ram.Bus())
}

// store routes reg into RAM[operand].
func (c *CPU) store(reg *mem.Register, operand bits.Vector) {
	c.ram.SetAddress(operand)
	c.ram.SetWriteEnable(true)
	reg.SetReadEnable(true)
	c.ram.WriteBus(reg.Read())
}

func execADD(c *CPU, operand bits.Vector) { c.addOrSub(operand, alu.OpAdd) }
func execSUB(c *CPU, operand bits.Vector) { c.addOrSub(operand, alu.OpSub) }

// addOrSub decodes operand's low nibble as the first register and high
// nibble as the second, runs the ALU, and writes the result to the
// accumulator.
func (c *CPU) addOrSub(operand bits.Vector, op alu.Op) {
	reg1, reg2 := c.operandRegisterPair(operand)
	reg1.SetReadEnable(true)
	reg2.SetReadEnable(true)
	c.alu.SetA(reg1.Read())
	c.alu.SetB(reg2.Read())
	c.alu.SetOpcode(op)
	c.acc.SetWriteEnable(true)
	c.acc.Write(c.alu.Output())
	c.writeStatus()
}

// execCMP behaves like SUB but leaves the accumulator untouched; only the
// status flags are updated.
func execCMP(c *CPU, operand bits.Vector) {
	reg1, reg2 := c.operandRegisterPair(operand)
	reg1.SetReadEnable(true)
	reg2.SetReadEnable(true)
	c.alu.SetA(reg1.Read())
	c.alu.SetB(reg2.Read())
	c.alu.SetOpcode(alu.OpSub)
	c.writeStatus()
}

func execINC(c *CPU, operand bits.Vector) { c.incOrDec(operand, alu.OpInc) }
func execDEC(c *CPU, operand bits.Vector) { c.incOrDec(operand, alu.OpDec) }

func (c *CPU) incOrDec(operand bits.Vector, op alu.Op) {
	reg := c.operandRegister(operand)
	reg.SetReadEnable(true)
	c.alu.SetA(reg.Read())
	c.alu.SetOpcode(op)
	reg.SetWriteEnable(true)
	reg.Write(c.alu.Output())
	c.writeStatus()
}

func execJIL(c *CPU, operand bits.Vector) { c.branch(operand, 2, true) }
func execJIG(c *CPU, operand bits.Vector) { c.branch(operand, 2, false) }
func execJIE(c *CPU, operand bits.Vector) { c.branch(operand, 1, true) }
func execJNE(c *CPU, operand bits.Vector) { c.branch(operand, 1, false) }

// branch takes the jump when SR's bit at statusBit equals takeWhenSet,
// writing PC directly and suppressing the cycle's trailing increment.
func (c *CPU) branch(operand bits.Vector, statusBit uint, takeWhenSet bool) {
	c.sr.SetReadEnable(true)
	set := c.sr.Read().Bit(statusBit) == 1
	if set != takeWhenSet {
		return
	}
	c.pc.SetWriteEnable(true)
	c.pc.Write(operand)
	c.notSkipIncrement = false
}

func execPUSH(c *CPU, operand bits.Vector) {
	reg := c.operandRegister(operand)
	reg.SetReadEnable(true)
	c.sp.SetWriteEnable(true)
	c.sp.Write(reg.Read())
}

func execPOP(c *CPU, operand bits.Vector) {
	reg := c.operandRegister(operand)
	c.sp.SetReadEnable(true)
	reg.SetWriteEnable(true)
	reg.Write(c.sp.Read())
}

// execCALL pushes the CPU's current, not-yet-fully-incremented PC into the
// single-slot stack pointer and jumps to operand. Because RET (below) does
// not itself suppress the cycle's trailing increment, the pushed value
// plus that one later increment lands back on the instruction following
// the call — the single-slot stack's one level of correctness.
func execCALL(c *CPU, operand bits.Vector) {
	c.pc.SetReadEnable(true)
	c.sp.SetWriteEnable(true)
	c.sp.Write(c.pc.Read())
	c.pc.SetWriteEnable(true)
	c.pc.Write(operand)
	c.notSkipIncrement = false
}

// execRET restores PC from the stack pointer and deliberately leaves the
// trailing increment unsuppressed; see execCALL.
func execRET(c *CPU, operand bits.Vector) {
	c.sp.SetReadEnable(true)
	c.pc.SetWriteEnable(true)
	c.pc.Write(c.sp.Read())
}

// operandRegisterPair decodes operand's low nibble as the first register,
// high nibble as the second (the ADD/SUB/CMP operand encoding).
func (c *CPU) operandRegisterPair(operand bits.Vector) (first, second *mem.Register) {
	b := byte(operand.Int())
	return c.registerByNibble(b & 0x0F), c.registerByNibble((b >> 4) & 0x0F)
}

// operandRegister decodes operand's low nibble as a register (the
// INC/DEC/PUSH/POP operand encoding).
func (c *CPU) operandRegister(operand bits.Vector) *mem.Register {
	return c.registerByNibble(byte(operand.Int()) & 0x0F)
}
