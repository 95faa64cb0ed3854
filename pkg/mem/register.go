// Package mem implements the gated storage cells — registers and RAM —
// that the CPU's bus discipline reads and writes through.
package mem

import "github.com/kellanburns/octo8/pkg/bits"

// Register is a fixed-width bit-vector cell gated by two transient control
// signals. A read returns zero unless ReadEnable is set; a write is a no-op
// unless WriteEnable is set. Both signals are cleared by the CPU's
// bus-flush step after each cycle phase.
type Register struct {
	width      uint
	memory     bits.Vector
	readEnable bool
	writeEnable bool
}

// NewRegister returns a zeroed register of the given width.
func NewRegister(width uint) *Register {
	return &Register{width: width, memory: bits.New(0, width)}
}

// SetReadEnable arms or disarms reads.
func (r *Register) SetReadEnable(enabled bool) { r.readEnable = enabled }

// SetWriteEnable arms or disarms writes.
func (r *Register) SetWriteEnable(enabled bool) { r.writeEnable = enabled }

// ReadEnable reports the current read-enable signal.
func (r *Register) ReadEnable() bool { return r.readEnable }

// WriteEnable reports the current write-enable signal.
func (r *Register) WriteEnable() bool { return r.writeEnable }

// Read returns the stored value if ReadEnable is set, else a zero Vector of
// this register's width.
func (r *Register) Read() bits.Vector {
	if r.readEnable {
		return r.memory
	}
	return bits.New(0, r.width)
}

// Write stores value if WriteEnable is set; otherwise it is ignored.
func (r *Register) Write(value bits.Vector) {
	if r.writeEnable {
		r.memory = value
	}
}

// Peek returns the stored value unconditionally, bypassing the read-enable
// gate. Used by debug/status reporting, never by instruction semantics.
func (r *Register) Peek() bits.Vector { return r.memory }

// Flush clears both enable signals, as the CPU does after every phase.
func (r *Register) Flush() {
	r.readEnable = false
	r.writeEnable = false
}

// String renders the register's raw contents as a binary string.
func (r *Register) String() string {
	return r.memory.String()
}
