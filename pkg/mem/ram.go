package mem

import (
	"fmt"
	"math/bits"

	bv "github.com/kellanburns/octo8/pkg/bits"
)

// RAM is an ordered sequence of 8-bit cells addressed through a gated bus.
type RAM struct {
	cells       []bv.Vector
	addressSize uint
	address     bv.Vector
	readEnable  bool
	writeEnable bool
}

// New returns RAM with size cells, all zeroed.
func New(size int) *RAM {
	cells := make([]bv.Vector, size)
	for i := range cells {
		cells[i] = bv.NewDefault(0)
	}
	return &RAM{
		cells:       cells,
		addressSize: addressWidth(size),
		address:     bv.New(0, addressWidth(size)),
	}
}

// addressWidth returns ceil(log2(size)), the number of bits needed to
// address `size` distinct cells.
func addressWidth(size int) uint {
	if size <= 1 {
		return 1
	}
	return uint(bits.Len(uint(size - 1)))
}

// Size returns the number of addressable cells.
func (r *RAM) Size() int { return len(r.cells) }

// SetAddress loads the address register that the bus reads/writes route
// through.
func (r *RAM) SetAddress(addr bv.Vector) { r.address = addr }

// Address returns the current address register contents.
func (r *RAM) Address() bv.Vector { return r.address }

// SetReadEnable arms or disarms bus reads.
func (r *RAM) SetReadEnable(enabled bool) { r.readEnable = enabled }

// SetWriteEnable arms or disarms bus writes.
func (r *RAM) SetWriteEnable(enabled bool) { r.writeEnable = enabled }

// Bus returns the cell selected by Address when read-enabled, else zero.
func (r *RAM) Bus() bv.Vector {
	if r.readEnable {
		return r.cells[r.address.Int()]
	}
	return bv.NewDefault(0)
}

// WriteBus commits value to the cell selected by Address when
// write-enabled; otherwise it is ignored.
func (r *RAM) WriteBus(value bv.Vector) {
	if r.writeEnable {
		r.cells[r.address.Int()] = value
	}
}

// Flush clears both bus enable signals.
func (r *RAM) Flush() {
	r.readEnable = false
	r.writeEnable = false
}

// Peek reads a cell directly, bypassing the bus gate entirely — a
// debug-read interface for tooling outside the cycle loop.
func (r *RAM) Peek(addr int) bv.Vector {
	return r.cells[addr]
}

// FromLines bulk-initializes RAM from a binary listing: exactly Size()
// lines, each an 8-bit binary string. Any other shape is an error — the
// one place RAM initialization can fail.
func (r *RAM) FromLines(lines []string) error {
	if len(lines) != len(r.cells) {
		return fmt.Errorf("mem: ram image has %d lines, want %d", len(lines), len(r.cells))
	}
	cells := make([]bv.Vector, len(lines))
	for i, line := range lines {
		if len(line) != 8 {
			return fmt.Errorf("mem: line %d is %d bits, want 8", i, len(line))
		}
		v, err := bv.FromBinaryString(line)
		if err != nil {
			return fmt.Errorf("mem: line %d: %w", i, err)
		}
		cells[i] = v
	}
	r.cells = cells
	return nil
}

// Lines renders the full RAM image as a binary listing, one line per cell,
// in address order — the inverse of FromLines.
func (r *RAM) Lines() []string {
	out := make([]string, len(r.cells))
	for i, c := range r.cells {
		out[i] = c.String()
	}
	return out
}
