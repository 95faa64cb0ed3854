// Package status implements the run loop that drives a CPU to completion:
// optional clock throttling to a target frequency, a cycle-count safety
// cap, and a thin re-export of the CPU's phase-observer vocabulary so
// callers don't need to import pkg/cpu directly just to watch it run.
package status

import (
	"time"

	"github.com/kellanburns/octo8/pkg/cpu"
)

// Phase, Snapshot, and Observer are re-exported so packages that only ever
// watch a machine run (the CLI's --status flag, tests) need not import
// pkg/cpu for these alone.
type (
	Phase    = cpu.Phase
	Snapshot = cpu.Snapshot
	Observer = cpu.Observer
)

const (
	PhaseFetchOne    = cpu.PhaseFetchOne
	PhaseIncrementPC = cpu.PhaseIncrementPC
	PhaseFetchTwo    = cpu.PhaseFetchTwo
	PhaseDecode      = cpu.PhaseDecode
	PhaseExecute     = cpu.PhaseExecute
	PhaseEnd         = cpu.PhaseEnd
)

// Driver runs a CPU's cycle loop to completion, optionally throttled to a
// target clock frequency and bounded by a maximum cycle count.
type Driver struct {
	cpu *cpu.CPU

	// FrequencyHz, if nonzero, is the target cycle rate; each cycle sleeps
	// for the remainder of 1/FrequencyHz seconds after doing its work. If
	// the cycle already took longer than that, the sleep is clamped to
	// zero rather than going negative.
	FrequencyHz float64

	// MaxCycles, if nonzero, stops the run after that many cycles even if
	// the machine has not halted — a safety cap against runaway programs.
	MaxCycles int
}

// NewDriver returns a Driver for cpu, unthrottled and uncapped by default.
func NewDriver(c *cpu.CPU) *Driver {
	return &Driver{cpu: c}
}

// AddObserver registers an observer on the underlying CPU.
func (d *Driver) AddObserver(o Observer) error {
	return d.cpu.AddObserver(o)
}

// Run executes cycles until the CPU halts or MaxCycles is reached
// (MaxCycles == 0 means unbounded), honoring FrequencyHz throttling if
// set. It returns the number of cycles actually run.
func (d *Driver) Run() int {
	var period time.Duration
	if d.FrequencyHz > 0 {
		period = time.Duration(float64(time.Second) / d.FrequencyHz)
	}

	n := 0
	for !d.cpu.Halted() {
		if d.MaxCycles > 0 && n >= d.MaxCycles {
			break
		}
		start := time.Now()
		d.cpu.Cycle()
		n++
		if period > 0 {
			elapsed := time.Since(start)
			if remaining := period - elapsed; remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
	return n
}
