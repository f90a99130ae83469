// Package qhw defines the contracts the correlation engine needs from the
// quantum-hardware front-end modules: a waveform sequencer, IQ recording
// modules and a state-history storage module, grouped into unit cells.
//
// Two implementations exist: a memory-mapped register backend for the real
// controller (Linux only) and a deterministic simulator used by tests and by
// the -sim mode of the control binary.
package qhw

import "github.com/qicorr/pkg/fft"

// Sequencer drives the pulse program. All waits are busy-polling; the
// sequencer is the only pacing source in a task.
type Sequencer interface {
	// StartAt launches the program at the given program counter.
	StartAt(pc uint32)
	IsBusy() bool
	WaitWhileBusy()
	// SetRegister passes a per-round parameter (e.g. a lag offset) to the
	// running program.
	SetRegister(idx int, value uint32)
	Averages() uint32
	SetAverages(n uint32)
}

// Recording is one IQ-demodulating recording module.
type Recording interface {
	WaitWhileBusy()
	// ResultMemory copies exactly len(dst) samples of the last acquisition
	// into dst, or fails the round.
	ResultMemory(dst []fft.IQ16) error
	// AveragedResult returns the hardware-averaged IQ point of the last
	// acquisition (used by phase calibration).
	AveragedResult() (i, q int32)

	ValueShift() uint32
	SetValueShift(v uint32)
	RecordingDuration() uint32
	SetRecordingDuration(v uint32)
	PhaseOffset() uint16
	SetPhaseOffset(v uint16)
}

// Storage is the state-history module: a set of wrapping BRAM ring buffers
// filled by the sequencer with no handshake back to software.
type Storage interface {
	// SetBRAMControl resets the buffer and selects wrap-on-full behaviour.
	SetBRAMControl(bram int, reset, wrap bool)
	// SetStateConfig selects state recording into the buffer, with
	// accumulate and dense packing modes.
	SetStateConfig(bram int, enable, accumulate, dense bool)
	// NextAddress reads the hardware write pointer.
	NextAddress(bram int) uint32
	// BRAM returns a read-only view of the buffer contents.
	BRAM(bram int) []uint32
}

// Cell is one unit cell of the platform.
type Cell struct {
	Sequencer Sequencer
	Recording Recording
	Storage   Storage
}

// WaitWhileBusy blocks until the cell's sequencer and recording module are
// both idle. Sample memory must never be read before this returns.
func (c *Cell) WaitWhileBusy() {
	c.Sequencer.WaitWhileBusy()
	c.Recording.WaitWhileBusy()
}

// Platform is the controller's view of all cells.
type Platform interface {
	Cells() []*Cell
	// WaitWhileBusy blocks until every cell is idle.
	WaitWhileBusy()
	// AnyBusy reports whether any cell's sequencer is still running.
	AnyBusy() bool
	// Start launches the listed cells synchronously at program counter 0.
	Start(cells []int)
}
