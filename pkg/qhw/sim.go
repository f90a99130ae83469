package qhw

import (
	"fmt"
	"math"
	"sync"

	"github.com/qicorr/pkg/fft"
	"github.com/qicorr/pkg/ringdrain"
)

// WaveformFunc fills dst with the samples one recording module would deliver
// after the sequencer ran the program at pc. round counts sequencer starts
// since the platform was created, so repeated acquisitions can differ.
type WaveformFunc func(pc uint32, round, cell int, dst []fft.IQ16)

// DefaultWaveform produces per-cell phase-shifted sinusoids, the same kind of
// synthetic pattern the hardware emits in its built-in test mode.
func DefaultWaveform(pc uint32, round, cell int, dst []fft.IQ16) {
	const amplitude = 16000
	cycles := float64(3 + pc%5)
	phase := float64(cell) * math.Pi / 8
	for s := range dst {
		angle := 2*math.Pi*cycles*float64(s)/float64(len(dst)) + phase
		dst[s].I = int16(amplitude * math.Cos(angle))
		dst[s].Q = int16(amplitude * math.Sin(angle))
	}
}

// SimPlatform is a deterministic software model of the controller hardware.
// Sequencer starts complete synchronously; state storage advances its write
// pointer by WordsPerPoll on every busy poll, which models a hardware
// producer running between two software register reads.
type SimPlatform struct {
	mu    sync.Mutex
	cells []*Cell
	sims  []*simCell

	// Waveform generates recording-module samples; DefaultWaveform if nil.
	Waveform WaveformFunc
	// StateWords is how many words one storage run produces per cell.
	StateWords int
	// WordsPerPoll paces the storage producer per busy poll.
	WordsPerPoll int

	round int
}

// NewSimPlatform creates a simulated platform with n unit cells.
func NewSimPlatform(n int) *SimPlatform {
	p := &SimPlatform{WordsPerPoll: 16}
	for c := 0; c < n; c++ {
		sc := &simCell{plat: p, idx: c}
		sc.rec.result = make([]fft.IQ16, fft.N)
		p.sims = append(p.sims, sc)
		p.cells = append(p.cells, &Cell{
			Sequencer: &sc.seq,
			Recording: &sc.rec,
			Storage:   &sc.stg,
		})
		sc.seq.cell = sc
		sc.stg.cell = sc
	}
	return p
}

func (p *SimPlatform) Cells() []*Cell { return p.cells }

func (p *SimPlatform) WaitWhileBusy() {
	for p.AnyBusy() {
	}
}

// AnyBusy steps every running storage producer once, then reports whether any
// run is still incomplete. Stepping before reporting means the final idle
// observation can still leave fresh records behind the write pointer, exactly
// like real hardware racing the poll loop.
func (p *SimPlatform) AnyBusy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	busy := false
	for _, sc := range p.sims {
		sc.stg.step()
		if sc.stg.running() {
			busy = true
		}
	}
	return busy
}

func (p *SimPlatform) Start(cells []int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range cells {
		sc := p.sims[c]
		sc.stg.total = p.StateWords
		sc.stg.perPoll = p.WordsPerPoll
		sc.stg.written = 0
	}
}

// fill regenerates every recording module's result memory, as one sequencer
// start does on hardware where all modules share the trigger line.
func (p *SimPlatform) fill(pc uint32) {
	p.mu.Lock()
	wf := p.Waveform
	if wf == nil {
		wf = DefaultWaveform
	}
	round := p.round
	p.round++
	p.mu.Unlock()

	for c, sc := range p.sims {
		wf(pc, round, c, sc.rec.result)
	}
}

type simCell struct {
	plat *SimPlatform
	idx  int
	seq  simSequencer
	rec  simRecording
	stg  simStorage
}

type simSequencer struct {
	cell     *simCell
	averages uint32
	regs     [16]uint32
	lastPC   uint32
}

func (s *simSequencer) StartAt(pc uint32) {
	s.lastPC = pc
	s.cell.plat.fill(pc)
}

func (s *simSequencer) IsBusy() bool     { return s.cell.stg.running() }
func (s *simSequencer) WaitWhileBusy()   { s.cell.plat.WaitWhileBusy() }
func (s *simSequencer) Averages() uint32 { return s.averages }
func (s *simSequencer) SetAverages(n uint32) {
	s.averages = n
}
func (s *simSequencer) SetRegister(idx int, value uint32) {
	if idx >= 0 && idx < len(s.regs) {
		s.regs[idx] = value
	}
}

type simRecording struct {
	result      []fft.IQ16
	valueShift  uint32
	duration    uint32
	phaseOffset uint16
}

func (r *simRecording) WaitWhileBusy() {}

func (r *simRecording) ResultMemory(dst []fft.IQ16) error {
	if len(dst) > len(r.result) {
		return fmt.Errorf("recording holds %d samples, %d requested", len(r.result), len(dst))
	}
	copy(dst, r.result[:len(dst)])
	return nil
}

func (r *simRecording) AveragedResult() (int32, int32) {
	var si, sq int64
	for _, s := range r.result {
		si += int64(s.I)
		sq += int64(s.Q)
	}
	n := int64(len(r.result))
	return int32(si / n), int32(sq / n)
}

func (r *simRecording) ValueShift() uint32            { return r.valueShift }
func (r *simRecording) SetValueShift(v uint32)        { r.valueShift = v }
func (r *simRecording) RecordingDuration() uint32     { return r.duration }
func (r *simRecording) SetRecordingDuration(v uint32) { r.duration = v }
func (r *simRecording) PhaseOffset() uint16           { return r.phaseOffset }
func (r *simRecording) SetPhaseOffset(v uint16)       { r.phaseOffset = v }

type simStorage struct {
	cell    *simCell
	bram    [ringdrain.Capacity]uint32
	next    uint32
	written int
	total   int
	perPoll int
}

func (s *simStorage) running() bool { return s.written < s.total }

// step advances the producer by up to perPoll words, wrapping modulo the
// buffer capacity. Word values are a running counter so consumers can detect
// skipped or duplicated records.
func (s *simStorage) step() {
	for i := 0; i < s.perPoll && s.written < s.total; i++ {
		s.bram[s.next] = uint32(s.written)
		s.next = (s.next + 1) % ringdrain.Capacity
		s.written++
	}
}

func (s *simStorage) SetBRAMControl(bram int, reset, wrap bool) {
	if reset {
		s.next = 0
		s.written = 0
		s.total = 0
	}
}

func (s *simStorage) SetStateConfig(bram int, enable, accumulate, dense bool) {}

func (s *simStorage) NextAddress(bram int) uint32 { return s.next }

func (s *simStorage) BRAM(bram int) []uint32 { return s.bram[:] }
