//go:build linux

package qhw

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/qicorr/pkg/fft"
	"github.com/qicorr/pkg/ringdrain"
)

// Register window layout. Each unit cell owns one page of 32-bit registers
// plus one recording-result window and one storage BRAM window. Offsets are
// in words relative to the cell base.
const (
	cellStride  = 0x10000 // bytes per cell window
	regionWords = cellStride / 4

	regSeqCommand  = 0x00 // write: program counter; starts the sequencer
	regSeqStatus   = 0x01 // bit 0: busy
	regSeqAverages = 0x02
	regSeqUser0    = 0x04 // user registers 0..15

	regRecStatus      = 0x20 // bit 0: busy
	regRecValueShift  = 0x21
	regRecDuration    = 0x22
	regRecPhaseOffset = 0x23
	regRecAvgI        = 0x24
	regRecAvgQ        = 0x25

	regStgControl = 0x30 // bit 0: reset, bit 1: wrap
	regStgConfig  = 0x31 // bit 0: enable, bit 1: accumulate, bit 2: dense
	regStgNext    = 0x32

	recMemOffset = 0x4000 // words; packed IQ samples, I low half, Q high half
	stgMemOffset = 0x8000 // words; state BRAM

	seqBusyBit = 0x1
	recBusyBit = 0x1

	pollInterval = 10 * time.Microsecond
)

// Device is the memory-mapped controller backend. The device file exposes the
// register space of all cells; each window is coerced to a []uint32 view the
// way the digitizer examples map /dev/mem.
type Device struct {
	memfile int
	mapped  []byte
	cells   []*Cell
	words   [][]uint32
}

// OpenDevice maps cellCount cell windows from the controller device file.
func OpenDevice(path string, cellCount int) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("open controller device %s: %w", path, err)
	}

	size := cellCount * cellStride
	mapped, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("mmap controller registers: %w", err)
	}

	d := &Device{memfile: fd, mapped: mapped}
	for c := 0; c < cellCount; c++ {
		base := (*uint32)(unsafe.Pointer(&mapped[c*cellStride]))
		words := unsafe.Slice(base, regionWords)
		d.words = append(d.words, words)
		d.cells = append(d.cells, &Cell{
			Sequencer: &mmioSequencer{words: words},
			Recording: &mmioRecording{words: words},
			Storage:   &mmioStorage{words: words},
		})
	}
	return d, nil
}

// Close unmaps the register space.
func (d *Device) Close() error {
	if d.mapped == nil {
		return nil
	}
	err := unix.Munmap(d.mapped)
	d.mapped = nil
	unix.Close(d.memfile)
	return err
}

func (d *Device) Cells() []*Cell { return d.cells }

func (d *Device) AnyBusy() bool {
	for _, w := range d.words {
		if w[regSeqStatus]&seqBusyBit != 0 {
			return true
		}
	}
	return false
}

func (d *Device) WaitWhileBusy() {
	for d.AnyBusy() {
		time.Sleep(pollInterval)
	}
}

func (d *Device) Start(cells []int) {
	// Back to front so cell 0, which tasks poll first, starts last.
	for i := len(cells) - 1; i >= 0; i-- {
		d.words[cells[i]][regSeqCommand] = 0
	}
}

type mmioSequencer struct {
	words []uint32
}

func (s *mmioSequencer) StartAt(pc uint32) { s.words[regSeqCommand] = pc }
func (s *mmioSequencer) IsBusy() bool      { return s.words[regSeqStatus]&seqBusyBit != 0 }

func (s *mmioSequencer) WaitWhileBusy() {
	for s.IsBusy() {
		time.Sleep(pollInterval)
	}
}

func (s *mmioSequencer) SetRegister(idx int, value uint32) {
	s.words[regSeqUser0+idx] = value
}

func (s *mmioSequencer) Averages() uint32     { return s.words[regSeqAverages] }
func (s *mmioSequencer) SetAverages(n uint32) { s.words[regSeqAverages] = n }

type mmioRecording struct {
	words []uint32
}

func (r *mmioRecording) WaitWhileBusy() {
	for r.words[regRecStatus]&recBusyBit != 0 {
		time.Sleep(pollInterval)
	}
}

func (r *mmioRecording) ResultMemory(dst []fft.IQ16) error {
	if recMemOffset+len(dst) > len(r.words) {
		return fmt.Errorf("result window holds %d samples, %d requested",
			len(r.words)-recMemOffset, len(dst))
	}
	for i := range dst {
		w := r.words[recMemOffset+i]
		dst[i].I = int16(uint16(w))
		dst[i].Q = int16(uint16(w >> 16))
	}
	return nil
}

func (r *mmioRecording) AveragedResult() (int32, int32) {
	return int32(r.words[regRecAvgI]), int32(r.words[regRecAvgQ])
}

func (r *mmioRecording) ValueShift() uint32            { return r.words[regRecValueShift] }
func (r *mmioRecording) SetValueShift(v uint32)        { r.words[regRecValueShift] = v }
func (r *mmioRecording) RecordingDuration() uint32     { return r.words[regRecDuration] }
func (r *mmioRecording) SetRecordingDuration(v uint32) { r.words[regRecDuration] = v }
func (r *mmioRecording) PhaseOffset() uint16           { return uint16(r.words[regRecPhaseOffset]) }
func (r *mmioRecording) SetPhaseOffset(v uint16)       { r.words[regRecPhaseOffset] = uint32(v) }

type mmioStorage struct {
	words []uint32
}

func (s *mmioStorage) SetBRAMControl(bram int, reset, wrap bool) {
	var v uint32
	if reset {
		v |= 0x1
	}
	if wrap {
		v |= 0x2
	}
	s.words[regStgControl] = v
}

func (s *mmioStorage) SetStateConfig(bram int, enable, accumulate, dense bool) {
	var v uint32
	if enable {
		v |= 0x1
	}
	if accumulate {
		v |= 0x2
	}
	if dense {
		v |= 0x4
	}
	s.words[regStgConfig] = v
}

func (s *mmioStorage) NextAddress(bram int) uint32 { return s.words[regStgNext] }

func (s *mmioStorage) BRAM(bram int) []uint32 {
	return s.words[stgMemOffset : stgMemOffset+ringdrain.Capacity]
}
