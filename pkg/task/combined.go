package task

import (
	"fmt"

	"github.com/qicorr/pkg/correlation"
	"github.com/qicorr/pkg/databox"
	"github.com/qicorr/pkg/fft"
	"github.com/qicorr/pkg/qhw"
)

// runCorrelationAll measures g1 and g2 together from the same acquisitions,
// signal and background each, publishing all eight buffers as one group per
// iteration. Every CalModSelection-th iteration the recording phase offsets
// are recalibrated first, under temporary calibration settings that are
// restored before the measurement resumes.
func runCorrelationAll(env *Env, params []uint32) error {
	p, err := DecodeCombinedParams(params)
	if err != nil {
		return err
	}
	cells := env.Platform.Cells()
	if len(cells) < 2 {
		return paramErrorf("correlation needs two recording modules, only %d cell(s) present", len(cells))
	}
	seq := cells[0].Sequencer
	rec1, rec2 := cells[0].Recording, cells[1].Recording

	ref16 := fft.SineTable16()
	ref32 := fft.SineTable32()
	scratch := make([]fft.IQ32, fft.N)
	d1 := make([]fft.IQ16, fft.N)
	d2 := make([]fft.IQ16, fft.N)

	for its := uint32(0); its < p.Iterations; its++ {
		if its%p.CalModSelection == 0 {
			calibratePhase(env, cells[:2], p)
		}

		names := []string{
			"g1_real", "g1_imag", "g1_ss_real", "g1_ss_imag",
			"g2_real", "g2_imag", "g2_ss_real", "g2_ss_imag",
		}
		boxes := make([]*databox.Box, len(names))
		for k, n := range names {
			boxes[k] = env.Sink.AcquireInt64(n, fft.N)
		}
		g1 := &correlation.Accumulator{Real: boxes[0].Int64s, Imag: boxes[1].Int64s}
		g1SS := &correlation.Accumulator{Real: boxes[2].Int64s, Imag: boxes[3].Int64s}
		g2 := &correlation.Accumulator{Real: boxes[4].Int64s, Imag: boxes[5].Int64s}
		g2SS := &correlation.Accumulator{Real: boxes[6].Int64s, Imag: boxes[7].Int64s}

		seq.WaitWhileBusy()
		for avg := uint32(0); avg < p.Averages; avg++ {
			env.Report.SetProgress(int(avg + its*p.Averages))

			if err := acquireRound(seq, rec1, rec2, p.PCStart, d1, d2); err != nil {
				discardAll(env.Sink, boxes)
				return fmt.Errorf("correlation-all iteration %d: %w", its, err)
			}
			// g2 first: it reads the sample buffers untouched, while the
			// g1 transform destroys them.
			correlation.G2FFT(g2, d1, d2, ref32, scratch)
			correlation.G1FFT(g1, d1, d2, ref16)

			if err := acquireRound(seq, rec1, rec2, p.PCStartSS, d1, d2); err != nil {
				discardAll(env.Sink, boxes)
				return fmt.Errorf("correlation-all iteration %d (background): %w", its, err)
			}
			correlation.G2FFT(g2SS, d1, d2, ref32, scratch)
			correlation.G1FFT(g1SS, d1, d2, ref16)
		}
		env.Report.SetProgress(int((its + 1) * p.Averages))
		env.Sink.FinishGroup("correlation-all", boxes...)
	}
	return nil
}

// calibratePhase runs the calibration program once with dedicated averaging
// and recording settings, derives a phase correction from each module's
// hardware-averaged IQ point and applies it to the phase-offset register.
// The measurement settings are restored afterwards.
func calibratePhase(env *Env, cells []*qhw.Cell, p CombinedParams) {
	seq := cells[0].Sequencer

	savedAverages := seq.Averages()
	type recState struct{ shift, duration uint32 }
	saved := make([]recState, len(cells))
	for k, c := range cells {
		saved[k] = recState{c.Recording.ValueShift(), c.Recording.RecordingDuration()}
		c.Recording.SetValueShift(p.CalValueShift)
		c.Recording.SetRecordingDuration(p.CalRecDuration)
	}
	seq.SetAverages(p.CalAverages)

	seq.WaitWhileBusy()
	seq.StartAt(p.CalPC)
	seq.WaitWhileBusy()
	for _, c := range cells {
		c.Recording.WaitWhileBusy()
	}

	for k, c := range cells {
		i, q := c.Recording.AveragedResult()
		if i == 0 && q == 0 {
			env.Report.Errorf(false,
				"phase calibration: module %d averaged an IQ point of zero, offset unchanged", k+1)
			continue
		}
		correction := qhw.CalcPhaseOffsetReg(float64(q) / float64(i))
		c.Recording.SetPhaseOffset(c.Recording.PhaseOffset() - correction)
	}

	seq.SetAverages(savedAverages)
	for k, c := range cells {
		c.Recording.SetValueShift(saved[k].shift)
		c.Recording.SetRecordingDuration(saved[k].duration)
	}
}
