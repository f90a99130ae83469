package task

import (
	"fmt"

	"github.com/qicorr/pkg/correlation"
	"github.com/qicorr/pkg/databox"
	"github.com/qicorr/pkg/fft"
	"github.com/qicorr/pkg/qhw"
)

// foldFunc folds one acquired pair of sample channels into an accumulator.
type foldFunc func(acc *correlation.Accumulator, d1, d2 []fft.IQ16)

func runG1FFT(env *Env, params []uint32) error {
	p, err := DecodeCorrelationParams(params)
	if err != nil {
		return err
	}
	ref := fft.SineTable16()
	fold := func(acc *correlation.Accumulator, d1, d2 []fft.IQ16) {
		correlation.G1FFT(acc, d1, d2, ref)
	}
	return runCorrelation(env, "g1-fft", fft.N, p, fold)
}

func runG2FFT(env *Env, params []uint32) error {
	p, err := DecodeCorrelationParams(params)
	if err != nil {
		return err
	}
	ref := fft.SineTable32()
	scratch := make([]fft.IQ32, fft.N)
	fold := func(acc *correlation.Accumulator, d1, d2 []fft.IQ16) {
		correlation.G2FFT(acc, d1, d2, ref, scratch)
	}
	return runCorrelation(env, "g2-fft", fft.N, p, fold)
}

func runG1Direct(env *Env, params []uint32) error {
	p, err := DecodeDirectParams(params, fft.N)
	if err != nil {
		return err
	}
	fold := func(acc *correlation.Accumulator, d1, d2 []fft.IQ16) {
		correlation.G1Direct(acc, d1, d2, uint(p.Shift))
	}
	return runCorrelation(env, "g1-direct", int(p.TauMax), p.common(), fold)
}

func runG2Direct(env *Env, params []uint32) error {
	p, err := DecodeDirectParams(params, fft.N)
	if err != nil {
		return err
	}
	fold := func(acc *correlation.Accumulator, d1, d2 []fft.IQ16) {
		correlation.G2Direct(acc, d1, d2, uint(p.Shift))
	}
	return runCorrelation(env, "g2-direct", int(p.TauMax), p.common(), fold)
}

func (p DirectParams) common() CorrelationParams {
	return CorrelationParams{
		Averages:   p.Averages,
		Iterations: p.Iterations,
		PCStart:    p.PCStart,
		PCStartSS:  p.PCStartSS,
		MeasureSS:  p.MeasureSS,
	}
}

// runCorrelation is the shared accumulation pipeline. Every reporting
// iteration acquires fresh zeroed boxes, folds p.Averages rounds into them
// (optionally interleaving a background acquisition at PCStartSS), publishes
// the boxes as one group and starts over. Progress counts acquisition rounds
// across the whole task.
func runCorrelation(env *Env, name string, bins int, p CorrelationParams, fold foldFunc) error {
	cells := env.Platform.Cells()
	if len(cells) < 2 {
		return paramErrorf("correlation needs two recording modules, only %d cell(s) present", len(cells))
	}
	seq := cells[0].Sequencer
	rec1, rec2 := cells[0].Recording, cells[1].Recording

	d1 := make([]fft.IQ16, fft.N)
	d2 := make([]fft.IQ16, fft.N)

	for its := uint32(0); its < p.Iterations; its++ {
		sigReal := env.Sink.AcquireInt64(name+"_real", bins)
		sigImag := env.Sink.AcquireInt64(name+"_imag", bins)
		acc := &correlation.Accumulator{Real: sigReal.Int64s, Imag: sigImag.Int64s}
		boxes := []*databox.Box{sigReal, sigImag}

		var accSS *correlation.Accumulator
		if p.MeasureSS {
			ssReal := env.Sink.AcquireInt64(name+"_ss_real", bins)
			ssImag := env.Sink.AcquireInt64(name+"_ss_imag", bins)
			accSS = &correlation.Accumulator{Real: ssReal.Int64s, Imag: ssImag.Int64s}
			boxes = append(boxes, ssReal, ssImag)
		}

		seq.WaitWhileBusy()
		for avg := uint32(0); avg < p.Averages; avg++ {
			env.Report.SetProgress(int(avg + its*p.Averages))

			if err := acquireRound(seq, rec1, rec2, p.PCStart, d1, d2); err != nil {
				discardAll(env.Sink, boxes)
				return fmt.Errorf("%s iteration %d: %w", name, its, err)
			}
			fold(acc, d1, d2)

			if accSS == nil {
				continue
			}
			if err := acquireRound(seq, rec1, rec2, p.PCStartSS, d1, d2); err != nil {
				discardAll(env.Sink, boxes)
				return fmt.Errorf("%s iteration %d (background): %w", name, its, err)
			}
			fold(accSS, d1, d2)
		}
		env.Report.SetProgress(int((its + 1) * p.Averages))
		env.Sink.FinishGroup(name, boxes...)
	}
	return nil
}

// acquireRound runs the pulse program once and copies both recording results.
// Reading result memory before both modules went idle would deliver the
// previous round's samples.
func acquireRound(seq qhw.Sequencer, rec1, rec2 qhw.Recording, pc uint32, d1, d2 []fft.IQ16) error {
	seq.StartAt(pc)
	seq.WaitWhileBusy()
	rec1.WaitWhileBusy()
	rec2.WaitWhileBusy()
	if err := rec1.ResultMemory(d1); err != nil {
		return fmt.Errorf("recording module 1: %w", err)
	}
	if err := rec2.ResultMemory(d2); err != nil {
		return fmt.Errorf("recording module 2: %w", err)
	}
	return nil
}

func discardAll(sink *databox.Sink, boxes []*databox.Box) {
	for _, b := range boxes {
		sink.Discard(b)
	}
}
