// Package fft implements the in-place fixed-point FFT used by the correlation
// engine. The transform length is fixed at 1024 samples (radix-2
// decimation-in-time); twiddle factors come from a precomputed quarter-wave
// sine table shared by all invocations of a task.
//
// Each butterfly stage right-shifts the passthrough term by one bit to keep
// intermediate values inside the fixed-point range, so the output carries a
// scale factor of 2^-10 relative to a textbook FFT. Callers never normalize
// this out; all correlation variants apply the kernel symmetrically, so the
// scale cancels in relative terms.
package fft

import (
	"math"

	"github.com/qicorr/pkg/fixpoint"
)

const (
	// N is the fixed transform length. Must stay a power of two.
	N     = 1024
	Log2N = 10

	refAmp32 = 0x7fffffff
	refAmp16 = 0x7fff
)

// IQ16 is one demodulated hardware sample as delivered by a recording module.
type IQ16 struct {
	I int16
	Q int16
}

// IQ32 is the wide sample type used for the elementwise channel product that
// feeds the g2 transform.
type IQ32 struct {
	I int32
	Q int32
}

// SineTable16 builds the 16-bit reference table: one quarter-wave-extended
// sine period of length N - N/4. The butterfly derives cosine values from it
// by indexing N/4 further in.
func SineTable16() []int16 {
	ref := make([]int16, N-N/4)
	for samp := range ref {
		ref[samp] = int16(refAmp16 * math.Sin(2*math.Pi*float64(samp)/float64(N)))
	}
	return ref
}

// SineTable32 is the 32-bit counterpart of SineTable16.
func SineTable32() []int32 {
	ref := make([]int32, N-N/4)
	for samp := range ref {
		ref[samp] = int32(refAmp32 * math.Sin(2*math.Pi*float64(samp)/float64(N)))
	}
	return ref
}

// Transform16 performs the forward FFT in place on f, which must hold exactly
// N samples. ref must come from SineTable16. The function is deterministic
// and allocation-free.
func Transform16(f []IQ16, ref []int16) {
	// Decimation in time: bit-reversal reordering.
	mr := 0
	nn := N - 1
	for m := 1; m <= nn; m++ {
		l := N
		for {
			l >>= 1
			if mr+l <= nn {
				break
			}
		}
		mr = (mr & (l - 1)) + l
		if mr <= m {
			continue
		}
		f[m], f[mr] = f[mr], f[m]
	}

	l := 1
	k := Log2N - 1
	for l < N {
		zstep := l << 1
		for m := 0; m < l; m++ {
			j := m << k
			// 0 <= j < N/2; cosine via quarter-wave offset.
			wr := ref[j+N/4] >> 1
			wi := (-ref[j]) >> 1

			for z := m; z < N; z += zstep {
				p := z + l
				tr := fixpoint.Mul16(wr, f[p].I) - fixpoint.Mul16(wi, f[p].Q)
				ti := fixpoint.Mul16(wr, f[p].Q) + fixpoint.Mul16(wi, f[p].I)
				qr := f[z].I >> 1
				qi := f[z].Q >> 1

				f[p].I = qr - tr
				f[p].Q = qi - ti
				f[z].I = qr + tr
				f[z].Q = qi + ti
			}
		}
		k--
		l = zstep
	}
}

// Transform32 performs the forward FFT in place on the 32-bit product signal.
// ref must come from SineTable32.
func Transform32(f []IQ32, ref []int32) {
	mr := 0
	nn := N - 1
	for m := 1; m <= nn; m++ {
		l := N
		for {
			l >>= 1
			if mr+l <= nn {
				break
			}
		}
		mr = (mr & (l - 1)) + l
		if mr <= m {
			continue
		}
		f[m], f[mr] = f[mr], f[m]
	}

	l := 1
	k := Log2N - 1
	for l < N {
		zstep := l << 1
		for m := 0; m < l; m++ {
			j := m << k
			wr := ref[j+N/4] >> 1
			wi := (-ref[j]) >> 1

			for z := m; z < N; z += zstep {
				p := z + l
				tr := fixpoint.Mul32(wr, f[p].I) - fixpoint.Mul32(wi, f[p].Q)
				ti := fixpoint.Mul32(wr, f[p].Q) + fixpoint.Mul32(wi, f[p].I)
				qr := f[z].I >> 1
				qi := f[z].Q >> 1

				f[p].I = qr - tr
				f[p].Q = qi - ti
				f[z].I = qr + tr
				f[z].Q = qi + ti
			}
		}
		k--
		l = zstep
	}
}
