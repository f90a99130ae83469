// Package correlation computes first- and second-order correlation functions
// (g1, g2) from paired IQ sample channels.
//
// Two families of algorithms are provided. The FFT variants transform whole
// channels and correlate in the frequency domain; they inherit the 2^-10
// scale factor of the fixed-point kernel, so accumulated magnitudes are
// meaningful in relative terms only. The direct variants evaluate a bounded
// lag window in the time domain and are cheaper when only a few lags are
// needed; they take a caller-supplied shift to keep many-average sums inside
// 64 bits.
package correlation

import "github.com/qicorr/pkg/fft"

// Accumulator holds parallel real/imaginary sums, one pair per frequency bin
// (FFT variants) or per lag (direct variants). It starts zeroed and is only
// ever added to; callers hand it to the consumer once per reporting iteration
// and allocate a fresh one afterwards.
type Accumulator struct {
	Real []int64
	Imag []int64
}

// NewAccumulator returns a zeroed accumulator with n bins.
func NewAccumulator(n int) *Accumulator {
	return &Accumulator{
		Real: make([]int64, n),
		Imag: make([]int64, n),
	}
}

// Bins returns the accumulator length.
func (a *Accumulator) Bins() int { return len(a.Real) }

// G1FFT folds one round of the field correlation into acc. Both channels are
// transformed in place, then same-indexed bins are combined as
// (a+bi)(c+di)* = (ac+bd) + i(bc-ad). This is an inner product between
// transformed bins, not a full cross-correlation; downstream analysis relies
// on exactly this convention.
//
// d1 and d2 must hold fft.N samples and are destroyed by the transform.
func G1FFT(acc *Accumulator, d1, d2 []fft.IQ16, ref []int16) {
	fft.Transform16(d1, ref)
	fft.Transform16(d2, ref)

	for o := 0; o < fft.N; o++ {
		acc.Real[o] += int64(d1[o].I)*int64(d2[o].I) + int64(d1[o].Q)*int64(d2[o].Q)
		acc.Imag[o] += int64(d1[o].I)*int64(d2[o].Q) - int64(d1[o].Q)*int64(d2[o].I)
	}
}

// G2FFT folds one round of the intensity correlation into acc. The two
// channels are first multiplied elementwise into the scratch product signal,
// the product is transformed once, and each output bin is combined with its
// mirror bin (N - samp) mod N. The mirror step is the FFT-convolution form of
// the product signal's autocorrelation; index 0 mirrors onto itself.
//
// scratch must hold fft.N entries; d1 and d2 are left untouched.
func G2FFT(acc *Accumulator, d1, d2 []fft.IQ16, ref []int32, scratch []fft.IQ32) {
	for samp := 0; samp < fft.N; samp++ {
		scratch[samp].I = int32(d1[samp].I)*int32(d2[samp].I) + int32(d1[samp].Q)*int32(d2[samp].Q)
		scratch[samp].Q = int32(d1[samp].I)*int32(d2[samp].Q) - int32(d1[samp].Q)*int32(d2[samp].I)
	}

	fft.Transform32(scratch, ref)

	for samp := 0; samp < fft.N; samp++ {
		m := (fft.N - samp) % fft.N
		acc.Real[samp] += int64(scratch[m].I)*int64(scratch[samp].I) -
			int64(scratch[m].Q)*int64(scratch[samp].Q)
		acc.Imag[samp] += int64(scratch[m].I)*int64(scratch[samp].Q) +
			int64(scratch[m].Q)*int64(scratch[samp].I)
	}
}
