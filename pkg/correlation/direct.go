package correlation

import "github.com/qicorr/pkg/fft"

// G1Direct folds one round of the windowed field correlation into acc. The
// lag window is acc.Bins() wide; each lag tau sums len(d1) - tauMax
// time-domain products between channel 1 at t and channel 2 at t+tau. Every
// addend is right-shifted by shift before accumulation so that many averages
// stay inside 64 bits.
func G1Direct(acc *Accumulator, d1, d2 []fft.IQ16, shift uint) {
	tauMax := acc.Bins()
	sampNum := len(d1) - tauMax

	for tau := 0; tau < tauMax; tau++ {
		var re, im int64
		for t := 0; t < sampNum; t++ {
			re += (int64(d1[t].I)*int64(d2[t+tau].I) + int64(d1[t].Q)*int64(d2[t+tau].Q)) >> shift
			im += (int64(d1[t].I)*int64(d2[t+tau].Q) - int64(d1[t].Q)*int64(d2[t+tau].I)) >> shift
		}
		acc.Real[tau] += re
		acc.Imag[tau] += im
	}
}

// G2Direct folds one round of the windowed intensity correlation into acc.
// Each lag sums an eight-term fourth-order product of D1[t], D1[t+tau],
// D2[t], D2[t+tau]; shift normalization matches G1Direct.
func G2Direct(acc *Accumulator, d1, d2 []fft.IQ16, shift uint) {
	tauMax := acc.Bins()
	sampNum := len(d1) - tauMax

	for tau := 0; tau < tauMax; tau++ {
		var re, im int64
		for t := 0; t < sampNum; t++ {
			ai, aq := int64(d1[t].I), int64(d1[t].Q)
			bi, bq := int64(d1[t+tau].I), int64(d1[t+tau].Q)
			ci, cq := int64(d2[t+tau].I), int64(d2[t+tau].Q)
			di, dq := int64(d2[t].I), int64(d2[t].Q)

			re += (ai*bi*ci*di - ai*bi*cq*dq + aq*bi*cq*di + aq*bi*ci*dq +
				ai*bq*cq*di + ai*bq*ci*dq - aq*bq*ci*di + aq*bq*cq*dq) >> shift
			im += (ai*bi*cq*di + ai*bi*ci*dq - aq*bi*ci*di + aq*bi*cq*dq -
				ai*bq*ci*di + ai*bq*cq*dq - aq*bq*cq*di - aq*bq*ci*dq) >> shift
		}
		acc.Real[tau] += re
		acc.Imag[tau] += im
	}
}
