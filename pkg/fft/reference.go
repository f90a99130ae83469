package fft

import "math"

// Float64Transform is a floating-point model of the fixed-point kernel: the
// same bit-reversal order and butterfly structure, including the per-stage
// halving of the passthrough term, but with exact arithmetic. It is the
// reference the fixed-point kernel is validated against and is also useful
// for offline analysis of captured channels.
func Float64Transform(re, im []float64) {
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
		re[m], re[mr] = re[mr], re[m]
		im[m], im[mr] = im[mr], im[m]
	}

	l := 1
	for l < N {
		zstep := l << 1
		for m := 0; m < l; m++ {
			angle := 2 * math.Pi * float64(m) / float64(zstep)
			// Same twiddle convention as the fixed-point kernel,
			// including the half-amplitude factor.
			wr := math.Cos(angle) / 2
			wi := -math.Sin(angle) / 2

			for z := m; z < N; z += zstep {
				p := z + l
				tr := wr*re[p] - wi*im[p]
				ti := wr*im[p] + wi*re[p]
				qr := re[z] / 2
				qi := im[z] / 2

				re[p] = qr - tr
				im[p] = qi - ti
				re[z] = qr + tr
				im[z] = qi + ti
			}
		}
		l = zstep
	}
}
