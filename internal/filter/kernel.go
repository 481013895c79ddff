package filter

import "math"

// Coefficients of one phase sum to this value.
const unity = 64

// lanczos evaluates a Lanczos window of the given lobe count.
func lanczos(x float64, lobes float64) float64 {
	if x == 0 {
		return 1
	}
	if x <= -lobes || x >= lobes {
		return 0
	}
	px := math.Pi * x
	return lobes * math.Sin(px) * math.Sin(px/lobes) / (px * px)
}

// polyphase builds a phases x taps table of signed 8 bit coefficients for
// a low pass filter with the given cutoff, 1.0 being the source Nyquist
// rate. Each phase is normalised to sum to unity; rounding error is folded
// into the largest tap.
func polyphase(taps, phases int, cutoff float64) []int8 {
	out := make([]int8, taps*phases)
	centre := float64(taps/2 - 1)
	lobes := float64(taps) / 2

	w := make([]float64, taps)
	for p := range phases {
		offset := float64(p) / float64(phases)
		sum := 0.0
		for t := range taps {
			x := (float64(t) - centre - offset) * cutoff
			w[t] = lanczos(x, lobes)
			sum += w[t]
		}

		row := out[p*taps : (p+1)*taps]
		total, peak := 0, 0
		for t := range taps {
			v := int(math.Round(w[t] / sum * unity))
			v = max(-128, min(127, v))
			row[t] = int8(v)
			total += v
			if row[t] > row[peak] {
				peak = t
			}
		}
		row[peak] += int8(unity - total)
	}
	return out
}
