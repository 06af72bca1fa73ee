// SPDX-License-Identifier: MIT
package analysis

// Peak is the strongest partial of a spectrum.
type Peak struct {
	Bin       int
	Frequency float64 // interpolated between neighbouring bins
	Magnitude float64
}

// DominantPeak finds the largest bin above DC and refines its frequency by
// fitting a parabola through the bin and its two neighbours. It reports
// false for a silent or empty spectrum.
func DominantPeak(s Spectrum) (Peak, bool) {
	n := s.Len()
	best, mag := -1, 0.0
	for i := 1; i < n; i++ {
		if m := s.Bin(i); m > mag {
			best, mag = i, m
		}
	}
	if best < 0 {
		return Peak{}, false
	}

	freq := s.BinFrequency(best)
	if best+1 < n {
		a, b, c := s.Bin(best-1), mag, s.Bin(best+1)
		if den := a - 2*b + c; den != 0 {
			offset := 0.5 * (a - c) / den
			freq += offset * (s.BinFrequency(1) - s.BinFrequency(0))
		}
	}

	return Peak{Bin: best, Frequency: freq, Magnitude: mag}, true
}
