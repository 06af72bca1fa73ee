// SPDX-License-Identifier: MIT
package analysis

import "math"

// FrequencyBand defines the name and frequency range [LowHz, HighHz) of an
// energy band.
type FrequencyBand struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// BandLevel is the RMS magnitude of the bins inside one band.
type BandLevel struct {
	Name  string
	Level float64
}

// DefaultBands returns the sub to treble split used by the status line. The
// treble band ends at nyquist.
func DefaultBands(nyquist float64) []FrequencyBand {
	return []FrequencyBand{
		{Name: "sub", LowHz: 20, HighHz: 60},
		{Name: "bass", LowHz: 60, HighHz: 250},
		{Name: "lowMid", LowHz: 250, HighHz: 500},
		{Name: "mid", LowHz: 500, HighHz: 2000},
		{Name: "highMid", LowHz: 2000, HighHz: 4000},
		{Name: "treble", LowHz: 4000, HighHz: nyquist},
	}
}

// BandLevels computes one level per band into dst, which is grown if it is
// too short, and returns it. A band that contains no bin reads 0.
func BandLevels(dst []BandLevel, s Spectrum, bands []FrequencyBand) []BandLevel {
	if cap(dst) < len(bands) {
		dst = make([]BandLevel, len(bands))
	}
	dst = dst[:len(bands)]

	for b, band := range bands {
		energy, count := 0.0, 0
		for i := range s.Len() {
			freq := s.BinFrequency(i)
			if freq < band.LowHz {
				continue
			}
			if freq >= band.HighHz {
				break
			}
			m := s.Bin(i)
			energy += m * m
			count++
		}

		level := 0.0
		if count > 0 {
			level = math.Sqrt(energy / float64(count))
		}
		dst[b] = BandLevel{Name: band.Name, Level: level}
	}
	return dst
}
