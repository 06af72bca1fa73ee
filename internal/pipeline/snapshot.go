// SPDX-License-Identifier: MIT
package pipeline

import "time"

// Snapshot is one published spectrum. It is never modified after it has
// been stored, so any number of readers may hold it without locking.
type Snapshot struct {
	Magnitudes []float64 // N/2 values, |X[i]|/N
	SampleRate float64
	FrameSize  int
	Version    uint64
	Captured   time.Time
}

// Len returns the number of bins.
func (s *Snapshot) Len() int {
	return len(s.Magnitudes)
}

// BinFrequency returns the centre frequency of bin i in Hz.
func (s *Snapshot) BinFrequency(i int) float64 {
	return float64(i) * s.SampleRate / float64(s.FrameSize)
}

// Peak returns the bin with the largest magnitude. An empty snapshot
// returns (-1, 0).
func (s *Snapshot) Peak() (int, float64) {
	bin, peak := -1, 0.0
	for i, m := range s.Magnitudes {
		if bin < 0 || m > peak {
			bin, peak = i, m
		}
	}
	return bin, peak
}

// Bin returns the magnitude of bin i.
func (s *Snapshot) Bin(i int) float64 {
	return s.Magnitudes[i]
}
