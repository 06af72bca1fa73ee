// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"time"

	"spectra/internal/log"
)

var logger = log.New("Analysis")

// BeatDetector flags kick drum onsets from the low-frequency energy of
// successive spectra.
type BeatDetector struct {
	threshold      float64       // minimum band RMS for a beat
	minEnergyRatio float64       // required rise over the previous spectrum
	cooldown       time.Duration // minimum time between two beats
	maxHz          float64       // top of the kick band

	lastEnergy float64
	lastBeat   time.Time
}

// NewBeatDetector creates a detector for energy below maxHz.
func NewBeatDetector(threshold, minEnergyRatio, maxHz float64, cooldown time.Duration) *BeatDetector {
	logger.Debugf("Initializing BeatDetector (Threshold: %.4f, MinRatio: %.2f, Cooldown: %v)", threshold, minEnergyRatio, cooldown)
	return &BeatDetector{
		threshold:      threshold,
		minEnergyRatio: minEnergyRatio,
		cooldown:       cooldown,
		maxHz:          maxHz,
	}
}

// Process analyzes one spectrum captured at now and reports an onset.
// Call it once per new spectrum; repeated spectra would read as steady
// energy.
func (bd *BeatDetector) Process(s Spectrum, now time.Time) bool {
	currentEnergy := lowBandRMS(s, bd.maxHz)
	defer func() { bd.lastEnergy = currentEnergy }()

	if currentEnergy <= bd.threshold {
		return false
	}
	if bd.lastEnergy != 0 && currentEnergy/bd.lastEnergy <= bd.minEnergyRatio {
		return false
	}
	if !bd.lastBeat.IsZero() && now.Sub(bd.lastBeat) < bd.cooldown {
		return false
	}
	bd.lastBeat = now
	return true
}

// lowBandRMS returns the RMS magnitude of the bins above DC below maxHz.
func lowBandRMS(s Spectrum, maxHz float64) float64 {
	var sumSquare float64
	count := 0
	for i := 1; i < s.Len() && s.BinFrequency(i) < maxHz; i++ {
		m := s.Bin(i)
		sumSquare += m * m
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSquare / float64(count))
}
