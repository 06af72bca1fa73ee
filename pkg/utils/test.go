// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"sync"
)

// MockSink records every block pushed to it, standing in for the pipeline
// in capture and generator tests.
type MockSink struct {
	mu      sync.Mutex
	blocks  [][]float32
	samples int
}

// Push stores a copy of the block. The caller may reuse its slice.
func (m *MockSink) Push(block []float32) {
	cp := make([]float32, len(block))
	copy(cp, block)

	m.mu.Lock()
	m.blocks = append(m.blocks, cp)
	m.samples += len(block)
	m.mu.Unlock()
}

// Blocks returns the number of blocks received.
func (m *MockSink) Blocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blocks)
}

// Samples returns every received sample in order.
func (m *MockSink) Samples() []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float32, 0, m.samples)
	for _, b := range m.blocks {
		out = append(out, b...)
	}
	return out
}

// GenerateComplexWave returns a 440 Hz tone with its second and third
// harmonics, scaled to 90% of full scale.
func GenerateComplexWave(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2 // 440Hz fundamental + harmonics
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// GenerateSineWave returns a pure tone at 90% of full scale.
func GenerateSineWave(size int, sampleRate, frequency float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2*math.Pi*frequency*t) * 0.9)
	}
	return buffer
}

// Chunk splits samples into consecutive blocks of at most size samples, the
// way a device delivers a stream in callbacks.
func Chunk(samples []float32, size int) [][]float32 {
	if size <= 0 {
		return nil
	}
	var out [][]float32
	for len(samples) > 0 {
		n := min(size, len(samples))
		out = append(out, samples[:n])
		samples = samples[n:]
	}
	return out
}

func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
