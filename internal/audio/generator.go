// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"spectra/internal/log"
)

// Generator synthesizes a sum of sine partials and pushes it to a Sink in
// blocks, at the pace a device running at the same rate would.
type Generator struct {
	sink       Sink
	sampleRate float64
	freqs      []float64
	amplitude  float64 // per partial
	phase      []float64
	step       []float64
	block      []float32
}

// NewGenerator creates a generator. The peak of the summed signal is
// amplitude; every partial gets an equal share.
func NewGenerator(sink Sink, sampleRate float64, freqs []float64, amplitude float64, blockSize int) (*Generator, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("generator: invalid sample rate %v", sampleRate)
	}
	if len(freqs) == 0 {
		return nil, errors.New("generator: no frequencies")
	}
	if blockSize < 1 {
		return nil, fmt.Errorf("generator: invalid block size %d", blockSize)
	}

	step := make([]float64, len(freqs))
	for i, f := range freqs {
		step[i] = 2 * math.Pi * f / sampleRate
	}
	return &Generator{
		sink:       sink,
		sampleRate: sampleRate,
		freqs:      append([]float64(nil), freqs...),
		amplitude:  amplitude / float64(len(freqs)),
		phase:      make([]float64, len(freqs)),
		step:       step,
		block:      make([]float32, blockSize),
	}, nil
}

// Fill writes the next len(buf) samples and advances the phases.
func (g *Generator) Fill(buf []float32) {
	for i := range buf {
		var v float64
		for p := range g.phase {
			v += math.Sin(g.phase[p])
			g.phase[p] += g.step[p]
			if g.phase[p] >= 2*math.Pi {
				g.phase[p] -= 2 * math.Pi
			}
		}
		buf[i] = float32(v * g.amplitude)
	}
}

// BlockInterval is the playback time of one block.
func (g *Generator) BlockInterval() time.Duration {
	return time.Duration(float64(len(g.block)) / g.sampleRate * float64(time.Second))
}

// Run pushes one block per block interval until ctx is cancelled.
func (g *Generator) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.BlockInterval())
	defer ticker.Stop()

	logger.Infof("Tone generator running (%v Hz, %d samples per block)", g.freqs, len(g.block))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.Fill(g.block)
			g.sink.Push(g.block)
		}
	}
}
