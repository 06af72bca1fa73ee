// SPDX-License-Identifier: MIT
package spectrum

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"spectra/pkg/bitint"
)

var (
	// ErrInvalidSize is returned by NewMapper for sizes that are not a power of two.
	ErrInvalidSize = errors.New("spectrum size must be a power of 2")
	// ErrSizeMismatch is returned by Map when a buffer does not fit the mapper.
	ErrSizeMismatch = errors.New("spectrum buffer length mismatch")
)

// Mapper turns the N complex outputs of a transform into N/2 magnitudes.
// It owns split real/imaginary scratch slices so Map does not allocate;
// a Mapper therefore belongs to a single processing goroutine.
type Mapper struct {
	n     int
	scale float64
	re    []float64
	im    []float64
}

// NewMapper creates a mapper for transforms of n points.
func NewMapper(n int) (*Mapper, error) {
	if !bitint.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidSize, n)
	}
	bins := n / 2
	return &Mapper{
		n:     n,
		scale: 1 / float64(n),
		re:    make([]float64, bins),
		im:    make([]float64, bins),
	}, nil
}

// Size returns the transform size.
func (m *Mapper) Size() int {
	return m.n
}

// Bins returns the number of magnitudes Map produces.
func (m *Mapper) Bins() int {
	return m.n / 2
}

// Map writes |x[i]|/N for i in [0, N/2) into dst. The upper half of x mirrors
// the lower half for real input and is ignored. dst must hold N/2 values.
func (m *Mapper) Map(dst []float64, x []complex128) error {
	if len(x) != m.n {
		return fmt.Errorf("%w: input %d, want %d", ErrSizeMismatch, len(x), m.n)
	}
	if len(dst) != len(m.re) {
		return fmt.Errorf("%w: output %d, want %d", ErrSizeMismatch, len(dst), len(m.re))
	}
	if len(dst) == 0 {
		return nil
	}

	for i := range m.re {
		m.re[i] = real(x[i])
		m.im[i] = imag(x[i])
	}
	vecmath.Magnitude(dst, m.re, m.im)
	vecmath.ScaleBlock(dst, dst, m.scale)
	return nil
}

// BinFrequency returns the centre frequency of bin i in Hz.
func BinFrequency(i int, sampleRate float64, n int) float64 {
	return float64(i) * sampleRate / float64(n)
}

// BinForFrequency returns the bin closest to freq.
func BinForFrequency(freq, sampleRate float64, n int) int {
	return int(math.Round(freq * float64(n) / sampleRate))
}
