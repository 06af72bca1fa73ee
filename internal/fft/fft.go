// SPDX-License-Identifier: MIT
package fft

import (
	"errors"
	"fmt"
	"math"

	"spectra/pkg/bitint"
)

var (
	// ErrNotPowerOfTwo is returned by NewEngine for sizes that are not a power of two.
	ErrNotPowerOfTwo = errors.New("fft size must be a power of 2")
	// ErrSizeMismatch is returned by Transform when the input length differs from the engine size.
	ErrSizeMismatch = errors.New("fft input length does not match engine size")
)

// Engine is an in-place iterative radix-2 Cooley-Tukey transform for one
// fixed power-of-two size. Everything that depends only on the size (the
// bit-reversal permutation and the twiddle factors) is computed once by
// NewEngine, so Transform does no trigonometry and no allocation.
//
// An Engine holds no per-call state and may be shared, but a single input
// slice must not be transformed concurrently.
type Engine struct {
	n        int
	stages   int
	swaps    [][2]int     // index pairs exchanged by the bit-reversal permutation
	twiddles []complex128 // e^{-2*pi*i*k/n} for k in [0, n/2)
}

// NewEngine prepares a transform of n points.
func NewEngine(n int) (*Engine, error) {
	if !bitint.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w, got %d", ErrNotPowerOfTwo, n)
	}

	stages := bitint.Log2(n)

	var swaps [][2]int
	for i := range n {
		if j := bitint.ReverseBits(i, stages); i < j {
			swaps = append(swaps, [2]int{i, j})
		}
	}

	twiddles := make([]complex128, n/2)
	for k := range twiddles {
		angle := -2 * math.Pi * float64(k) / float64(n)
		twiddles[k] = complex(math.Cos(angle), math.Sin(angle))
	}

	return &Engine{
		n:        n,
		stages:   stages,
		swaps:    swaps,
		twiddles: twiddles,
	}, nil
}

// Size returns the number of points of the transform.
func (e *Engine) Size() int {
	return e.n
}

// Transform replaces x with its discrete Fourier transform
//
//	X[k] = sum_j x[j] * e^{-2*pi*i*j*k/N}
//
// without normalization, so a full-scale bin-centred sinusoid of amplitude A
// yields |X[k]| = A*N/2. Non-finite inputs propagate into the output.
func (e *Engine) Transform(x []complex128) error {
	if len(x) != e.n {
		return fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(x), e.n)
	}

	for _, s := range e.swaps {
		x[s[0]], x[s[1]] = x[s[1]], x[s[0]]
	}

	// Stage with span m combines pairs m/2 apart using e^{-2*pi*i*k/m},
	// which is twiddles[k*n/m].
	for m := 2; m <= e.n; m <<= 1 {
		half := m >> 1
		stride := e.n / m
		for start := 0; start < e.n; start += m {
			for k := range half {
				w := e.twiddles[k*stride]
				a := x[start+k]
				b := w * x[start+k+half]
				x[start+k] = a + b
				x[start+k+half] = a - b
			}
		}
	}

	return nil
}

// Lift copies a real frame into dst as complex values with zero imaginary
// parts. It returns ErrSizeMismatch when the lengths differ.
func Lift(dst []complex128, src []float64) error {
	if len(dst) != len(src) {
		return fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(src), len(dst))
	}
	for i, v := range src {
		dst[i] = complex(v, 0)
	}
	return nil
}
