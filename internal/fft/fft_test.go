// SPDX-License-Identifier: MIT
package fft

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	testFFTSize    = 1024
	testSampleRate = 44100
	tolerance      = 1e-9
)

var testSizes = []int{1, 2, 4, 8, 16, 64, 256, 1024, 4096}

func newTestEngine(t *testing.T, n int) *Engine {
	t.Helper()
	e, err := NewEngine(n)
	if err != nil {
		t.Fatalf("NewEngine(%d) error: %v", n, err)
	}
	return e
}

func randomValues(rng *rand.Rand, n int) []complex128 {
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(rng.Float64()*2-1, rng.Float64()*2-1)
	}
	return out
}

// naiveDFT is the O(N^2) definition used as ground truth.
func naiveDFT(x []complex128) []complex128 {
	n := len(x)
	out := make([]complex128, n)
	for k := range n {
		var sum complex128
		for j := range n {
			angle := -2 * math.Pi * float64(j*k) / float64(n)
			sum += x[j] * cmplx.Exp(complex(0, angle))
		}
		out[k] = sum
	}
	return out
}

func assertClose(t *testing.T, got, want []complex128, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if cmplx.Abs(got[i]-want[i]) > tol {
			t.Fatalf("bin %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNewEngineRejectsNonPowerOfTwo(t *testing.T) {
	for _, n := range []int{0, -8, 3, 1000, 1536} {
		if _, err := NewEngine(n); !errors.Is(err, ErrNotPowerOfTwo) {
			t.Errorf("NewEngine(%d) error = %v, want ErrNotPowerOfTwo", n, err)
		}
	}
}

func TestTransformSizeMismatch(t *testing.T) {
	e := newTestEngine(t, 8)
	if err := e.Transform(make([]complex128, 4)); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Transform error = %v, want ErrSizeMismatch", err)
	}
}

func TestZeroInputYieldsZeroOutput(t *testing.T) {
	for _, n := range testSizes {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			e := newTestEngine(t, n)
			x := make([]complex128, n)
			if err := e.Transform(x); err != nil {
				t.Fatalf("Transform error: %v", err)
			}
			for i, v := range x {
				if v != 0 {
					t.Fatalf("bin %d = %v, want 0", i, v)
				}
			}
		})
	}
}

func TestMatchesNaiveDFT(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{1, 2, 4, 8, 32, 128} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			e := newTestEngine(t, n)
			x := randomValues(rng, n)
			want := naiveDFT(x)
			if err := e.Transform(x); err != nil {
				t.Fatalf("Transform error: %v", err)
			}
			assertClose(t, x, want, 1e-9*float64(n))
		})
	}
}

func TestMatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, n := range []int{16, 512, 2048} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			e := newTestEngine(t, n)
			x := randomValues(rng, n)
			want := fourier.NewCmplxFFT(n).Coefficients(nil, x)
			if err := e.Transform(x); err != nil {
				t.Fatalf("Transform error: %v", err)
			}
			assertClose(t, x, want, 1e-9*float64(n))
		})
	}
}

func TestImpulse(t *testing.T) {
	e := newTestEngine(t, 16)
	x := make([]complex128, 16)
	x[0] = 1
	_ = e.Transform(x)
	for i, v := range x {
		if cmplx.Abs(v-1) > tolerance {
			t.Fatalf("impulse bin %d = %v, want 1", i, v)
		}
	}
}

func TestLinearity(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	e := newTestEngine(t, testFFTSize)

	a := randomValues(rng, testFFTSize)
	b := randomValues(rng, testFFTSize)
	sum := make([]complex128, testFFTSize)
	for i := range sum {
		sum[i] = a[i] + b[i]
	}

	_ = e.Transform(a)
	_ = e.Transform(b)
	_ = e.Transform(sum)

	for i := range sum {
		if cmplx.Abs(a[i]+b[i]-sum[i]) > 1e-9 {
			t.Fatalf("linearity violated at bin %d: %v + %v != %v", i, a[i], b[i], sum[i])
		}
	}
}

func TestParsevalUnwindowed(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for _, n := range []int{8, 256, 2048} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			e := newTestEngine(t, n)

			frame := make([]float64, n)
			timeEnergy := 0.0
			for i := range frame {
				frame[i] = rng.Float64()*2 - 1
				timeEnergy += frame[i] * frame[i]
			}

			x := make([]complex128, n)
			if err := Lift(x, frame); err != nil {
				t.Fatalf("Lift error: %v", err)
			}
			_ = e.Transform(x)

			freqEnergy := 0.0
			for _, v := range x {
				freqEnergy += real(v)*real(v) + imag(v)*imag(v)
			}

			want := float64(n) * timeEnergy
			if math.Abs(freqEnergy-want) > 1e-9*want {
				t.Errorf("sum |X|^2 = %v, want N * sum x^2 = %v", freqEnergy, want)
			}
		})
	}
}

func TestSinePeakBin(t *testing.T) {
	e := newTestEngine(t, testFFTSize)

	// Bin-centred tone: all energy lands in bins k and N-k.
	const k = 37
	frame := make([]float64, testFFTSize)
	for i := range frame {
		frame[i] = math.Sin(2 * math.Pi * k * float64(i) / testFFTSize)
	}
	x := make([]complex128, testFFTSize)
	_ = Lift(x, frame)
	_ = e.Transform(x)

	if got, want := cmplx.Abs(x[k]), float64(testFFTSize)/2; math.Abs(got-want) > 1e-6 {
		t.Errorf("|X[%d]| = %v, want %v", k, got, want)
	}
	if got := cmplx.Abs(x[testFFTSize-k]); math.Abs(got-float64(testFFTSize)/2) > 1e-6 {
		t.Errorf("mirror bin |X[%d]| = %v", testFFTSize-k, got)
	}
	for i := 1; i < testFFTSize/2; i++ {
		if i != k && cmplx.Abs(x[i]) > 1e-6 {
			t.Fatalf("leakage into bin %d: %v", i, cmplx.Abs(x[i]))
		}
	}
}

func TestHermitianSymmetryForRealInput(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	e := newTestEngine(t, 64)
	frame := make([]float64, 64)
	for i := range frame {
		frame[i] = rng.Float64()
	}
	x := make([]complex128, 64)
	_ = Lift(x, frame)
	_ = e.Transform(x)

	for k := 1; k < 32; k++ {
		if cmplx.Abs(x[k]-cmplx.Conj(x[64-k])) > tolerance {
			t.Fatalf("X[%d] != conj(X[%d])", k, 64-k)
		}
	}
	if math.Abs(imag(x[0])) > tolerance || math.Abs(imag(x[32])) > tolerance {
		t.Errorf("DC/Nyquist not real: %v, %v", x[0], x[32])
	}
}

func TestNonFiniteInputPropagates(t *testing.T) {
	e := newTestEngine(t, 8)
	x := make([]complex128, 8)
	x[3] = complex(math.NaN(), 0)
	if err := e.Transform(x); err != nil {
		t.Fatalf("Transform error: %v", err)
	}
	if !cmplx.IsNaN(x[0]) {
		t.Errorf("expected NaN to propagate to DC, got %v", x[0])
	}
}

func TestLiftSizeMismatch(t *testing.T) {
	if err := Lift(make([]complex128, 4), make([]float64, 3)); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Lift error = %v, want ErrSizeMismatch", err)
	}
}

func TestFFTHotPath(t *testing.T) {
	e := newTestEngine(t, testFFTSize)
	frame := make([]float64, testFFTSize)
	for i := range frame {
		frame[i] = float64(i%256-128) / 128
	}
	x := make([]complex128, testFFTSize)

	allocs := testing.AllocsPerRun(100, func() {
		_ = Lift(x, frame)
		_ = e.Transform(x)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Transform hot path, got %.1f", allocs)
	}
}

func BenchmarkTransform(b *testing.B) {
	for _, n := range []int{512, 1024, 4096} {
		b.Run(fmt.Sprint(n), func(b *testing.B) {
			e, _ := NewEngine(n)
			frame := make([]float64, n)
			for i := range frame {
				tm := float64(i) / testSampleRate
				frame[i] = math.Sin(2*math.Pi*440*tm)*0.5 +
					math.Sin(2*math.Pi*880*tm)*0.3 +
					math.Sin(2*math.Pi*1320*tm)*0.2
			}
			x := make([]complex128, n)

			b.ReportAllocs()
			for b.Loop() {
				_ = Lift(x, frame)
				_ = e.Transform(x)
			}
		})
	}
}

func BenchmarkGonumReference(b *testing.B) {
	frame := make([]float64, testFFTSize)
	for i := range frame {
		frame[i] = math.Sin(2 * math.Pi * 440 * float64(i) / testSampleRate)
	}
	fftObj := fourier.NewFFT(testFFTSize)
	out := make([]complex128, testFFTSize/2+1)

	b.ReportAllocs()
	for b.Loop() {
		fftObj.Coefficients(out, frame)
	}
}
