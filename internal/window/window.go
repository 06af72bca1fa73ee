// SPDX-License-Identifier: MIT
package window

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-vecmath"
	gonumwindow "gonum.org/v1/gonum/dsp/window"
)

// Kind selects the window function used to taper a frame before the FFT.
type Kind int

// Available window functions. Hann is the default and the only kind the
// pipeline requires; the others are kept for comparison on the display.
const (
	Hann Kind = iota
	Hamming
	Blackman
	BlackmanNuttall
	BartlettHann
	Lanczos
	Nuttall
	Rectangular
)

var (
	// ErrInvalidSize is returned when a table is requested for size < 1.
	ErrInvalidSize = errors.New("window size must be positive")
	// ErrLengthMismatch is returned when a frame does not match the table size.
	ErrLengthMismatch = errors.New("frame length does not match window size")
	// ErrUnknownKind is returned by New for a Kind outside the declared set.
	ErrUnknownKind = errors.New("unknown window kind")
)

var kindNames = map[Kind]string{
	Hann:            "hann",
	Hamming:         "hamming",
	Blackman:        "blackman",
	BlackmanNuttall: "blackmannuttall",
	BartlettHann:    "bartletthann",
	Lanczos:         "lanczos",
	Nuttall:         "nuttall",
	Rectangular:     "rectangular",
}

// String returns the configuration name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts a case-insensitive name to a Kind. Unknown names return
// Hann together with an error.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hann", "hanning", "":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "bartletthann":
		return BartlettHann, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	case "rectangular", "rect", "none":
		return Rectangular, nil
	default:
		return Hann, fmt.Errorf("unknown window function name: '%s'", name)
	}
}

// Table holds precomputed window coefficients for one frame size. It is
// built once and shared read-only by every processing cycle.
type Table struct {
	kind   Kind
	coeffs []float64
}

// NewHann precomputes w[k] = 0.5 * (1 - cos(2*pi*k / (N-1))).
func NewHann(n int) (*Table, error) {
	return New(Hann, n)
}

// New precomputes the coefficients of the given kind for frames of n samples.
func New(kind Kind, n int) (*Table, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidSize, n)
	}
	if _, ok := kindNames[kind]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}

	coeffs := make([]float64, n)
	switch kind {
	case Hann:
		hann(coeffs)
	default:
		for i := range coeffs {
			coeffs[i] = 1
		}
		if n > 1 {
			shape(kind, coeffs)
		}
	}

	return &Table{kind: kind, coeffs: coeffs}, nil
}

func hann(coeffs []float64) {
	n := len(coeffs)
	if n == 1 {
		coeffs[0] = 1
		return
	}
	den := float64(n - 1)
	for k := range coeffs {
		coeffs[k] = 0.5 * (1 - math.Cos(2*math.Pi*float64(k)/den))
	}
}

// shape multiplies the all-ones slice by one of gonum's window functions.
func shape(kind Kind, coeffs []float64) {
	switch kind {
	case Hamming:
		gonumwindow.Hamming(coeffs)
	case Blackman:
		gonumwindow.Blackman(coeffs)
	case BlackmanNuttall:
		gonumwindow.BlackmanNuttall(coeffs)
	case BartlettHann:
		gonumwindow.BartlettHann(coeffs)
	case Lanczos:
		gonumwindow.Lanczos(coeffs)
	case Nuttall:
		gonumwindow.Nuttall(coeffs)
	case Rectangular:
		// all ones
	}
}

// Kind returns the window function of the table.
func (t *Table) Kind() Kind {
	return t.kind
}

// Len returns the frame size the table was built for.
func (t *Table) Len() int {
	return len(t.coeffs)
}

// Coefficients returns the table itself. Callers must not modify it.
func (t *Table) Coefficients() []float64 {
	return t.coeffs
}

// Apply writes src multiplied element-wise by the window into dst.
func (t *Table) Apply(dst, src []float64) error {
	if len(dst) != len(t.coeffs) || len(src) != len(t.coeffs) {
		return ErrLengthMismatch
	}
	vecmath.MulBlock(dst, src, t.coeffs)
	return nil
}

// ApplyInPlace multiplies buf element-wise by the window.
func (t *Table) ApplyInPlace(buf []float64) error {
	if len(buf) != len(t.coeffs) {
		return ErrLengthMismatch
	}
	vecmath.MulBlockInPlace(buf, t.coeffs)
	return nil
}

// CoherentGain returns the mean coefficient, the factor by which the window
// scales the amplitude of a bin-centred sinusoid (0.5 for Hann).
func (t *Table) CoherentGain() float64 {
	sum := 0.0
	for _, c := range t.coeffs {
		sum += c
	}
	return sum / float64(len(t.coeffs))
}
