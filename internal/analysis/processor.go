// SPDX-License-Identifier: MIT
package analysis

// Spectrum is the read side of a published magnitude spectrum. It decouples
// the analysis helpers from the pipeline that produces the data, so they
// can be exercised with plain slices in tests.
type Spectrum interface {
	Len() int                   // Len returns the number of bins.
	Bin(i int) float64          // Bin returns the magnitude of bin i.
	BinFrequency(i int) float64 // BinFrequency returns the centre frequency (Hz) of bin i.
}

// Bins adapts a magnitude slice to Spectrum.
type Bins struct {
	Magnitudes []float64
	SampleRate float64
	FrameSize  int
}

func (b Bins) Len() int          { return len(b.Magnitudes) }
func (b Bins) Bin(i int) float64 { return b.Magnitudes[i] }

func (b Bins) BinFrequency(i int) float64 {
	return float64(i) * b.SampleRate / float64(b.FrameSize)
}
