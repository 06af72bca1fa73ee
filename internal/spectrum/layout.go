// SPDX-License-Identifier: MIT
package spectrum

import (
	"fmt"
	"math"
	"strings"
)

// Scale selects how display columns are spread over the frequency axis.
type Scale int

const (
	// Linear gives every column the same number of bins.
	Linear Scale = iota
	// Logarithmic gives every column the same frequency ratio.
	Logarithmic
)

// String returns the configuration name.
func (s Scale) String() string {
	if s == Logarithmic {
		return "log"
	}
	return "linear"
}

// ParseScale converts a case-insensitive name into a Scale.
func ParseScale(name string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "linear", "lin":
		return Linear, nil
	case "log", "logarithmic":
		return Logarithmic, nil
	default:
		return Linear, fmt.Errorf("unknown frequency scale: '%s'", name)
	}
}

// Display defaults.
const (
	DefaultHeadroom = 1.1
	DefaultFloor    = 1e-4
)

// Band is an inclusive range of spectrum bins drawn as one column.
type Band struct {
	Lo, Hi int
}

// Layout maps a spectrum onto a fixed number of display columns.
type Layout struct {
	Columns      int
	MinFrequency float64 // Hz, 0 starts at DC
	MaxFrequency float64 // Hz, 0 or above Nyquist means Nyquist
	Scale        Scale
	Compression  Compression
	FloorDB      float64 // for Log compression

	// AutoScale normalizes each frame to its loudest column times Headroom
	// instead of clamping absolute levels. Floor keeps silence flat.
	AutoScale bool
	Headroom  float64
	Floor     float64
}

// Bands splits the bins of an n-point spectrum sampled at sampleRate into
// at most l.Columns strictly increasing, non-empty bands. Fewer bands are
// returned when the frequency range holds fewer bins than columns.
func (l Layout) Bands(sampleRate float64, n int) []Band {
	bins := n / 2
	if l.Columns <= 0 || bins == 0 || sampleRate <= 0 {
		return nil
	}

	nyquist := sampleRate / 2
	hiFreq := l.MaxFrequency
	if hiFreq <= 0 || hiFreq > nyquist {
		hiFreq = nyquist
	}
	loFreq := math.Max(l.MinFrequency, 0)
	if loFreq > hiFreq {
		loFreq = hiFreq
	}

	loBin := clampInt(BinForFrequency(loFreq, sampleRate, n), 0, bins-1)
	hiBin := clampInt(int(hiFreq*float64(n)/sampleRate), loBin, bins-1)

	// DC has no place on a log axis.
	if l.Scale == Logarithmic && loBin == 0 && hiBin > 0 {
		loBin = 1
	}

	available := hiBin - loBin + 1
	cols := min(l.Columns, available)
	edges := make([]int, cols+1)
	edges[cols] = hiBin + 1

	if l.Scale == Logarithmic {
		lo := BinFrequency(loBin, sampleRate, n)
		hi := BinFrequency(hiBin+1, sampleRate, n)
		ratio := hi / lo
		for c := range cols {
			f := lo * math.Pow(ratio, float64(c)/float64(cols))
			e := int(f * float64(n) / sampleRate)
			if c == 0 {
				e = loBin
			} else if e <= edges[c-1] {
				e = edges[c-1] + 1
			}
			// leave at least one bin for every remaining column
			if limit := hiBin + 1 - (cols - c); e > limit {
				e = limit
			}
			edges[c] = e
		}
	} else {
		for c := range cols {
			edges[c] = loBin + c*available/cols
		}
	}

	bands := make([]Band, cols)
	for c := range bands {
		bands[c] = Band{Lo: edges[c], Hi: edges[c+1] - 1}
	}
	return bands
}

// Render writes one level in [0, 1] per band into dst. Each level is the
// largest magnitude in its band after compression. dst must be at least
// len(bands) long; the rendered prefix is returned.
func (l Layout) Render(dst, mags []float64, bands []Band) []float64 {
	dst = dst[:len(bands)]

	peak := 0.0
	for c, b := range bands {
		v := 0.0
		for i := b.Lo; i <= b.Hi && i < len(mags); i++ {
			if m := mags[i]; m > v {
				v = m
			}
		}
		v = l.Compression.Apply(v, l.FloorDB)
		if math.IsNaN(v) {
			v = 0
		}
		dst[c] = v
		peak = math.Max(peak, v)
	}

	if l.AutoScale {
		headroom := l.Headroom
		if headroom <= 0 {
			headroom = DefaultHeadroom
		}
		ref := math.Max(peak*headroom, l.Floor)
		if ref > 0 {
			for c := range dst {
				dst[c] /= ref
			}
		}
	}

	for c, v := range dst {
		switch {
		case math.IsNaN(v), v < 0:
			dst[c] = 0
		case v > 1:
			dst[c] = 1
		}
	}
	return dst
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
