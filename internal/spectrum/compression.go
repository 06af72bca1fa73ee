// SPDX-License-Identifier: MIT
package spectrum

import (
	"fmt"
	"math"
	"strings"
)

// DefaultFloorDB is the level mapped to zero by logarithmic compression.
const DefaultFloorDB = -80.0

// Compression is the amplitude curve applied to magnitudes before they are
// drawn. Snapshots always carry linear magnitudes.
type Compression int

const (
	// None draws linear magnitudes.
	None Compression = iota
	// Sqrt lifts quiet partials by taking the square root.
	Sqrt
	// Log maps 20*log10(m) from [floor, 0] dB onto [0, 1].
	Log
)

// String returns the configuration name.
func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Sqrt:
		return "sqrt"
	case Log:
		return "log"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// ParseCompression converts a case-insensitive name into a Compression.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "linear":
		return None, nil
	case "sqrt":
		return Sqrt, nil
	case "log", "db":
		return Log, nil
	default:
		return None, fmt.Errorf("unknown compression: '%s'", name)
	}
}

// Apply compresses one magnitude. floorDB is only used by Log and falls back
// to DefaultFloorDB when it is not negative.
func (c Compression) Apply(m, floorDB float64) float64 {
	switch c {
	case Sqrt:
		if m <= 0 {
			return 0
		}
		return math.Sqrt(m)
	case Log:
		if floorDB >= 0 {
			floorDB = DefaultFloorDB
		}
		if m <= 0 {
			return 0
		}
		db := 20 * math.Log10(m)
		switch {
		case db <= floorDB:
			return 0
		case db >= 0:
			return 1
		}
		return 1 - db/floorDB
	default:
		return m
	}
}
