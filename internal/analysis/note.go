// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
)

// ReferencePitch is the frequency of A4, piano key 49.
const ReferencePitch = 440.0

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Note is the equal-tempered pitch closest to a frequency.
type Note struct {
	Frequency float64 // the analysed frequency
	Key       float64 // fractional piano key number, 49 at A4
	Name      string  // pitch class, C to B
	Octave    int     // scientific octave, A4 is in octave 4
	Cents     int     // distance from the named pitch, -50 to +50
}

// NoteFor maps freq onto the piano keyboard. It reports false for
// frequencies that have no pitch (zero, negative or not finite).
func NoteFor(freq float64) (Note, bool) {
	if !(freq > 0) || math.IsInf(freq, 1) {
		return Note{}, false
	}

	key := 12*math.Log2(freq/ReferencePitch) + 49
	nearest := int(math.Round(key))

	// Key 40 is C4, so key+8 counts semitones from C0.
	fromC0 := nearest + 8
	class := ((fromC0 % 12) + 12) % 12
	octave := int(math.Floor(float64(fromC0) / 12))

	return Note{
		Frequency: freq,
		Key:       key,
		Name:      noteNames[class],
		Octave:    octave,
		Cents:     int(math.Round((key - float64(nearest)) * 100)),
	}, true
}

// String formats the note as e.g. "A4 +3c".
func (n Note) String() string {
	return fmt.Sprintf("%s%d %+dc", n.Name, n.Octave, n.Cents)
}
