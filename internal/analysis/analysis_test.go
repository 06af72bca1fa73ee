// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
	"time"

	"spectra/internal/pipeline"
	"spectra/pkg/utils"
)

const (
	testFrameSize  = 1024
	testSampleRate = 44100.0
)

// spectrumOf runs samples through a real pipeline and returns its snapshot.
func spectrumOf(t *testing.T, samples []float32) *pipeline.Snapshot {
	t.Helper()
	c, err := pipeline.New(pipeline.Config{FrameSize: testFrameSize, SampleRate: testSampleRate})
	if err != nil {
		t.Fatal(err)
	}
	c.Push(samples)
	if !c.Step() {
		t.Fatal("Step() did not publish")
	}
	return c.Snapshot()
}

func TestNoteFor(t *testing.T) {
	tests := []struct {
		freq   float64
		name   string
		octave int
		cents  int
	}{
		{440, "A", 4, 0},
		{261.6256, "C", 4, 0},
		{27.5, "A", 0, 0},
		{4186.009, "C", 8, 0},
		{16.3516, "C", 0, 0},
		{446, "A", 4, 23},
		{466.1638, "A#", 4, 0},
		{880 * math.Pow(2, 0.49/12), "A", 5, 49},
		{880 * math.Pow(2, -0.3/12), "A", 5, -30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := NoteFor(tt.freq)
			if !ok {
				t.Fatalf("NoteFor(%v) reported no pitch", tt.freq)
			}
			if n.Name != tt.name || n.Octave != tt.octave || n.Cents != tt.cents {
				t.Errorf("NoteFor(%v) = %s, want %s%d %+dc", tt.freq, n, tt.name, tt.octave, tt.cents)
			}
		})
	}

	if n, _ := NoteFor(440); n.Key != 49 || n.String() != "A4 +0c" {
		t.Errorf("A4 = key %v, %q", n.Key, n.String())
	}
	for _, f := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		if _, ok := NoteFor(f); ok {
			t.Errorf("NoteFor(%v) reported a pitch", f)
		}
	}
}

func TestDominantPeak(t *testing.T) {
	s := spectrumOf(t, utils.GenerateSineWave(testFrameSize, testSampleRate, 440))

	p, ok := DominantPeak(s)
	if !ok {
		t.Fatal("DominantPeak found nothing")
	}
	if p.Bin != 10 {
		t.Errorf("peak bin = %d, want 10", p.Bin)
	}
	// bins are 43 Hz wide; interpolation must land much closer
	if math.Abs(p.Frequency-440) > 5 {
		t.Errorf("interpolated frequency = %.2f Hz, want 440 +/- 5", p.Frequency)
	}
	if n, _ := NoteFor(p.Frequency); n.Name != "A" || n.Octave != 4 {
		t.Errorf("note = %s, want A4", n)
	}
}

func TestDominantPeakSilence(t *testing.T) {
	if _, ok := DominantPeak(Bins{Magnitudes: make([]float64, 16), SampleRate: 16, FrameSize: 32}); ok {
		t.Error("silence reported a peak")
	}
	if _, ok := DominantPeak(Bins{}); ok {
		t.Error("empty spectrum reported a peak")
	}

	// DC alone is not a partial
	dc := Bins{Magnitudes: []float64{1, 0, 0, 0}, SampleRate: 8, FrameSize: 8}
	if _, ok := DominantPeak(dc); ok {
		t.Error("DC reported as peak")
	}
}

func TestDominantPeakAtEdge(t *testing.T) {
	s := Bins{Magnitudes: []float64{0, 0.1, 0.2, 0.9}, SampleRate: 8, FrameSize: 8}
	p, ok := DominantPeak(s)
	if !ok || p.Bin != 3 || p.Frequency != 3 {
		t.Errorf("edge peak = %+v, %v; want bin 3 at 3 Hz", p, ok)
	}
}

func TestBandLevels(t *testing.T) {
	// 1 Hz bins up to 7999 Hz
	mags := make([]float64, 8000)
	for i := 60; i < 250; i++ {
		mags[i] = 0.5
	}
	s := Bins{Magnitudes: mags, SampleRate: 16000, FrameSize: 16000}

	levels := BandLevels(nil, s, DefaultBands(8000))
	want := map[string]float64{"sub": 0, "bass": 0.5, "lowMid": 0, "mid": 0, "highMid": 0, "treble": 0}
	if len(levels) != len(want) {
		t.Fatalf("got %d levels", len(levels))
	}
	for _, l := range levels {
		if math.Abs(l.Level-want[l.Name]) > 1e-12 {
			t.Errorf("%s = %v, want %v", l.Name, l.Level, want[l.Name])
		}
	}

	// dst is reused when large enough
	again := BandLevels(levels, s, DefaultBands(8000))
	if &again[0] != &levels[0] {
		t.Error("BandLevels reallocated a large enough dst")
	}
}

func TestBandLevelsFromTone(t *testing.T) {
	s := spectrumOf(t, utils.GenerateSineWave(testFrameSize, testSampleRate, 1000))
	levels := BandLevels(nil, s, DefaultBands(s.SampleRate/2))

	loudest := levels[0]
	for _, l := range levels[1:] {
		if l.Level > loudest.Level {
			loudest = l
		}
	}
	if loudest.Name != "mid" {
		t.Errorf("1 kHz tone loudest in %q, want mid", loudest.Name)
	}
}

func TestBandLevelsNoAllocs(t *testing.T) {
	var s Spectrum = Bins{Magnitudes: make([]float64, 512), SampleRate: testSampleRate, FrameSize: testFrameSize}
	bands := DefaultBands(testSampleRate / 2)
	dst := make([]BandLevel, len(bands))

	allocs := testing.AllocsPerRun(100, func() {
		dst = BandLevels(dst, s, bands)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in BandLevels, got %.1f", allocs)
	}
}

func TestBeatDetector(t *testing.T) {
	quiet := Bins{Magnitudes: make([]float64, 64), SampleRate: 1024, FrameSize: 128}
	loud := Bins{Magnitudes: make([]float64, 64), SampleRate: 1024, FrameSize: 128}
	for i := 1; i < 8; i++ {
		loud.Magnitudes[i] = 0.2
		quiet.Magnitudes[i] = 0.01
	}

	bd := NewBeatDetector(0.05, 1.5, 100, 100*time.Millisecond)
	start := time.Unix(0, 0)

	steps := []struct {
		name string
		s    Spectrum
		at   time.Duration
		want bool
	}{
		{"silence", quiet, 0, false},
		{"kick", loud, 20 * time.Millisecond, true},
		{"sustained", loud, 40 * time.Millisecond, false},
		{"release", quiet, 60 * time.Millisecond, false},
		{"kick inside cooldown", loud, 80 * time.Millisecond, false},
		{"release again", quiet, 200 * time.Millisecond, false},
		{"kick after cooldown", loud, 220 * time.Millisecond, true},
	}
	for _, st := range steps {
		if got := bd.Process(st.s, start.Add(st.at)); got != st.want {
			t.Errorf("%s: Process() = %v, want %v", st.name, got, st.want)
		}
	}
}

func BenchmarkDominantPeak(b *testing.B) {
	mags := make([]float64, 512)
	for i := range mags {
		mags[i] = math.Exp(-0.01 * math.Pow(float64(i-100), 2))
	}
	s := Bins{Magnitudes: mags, SampleRate: testSampleRate, FrameSize: testFrameSize}

	b.ReportAllocs()
	for b.Loop() {
		DominantPeak(s)
	}
}
