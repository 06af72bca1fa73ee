// SPDX-License-Identifier: MIT
package tui

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"spectra/internal/audio"
	"spectra/internal/pipeline"
	"spectra/internal/spectrum"
	"spectra/pkg/utils"
)

const (
	testFrameSize  = 1024
	testSampleRate = 44100.0
)

type fakeSource struct {
	snap  atomic.Pointer[pipeline.Snapshot]
	stats pipeline.Stats
}

func (f *fakeSource) Snapshot() *pipeline.Snapshot { return f.snap.Load() }
func (f *fakeSource) Stats() pipeline.Stats        { return f.stats }

// publish runs samples through a real pipeline and hands the result to src.
func publish(t *testing.T, src *fakeSource, samples []float32) *pipeline.Snapshot {
	t.Helper()
	c, err := pipeline.New(pipeline.Config{FrameSize: testFrameSize, SampleRate: testSampleRate})
	if err != nil {
		t.Fatal(err)
	}
	c.Push(samples)
	if !c.Step() {
		t.Fatal("pipeline did not publish")
	}
	s := c.Snapshot()
	if prev := src.snap.Load(); prev != nil {
		cp := *s
		cp.Version = prev.Version + 1
		s = &cp
	}
	src.snap.Store(s)
	return s
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m Visualizer, msg tea.Msg) (Visualizer, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	v, ok := next.(Visualizer)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return v, cmd
}

func newTestVisualizer(t *testing.T, src Source, columns int) Visualizer {
	t.Helper()
	m := NewVisualizer(src, VisualizerConfig{
		Title: "test",
		Layout: spectrum.Layout{
			Columns:      columns,
			MaxFrequency: 3000,
			Floor:        spectrum.DefaultFloor,
		},
		FrameInterval: time.Millisecond,
		Window:        "hann",
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func tick(t *testing.T, m Visualizer) Visualizer {
	t.Helper()
	m, cmd := update(t, m, tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick did not schedule the next tick")
	}
	return m
}

func TestVisualizerWaitsForAudio(t *testing.T) {
	m := NewVisualizer(&fakeSource{}, VisualizerConfig{})
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() before size = %q", got)
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = tick(t, m)
	if !strings.Contains(m.View(), "Waiting for audio") {
		t.Error("View() without a snapshot does not say it is waiting")
	}
}

func TestVisualizerRendersNewSnapshotsOnly(t *testing.T) {
	src := &fakeSource{}
	publish(t, src, utils.GenerateSineWave(testFrameSize, testSampleRate, 440))
	m := newTestVisualizer(t, src, 0)

	m = tick(t, m)
	if m.renders != 1 {
		t.Fatalf("renders = %d after the first snapshot, want 1", m.renders)
	}
	if len(m.levels) != len(m.bands) || len(m.bands) == 0 || len(m.bands) > 80 {
		t.Fatalf("levels %d, bands %d for an 80 column terminal", len(m.levels), len(m.bands))
	}

	// Same version: the old frame is redrawn without recomputing.
	m = tick(t, m)
	m = tick(t, m)
	if m.renders != 1 {
		t.Errorf("renders = %d without a new snapshot, want 1", m.renders)
	}

	publish(t, src, utils.GenerateSineWave(testFrameSize, testSampleRate, 880))
	m = tick(t, m)
	if m.renders != 2 || m.snap.Version != 2 {
		t.Errorf("renders = %d, version %d after a new snapshot", m.renders, m.snap.Version)
	}
}

func TestVisualizerView(t *testing.T) {
	src := &fakeSource{stats: pipeline.Stats{Overruns: 7}}
	publish(t, src, utils.GenerateSineWave(testFrameSize, testSampleRate, 440))
	m := tick(t, newTestVisualizer(t, src, 0))

	if !m.hasPeak || m.peak.Bin != 10 {
		t.Fatalf("dominant peak = %+v", m.peak)
	}
	view := m.View()
	for _, want := range []string{"test", "N=1024", "44100 Hz", "hann", "A4", "overruns 7", "v1", "bass"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestVisualizerAutoScaleFillsTallestBar(t *testing.T) {
	src := &fakeSource{}
	publish(t, src, utils.GenerateSineWave(testFrameSize, testSampleRate, 440))
	m := tick(t, newTestVisualizer(t, src, 32))

	if len(m.levels) != 32 {
		t.Fatalf("levels = %d, want 32 configured columns", len(m.levels))
	}
	peak := 0.0
	for _, v := range m.levels {
		peak = max(peak, v)
	}
	if peak > 0.5 {
		t.Fatalf("peak level %v with auto scale off and no compression", peak)
	}

	m, _ = update(t, m, keyRune('a'))
	peak = 0
	for _, v := range m.levels {
		peak = max(peak, v)
	}
	if want := 1 / spectrum.DefaultHeadroom; peak < want-1e-9 || peak > want+1e-9 {
		t.Errorf("peak level with auto scale = %v, want %v", peak, want)
	}
}

func TestVisualizerKeys(t *testing.T) {
	src := &fakeSource{}
	publish(t, src, utils.GenerateSineWave(testFrameSize, testSampleRate, 440))
	m := tick(t, newTestVisualizer(t, src, 16))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.cursor != 0 {
		t.Errorf("cursor = %d after left at column 0", m.cursor)
	}
	for range 20 {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	}
	if m.cursor != 15 {
		t.Errorf("cursor = %d, want it held at the last column 15", m.cursor)
	}

	m, _ = update(t, m, keyRune('s'))
	if m.layout.Scale != spectrum.Logarithmic {
		t.Errorf("scale = %v after s, want log", m.layout.Scale)
	}
	m, _ = update(t, m, keyRune('c'))
	m, _ = update(t, m, keyRune('c'))
	if m.layout.Compression != spectrum.Log {
		t.Errorf("compression = %v after two c presses, want log", m.layout.Compression)
	}
	m, _ = update(t, m, keyRune('c'))
	if m.layout.Compression != spectrum.None {
		t.Errorf("compression = %v, want it to wrap to none", m.layout.Compression)
	}

	// paused: a new snapshot must not replace the frozen one
	m, _ = update(t, m, keyRune('p'))
	frozen := m.snap
	publish(t, src, utils.GenerateSineWave(testFrameSize, testSampleRate, 2000))
	m = tick(t, m)
	if m.snap != frozen || !strings.Contains(m.View(), "PAUSED") {
		t.Error("paused visualizer took a new snapshot")
	}
	m, _ = update(t, m, keyRune('p'))
	m = tick(t, m)
	if m.snap == frozen {
		t.Error("resumed visualizer kept the frozen snapshot")
	}

	_, cmd := update(t, m, keyRune('q'))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestTuningClass(t *testing.T) {
	tests := []struct {
		cents int
		want  int
	}{
		{0, inTune},
		{20, inTune},
		{-20, inTune},
		{21, sharp},
		{50, sharp},
		{-21, flat},
		{-50, flat},
	}
	for _, tt := range tests {
		if got := tuningClass(tt.cents); got != tt.want {
			t.Errorf("tuningClass(%d) = %d, want %d", tt.cents, got, tt.want)
		}
	}
}

func TestVisualizerTuningColors(t *testing.T) {
	binWidth := testSampleRate / testFrameSize

	// A tone centred on a bin makes that bin the loudest of its column.
	// Bin 10 is A4 -37c, bin 13 is C#5 +17c and bin 14 is D5 +45c.
	tests := []struct {
		bin  int
		want int
	}{
		{10, flat},
		{13, inTune},
		{14, sharp},
	}
	for _, tt := range tests {
		src := &fakeSource{}
		publish(t, src, utils.GenerateSineWave(testFrameSize, testSampleRate, float64(tt.bin)*binWidth))
		m := tick(t, newTestVisualizer(t, src, 0))

		col := -1
		for c, b := range m.bands {
			if b.Lo <= tt.bin && tt.bin <= b.Hi {
				col = c
				break
			}
		}
		if col < 0 {
			t.Fatalf("no column covers bin %d", tt.bin)
		}
		if got := m.tuning[col]; got != tt.want {
			t.Errorf("bin %d: column %d tuning class = %d, want %d", tt.bin, col, got, tt.want)
		}
	}
}

func TestVisualizerColorKey(t *testing.T) {
	src := &fakeSource{}
	publish(t, src, utils.GenerateSineWave(testFrameSize, testSampleRate, 440))
	m := tick(t, newTestVisualizer(t, src, 16))

	if m.colors != heightColors || !strings.Contains(m.View(), "height") {
		t.Fatalf("initial colour mode = %v, want height", m.colors)
	}
	m, _ = update(t, m, keyRune('t'))
	if m.colors != tuningColors || !strings.Contains(m.View(), "tuning") {
		t.Errorf("colour mode after t = %v, want tuning", m.colors)
	}
	if len(m.tuning) != len(m.bands) {
		t.Errorf("tuning classes %d for %d columns", len(m.tuning), len(m.bands))
	}
	m, _ = update(t, m, keyRune('t'))
	if m.colors != heightColors {
		t.Errorf("colour mode after second t = %v, want height", m.colors)
	}
}

func TestVisualizerBeat(t *testing.T) {
	src := &fakeSource{}
	publish(t, src, make([]float32, testFrameSize))
	m := tick(t, newTestVisualizer(t, src, 0))
	if strings.Contains(m.statusLine(), "●") {
		t.Fatal("beat lit on silence")
	}

	publish(t, src, utils.GenerateSineWave(testFrameSize, testSampleRate, 60))
	m = tick(t, m)
	if !strings.Contains(m.statusLine(), "●") {
		t.Error("beat not lit on a loud 60 Hz onset")
	}
}

func testDevices() []audio.Device {
	return []audio.Device{
		{ID: 0, Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 48000},
		{ID: 1, Name: "USB Mic", MaxInputChannels: 1, DefaultSampleRate: 44100},
		{ID: 2, Name: "Interface", MaxInputChannels: 8, MaxOutputChannels: 8, DefaultSampleRate: 192000},
	}
}

func pick(t *testing.T, m DeviceListModel, msgs ...tea.Msg) (DeviceListModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(DeviceListModel)
	}
	return m, cmd
}

func TestDevicePickerSelection(t *testing.T) {
	m := NewDeviceListModel()
	m.fetch = func() ([]audio.Device, error) { return testDevices(), nil }

	msg := m.Init()()
	m, _ = pick(t, m, tea.WindowSizeMsg{Width: 80, Height: 30}, msg)
	if !strings.Contains(m.View(), "USB Mic") {
		t.Fatal("device list does not show the devices")
	}

	// Speakers have no input and cannot be configured.
	m, _ = pick(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.activeScreen != ListScreen {
		t.Fatal("output-only device opened the configuration screen")
	}

	down := tea.KeyMsg{Type: tea.KeyDown}
	enter := tea.KeyMsg{Type: tea.KeyEnter}
	m, _ = pick(t, m, down, down, enter)
	if m.activeScreen != ConfigScreen {
		t.Fatal("enter on an input device did not open the configuration screen")
	}
	if got := m.availableSampleRates[m.sampleRateIndex]; got != 192000 {
		t.Errorf("preselected rate = %v, want the device default 192000", got)
	}

	m, cmd := pick(t, m, down, enter)
	sel, ok := m.Selection()
	if !ok {
		t.Fatal("no selection after confirming")
	}
	want := Selection{DeviceID: 2, Name: "Interface", SampleRate: 22050, Channels: 2}
	if sel != want {
		t.Errorf("Selection() = %+v, want %+v", sel, want)
	}
	if cmd == nil {
		t.Fatal("confirming returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("confirming did not quit the picker")
	}
}

func TestDevicePickerError(t *testing.T) {
	m := NewDeviceListModel()
	m.fetch = func() ([]audio.Device, error) { return nil, errors.New("no host api") }

	m, _ = pick(t, m, tea.WindowSizeMsg{Width: 80, Height: 30}, m.Init()())
	if !strings.Contains(m.View(), "no host api") {
		t.Errorf("View() = %q, want the error", m.View())
	}
	if _, ok := m.Selection(); ok {
		t.Error("Selection() reported a choice after an error")
	}
}

func TestSampleRatesFor(t *testing.T) {
	rates, i := sampleRatesFor(audio.Device{DefaultSampleRate: 48000})
	if rates[i] != 48000 || len(rates) != len(commonSampleRates) {
		t.Errorf("48 kHz default: rates %v, index %d", rates, i)
	}
	rates, i = sampleRatesFor(audio.Device{DefaultSampleRate: 32000})
	if rates[i] != 32000 || len(rates) != len(commonSampleRates)+1 {
		t.Errorf("32 kHz default: rates %v, index %d", rates, i)
	}
}
