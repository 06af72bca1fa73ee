// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"spectra/internal/analysis"
	"spectra/internal/pipeline"
	"spectra/internal/spectrum"
)

// Rows taken by everything but the bars.
const (
	headerLines = 2
	footerLines = 5
	minBarRows  = 2
)

// beatHold keeps the beat marker lit long enough to be seen.
const beatHold = 150 * time.Millisecond

// Partial block glyphs, eighths of a cell.
var eighths = []rune(" ▁▂▃▄▅▆▇█")

// Source is where the visualizer reads spectra from. Both methods must be
// safe to call while the source is being written to.
type Source interface {
	Snapshot() *pipeline.Snapshot
	Stats() pipeline.Stats
}

var _ Source = (*pipeline.Coordinator)(nil)

// VisualizerConfig configures the bar graph.
type VisualizerConfig struct {
	Title         string
	Layout        spectrum.Layout // Columns 0 fits the terminal width
	FrameInterval time.Duration   // redraw period
	Window        string          // shown in the header
}

type tickMsg time.Time

// colorMode selects how bars are coloured.
type colorMode int

const (
	heightColors colorMode = iota // gradient across the graph height
	tuningColors                  // by how far the loudest bin sits from its note
)

func (c colorMode) String() string {
	if c == tuningColors {
		return "tuning"
	}
	return "height"
}

// cursorCell marks the cursor column when grouping cells by style.
const cursorCell = -1

type keyMap struct {
	Quit        key.Binding
	Pause       key.Binding
	Left        key.Binding
	Right       key.Binding
	Scale       key.Binding
	Compression key.Binding
	AutoScale   key.Binding
	Colors      key.Binding
}

var keys = keyMap{
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c", "esc")),
	Pause:       key.NewBinding(key.WithKeys("p", " ")),
	Left:        key.NewBinding(key.WithKeys("left", "h")),
	Right:       key.NewBinding(key.WithKeys("right", "l")),
	Scale:       key.NewBinding(key.WithKeys("s")),
	Compression: key.NewBinding(key.WithKeys("c")),
	AutoScale:   key.NewBinding(key.WithKeys("a")),
	Colors:      key.NewBinding(key.WithKeys("t")),
}

// Visualizer is the Bubble Tea model drawing the live spectrum. It polls
// the source on every tick and only recomputes the bars when a new
// snapshot has been published; otherwise the previous frame is redrawn.
type Visualizer struct {
	source   Source
	title    string
	window   string
	interval time.Duration

	layout  spectrum.Layout
	columns int // configured columns, 0 to fit

	width, height int
	ready         bool
	paused        bool
	cursor        int
	colors        colorMode

	snap     *pipeline.Snapshot
	stats    pipeline.Stats
	bands    []spectrum.Band
	bandsFor bandsKey
	levels   []float64
	tuning   []int // tuning class per column
	renders  int

	peak      analysis.Peak
	hasPeak   bool
	ranges    []analysis.FrequencyBand
	energies  []analysis.BandLevel
	beat      *analysis.BeatDetector
	beatUntil time.Time
	now       time.Time
	rows      []lipgloss.Style
}

type bandsKey struct {
	sampleRate float64
	frameSize  int
	columns    int
	layout     spectrum.Layout
}

// NewVisualizer creates the model for src.
func NewVisualizer(src Source, cfg VisualizerConfig) Visualizer {
	interval := cfg.FrameInterval
	if interval <= 0 {
		interval = time.Second / 30
	}
	title := cfg.Title
	if title == "" {
		title = "Spectrum"
	}
	return Visualizer{
		source:   src,
		title:    title,
		window:   cfg.Window,
		interval: interval,
		layout:   cfg.Layout,
		columns:  cfg.Layout.Columns,
		beat:     analysis.NewBeatDetector(0.01, 1.3, 150, 250*time.Millisecond),
	}
}

func (m Visualizer) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the redraw ticker.
func (m Visualizer) Init() tea.Cmd {
	return m.tick()
}

// Update handles ticks, resizes and keys.
func (m Visualizer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.rows = rowStyles(m.barRows())
		m.refresh()

	case tickMsg:
		m.now = time.Time(msg)
		m.stats = m.source.Stats()
		if !m.paused {
			if s := m.source.Snapshot(); s != nil && (m.snap == nil || s.Version != m.snap.Version) {
				m.apply(s, time.Time(msg))
			}
		}
		return m, m.tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, keys.Left):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Right):
			if m.cursor < len(m.bands)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Scale):
			if m.layout.Scale == spectrum.Linear {
				m.layout.Scale = spectrum.Logarithmic
			} else {
				m.layout.Scale = spectrum.Linear
			}
			m.refresh()
		case key.Matches(msg, keys.Compression):
			m.layout.Compression = (m.layout.Compression + 1) % (spectrum.Log + 1)
			m.refresh()
		case key.Matches(msg, keys.AutoScale):
			m.layout.AutoScale = !m.layout.AutoScale
			m.refresh()
		case key.Matches(msg, keys.Colors):
			if m.colors == heightColors {
				m.colors = tuningColors
			} else {
				m.colors = heightColors
			}
		}
	}
	return m, nil
}

// apply takes a newly published snapshot.
func (m *Visualizer) apply(s *pipeline.Snapshot, now time.Time) {
	m.snap = s
	m.refresh()

	m.peak, m.hasPeak = analysis.DominantPeak(s)
	if m.ranges == nil {
		m.ranges = analysis.DefaultBands(s.SampleRate / 2)
	}
	m.energies = analysis.BandLevels(m.energies, s, m.ranges)
	if m.beat.Process(s, now) {
		m.beatUntil = now.Add(beatHold)
	}
}

// refresh recomputes the bar levels of the current snapshot.
func (m *Visualizer) refresh() {
	if m.snap == nil || !m.ready {
		return
	}

	columns := m.columns
	if columns <= 0 || columns > m.width {
		columns = m.width
	}
	layout := m.layout
	layout.Columns = columns

	k := bandsKey{m.snap.SampleRate, m.snap.FrameSize, columns, layout}
	if k != m.bandsFor {
		m.bands = layout.Bands(m.snap.SampleRate, m.snap.FrameSize)
		m.bandsFor = k
	}
	if cap(m.levels) < len(m.bands) {
		m.levels = make([]float64, len(m.bands))
	}
	m.levels = layout.Render(m.levels[:cap(m.levels)], m.snap.Magnitudes, m.bands)
	m.tuneColumns()
	m.cursor = max(0, min(m.cursor, len(m.bands)-1))
	m.renders++
}

// tuneColumns classifies every column by the note of its loudest bin.
// Silent columns count as in tune.
func (m *Visualizer) tuneColumns() {
	if cap(m.tuning) < len(m.bands) {
		m.tuning = make([]int, len(m.bands))
	}
	m.tuning = m.tuning[:len(m.bands)]
	for c, b := range m.bands {
		m.tuning[c] = inTune
		bin := m.loudestBin(b)
		if bin <= 0 || bin >= m.snap.Len() || m.snap.Magnitudes[bin] == 0 {
			continue
		}
		if n, ok := analysis.NoteFor(m.snap.BinFrequency(bin)); ok {
			m.tuning[c] = tuningClass(n.Cents)
		}
	}
}

// loudestBin returns the bin of b with the largest magnitude.
func (m Visualizer) loudestBin(b spectrum.Band) int {
	loudest := b.Lo
	for i := b.Lo; i <= b.Hi && i < m.snap.Len(); i++ {
		if m.snap.Magnitudes[i] > m.snap.Magnitudes[loudest] {
			loudest = i
		}
	}
	return loudest
}

func (m Visualizer) barRows() int {
	return max(minBarRows, m.height-headerLines-footerLines)
}

// View draws header, bars and status lines.
func (m Visualizer) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder
	sb.WriteString(m.header())
	sb.WriteString("\n\n")

	if m.snap == nil {
		sb.WriteString(dimStyle.Render("Waiting for audio..."))
		sb.WriteString(strings.Repeat("\n", m.barRows()))
	} else {
		m.drawBars(&sb)
	}

	sb.WriteString(m.cursorLine())
	sb.WriteString("\n")
	sb.WriteString(m.statusLine())
	sb.WriteString("\n")
	sb.WriteString(m.energyLine())
	sb.WriteString("\n\n")
	sb.WriteString(infoStyle.Render("←/→: Inspect • p: Pause • s: Scale • c: Compression • a: Auto scale • t: Colours • q: Quit"))
	return sb.String()
}

func (m Visualizer) header() string {
	info := fmt.Sprintf(" %s • %s • %s • %s", m.layout.Scale, m.layout.Compression, onOff("auto", m.layout.AutoScale), m.colors)
	if m.snap != nil {
		info = fmt.Sprintf(" N=%d • %.0f Hz • %s •", m.snap.FrameSize, m.snap.SampleRate, m.window) + info
	}
	line := titleStyle.Render(m.title) + infoStyle.Render(info)
	if m.paused {
		line += " " + warnStyle.Render("PAUSED")
	}
	return line
}

func onOff(name string, on bool) string {
	if on {
		return name + " on"
	}
	return name + " off"
}

// drawBars writes the graph one row at a time, top row first.
func (m Visualizer) drawBars(sb *strings.Builder) {
	rows := m.barRows()
	styles := m.rows
	if len(styles) != rows {
		styles = rowStyles(rows)
	}

	line := make([]rune, len(m.levels))
	for r := rows - 1; r >= 0; r-- {
		for c, level := range m.levels {
			fill := level * float64(rows)
			switch {
			case fill >= float64(r+1):
				line[c] = eighths[8]
			case fill > float64(r):
				line[c] = eighths[int((fill-float64(r))*8)]
			default:
				line[c] = ' '
			}
		}

		// one Render per run of cells sharing a style
		start := 0
		for c := 1; c <= len(line); c++ {
			if c < len(line) && m.cellClass(c) == m.cellClass(start) {
				continue
			}
			sb.WriteString(m.cellStyle(m.cellClass(start), styles[r]).Render(string(line[start:c])))
			start = c
		}
		sb.WriteString("\n")
	}
}

func (m Visualizer) cellClass(c int) int {
	switch {
	case c == m.cursor:
		return cursorCell
	case m.colors == tuningColors && c < len(m.tuning):
		return m.tuning[c]
	default:
		return inTune
	}
}

func (m Visualizer) cellStyle(class int, row lipgloss.Style) lipgloss.Style {
	switch {
	case class == cursorCell:
		return cursorStyle
	case m.colors == tuningColors:
		return tuningStyles[class]
	default:
		return row
	}
}

// cursorLine describes the column under the cursor.
func (m Visualizer) cursorLine() string {
	if m.snap == nil || m.cursor >= len(m.bands) {
		return ""
	}
	b := m.bands[m.cursor]
	lo, hi := m.snap.BinFrequency(b.Lo), m.snap.BinFrequency(b.Hi)
	loudest := m.loudestBin(b)

	line := fmt.Sprintf("▶ %.1f–%.1f Hz  %3.0f%%", lo, hi, m.levels[m.cursor]*100)
	if n, ok := analysis.NoteFor(m.snap.BinFrequency(loudest)); ok && loudest > 0 {
		line += "  " + n.String()
	}
	return highlightStyle.Render(line)
}

func (m Visualizer) statusLine() string {
	parts := []string{}
	if m.hasPeak {
		peak := fmt.Sprintf("Peak %.1f Hz", m.peak.Frequency)
		if n, ok := analysis.NoteFor(m.peak.Frequency); ok {
			peak += " " + n.String()
		}
		parts = append(parts, peak)
	} else {
		parts = append(parts, "Peak -")
	}

	beat := dimStyle.Render("○ beat")
	if m.now.Before(m.beatUntil) {
		beat = beatStyle.Render("● beat")
	}
	parts = append(parts, beat)

	overruns := fmt.Sprintf("overruns %d", m.stats.Overruns)
	if m.stats.Overruns > 0 {
		overruns = warnStyle.Render(overruns)
	}
	parts = append(parts, overruns)

	version := uint64(0)
	if m.snap != nil {
		version = m.snap.Version
	}
	parts = append(parts, fmt.Sprintf("v%d", version))
	if m.stats.Skipped > 0 {
		parts = append(parts, warnStyle.Render(fmt.Sprintf("skipped %d", m.stats.Skipped)))
	}
	return strings.Join(parts, " • ")
}

// energyLine shows the band levels relative to the loudest band.
func (m Visualizer) energyLine() string {
	loudest := 0.0
	for _, e := range m.energies {
		loudest = max(loudest, e.Level)
	}

	parts := make([]string, 0, len(m.energies))
	for _, e := range m.energies {
		g := 0
		if loudest > 0 {
			g = int(e.Level / loudest * 8)
		}
		parts = append(parts, e.Name+" "+string(eighths[max(0, min(g, 8))]))
	}
	return dimStyle.Render(strings.Join(parts, "  "))
}

// RunVisualizer runs the bar graph until the user quits or ctx is done.
func RunVisualizer(ctx context.Context, src Source, cfg VisualizerConfig) error {
	p := tea.NewProgram(
		NewVisualizer(src, cfg),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
