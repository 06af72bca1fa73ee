// SPDX-License-Identifier: MIT
package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D7D7D"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#5A56E0"))

	beatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F25D94")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F2C94C"))
)

// Bar colours run from the bottom of the graph to the top.
var (
	barLow  = mustHex("#25A065")
	barHigh = mustHex("#F25D94")
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// rowStyles returns one style per bar row, bottom row first, blending the
// bar colours across the graph height.
func rowStyles(height int) []lipgloss.Style {
	styles := make([]lipgloss.Style, height)
	for r := range styles {
		t := 0.0
		if height > 1 {
			t = float64(r) / float64(height-1)
		}
		styles[r] = lipgloss.NewStyle().
			Foreground(lipgloss.Color(barLow.BlendLuv(barHigh, t).Clamped().Hex()))
	}
	return styles
}

// tuningTolerance is how far a note may drift, in cents, before its bar
// is coloured as out of tune.
const tuningTolerance = 20

// Tuning classes of a column in the tuning colour mode.
const (
	inTune = iota
	sharp
	flat
)

var tuningStyles = [...]lipgloss.Style{
	inTune: lipgloss.NewStyle().Foreground(lipgloss.Color("#06D6A0")),
	sharp:  lipgloss.NewStyle().Foreground(lipgloss.Color("#EF476F")),
	flat:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166")),
}

func tuningClass(cents int) int {
	switch {
	case cents > tuningTolerance:
		return sharp
	case cents < -tuningTolerance:
		return flat
	default:
		return inTune
	}
}
