// SPDX-License-Identifier: MIT
package config

import (
	"math"
	"path/filepath"
	"time"

	"spectra/internal/log"
	"spectra/internal/spectrum"
	"spectra/internal/window"
)

// DeviceID returns the input device ID.
func (c *Config) DeviceID() int {
	return c.Audio.InputDevice
}

// Channels returns the number of input channels.
func (c *Config) Channels() int {
	return c.Audio.InputChannels
}

// FramesPerBuffer returns the frames per capture callback.
func (c *Config) FramesPerBuffer() int {
	return c.Audio.FramesPerBuffer
}

// SampleRate returns the sample rate in Hz.
func (c *Config) SampleRate() float64 {
	return c.Audio.SampleRate
}

// LowLatency returns whether to use low latency mode.
func (c *Config) LowLatency() bool {
	return c.Audio.LowLatency
}

// Level returns the effective log level. Debug wins over log_level.
func (c *Config) Level() log.LogLevel {
	if c.Debug {
		return log.LevelDebug
	}
	level, _ := log.ParseLevel(c.LogLevel)
	return level
}

// WindowKind returns the parsed analysis window, Hann if invalid.
func (c *Config) WindowKind() window.Kind {
	kind, _ := window.ParseKind(c.Analysis.Window)
	return kind
}

// Layout returns the display mapping for the given number of columns.
func (c *Config) Layout(columns int) spectrum.Layout {
	scale, _ := spectrum.ParseScale(c.Display.Scale)
	compression, _ := spectrum.ParseCompression(c.Display.Compression)
	return spectrum.Layout{
		Columns:      columns,
		MinFrequency: c.Display.MinFrequency,
		MaxFrequency: c.Display.MaxFrequency,
		Scale:        scale,
		Compression:  compression,
		FloorDB:      c.Display.FloorDB,
		AutoScale:    c.Display.AutoScale,
		Headroom:     spectrum.DefaultHeadroom,
		Floor:        spectrum.DefaultFloor,
	}
}

// FrameInterval returns the redraw period.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(max(c.Display.FPS, 1))
}

// MaxRecordingSamples returns the per-file frame limit, 0 for unlimited.
func (c *Config) MaxRecordingSamples() int {
	if c.Recording.MaxDuration <= 0 {
		return 0
	}
	return int(math.Round(float64(c.Recording.MaxDuration) * c.Audio.SampleRate))
}

// RecordingPath returns the WAV path for a recording started at t.
func (c *Config) RecordingPath(t time.Time) string {
	if c.Recording.OutputFile != "" {
		return c.Recording.OutputFile
	}
	return filepath.Join(c.Recording.OutputDir, "spectra-"+t.Format("20060102-150405")+".wav")
}
