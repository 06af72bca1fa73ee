// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"spectra/internal/log"
	"spectra/internal/spectrum"
	"spectra/internal/window"
	"spectra/pkg/bitint"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`             // Enable debug mode (debug logging).
	LogLevel  string          `yaml:"log_level"`         // Logging level (e.g., "debug", "info", "warn", "error").
	LogFile   string          `yaml:"log_file"`          // Log destination while the terminal UI runs; empty discards.
	Command   string          `yaml:"command,omitempty"` // A one-off command to execute instead of running the analyzer (e.g., "list").
	Audio     AudioConfig     `yaml:"audio"`             // Audio capture settings.
	Analysis  AnalysisConfig  `yaml:"analysis"`          // Spectrum pipeline settings.
	Display   DisplayConfig   `yaml:"display"`           // Bar graph settings.
	Recording RecordingConfig `yaml:"recording"`         // Audio recording settings.
}

// AudioConfig holds settings related to audio input.
type AudioConfig struct {
	InputDevice     int       `yaml:"input_device"`      // PortAudio device index for audio input (-1 for default).
	SampleRate      float64   `yaml:"sample_rate"`       // Sample rate in Hz (e.g., 44100, 48000).
	FramesPerBuffer int       `yaml:"frames_per_buffer"` // Frames delivered per capture callback.
	LowLatency      bool      `yaml:"low_latency"`       // Request low latency settings from PortAudio device.
	InputChannels   int       `yaml:"input_channels"`    // Channels to capture; more than one is averaged to mono.
	Source          string    `yaml:"source"`            // "device" or "tone".
	ToneFrequencies []float64 `yaml:"tone_frequencies"`  // Partials of the built-in tone source in Hz.
	ToneAmplitude   float64   `yaml:"tone_amplitude"`    // Peak amplitude of the tone source (0, 1].
}

// AnalysisConfig holds settings of the spectrum pipeline.
type AnalysisConfig struct {
	FrameSize    int           `yaml:"frame_size"`    // FFT size N, a power of two.
	Window       string        `yaml:"window"`        // Window function name (e.g., "hann", "hamming").
	RingCapacity int           `yaml:"ring_capacity"` // Sample ring size; 0 means 4 * frame_size.
	PollInterval time.Duration `yaml:"poll_interval"` // Fallback wake-up interval of the processing loop.
}

// DisplayConfig holds settings of the terminal bar graph.
type DisplayConfig struct {
	FPS          int     `yaml:"fps"`           // Redraw rate.
	Columns      int     `yaml:"columns"`       // Bars to draw; 0 fits the terminal width.
	MinFrequency float64 `yaml:"min_frequency"` // Lowest displayed frequency in Hz.
	MaxFrequency float64 `yaml:"max_frequency"` // Highest displayed frequency in Hz; 0 for Nyquist.
	Scale        string  `yaml:"scale"`         // "linear" or "log" frequency axis.
	Compression  string  `yaml:"compression"`   // "none", "sqrt" or "log" amplitude curve.
	FloorDB      float64 `yaml:"floor_db"`      // Level drawn as an empty bar by "log" compression.
	AutoScale    bool    `yaml:"auto_scale"`    // Scale bars to the loudest column of each frame.
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled     bool   `yaml:"enabled"`              // Enable audio recording to file.
	OutputDir   string `yaml:"output_dir"`           // Directory to save recorded audio files.
	OutputFile  string `yaml:"output_file"`          // Explicit file path; overrides output_dir.
	Format      string `yaml:"format"`               // File format for recordings ("wav").
	BitDepth    int    `yaml:"bit_depth"`            // Bit depth for recorded audio (16, 24 or 32).
	MaxDuration int    `yaml:"max_duration_seconds"` // Maximum duration of a single recording file in seconds (0 for unlimited).
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			InputChannels:   DefaultChannels,
			Source:          DefaultSource,
			ToneFrequencies: []float64{440},
			ToneAmplitude:   DefaultToneAmplitude,
		},
		Analysis: AnalysisConfig{
			FrameSize:    DefaultFrameSize,
			Window:       DefaultWindow,
			RingCapacity: 0,
			PollInterval: DefaultPollInterval,
		},
		Display: DisplayConfig{
			FPS:          DefaultFPS,
			Columns:      0,
			MinFrequency: DefaultMinFrequency,
			MaxFrequency: DefaultMaxFrequency,
			Scale:        DefaultScale,
			Compression:  DefaultCompression,
			FloorDB:      DefaultFloorDB,
			AutoScale:    true,
		},
		Recording: RecordingConfig{
			Enabled:     false,
			OutputDir:   DefaultOutputDir,
			Format:      DefaultFormat,
			BitDepth:    DefaultBitDepth,
			MaxDuration: 0, // 0 for unlimited.
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		// Define potential locations for the config file.
		candidates := []string{
			"config.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path == "" {
		cfg.applyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid default configuration: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every setting against the supported limits and reports
// all problems at once.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, ok := log.ParseLevel(c.LogLevel); !ok && c.LogLevel != "" {
		fail("log_level '%s' is not a known level", c.LogLevel)
	}

	// Audio
	a := c.Audio
	if a.InputDevice < MinDeviceID {
		fail("audio.input_device must be >= %d, got %d", MinDeviceID, a.InputDevice)
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		fail("audio.sample_rate must be in [%d, %d], got %v", MinSampleRate, MaxSampleRate, a.SampleRate)
	}
	if a.FramesPerBuffer < 1 || a.FramesPerBuffer > MaxBufferFrames {
		fail("audio.frames_per_buffer must be in [1, %d], got %d", MaxBufferFrames, a.FramesPerBuffer)
	}
	if a.InputChannels < 1 || a.InputChannels > MaxChannels {
		fail("audio.input_channels must be in [1, %d], got %d", MaxChannels, a.InputChannels)
	}
	switch a.Source {
	case SourceDevice:
	case SourceTone:
		if len(a.ToneFrequencies) == 0 {
			fail("audio.tone_frequencies must not be empty for the tone source")
		}
		for _, f := range a.ToneFrequencies {
			if f <= 0 || f >= a.SampleRate/2 {
				fail("audio.tone_frequencies: %v Hz is outside (0, Nyquist)", f)
			}
		}
		if a.ToneAmplitude <= 0 || a.ToneAmplitude > 1 {
			fail("audio.tone_amplitude must be in (0, 1], got %v", a.ToneAmplitude)
		}
	default:
		fail("audio.source must be '%s' or '%s', got '%s'", SourceDevice, SourceTone, a.Source)
	}

	// Analysis
	n := c.Analysis.FrameSize
	if !bitint.IsPowerOfTwo(n) || n < MinFrameSize || n > MaxFrameSize {
		fail("analysis.frame_size must be a power of 2 in [%d, %d], got %d", MinFrameSize, MaxFrameSize, n)
	}
	if _, err := window.ParseKind(c.Analysis.Window); err != nil {
		fail("analysis.window: %w", err)
	}
	if r := c.Analysis.RingCapacity; r != 0 && r < 2*n {
		fail("analysis.ring_capacity must be 0 or at least 2 * frame_size, got %d", r)
	}
	if c.Analysis.PollInterval < 0 {
		fail("analysis.poll_interval must not be negative, got %v", c.Analysis.PollInterval)
	}

	// Display
	d := c.Display
	if d.FPS < 1 || d.FPS > MaxFPS {
		fail("display.fps must be in [1, %d], got %d", MaxFPS, d.FPS)
	}
	if d.Columns < 0 {
		fail("display.columns must not be negative, got %d", d.Columns)
	}
	if d.MinFrequency < 0 {
		fail("display.min_frequency must not be negative, got %v", d.MinFrequency)
	}
	if d.MaxFrequency != 0 && d.MaxFrequency <= d.MinFrequency {
		fail("display.max_frequency must be 0 or above min_frequency, got %v", d.MaxFrequency)
	}
	if _, err := spectrum.ParseScale(d.Scale); err != nil {
		fail("display.scale: %w", err)
	}
	if _, err := spectrum.ParseCompression(d.Compression); err != nil {
		fail("display.compression: %w", err)
	}
	if d.FloorDB >= 0 {
		fail("display.floor_db must be negative, got %v", d.FloorDB)
	}

	// Recording
	r := c.Recording
	if !strings.EqualFold(r.Format, DefaultFormat) {
		fail("recording.format '%s' is not supported (only wav)", r.Format)
	}
	switch r.BitDepth {
	case 16, 24, 32:
	default:
		fail("recording.bit_depth must be 16, 24 or 32, got %d", r.BitDepth)
	}
	if r.MaxDuration < 0 {
		fail("recording.max_duration_seconds must not be negative, got %d", r.MaxDuration)
	}
	if r.Enabled && r.OutputDir == "" && r.OutputFile == "" {
		fail("recording.output_dir or recording.output_file must be set when recording is enabled")
	}

	return errors.Join(errs...)
}

var logger = log.New("Config")

// applyEnvOverrides applies ENV_* variables on top of the file settings.
// Values that fail to parse are ignored with a warning.
func (cfg *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			logger.Infof("Overriding debug from env: %v", bVal)
		} else {
			logger.Warnf("Ignoring ENV_DEBUG=%q: %v", val, err)
		}
	}

	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		logger.Infof("Overriding log_level from env: %s", val)
	}

	// ENV_{...}
	// These are specific to the pipeline.

	// ENV_FRAME_SIZE
	if val, ok := os.LookupEnv("ENV_FRAME_SIZE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Analysis.FrameSize = iVal
			logger.Infof("Overriding analysis.frame_size from env: %d", iVal)
		} else {
			logger.Warnf("Ignoring ENV_FRAME_SIZE=%q: %v", val, err)
		}
	}
	// ENV_SAMPLE_RATE
	if val, ok := os.LookupEnv("ENV_SAMPLE_RATE"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Audio.SampleRate = fVal
			logger.Infof("Overriding audio.sample_rate from env: %v", fVal)
		} else {
			logger.Warnf("Ignoring ENV_SAMPLE_RATE=%q: %v", val, err)
		}
	}
	// ENV_WINDOW
	if val, ok := os.LookupEnv("ENV_WINDOW"); ok {
		cfg.Analysis.Window = val
		logger.Infof("Overriding analysis.window from env: %s", val)
	}
	// ENV_AUDIO_SOURCE
	if val, ok := os.LookupEnv("ENV_AUDIO_SOURCE"); ok {
		cfg.Audio.Source = strings.ToLower(val)
		logger.Infof("Overriding audio.source from env: %s", val)
	}
}
