// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the analyzer.
const (
	// Audio capture defaults
	DefaultChannels        = 1           // Mono audio
	DefaultDeviceID        = MinDeviceID // Default to system default device
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultLowLatency      = false       // Standard latency mode
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultSource          = SourceDevice
	DefaultToneAmplitude   = 0.5

	// Analysis defaults
	DefaultFrameSize    = 1024
	DefaultWindow       = "hann"
	DefaultPollInterval = 10 * time.Millisecond

	// Display defaults
	DefaultFPS          = 30
	DefaultMinFrequency = 20
	DefaultMaxFrequency = 3000 // Hz, higher bins are rarely of interest
	DefaultScale        = "linear"
	DefaultCompression  = "none"
	DefaultFloorDB      = -80

	// Recording defaults
	DefaultFormat    = "wav" // WAV file format for recordings
	DefaultBitDepth  = 16
	DefaultOutputDir = "./recordings"

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer (power of 2)
	MaxChannels     = 32
	MinFrameSize    = 16
	MaxFrameSize    = 65536
	MaxFPS          = 240
)

// Audio sources.
const (
	SourceDevice = "device" // PortAudio input stream
	SourceTone   = "tone"   // built-in tone generator
)
