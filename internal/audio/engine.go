// SPDX-License-Identifier: MIT
/*
Package audio implements capture for the spectrum analyzer with:
- Lock-free audio capture using a PortAudio float32 stream
- Mono reduction of multi-channel input
- A tone generator that stands in for a device
- WAV recording drained off the audio thread

Thread Safety:
- The stream callback only copies into pre-allocated buffers and hands the
  block to a Sink; it never blocks, locks or allocates
- Recording state is switched atomically
- Locks OS thread during audio processing
*/
package audio

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"spectra/internal/config"
	"spectra/internal/log"
)

var logger = log.New("Audio")

// Sink receives mono sample blocks from a source. Push is called from the
// audio thread and must not block.
type Sink interface {
	Push(samples []float32)
}

type Engine struct {
	// Core configuration and state.
	config *config.Config
	sink   Sink

	// Audio input handling.
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Mono reduction for the pipeline.
	monoBuffer []float32

	// Recording of the raw interleaved input.
	recorder atomic.Pointer[Recorder]

	callbacks atomic.Uint64
}

// NewEngine resolves the configured input device and prepares buffers for
// streaming into sink.
func NewEngine(cfg *config.Config, sink Sink) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.DeviceID())
	if err != nil {
		return nil, err
	}

	engine := newEngine(cfg, sink)
	engine.inputDevice = inputDevice
	if cfg.LowLatency() {
		engine.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		engine.inputLatency = inputDevice.DefaultHighInputLatency
	}

	logger.Infof("Using input device '%s' (%d channels, %.0f Hz, %d frames/buffer)",
		inputDevice.Name, cfg.Channels(), cfg.SampleRate(), cfg.FramesPerBuffer())
	return engine, nil
}

func newEngine(cfg *config.Config, sink Sink) *Engine {
	return &Engine{
		config:     cfg,
		sink:       sink,
		monoBuffer: make([]float32, cfg.FramesPerBuffer()),
	}
}

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.config.Channels(),
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.config.FramesPerBuffer(),
		SampleRate:      e.config.SampleRate(),
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	return nil
}

func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}

	return nil
}

// Callbacks returns how many blocks the device has delivered.
func (e *Engine) Callbacks() uint64 {
	return e.callbacks.Load()
}

// processInputStream is the core audio processing callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - No dynamic allocations in the hot path
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	e.callbacks.Add(1)

	if r := e.recorder.Load(); r != nil {
		r.Push(in)
	}

	channels := e.config.Channels()
	for len(in) > 0 {
		frames := min(len(in)/channels, len(e.monoBuffer))
		if frames == 0 {
			return
		}
		mono := Downmix(e.monoBuffer, in[:frames*channels], channels)
		e.sink.Push(mono)
		in = in[frames*channels:]
	}
}

// StartRecording begins writing the raw device input to filename.
func (e *Engine) StartRecording(filename string) error {
	if r := e.recorder.Load(); r != nil && r.Recording() {
		return ErrAlreadyRecording
	}

	r, err := NewRecorder(e.config.SampleRate(), e.config.Channels(),
		e.config.Recording.BitDepth, e.config.MaxRecordingSamples())
	if err != nil {
		return err
	}
	if err := r.Start(filename); err != nil {
		return err
	}
	e.recorder.Store(r)
	return nil
}

// StopRecording finalizes the current file, if any.
func (e *Engine) StopRecording() error {
	r := e.recorder.Swap(nil)
	if r == nil {
		return nil
	}
	return r.Stop()
}

// Recording reports whether input is being written to a file.
func (e *Engine) Recording() bool {
	r := e.recorder.Load()
	return r != nil && r.Recording()
}

// Close stops the stream and any recording.
func (e *Engine) Close() error {
	return errors.Join(e.StopInputStream(), e.StopRecording())
}
