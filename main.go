// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"spectra/cmd"
	"spectra/internal/audio"
	"spectra/internal/config"
	"spectra/internal/log"
	"spectra/internal/pipeline"
	"spectra/internal/tui"
	"spectra/pkg/build"
)

var audioLog = log.New("Audio")

// main is the entry point for the spectrum analyzer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Parse command line arguments and configuration
//   - Initialize PortAudio when a device is involved
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Start the processing loop
//   - Start the capture source (device stream or tone generator)
//   - Start recording if enabled
//   - Run the bar graph until the user quits or a signal arrives
//
// 3. Shutdown Phase (Cold Path):
//   - Stop recording if active
//   - Close the stream
//   - Report pipeline statistics
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		log.New("Build").Warnf("%v, running a development build", err)
	}

	// One thread for the audio callback, one for the processing loop and
	// one for the UI and I/O.
	runtime.GOMAXPROCS(3)

	cfg, err := cmd.ParseArgs()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if cfg == nil {
		return // help or version
	}
	log.SetLevel(cfg.Level())

	if cfg.Command != "" || cfg.Audio.Source == config.SourceDevice {
		if err := audio.Initialize(); err != nil {
			log.Fatalf("%v", err)
		}
		defer audio.Terminate()
	}

	// Handle one-off commands that don't require the pipeline to be running.
	switch cfg.Command {
	case cmd.CommandList:
		if err := audio.ListDevices(); err != nil {
			log.Fatalf("%v", err)
		}
		return

	case cmd.CommandPick:
		sel, ok, err := tui.PickDevice()
		if err != nil {
			log.Fatalf("%v", err)
		}
		if !ok {
			return
		}
		cfg.Audio.Source = config.SourceDevice
		cfg.Audio.InputDevice = sel.DeviceID
		cfg.Audio.SampleRate = sel.SampleRate
		cfg.Audio.InputChannels = sel.Channels
		if err := cfg.Validate(); err != nil {
			log.Fatalf("invalid configuration: %v", err)
		}
	}

	if err := run(cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

// run wires capture, processing and rendering and blocks until the UI
// exits or a termination signal arrives.
func run(cfg *config.Config) error {
	coordinator, err := pipeline.New(pipeline.Config{
		FrameSize:    cfg.Analysis.FrameSize,
		SampleRate:   cfg.SampleRate(),
		Capacity:     cfg.Analysis.RingCapacity,
		Window:       cfg.WindowKind(),
		PollInterval: cfg.Analysis.PollInterval,
	})
	if err != nil {
		return err
	}

	var (
		engine    *audio.Engine
		generator *audio.Generator
	)
	switch cfg.Audio.Source {
	case config.SourceTone:
		generator, err = audio.NewGenerator(coordinator, cfg.SampleRate(),
			cfg.Audio.ToneFrequencies, cfg.Audio.ToneAmplitude, cfg.FramesPerBuffer())
	default:
		engine, err = audio.NewEngine(cfg, coordinator)
	}
	if err != nil {
		return err
	}

	// The UI owns the terminal from here on.
	restoreLogs, err := redirectLogs(cfg.LogFile)
	if err != nil {
		return err
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(coordinator.Run(ctx))
	})

	var recordingPath string
	if engine != nil {
		// The first call to StartInputStream triggers PortAudio to begin
		// calling the callback, marking the start of the hot path.
		if err := engine.StartInputStream(); err != nil {
			cancel()
			_ = g.Wait()
			restoreLogs()
			return err
		}
		if cfg.Recording.Enabled {
			recordingPath = cfg.RecordingPath(time.Now())
			if err := engine.StartRecording(recordingPath); err != nil {
				audioLog.Errorf("%v", err)
				recordingPath = ""
			}
		}
	} else {
		if cfg.Recording.Enabled {
			audioLog.Warnf("Recording applies to device input only, ignored for the tone source")
		}
		g.Go(func() error {
			return ignoreCanceled(generator.Run(ctx))
		})
	}

	g.Go(func() error {
		defer cancel()
		return tui.RunVisualizer(ctx, coordinator, tui.VisualizerConfig{
			Title:         build.GetBuildFlags().Name,
			Layout:        cfg.Layout(cfg.Display.Columns),
			FrameInterval: cfg.FrameInterval(),
			Window:        cfg.WindowKind().String(),
		})
	})

	runErr := g.Wait()

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if engine != nil {
		if err := engine.Close(); err != nil {
			audioLog.Errorf("Error closing engine: %v", err)
		}
	}
	restoreLogs()

	if recordingPath != "" {
		fmt.Printf("Recording saved to: %s\n", recordingPath)
	}
	stats := coordinator.Stats()
	fmt.Printf("%d spectra published, %d cycles skipped, %d of %d samples overrun\n",
		stats.Published, stats.Skipped, stats.Overruns, stats.Written)

	return runErr
}

// redirectLogs sends log output to path, or discards it when path is
// empty, and returns a function restoring stderr.
func redirectLogs(path string) (func(), error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(os.Stderr) }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
