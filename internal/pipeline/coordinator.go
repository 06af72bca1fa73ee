// SPDX-License-Identifier: MIT
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"spectra/internal/fft"
	"spectra/internal/log"
	"spectra/internal/ring"
	"spectra/internal/spectrum"
	"spectra/internal/window"
)

// DefaultPollInterval is how often the processing loop looks for new
// samples when no notification arrives.
var logger = log.New("Pipeline")

const DefaultPollInterval = 10 * time.Millisecond

var (
	// ErrInvalidSampleRate is returned by New for a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrCapacityTooSmall is returned by New when the ring cannot hold two frames.
	ErrCapacityTooSmall = errors.New("ring capacity must hold at least two frames")
)

// State is the phase of the processing cycle.
type State int32

const (
	Idle State = iota
	Processing
	Published
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Processing:
		return "processing"
	case Published:
		return "published"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Config describes one pipeline.
type Config struct {
	FrameSize    int           // N, a power of two
	SampleRate   float64       // Hz
	Capacity     int           // ring size in samples, default 4N
	Window       window.Kind   // default Hann
	PollInterval time.Duration // default DefaultPollInterval
}

// Stats are cumulative counters for the status line.
type Stats struct {
	Cycles    uint64 // cycles started
	Published uint64 // snapshots stored
	Skipped   uint64 // cycles that failed and published nothing
	Overruns  uint64 // samples overwritten before processing saw them
	Written   uint64 // samples received from capture
}

// Coordinator moves samples from the capture callback through the
// window, transform and mapper, and publishes the result for rendering.
//
// Push is called by the capture side only. Step and Run belong to a single
// processing goroutine. Snapshot, Version, State and Stats may be called
// from anywhere.
type Coordinator struct {
	cfg    Config
	ring   *ring.Buffer
	window *window.Table
	engine *fft.Engine
	mapper *spectrum.Mapper

	// processing-goroutine scratch
	frame        []float64
	values       []complex128
	transform    func([]complex128) error
	lastOverruns uint64

	notify   chan struct{}
	snapshot atomic.Pointer[Snapshot]
	state    atomic.Int32

	cycles    atomic.Uint64
	published atomic.Uint64
	skipped   atomic.Uint64
}

// New validates cfg and allocates everything the pipeline will need, so
// that no later cycle allocates anything but the published magnitudes.
func New(cfg Config) (*Coordinator, error) {
	engine, err := fft.NewEngine(cfg.FrameSize)
	if err != nil {
		return nil, fmt.Errorf("invalid frame size: %w", err)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidSampleRate, cfg.SampleRate)
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = 4 * cfg.FrameSize
	}
	if cfg.Capacity < 2*cfg.FrameSize {
		return nil, fmt.Errorf("%w: %d < 2*%d", ErrCapacityTooSmall, cfg.Capacity, cfg.FrameSize)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	buf, err := ring.New(cfg.Capacity)
	if err != nil {
		return nil, err
	}
	cfg.Capacity = buf.Capacity()

	tbl, err := window.New(cfg.Window, cfg.FrameSize)
	if err != nil {
		return nil, err
	}
	mapper, err := spectrum.NewMapper(cfg.FrameSize)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		cfg:    cfg,
		ring:   buf,
		window: tbl,
		engine: engine,
		mapper: mapper,
		frame:  make([]float64, cfg.FrameSize),
		values: make([]complex128, cfg.FrameSize),
		notify: make(chan struct{}, 1),
	}
	c.transform = engine.Transform
	return c, nil
}

// Config returns the effective configuration with defaults filled in.
func (c *Coordinator) Config() Config {
	return c.cfg
}

// Push hands a block of mono samples to the pipeline. It is safe to call
// from a real-time audio callback: it never blocks, locks or allocates.
func (c *Coordinator) Push(samples []float32) {
	c.ring.Push(samples)
	if c.Ready() {
		select {
		case c.notify <- struct{}{}:
		default:
		}
	}
}

// Ready reports whether a full frame of new samples is waiting.
func (c *Coordinator) Ready() bool {
	return c.ring.Pending() >= uint64(c.cfg.FrameSize)
}

// Step runs one cycle synchronously: drain the latest frame, window it,
// transform it, map it and publish the result. It reports whether a
// snapshot was published. A failed cycle leaves the previous snapshot in
// place.
func (c *Coordinator) Step() (ok bool) {
	c.cycles.Add(1)
	c.state.Store(int32(Processing))

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("cycle aborted: %v", r)
			ok = false
		}
		if !ok {
			c.skipped.Add(1)
			c.state.Store(int32(Idle))
		}
	}()

	c.ring.DrainLatest(c.frame)
	if overruns := c.ring.Overruns(); overruns != c.lastOverruns {
		logger.Debugf("%d samples overwritten before processing", overruns-c.lastOverruns)
		c.lastOverruns = overruns
	}

	if err := c.window.ApplyInPlace(c.frame); err != nil {
		logger.Errorf("window: %v", err)
		return false
	}
	if err := fft.Lift(c.values, c.frame); err != nil {
		logger.Errorf("lift: %v", err)
		return false
	}
	if err := c.transform(c.values); err != nil {
		logger.Errorf("transform: %v", err)
		return false
	}

	mags := make([]float64, c.mapper.Bins())
	if err := c.mapper.Map(mags, c.values); err != nil {
		logger.Errorf("map: %v", err)
		return false
	}

	c.snapshot.Store(&Snapshot{
		Magnitudes: mags,
		SampleRate: c.cfg.SampleRate,
		FrameSize:  c.cfg.FrameSize,
		Version:    c.published.Add(1),
		Captured:   time.Now(),
	})
	c.state.Store(int32(Published))
	return true
}

// Run processes frames until ctx is cancelled. It wakes on a Push that
// completed a frame or on the poll interval, and starts a cycle only once
// at least FrameSize new samples arrived since the last drain.
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	logger.Debugf("running, N=%d, rate=%v Hz, ring=%d", c.cfg.FrameSize, c.cfg.SampleRate, c.cfg.Capacity)

	for {
		c.state.Store(int32(Idle))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.notify:
		case <-ticker.C:
		}
		if !c.Ready() {
			continue
		}
		c.Step()
	}
}

// Snapshot returns the latest published spectrum, or nil before the first.
func (c *Coordinator) Snapshot() *Snapshot {
	return c.snapshot.Load()
}

// Version returns the version of the latest published spectrum. It starts
// at zero and increases by one per publication.
func (c *Coordinator) Version() uint64 {
	if s := c.snapshot.Load(); s != nil {
		return s.Version
	}
	return 0
}

// State returns the current cycle phase.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Stats returns a copy of the counters.
func (c *Coordinator) Stats() Stats {
	return Stats{
		Cycles:    c.cycles.Load(),
		Published: c.published.Load(),
		Skipped:   c.skipped.Load(),
		Overruns:  c.ring.Overruns(),
		Written:   c.ring.Written(),
	}
}
