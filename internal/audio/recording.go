// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"spectra/internal/log"
	"spectra/internal/ring"
)

var recLog = log.New("Recorder")

// recorderFlushInterval is how often the writer goroutine drains the ring.
const recorderFlushInterval = 50 * time.Millisecond

// ErrAlreadyRecording is returned by Start while a recording is running.
var ErrAlreadyRecording = errors.New("already recording")

// Recorder writes captured audio to a WAV file. The audio thread only
// copies samples into a private ring; a writer goroutine drains it and
// does all file I/O.
type Recorder struct {
	sampleRate int
	channels   int
	bitDepth   int
	maxFrames  int // 0 for unlimited

	ring      *ring.Buffer
	recording atomic.Bool
	written   atomic.Int64 // frames in the current file

	mu         sync.Mutex // Protects the fields below during Start/Stop.
	outputFile *os.File
	wavEncoder *wav.Encoder
	ticker     *time.Ticker
	doneChan   chan struct{}
	wg         sync.WaitGroup

	// writer-goroutine buffers
	scratch   []float32
	sampleBuf *audio.IntBuffer
	limitHit  bool
}

// NewRecorder creates a recorder for interleaved input. maxFrames limits
// the length of each file; 0 means unlimited.
func NewRecorder(sampleRate float64, channels, bitDepth, maxFrames int) (*Recorder, error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
	if channels < 1 || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid recording format: %d channels at %v Hz", channels, sampleRate)
	}

	// One second of audio rides out any stall of the writer.
	buf, err := ring.New(int(sampleRate) * channels)
	if err != nil {
		return nil, err
	}

	chunk := buf.Capacity() / 4
	return &Recorder{
		sampleRate: int(sampleRate),
		channels:   channels,
		bitDepth:   bitDepth,
		maxFrames:  maxFrames,
		ring:       buf,
		scratch:    make([]float32, chunk),
		sampleBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  int(sampleRate),
			},
			Data:           make([]int, chunk),
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Recording reports whether a file is open.
func (r *Recorder) Recording() bool {
	return r.recording.Load()
}

// FramesWritten returns the number of frames in the current or last file.
func (r *Recorder) FramesWritten() int64 {
	return r.written.Load()
}

// Lost returns the samples dropped because the writer fell behind.
func (r *Recorder) Lost() uint64 {
	return r.ring.Overruns()
}

// Push queues interleaved samples. Called from the audio thread; it never
// blocks and is a no-op while not recording.
func (r *Recorder) Push(samples []float32) {
	if r.recording.Load() {
		r.ring.Push(samples)
	}
}

// Start opens filename and begins recording.
func (r *Recorder) Start(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording.Load() {
		return ErrAlreadyRecording
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create recording directory: %w", err)
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	r.outputFile = file
	r.wavEncoder = wav.NewEncoder(file, r.sampleRate, r.bitDepth, r.channels, 1)

	// Discard leftovers of a previous recording; the producer is idle.
	for r.ring.Read(r.scratch) > 0 {
	}
	r.written.Store(0)
	r.limitHit = false

	r.ticker = time.NewTicker(recorderFlushInterval)
	r.doneChan = make(chan struct{})
	ticker, doneChan := r.ticker, r.doneChan

	r.recording.Store(true)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ticker.C:
				if err := r.flush(); err != nil {
					recLog.Errorf("Error writing to WAV file: %v", err)
				}
			case <-doneChan:
				return
			}
		}
	}()

	recLog.Infof("Recording to %s (%d Hz, %d-bit, %d channels)", filename, r.sampleRate, r.bitDepth, r.channels)
	return nil
}

// Stop drains what is queued, finalizes the WAV header and closes the
// file. It is safe to call when not recording.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ticker == nil {
		return nil
	}

	r.recording.Store(false)
	close(r.doneChan)
	r.ticker.Stop()
	r.ticker = nil
	r.wg.Wait()

	var errs []error
	if err := r.flush(); err != nil {
		errs = append(errs, err)
	}
	if r.wavEncoder != nil {
		if err := r.wavEncoder.Close(); err != nil {
			errs = append(errs, err)
		}
		r.wavEncoder = nil
	}
	if r.outputFile != nil {
		if err := r.outputFile.Close(); err != nil {
			errs = append(errs, err)
		}
		r.outputFile = nil
	}

	if lost := r.ring.Overruns(); lost > 0 {
		recLog.Warnf("%d samples were dropped because the writer fell behind", lost)
	}
	recLog.Infof("Stopped after %d frames", r.written.Load())
	return errors.Join(errs...)
}

// flush moves everything queued in the ring into the encoder. Only whole
// frames are written; the ring hands out samples in frame order because
// the producer always pushes whole frames.
func (r *Recorder) flush() error {
	full := float64(int64(1)<<(r.bitDepth-1) - 1)

	for {
		n := r.ring.Read(r.scratch[:len(r.scratch)-len(r.scratch)%r.channels])
		if n == 0 {
			return nil
		}
		frames := n / r.channels

		if r.maxFrames > 0 {
			room := r.maxFrames - int(r.written.Load())
			if room <= 0 {
				if !r.limitHit {
					recLog.Infof("Maximum duration reached, discarding further audio")
					r.limitHit = true
				}
				continue
			}
			frames = min(frames, room)
		}

		data := r.sampleBuf.Data[:frames*r.channels]
		for i := range data {
			s := r.scratch[i]
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			data[i] = int(float64(s) * full)
		}
		r.sampleBuf.Data = data
		err := r.wavEncoder.Write(r.sampleBuf)
		r.sampleBuf.Data = r.sampleBuf.Data[:cap(r.sampleBuf.Data)]
		if err != nil {
			return err
		}
		r.written.Add(int64(frames))
	}
}
