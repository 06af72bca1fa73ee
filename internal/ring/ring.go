// SPDX-License-Identifier: MIT
/*
Package ring implements the single-producer/single-consumer sample ring that
hands audio from the capture callback to the processing stage.

Thread Safety:
- Exactly one goroutine may call Push (the capture side)
- Exactly one goroutine may call DrainLatest or Read (the processing side)
- No mutex: slots and positions are atomics, so neither side can be held up
  by the other and the race detector sees every access as synchronized

Overflow never blocks and never grows the buffer. The producer overwrites
the oldest unread samples and the loss is counted in Overruns.
*/
package ring

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"spectra/pkg/bitint"
)

// maxDrainAttempts bounds how often a consumer copy is retried when the
// producer lapped it mid-copy.
const maxDrainAttempts = 4

// ErrInvalidCapacity is returned by New for a non-positive capacity.
var ErrInvalidCapacity = errors.New("ring capacity must be positive")

// Buffer is a fixed-capacity circular buffer of float32 samples.
type Buffer struct {
	slots []atomic.Uint32 // math.Float32bits of each sample
	mask  uint64          // capacity-1, capacity is a power of two

	written  atomic.Uint64 // total samples ever pushed (producer-owned)
	claimed  atomic.Uint64 // written plus the push in progress (producer-owned)
	read     atomic.Uint64 // consumer position (consumer-owned)
	overruns atomic.Uint64 // samples overwritten before the consumer saw them

	copied func(attempt int) // runs after each consumer copy, nil outside tests
}

// New creates a Buffer holding at least capacity samples. The capacity is
// rounded up to the next power of two.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidCapacity, capacity)
	}
	size := bitint.NextPowerOfTwo(capacity)
	return &Buffer{
		slots: make([]atomic.Uint32, size),
		mask:  uint64(size - 1),
	}, nil
}

// Capacity returns the number of samples the buffer retains.
func (b *Buffer) Capacity() int {
	return len(b.slots)
}

// Push appends samples, overwriting the oldest unread samples when the
// buffer is full. It never blocks and never allocates.
func (b *Buffer) Push(samples []float32) {
	n := uint64(len(samples))
	if n == 0 {
		return
	}
	size := uint64(len(b.slots))
	w := b.written.Load()

	unread := w - b.read.Load()
	if unread > size {
		unread = size // already counted by an earlier push
	}
	if lost := unread + n; lost > size {
		b.overruns.Add(lost - size)
	}

	// Announce the slots about to change before touching any of them.
	b.claimed.Store(w + n)

	// Only the last size samples of an oversized block can survive.
	start := w
	if n > size {
		skip := n - size
		samples = samples[skip:]
		start += skip
	}
	for i, s := range samples {
		b.slots[(start+uint64(i))&b.mask].Store(math.Float32bits(s))
	}

	b.written.Store(w + n)
}

// DrainLatest fills dst with the len(dst) most recent samples, oldest first.
// When fewer samples have ever been written the start of dst is zero padded.
// It returns the number of real samples copied and marks everything written
// so far as read. Calling it again without an intervening Push yields the
// same contents.
func (b *Buffer) DrainLatest(dst []float64) int {
	size := uint64(len(b.slots))
	var w, take uint64
	for attempt := 0; attempt < maxDrainAttempts; attempt++ {
		w = b.written.Load()
		take = min(uint64(len(dst)), w, size)
		pad := uint64(len(dst)) - take

		for i := range pad {
			dst[i] = 0
		}
		from := w - take
		for i := range take {
			dst[pad+i] = float64(math.Float32frombits(b.slots[(from+i)&b.mask].Load()))
		}

		if b.copied != nil {
			b.copied(attempt)
		}
		// The copy is consistent unless a finished or in-progress push
		// reached its oldest slot.
		if b.claimed.Load()-from <= size {
			break
		}
	}

	b.read.Store(w)
	return int(take)
}

// Read copies unread samples into dst in arrival order and returns how many
// were copied. Samples overwritten before they could be read are skipped.
// Read and DrainLatest must not be mixed on one Buffer.
func (b *Buffer) Read(dst []float32) int {
	size := uint64(len(b.slots))
	r := b.read.Load()
	for attempt := 0; attempt < maxDrainAttempts; attempt++ {
		w := b.written.Load()
		if w-r > size {
			r = w - size
		}
		n := min(uint64(len(dst)), w-r)
		for i := range n {
			dst[i] = math.Float32frombits(b.slots[(r+i)&b.mask].Load())
		}
		if b.copied != nil {
			b.copied(attempt)
		}
		if b.claimed.Load()-r <= size {
			b.read.Store(r + n)
			return int(n)
		}
		// Lapped while copying, jump past the clobbered region and retry.
		// Nothing beyond w is readable yet.
		r = min(b.claimed.Load()-size, w)
	}
	b.read.Store(r)
	return 0
}

// Pending returns the number of samples written since the consumer last
// drained or read.
func (b *Buffer) Pending() uint64 {
	return b.written.Load() - b.read.Load()
}

// Written returns the total number of samples ever pushed.
func (b *Buffer) Written() uint64 {
	return b.written.Load()
}

// Overruns returns the total number of samples dropped because the
// producer overwrote them before they were consumed.
func (b *Buffer) Overruns() uint64 {
	return b.overruns.Load()
}
