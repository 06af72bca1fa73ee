// SPDX-License-Identifier: MIT
/*
Package pipeline connects audio capture to spectrum rendering.

	capture callback --Push--> ring --DrainLatest--> window --> fft --> mapper
	                                                                      |
	renderer <--------------- Snapshot() <--------- atomic.Pointer <------+

Three activities share a Coordinator:
- the capture callback, which only calls Push
- the processing goroutine, which runs Run (or Step in tests)
- the renderer, which reads Snapshot at its own frame rate

Each resource has a single writer. The ring is written by capture and read
by processing; the snapshot pointer is written by processing and read by the
renderer. No lock is taken on any path, so a slow renderer or a long
transform can never hold up the audio thread. When processing falls behind,
the oldest samples are overwritten and counted in Stats.Overruns.
*/
package pipeline
