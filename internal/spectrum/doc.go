// SPDX-License-Identifier: MIT

// Package spectrum converts transform output into displayable magnitudes.
//
// A Mapper keeps the first N/2 complex outputs of an N-point transform and
// scales their modulus by 1/N, so a bin-centred sinusoid of amplitude A reads
// A/2 (A/4 behind a Hann window). Bin i is centred on i*sampleRate/N Hz.
//
// A Layout then groups bins into display columns and applies the optional
// Compression. Both run on the rendering side and never touch published data.
package spectrum
