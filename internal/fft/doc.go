// SPDX-License-Identifier: MIT

/*
Package fft implements the forward transform of the spectrum pipeline.

The transform is the iterative form of radix-2 Cooley-Tukey:

 1. Reorder the N inputs by bit-reversing their indices. Reading the inputs
    in this order is what the recursive even/odd split would do.
 2. Run log2(N) butterfly stages. At span m = 2^s each pair (a, b) that is
    m/2 apart becomes (a + zb, a - zb) with z = e^{-2*pi*i*k/m}.

Only power-of-two sizes are supported. The size is checked once by
NewEngine, so a running pipeline cannot hit a size failure mid-stream.

Usage:

	engine, err := fft.NewEngine(1024)
	if err != nil {
		return err
	}
	_ = fft.Lift(values, frame)
	_ = engine.Transform(values)
*/
package fft
