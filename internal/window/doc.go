// SPDX-License-Identifier: MIT

// Package window precomputes the multiplicative envelope applied to every
// captured frame before it is transformed.
//
// Cutting a continuous signal into a finite frame is an implicit
// rectangular window, and its sidelobes smear a pure tone across the whole
// spectrum. Tapering the frame with a Hann window keeps the energy of a tone
// in the few bins around its frequency so the bars stay stable.
//
// A Table is computed once per frame size and reused for every cycle:
//
//	tbl, _ := window.NewHann(1024)
//	_ = tbl.ApplyInPlace(frame)
package window
