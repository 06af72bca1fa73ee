/*
Package bitint provides the bit manipulation helpers the spectrum pipeline
needs for its power-of-two sizes: frame validation, ring capacity rounding
and the index permutation of the radix-2 FFT.

Design Principles:
- Zero Allocations: All operations use stack memory only
- Predictable Performance: O(1) constant time operations
- Real-Time Safe: No locks, syscalls, or blocking operations

Usage:

	// Round a ring buffer capacity up so wrapping is a mask
	capacity := bitint.NextPowerOfTwo(3000) // Returns 4096

	// Verify an FFT frame size is valid
	isValid := bitint.IsPowerOfTwo(frameSize)

	// Number of butterfly stages for a 1024 point transform
	stages := bitint.Log2(1024) // Returns 10

----------------------------------------------------------------------

What NextPowerOfTwo does:

	The subtraction (size-1) is critical, without the subtraction,
	powers of 2 would be incorrectly doubled.

	WITH subtraction (correct):
	- For input 8 (already a power of 2):
	  size-1 = 7 (binary 0111)
	  bits.Len64(7) = 3
	  1 << 3 = 8

	WITHOUT subtraction (incorrect):
	- For input 8:
	  bits.Len64(8) = 4 (binary 1000)
	  1 << 4 = 16
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
//
// Examples:
//
//	Input  Output  Explanation
//	4      4      Already power of 2 (preserved)
//	5      8      Next power after 5
//	0      1      Handle zero case
//	-1     1      Handle negative case
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(size-1))
}

// IsPowerOfTwo checks if n is a power of 2 using bit manipulation.
// The expression (n & (n-1)) == 0 works because:
//   - Powers of 2 have exactly one bit set
//   - Subtracting 1 from a power of 2 sets all lower bits
//   - AND operation will be 0 only for powers of 2
//
// Examples:
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
//	-8     false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns the base 2 logarithm of a power of two. For any other
// positive n it returns floor(log2(n)); for n <= 0 it returns -1.
func Log2(n int) int {
	if n <= 0 {
		return -1
	}
	return bits.Len64(uint64(n)) - 1
}

// ReverseBits reverses the lowest width bits of i. It is the index
// mapping of the bit-reversal permutation used by iterative radix-2 FFTs.
//
//	ReverseBits(1, 3) = 4   (001 -> 100)
//	ReverseBits(6, 3) = 3   (110 -> 011)
func ReverseBits(i, width int) int {
	if width <= 0 {
		return 0
	}
	return int(bits.Reverse64(uint64(i)) >> (64 - width))
}
