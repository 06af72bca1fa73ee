// SPDX-License-Identifier: MIT
package audio

// Downmix averages interleaved frames of in into one mono sample per frame
// and returns the filled prefix of dst. Trailing samples that do not form a
// whole frame are ignored, as are frames beyond len(dst).
func Downmix(dst, in []float32, channels int) []float32 {
	if channels <= 1 {
		n := copy(dst, in)
		return dst[:n]
	}

	frames := min(len(in)/channels, len(dst))
	scale := 1 / float32(channels)
	for f := range frames {
		frame := in[f*channels : (f+1)*channels]
		var sum float32
		for _, s := range frame {
			sum += s
		}
		dst[f] = sum * scale
	}
	return dst[:frames]
}
