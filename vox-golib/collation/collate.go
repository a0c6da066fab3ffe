package collation

// PadSequences concatenates variable-length id sequences into one
// rectangular [N][L] matrix, right-padding each row with padValue. L is
// maxLength, or the longest input if that is longer. Inputs of length zero
// are legal; an all-empty batch still produces [N][maxLength] rows of pad.
func PadSequences(items [][]int32, maxLength int, padValue int32) [][]int32 {
	width := maxLength
	for _, item := range items {
		if len(item) > width {
			width = len(item)
		}
	}

	out := make([][]int32, len(items))
	for i, item := range items {
		row := make([]int32, width)
		copy(row, item)
		for j := len(item); j < width; j++ {
			row[j] = padValue
		}
		out[i] = row
	}
	return out
}

// PadSamples is PadSequences for waveform samples.
func PadSamples(items [][]float32, maxLength int, padValue float32) [][]float32 {
	width := maxLength
	for _, item := range items {
		if len(item) > width {
			width = len(item)
		}
	}

	out := make([][]float32, len(items))
	for i, item := range items {
		row := make([]float32, width)
		copy(row, item)
		for j := len(item); j < width; j++ {
			row[j] = padValue
		}
		out[i] = row
	}
	return out
}

// ceilToNearest rounds n up to the nearest multiple of m.
func ceilToNearest(n, m int) int {
	if m <= 1 {
		return n
	}
	return (n + m - 1) / m * m
}

func maxInt(vals []int) int {
	var m int
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}
