package collation

// frameSeconds is the duration of one codec frame.
func (b *BatchBuilder) frameSeconds() float64 {
	return b.cfg.CodecFrameSamples / float64(b.cfg.SampleRate)
}

// discretizeTime maps a timestamp token index to a decoder step: the token
// counts ticks of the timestamp resolution, which are converted to codec
// frames and folded by the reduction factor.
func (b *BatchBuilder) discretizeTime(startToken int32) int {
	frame := int(float64(startToken) * timestampResolution / b.frameSeconds())
	return frame / b.cfg.DecoderReductionFactor
}

// writeAlignedText fills the text column of a per-example codec cube with
// the answer tokens at the decoder steps their timestamps map to. Steps not
// covered by any word get the unk filler, and the tail beyond the example's
// own frames gets pad.
func (b *BatchBuilder) writeAlignedText(cube [][]int32, frames int, tokens []int32, wordLengths []int, startTimes []int32) {
	for t := range cube {
		cube[t][0] = b.proc.UnkID()
	}

	var off int
	for w, wl := range wordLengths {
		start := b.discretizeTime(startTimes[w])
		for j := 0; j < wl && start+j < len(cube); j++ {
			cube[start+j][0] = tokens[off+j]
		}
		off += wl
	}

	for t := frames; t < len(cube); t++ {
		cube[t][0] = b.proc.PadID()
	}
}
