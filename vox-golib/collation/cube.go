package collation

// newCubeRow allocates one cube row with the text column and speech columns
// set to the given fill values.
func (b *BatchBuilder) newCubeRow(textFill, speechFill int32) []int32 {
	row := make([]int32, b.cfg.cubeWidth())
	row[0] = textFill
	for k := 1; k < len(row); k++ {
		row[k] = speechFill
	}
	return row
}

// newCube allocates a [steps][width] cube filled with pad ids.
func (b *BatchBuilder) newCube(steps int) [][]int32 {
	cube := make([][]int32, steps)
	for t := range cube {
		cube[t] = b.newCubeRow(b.proc.PadID(), b.cfg.SpeechPadID)
	}
	return cube
}

// collateAndPad pads id sequences to a common length: MaxSeqLength when
// PadToMaxLength is set, otherwise the batch maximum rounded up to a
// multiple of 8 and capped at MaxSeqLength.
func (b *BatchBuilder) collateAndPad(inputs [][]int32) ([][]int32, []int) {
	lengths := make([]int, len(inputs))
	var batchMax int
	for i, in := range inputs {
		lengths[i] = len(in)
		if len(in) > batchMax {
			batchMax = len(in)
		}
	}

	maxLength := b.cfg.MaxSeqLength
	if !b.cfg.PadToMaxLength {
		if rounded := ceilToNearest(batchMax, 8); rounded < maxLength {
			maxLength = rounded
		}
	}
	return PadSequences(inputs, maxLength, b.proc.PadID()), lengths
}

// collateCubes stacks per-example cubes to the batch-maximum step count,
// padding the tail rows with pad ids. Unlike the 1-D case the step count is
// not rounded.
func (b *BatchBuilder) collateCubes(inputs [][][]int32) ([][][]int32, []int) {
	lengths := make([]int, len(inputs))
	var maxSteps int
	for i, in := range inputs {
		lengths[i] = len(in)
		if len(in) > maxSteps {
			maxSteps = len(in)
		}
	}

	out := make([][][]int32, len(inputs))
	for i, in := range inputs {
		cube := b.newCube(maxSteps)
		for t, row := range in {
			copy(cube[t], row)
		}
		out[i] = cube
	}
	return out, lengths
}

// textToCube lifts 1-D text sequences into token cubes: the text ids occupy
// column 0 with speech columns set to unk, followed by an end-marker row of
// text eos over speech bos. When includeEOS is false the cube's last step is
// sliced off; examples shorter than the padded length keep their marker row
// at index lengths[i]. extraSteps adds pad rows beyond the marker.
func (b *BatchBuilder) textToCube(texts [][]int32, includeEOS bool, extraSteps int) ([][]int32, []int, [][][]int32) {
	padded, lengths := b.collateAndPad(texts)

	steps := 0
	if len(padded) > 0 {
		steps = len(padded[0]) + 1 + extraSteps
	}
	cubes := make([][][]int32, len(padded))
	for i, row := range padded {
		cube := b.newCube(steps)
		for t := 0; t < lengths[i]; t++ {
			cube[t] = b.newCubeRow(row[t], b.cfg.SpeechUnkID)
		}
		cube[lengths[i]] = b.newCubeRow(b.proc.EosID(), b.cfg.SpeechBosID)
		if !includeEOS {
			cube = cube[:len(cube)-1]
		}
		cubes[i] = cube
	}
	return padded, lengths, cubes
}
