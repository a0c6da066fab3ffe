package collation

// modeInputs gathers the per-example pieces the mode assemblers combine.
// All cubes are padded to their own batch maxima; the assemblers trim per
// example before concatenating.
type modeInputs struct {
	targetTextsExpanded [][][]int32
	targetTextLengths   []int

	targetCodec [][][]int32
	featLengths []int

	instructionsNoEOS  [][][]int32
	instructionLengths []int

	// align-mode only
	unpaddedTargetTexts [][]int32
	wordLengths         [][]int
	startTimes          [][]int32
}

// assembled is the output of a mode assembler before the label shift.
type assembled struct {
	tokens      [][][]int32
	lossMask    [][][]bool
	fullLengths []int
}

// prependInstructions trims each instruction cube to its true length and
// concatenates it in front of the example's token rows. No-op under
// T5-style batching, where the instruction goes to the encoder instead.
func (b *BatchBuilder) prependInstructions(tokenList [][][]int32, in modeInputs) [][][]int32 {
	if b.cfg.T5Style {
		return tokenList
	}
	out := make([][][]int32, len(tokenList))
	for i, rows := range tokenList {
		instr := in.instructionsNoEOS[i][:in.instructionLengths[i]]
		merged := make([][]int32, 0, len(instr)+len(rows))
		merged = append(merged, instr...)
		merged = append(merged, rows...)
		out[i] = merged
	}
	return out
}

// padMask flags every cube position holding a real token: text positions
// that are not text pad and speech positions that are not speech pad. The
// instruction prefix is zeroed per example since it is input, not target.
func (b *BatchBuilder) padMask(tokens [][][]int32, in modeInputs) [][][]bool {
	mask := make([][][]bool, len(tokens))
	for i, cube := range tokens {
		m := make([][]bool, len(cube))
		for t, row := range cube {
			mr := make([]bool, len(row))
			mr[0] = row[0] != b.proc.PadID()
			for k := 1; k < len(row); k++ {
				mr[k] = row[k] != b.cfg.SpeechPadID
			}
			m[t] = mr
		}
		if !b.cfg.T5Style {
			for t := 0; t < in.instructionLengths[i] && t < len(m); t++ {
				for k := range m[t] {
					m[t][k] = false
				}
			}
		}
		mask[i] = m
	}
	return mask
}

// assembleS2S lays out each example as target text, its end marker, the
// codec frames, and their end marker, behind the instruction prefix.
func (b *BatchBuilder) assembleS2S(in modeInputs) assembled {
	tokenList := make([][][]int32, len(in.targetTextsExpanded))
	full := make([]int, len(tokenList))
	for i := range tokenList {
		ttl, fl := in.targetTextLengths[i], in.featLengths[i]
		rows := make([][]int32, 0, ttl+1+fl+1)
		rows = append(rows, in.targetTextsExpanded[i][:ttl+1]...)
		rows = append(rows, in.targetCodec[i][:fl+1]...)
		tokenList[i] = rows
		full[i] = ttl + 1 + fl + 1
		if !b.cfg.T5Style {
			full[i] += in.instructionLengths[i]
		}
	}
	tokenList = b.prependInstructions(tokenList, in)
	tokens, _ := b.collateCubes(tokenList)
	return assembled{tokens: tokens, lossMask: b.padMask(tokens, in), fullLengths: full}
}

// assembleAligned writes the answer tokens into the codec rows at their
// timestamped steps and leads with a bos row. The text column's mask copies
// the speech mask since the two streams are frame-aligned.
func (b *BatchBuilder) assembleAligned(in modeInputs) assembled {
	tokenList := make([][][]int32, len(in.targetCodec))
	full := make([]int, len(tokenList))
	for i, codec := range in.targetCodec {
		b.writeAlignedText(codec, in.featLengths[i],
			in.unpaddedTargetTexts[i], in.wordLengths[i], in.startTimes[i])

		rows := make([][]int32, 0, 1+len(codec))
		rows = append(rows, b.newCubeRow(b.proc.BosID(), b.cfg.SpeechBosID))
		rows = append(rows, codec...)
		tokenList[i] = rows
		full[i] = in.featLengths[i] + 2
		if !b.cfg.T5Style {
			full[i] += in.instructionLengths[i]
		}
	}
	tokenList = b.prependInstructions(tokenList, in)
	tokens, _ := b.collateCubes(tokenList)

	mask := make([][][]bool, len(tokens))
	for i, cube := range tokens {
		m := make([][]bool, len(cube))
		for t, row := range cube {
			mr := make([]bool, len(row))
			for k := 1; k < len(row); k++ {
				mr[k] = row[k] != b.cfg.SpeechPadID
			}
			mr[0] = mr[1]
			m[t] = mr
		}
		if !b.cfg.T5Style {
			for t := 0; t < in.instructionLengths[i] && t < len(m); t++ {
				for k := range m[t] {
					m[t][k] = false
				}
			}
		}
		mask[i] = m
	}
	return assembled{tokens: tokens, lossMask: mask, fullLengths: full}
}

// assembleDirect emits a bos row followed by the codec frames and their end
// marker, with no interleaved target text.
func (b *BatchBuilder) assembleDirect(in modeInputs) assembled {
	tokenList := make([][][]int32, len(in.targetCodec))
	full := make([]int, len(tokenList))
	for i := range tokenList {
		fl := in.featLengths[i]
		rows := make([][]int32, 0, 1+fl+1)
		rows = append(rows, b.newCubeRow(b.proc.BosID(), b.cfg.SpeechBosID))
		rows = append(rows, in.targetCodec[i][:fl+1]...)
		tokenList[i] = rows
		full[i] = 1 + fl + 1
		if !b.cfg.T5Style {
			full[i] += in.instructionLengths[i]
		}
	}
	tokenList = b.prependInstructions(tokenList, in)
	tokens, _ := b.collateCubes(tokenList)
	return assembled{tokens: tokens, lossMask: b.padMask(tokens, in), fullLengths: full}
}

// assembleS2T emits the target text and its end marker only. Speech columns
// carry no loss.
func (b *BatchBuilder) assembleS2T(in modeInputs) assembled {
	tokenList := make([][][]int32, len(in.targetTextsExpanded))
	full := make([]int, len(tokenList))
	for i := range tokenList {
		ttl := in.targetTextLengths[i]
		tokenList[i] = in.targetTextsExpanded[i][:ttl+1]
		full[i] = ttl + 1
		if !b.cfg.T5Style {
			full[i] += in.instructionLengths[i]
		}
	}
	tokenList = b.prependInstructions(tokenList, in)
	tokens, _ := b.collateCubes(tokenList)

	mask := make([][][]bool, len(tokens))
	for i, cube := range tokens {
		m := make([][]bool, len(cube))
		for t, row := range cube {
			mr := make([]bool, len(row))
			mr[0] = row[0] != b.proc.PadID()
			m[t] = mr
		}
		if !b.cfg.T5Style {
			for t := 0; t < in.instructionLengths[i] && t < len(m); t++ {
				m[t][0] = false
			}
		}
		mask[i] = m
	}
	return assembled{tokens: tokens, lossMask: mask, fullLengths: full}
}

// finalize applies the next-token shift: tokens lose their last step, labels
// and the loss mask lose their first, and lengths are clamped to the step
// count before losing the shifted position.
func (b *BatchBuilder) finalize(a assembled, batch *Batch) {
	steps := 0
	if len(a.tokens) > 0 {
		steps = len(a.tokens[0])
	}

	batch.Tokens = make([][][]int32, len(a.tokens))
	batch.Labels = make([][][]int32, len(a.tokens))
	batch.LossMask = make([][][]bool, len(a.tokens))
	batch.TokensLength = make([]int, len(a.tokens))
	for i, cube := range a.tokens {
		batch.Tokens[i] = cube[:len(cube)-1]
		batch.Labels[i] = cube[1:]
		batch.LossMask[i] = a.lossMask[i][1:]
		full := a.fullLengths[i]
		if full > steps {
			full = steps
		}
		batch.TokensLength[i] = full - 1
	}
	batch.Answers = batch.Labels
}
