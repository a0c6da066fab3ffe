package collation

// SampleMetadata carries per-example bookkeeping that rides along with a
// batch but is not consumed by the model.
type SampleMetadata struct {
	AudioFilepath string
}

// Batch is one collated training batch. Token cubes are indexed
// [example][step][column] where column 0 holds text ids and the remaining
// columns hold speech codec ids, one per codebook per reduction step.
type Batch struct {
	SampleIDs []string
	Metadata  []SampleMetadata

	// AudioSignal holds the padded source waveforms, one row per example,
	// with AudioSignalLength giving the unpadded sample counts.
	AudioSignal       [][]float32
	AudioSignalLength []int
	AudioRatio        []float32

	// Instructions holds the padded instruction token ids and Contexts their
	// cube form without the end marker, extended by TokensToGenerate.
	Instructions       [][]int32
	InstructionLengths []int
	Contexts           [][][]int32
	ContextLengths     []int

	// Tokens is the decoder input cube, Labels the same cube shifted left by
	// one step, and LossMask flags the label positions that contribute to the
	// loss. TokensLength counts the meaningful steps per example.
	Tokens       [][][]int32
	Labels       [][][]int32
	LossMask     [][][]bool
	TokensLength []int
	// Answers aliases Labels; downstream evaluation reads it under this name.
	Answers [][][]int32

	// TargetTextsExpanded is the answer text in cube form, end marker
	// included.
	TargetTextsExpanded [][][]int32

	// TargetTexts holds the padded answer token ids. TargetTextLengths is -1
	// per example in timestamp-aligned batches, where the text rides inside
	// the token cube instead.
	TargetTexts       [][]int32
	TargetTextLengths []int

	// AnswerAudio holds padded answer waveforms when the builder is
	// configured to load them.
	AnswerAudio        [][]float32
	AnswerAudioLengths []int
}
