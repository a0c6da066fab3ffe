package collation

import (
	"github.com/voxlab/voxlab/vox-golib/errors"
)

const (
	// timestampResolution is the stride of the <|N|> timestamp tokens emitted
	// by the aligner, in seconds.
	timestampResolution = 0.08
)

// Config controls how a BatchBuilder lays out its batches.
type Config struct {
	// MaxSeqLength caps the token dimension of every collated sequence.
	MaxSeqLength int
	// PadToMaxLength pads every 1-D sequence all the way to MaxSeqLength
	// instead of the batch maximum rounded up to a multiple of 8.
	PadToMaxLength bool
	// TokensToGenerate extends the instruction cube with headroom for
	// autoregressive decoding.
	TokensToGenerate int

	// VocabSizes holds the text vocabulary size followed by one entry per
	// speech codebook. A single entry that is not positive means the text
	// vocabulary is taken from the text processor and there is one codebook.
	VocabSizes []int
	// DecoderReductionFactor is the number of codec frames folded into one
	// decoder step. Must be 1 when LoadAnswerAudio is set.
	DecoderReductionFactor int

	SpeechPadID int32
	SpeechUnkID int32
	SpeechBosID int32
	SpeechEosID int32

	// SampleRate is the rate source and answer audio is resampled to.
	SampleRate int
	// CodecFrameSamples is the number of audio samples per codec frame, used
	// to derive frame counts when codes are not precomputed.
	CodecFrameSamples float64

	// T5Style drops the instruction prefix from the decoder input, assuming
	// an encoder-decoder model that consumes it separately.
	T5Style bool
	// LoadAnswerAudio ships raw answer waveforms instead of codec frames and
	// fills the codec slots with placeholders.
	LoadAnswerAudio bool

	// DefaultContext is used when a cut carries no context of its own.
	DefaultContext string
	// ContextKey and DefaultContextKey name the custom fields consulted
	// before falling back to DefaultContext.
	ContextKey        string
	DefaultContextKey string
}

func (c Config) validate() error {
	if c.MaxSeqLength <= 0 {
		return errors.Errorf("max sequence length must be positive, got %d", c.MaxSeqLength)
	}
	if c.DecoderReductionFactor < 1 {
		return errors.Errorf("decoder reduction factor must be at least 1, got %d", c.DecoderReductionFactor)
	}
	if c.LoadAnswerAudio && c.DecoderReductionFactor != 1 {
		return errors.Errorf("decoder reduction factor must be 1 when loading answer audio, got %d", c.DecoderReductionFactor)
	}
	if c.SampleRate <= 0 {
		return errors.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.LoadAnswerAudio && c.CodecFrameSamples <= 0 {
		return errors.Errorf("codec frame samples must be positive when loading answer audio")
	}
	return nil
}

// codebooks returns the number of speech codebooks implied by VocabSizes.
func (c Config) codebooks() int {
	if len(c.VocabSizes) <= 1 {
		return 1
	}
	return len(c.VocabSizes) - 1
}

// cubeWidth is the width of one token-cube row: the text column plus one
// column per codebook per reduction step.
func (c Config) cubeWidth() int {
	return 1 + c.codebooks()*c.DecoderReductionFactor
}
