package collation

import (
	"github.com/voxlab/voxlab/vox-golib/corpus"
	"github.com/voxlab/voxlab/vox-golib/errors"
)

// BatchMode selects how a batch's token cube is assembled.
type BatchMode int

const (
	// Speech2Speech interleaves target text and codec frames sequentially.
	Speech2Speech BatchMode = iota
	// AlignedSpeech2Speech writes target text into the codec rows at the
	// frames given by its timestamps.
	AlignedSpeech2Speech
	// DirectSpeech2Speech emits codec frames only, behind a bos row.
	DirectSpeech2Speech
	// Speech2Text emits target text only.
	Speech2Text
)

func (m BatchMode) String() string {
	switch m {
	case Speech2Speech:
		return "s2s"
	case AlignedSpeech2Speech:
		return "s2s_align"
	case DirectSpeech2Speech:
		return "direct_s2s"
	case Speech2Text:
		return "s2t"
	}
	return "unknown"
}

// ModeOf maps a cut's flags to its batch mode. Exactly one flag may be
// set; no flags means plain speech-to-speech.
func ModeOf(c corpus.Cut) (BatchMode, error) {
	var set int
	mode := Speech2Speech
	if c.S2S {
		set++
	}
	if c.S2SAlign {
		set++
		mode = AlignedSpeech2Speech
	}
	if c.DirectS2S {
		set++
		mode = DirectSpeech2Speech
	}
	if c.S2T {
		set++
		mode = Speech2Text
	}
	if set > 1 {
		return 0, errors.Errorf("cut %s sets more than one batch mode flag", c.ID)
	}
	return mode, nil
}

// batchMode derives the single mode shared by all cuts, rejecting mixed
// batches.
func batchMode(cuts []corpus.Cut) (BatchMode, error) {
	mode, err := ModeOf(cuts[0])
	if err != nil {
		return 0, err
	}
	for _, c := range cuts[1:] {
		m, err := ModeOf(c)
		if err != nil {
			return 0, err
		}
		if m != mode {
			return 0, errors.Errorf("mixed batch modes: cut %s is %s, cut %s is %s",
				cuts[0].ID, mode, c.ID, m)
		}
	}
	return mode, nil
}
