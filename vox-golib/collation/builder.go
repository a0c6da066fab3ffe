package collation

import (
	"math"

	"github.com/voxlab/voxlab/vox-golib/corpus"
	"github.com/voxlab/voxlab/vox-golib/errors"
	"github.com/voxlab/voxlab/vox-golib/textproc"
)

// CodesLoader reads the per-frame codec matrix for a cut.
type CodesLoader func(corpus.Cut) ([][]int32, error)

// BatchBuilder collates cuts into training batches. It pairs a text
// processor with an audio loader and lays batches out according to the
// shared mode of the cuts it is given.
type BatchBuilder struct {
	cfg   Config
	proc  textproc.Processor
	audio corpus.AudioLoader
	codes CodesLoader
}

// NewBatchBuilder validates the config and returns a builder that reads
// target codes from each cut's manifest path.
func NewBatchBuilder(cfg Config, proc textproc.Processor, audio corpus.AudioLoader) (*BatchBuilder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if proc == nil {
		return nil, errors.New("text processor is required")
	}
	if audio == nil {
		return nil, errors.New("audio loader is required")
	}
	return &BatchBuilder{
		cfg:   cfg,
		proc:  proc,
		audio: audio,
		codes: corpus.LoadTargetCodes,
	}, nil
}

// WithCodesLoader overrides how target code matrices are read.
func (b *BatchBuilder) WithCodesLoader(load CodesLoader) *BatchBuilder {
	b.codes = load
	return b
}

// Build collates the cuts into one batch. The cuts are re-sorted by
// duration, so callers may pass them in any order, but they must all share
// one batch mode.
func (b *BatchBuilder) Build(cuts []corpus.Cut) (*Batch, error) {
	if len(cuts) == 0 {
		return nil, errors.New("empty batch")
	}
	mode, err := batchMode(cuts)
	if err != nil {
		return nil, err
	}
	if mode == Speech2Text && !b.cfg.LoadAnswerAudio {
		return nil, errors.New("s2t batches require loading answer audio")
	}
	if b.cfg.LoadAnswerAudio && mode == DirectSpeech2Speech {
		return nil, errors.New("direct s2s batches cannot load answer audio")
	}
	if b.cfg.LoadAnswerAudio && mode == AlignedSpeech2Speech {
		return nil, errors.New("aligned s2s batches cannot load answer audio")
	}

	sorted := append([]corpus.Cut(nil), cuts...)
	corpus.SortByDuration(sorted)
	cuts = sorted

	batch := &Batch{}
	var in modeInputs

	var instructions, targetTexts [][]int32
	for _, cut := range cuts {
		batch.SampleIDs = append(batch.SampleIDs, cut.ID)
		batch.Metadata = append(batch.Metadata, SampleMetadata{AudioFilepath: cut.ID + ".wav"})

		if len(cut.Supervisions) < 2 {
			return nil, errors.Errorf("cut %s needs user and agent supervisions", cut.ID)
		}
		if cut.Supervisions[0].Speaker != "user" {
			return nil, errors.Errorf("cut %s: first speaker must be user, got %q", cut.ID, cut.Supervisions[0].Speaker)
		}
		if cut.Supervisions[1].Speaker != "agent" {
			return nil, errors.Errorf("cut %s: second speaker must be agent, got %q", cut.ID, cut.Supervisions[1].Speaker)
		}

		instr, err := b.proc.Process(cut.Supervisions[0].Text, "", textproc.DefaultOptions())
		if err != nil {
			return nil, errors.Wrapf(err, "processing instruction for cut %s", cut.ID)
		}
		// drop the trailing eos so the instruction reads as a prefix
		ids := instr.InputIDs[:len(instr.InputIDs)-1]
		instructions = append(instructions, ids)
		in.instructionLengths = append(in.instructionLengths, len(ids))

		if mode == AlignedSpeech2Speech {
			timed, err := textproc.ExtractTimedTokens(b.proc, cut.Supervisions[1].Text)
			if err != nil {
				return nil, errors.Wrapf(err, "extracting timed tokens for cut %s", cut.ID)
			}
			targetTexts = append(targetTexts, timed.TokenIDs)
			in.targetTextLengths = append(in.targetTextLengths, len(timed.TokenIDs))
			in.wordLengths = append(in.wordLengths, timed.WordLengths)
			in.startTimes = append(in.startTimes, timed.StartTimes)
		} else {
			answer, err := b.proc.Process("", textproc.StripTimestamps(cut.Supervisions[1].Text), textproc.DefaultOptions())
			if err != nil {
				return nil, errors.Wrapf(err, "processing answer for cut %s", cut.ID)
			}
			ids := answer.AnswerIDs[:len(answer.AnswerIDs)-1]
			targetTexts = append(targetTexts, ids)
			in.targetTextLengths = append(in.targetTextLengths, len(ids))
		}
	}

	if err := b.loadAudio(cuts, batch); err != nil {
		return nil, err
	}
	if err := b.loadTargetCodec(cuts, batch, &in); err != nil {
		return nil, err
	}

	in.unpaddedTargetTexts = targetTexts
	batch.TargetTexts, in.targetTextLengths, in.targetTextsExpanded = b.textToCube(targetTexts, true, 0)
	batch.TargetTextsExpanded = in.targetTextsExpanded
	batch.Instructions, _, in.instructionsNoEOS = b.textToCube(instructions, false, b.cfg.TokensToGenerate)
	batch.InstructionLengths = in.instructionLengths
	batch.Contexts = in.instructionsNoEOS
	batch.ContextLengths = in.instructionLengths

	var a assembled
	switch mode {
	case Speech2Speech:
		a = b.assembleS2S(in)
	case AlignedSpeech2Speech:
		a = b.assembleAligned(in)
	case DirectSpeech2Speech:
		a = b.assembleDirect(in)
	case Speech2Text:
		a = b.assembleS2T(in)
	}
	b.finalize(a, batch)

	batch.TargetTextLengths = in.targetTextLengths
	if mode == AlignedSpeech2Speech {
		// the text rides inside the token cube at its aligned frames
		batch.TargetTextLengths = make([]int, len(cuts))
		for i := range batch.TargetTextLengths {
			batch.TargetTextLengths[i] = -1
		}
	}
	return batch, nil
}

// loadAudio loads and collates the source waveforms.
func (b *BatchBuilder) loadAudio(cuts []corpus.Cut, batch *Batch) error {
	audios := make([][]float32, len(cuts))
	lengths := make([]int, len(cuts))
	for i, cut := range cuts {
		samples, err := b.audio.LoadAudio(cut, b.cfg.SampleRate)
		if err != nil {
			return errors.Wrapf(err, "loading audio for cut %s", cut.ID)
		}
		audios[i] = samples
		lengths[i] = len(samples)
	}
	batch.AudioSignal = PadSamples(audios, maxInt(lengths), 0)
	batch.AudioSignalLength = lengths
	batch.AudioRatio = make([]float32, len(cuts))
	for i := range batch.AudioRatio {
		batch.AudioRatio[i] = 1.0
	}
	return nil
}

// loadTargetCodec builds the codec cube: either from precomputed codes,
// folding frames by the reduction factor, or as a placeholder cube sized
// from the answer waveforms when those are loaded instead.
func (b *BatchBuilder) loadTargetCodec(cuts []corpus.Cut, batch *Batch, in *modeInputs) error {
	reduction := b.cfg.DecoderReductionFactor
	codebooks := b.cfg.codebooks()
	in.featLengths = make([]int, len(cuts))

	if !b.cfg.LoadAnswerAudio {
		codes := make([][][]int32, len(cuts))
		for i, cut := range cuts {
			c, err := b.codes(cut)
			if err != nil {
				return errors.Wrapf(err, "loading target codes for cut %s", cut.ID)
			}
			if len(c) > 0 && len(c[0]) < codebooks {
				return errors.Errorf("cut %s: target codes have %d codebooks, need %d", cut.ID, len(c[0]), codebooks)
			}
			codes[i] = c
			in.featLengths[i] = len(c) / reduction
		}

		steps := maxInt(in.featLengths) + 1
		in.targetCodec = make([][][]int32, len(cuts))
		for i := range cuts {
			cube := b.newCube(steps)
			frames := in.featLengths[i]
			for t := 0; t < frames; t++ {
				cube[t][0] = b.proc.UnkID()
				for r := 0; r < reduction; r++ {
					for k := 0; k < codebooks; k++ {
						cube[t][1+r*codebooks+k] = codes[i][t*reduction+r][k]
					}
				}
			}
			cube[frames] = b.newCubeRow(b.proc.UnkID(), b.cfg.SpeechEosID)
			in.targetCodec[i] = cube
		}
		return nil
	}

	audios := make([][]float32, len(cuts))
	lengths := make([]int, len(cuts))
	for i, cut := range cuts {
		samples, err := b.audio.LoadAnswerAudio(cut, b.cfg.SampleRate)
		if err != nil {
			return errors.Wrapf(err, "loading answer audio for cut %s", cut.ID)
		}
		audios[i] = samples
		lengths[i] = len(samples)
		in.featLengths[i] = int(math.Ceil(float64(len(samples)) / b.cfg.CodecFrameSamples))
	}
	batch.AnswerAudio = PadSamples(audios, maxInt(lengths), 0)
	batch.AnswerAudioLengths = lengths

	// placeholder codes, filled in once the codec model runs over the answer
	// audio; kept distinct from pad so the loss mask counts them
	steps := maxInt(in.featLengths) + 1
	in.targetCodec = make([][][]int32, len(cuts))
	for i := range cuts {
		cube := b.newCube(steps)
		frames := in.featLengths[i]
		for t := 0; t < frames; t++ {
			cube[t] = b.newCubeRow(b.proc.UnkID(), b.cfg.SpeechPadID-1)
		}
		cube[frames] = b.newCubeRow(b.proc.UnkID(), b.cfg.SpeechEosID)
		in.targetCodec[i] = cube
	}
	return nil
}
