package collation

import (
	"github.com/voxlab/voxlab/vox-golib/corpus"
	"github.com/voxlab/voxlab/vox-golib/errors"
	"github.com/voxlab/voxlab/vox-golib/textproc"
)

// TextBatch is a text-only batch for question-answer style training, with
// the same next-token layout as the speech path but flat 2-D sequences.
type TextBatch struct {
	Tokens       [][]int32
	TokensLength []int
	Labels       [][]int32
	LossMask     [][]bool
	PositionIDs  [][]int32

	Contexts       [][]int32
	ContextLengths []int
	Answers        [][]int32
	MaxLength      int
}

// CollateText builds a text-only batch from the cuts' resolved contexts and
// first supervision texts. The loss mask covers answer positions only.
func (b *BatchBuilder) CollateText(cuts []corpus.Cut) (*TextBatch, error) {
	if len(cuts) == 0 {
		return nil, errors.New("empty batch")
	}

	inputs := make([]textproc.Processed, len(cuts))
	var longest int
	for i, cut := range cuts {
		context := corpus.ResolveContext(cut, b.cfg.DefaultContext, b.cfg.ContextKey, b.cfg.DefaultContextKey)
		var output string
		if len(cut.Supervisions) > 0 {
			output = cut.Supervisions[0].Text
		}
		p, err := b.proc.Process(context, output, textproc.DefaultOptions())
		if err != nil {
			return nil, errors.Wrapf(err, "processing text for cut %s", cut.ID)
		}
		inputs[i] = p
		for _, n := range []int{len(p.InputIDs), len(p.ContextIDs), len(p.AnswerIDs)} {
			if n > longest {
				longest = n
			}
		}
	}

	maxLength := b.cfg.MaxSeqLength
	if !b.cfg.PadToMaxLength {
		if rounded := ceilToNearest(longest+b.cfg.TokensToGenerate, 8); rounded < maxLength {
			maxLength = rounded
		}
	}

	batch := &TextBatch{MaxLength: maxLength}
	inputIDs := make([][]int32, len(inputs))
	contextIDs := make([][]int32, len(inputs))
	answerIDs := make([][]int32, len(inputs))
	masks := make([][]int32, len(inputs))
	for i, p := range inputs {
		inputIDs[i] = p.InputIDs
		contextIDs[i] = p.ContextIDs
		answerIDs[i] = p.AnswerIDs
		masks[i] = answerLossMask(p)
		batch.TokensLength = append(batch.TokensLength, len(p.InputIDs)-1)
		batch.ContextLengths = append(batch.ContextLengths, len(p.ContextIDs))
	}

	tokens := PadSequences(inputIDs, maxLength, b.proc.PadID())
	maskPadded := PadSequences(masks, maxLength, 0)
	batch.Tokens = make([][]int32, len(tokens))
	batch.Labels = make([][]int32, len(tokens))
	batch.LossMask = make([][]bool, len(tokens))
	batch.PositionIDs = make([][]int32, len(tokens))
	for i, row := range tokens {
		batch.Tokens[i] = row[:len(row)-1]
		batch.Labels[i] = row[1:]
		mask := make([]bool, len(row)-1)
		for j, v := range maskPadded[i][1:] {
			mask[j] = v != 0
		}
		batch.LossMask[i] = mask
		pos := make([]int32, maxLength)
		for j := range pos {
			pos[j] = int32(j)
		}
		batch.PositionIDs[i] = pos
	}
	batch.Contexts = PadSequences(contextIDs, maxLength, b.proc.PadID())
	batch.Answers = PadSequences(answerIDs, maxLength, b.proc.PadID())
	return batch, nil
}

// answerLossMask marks the answer positions of a processed example: zeros
// over the context prefix, ones over the rest.
func answerLossMask(p textproc.Processed) []int32 {
	mask := make([]int32, len(p.InputIDs))
	for i := len(p.ContextIDs); i < len(mask); i++ {
		mask[i] = 1
	}
	return mask
}
