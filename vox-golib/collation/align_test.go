package collation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlab/voxlab/vox-golib/corpus"
	"github.com/voxlab/voxlab/vox-golib/textproc"
)

// runeProcessor emits one token per rune so that multi-token words can be
// laid out against their timestamps.
type runeProcessor struct{}

func (runeProcessor) encode(text string) []int32 {
	var ids []int32
	for _, r := range text {
		if r != ' ' {
			ids = append(ids, int32(r))
		}
	}
	return ids
}

func (p runeProcessor) Process(context, output string, opts textproc.Options) (textproc.Processed, error) {
	contextIDs := p.encode(context)
	answerIDs := p.encode(output)
	if opts.AddBOS {
		contextIDs = append([]int32{p.BosID()}, contextIDs...)
	}
	if opts.AddEOS {
		answerIDs = append(answerIDs, p.EosID())
	}
	input := append(append([]int32{}, contextIDs...), answerIDs...)
	return textproc.Processed{InputIDs: input, ContextIDs: contextIDs, AnswerIDs: answerIDs}, nil
}

func (runeProcessor) PadID() int32   { return 0 }
func (runeProcessor) UnkID() int32   { return 1 }
func (runeProcessor) BosID() int32   { return 2 }
func (runeProcessor) EosID() int32   { return 3 }
func (runeProcessor) VocabSize() int { return 128 }

func TestBuild_S2SAlign(t *testing.T) {
	// CodecFrameSamples 1280 at 16 kHz puts one codec frame per 0.08 s
	// timestamp tick, so marker N lands on frame N exactly.
	proc := runeProcessor{}
	audio := stubAudio{samples: map[string][]float32{"a": make([]float32, 1600)}}
	builder, err := NewBatchBuilder(testConfig(), proc, audio)
	require.NoError(t, err)
	builder.WithCodesLoader(stubCodes(map[string][][]int32{
		"a": {{21}, {22}, {23}, {24}, {25}, {26}},
	}))

	cut := testCut("a", 0.48, "hi", "<|0|>a<|1|> <|2|>bbb<|4|>")
	cut.S2SAlign = true
	batch, err := builder.Build([]corpus.Cut{cut})
	require.NoError(t, err)

	// instruction "hi" is bos + 2 runes; the cube is bos row + 6 codec
	// frames + end marker
	require.Equal(t, []int{10}, batch.TokensLength)
	require.Len(t, batch.Tokens[0], 10)

	unk, pad := proc.UnkID(), proc.PadID()
	rows := batch.Tokens[0]
	assert.Equal(t, []int32{proc.BosID(), 1002}, rows[0])
	assert.Equal(t, []int32{int32('h'), 1002}, rows[1])
	assert.Equal(t, []int32{int32('i'), 1002}, rows[2])
	assert.Equal(t, []int32{proc.BosID(), 1003}, rows[3])

	// word "a" at frame 0; "bbb" loses its leading boundary token and
	// spans frames 2-3; uncovered frames read unk
	assert.Equal(t, []int32{int32('a'), 21}, rows[4])
	assert.Equal(t, []int32{unk, 22}, rows[5])
	assert.Equal(t, []int32{int32('b'), 23}, rows[6])
	assert.Equal(t, []int32{int32('b'), 24}, rows[7])
	assert.Equal(t, []int32{unk, 25}, rows[8])
	assert.Equal(t, []int32{unk, 26}, rows[9])

	// the end marker pairs text pad with speech eos
	assert.Equal(t, []int32{pad, 1004}, batch.Labels[0][9])

	// text loss follows the speech mask since the streams are aligned
	mask := batch.LossMask[0]
	assert.Equal(t, []bool{false, false}, mask[0]) // instruction
	assert.Equal(t, []bool{false, false}, mask[1])
	assert.Equal(t, []bool{true, true}, mask[2]) // bos row
	assert.Equal(t, []bool{true, true}, mask[3]) // frame 0
	assert.Equal(t, []bool{true, true}, mask[9]) // end marker

	// aligned text rides inside the cube, not alongside it
	assert.Equal(t, []int{-1}, batch.TargetTextLengths)
}
