package collation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlab/voxlab/vox-golib/corpus"
	"github.com/voxlab/voxlab/vox-golib/textproc"
)

func testConfig() Config {
	return Config{
		MaxSeqLength:           64,
		VocabSizes:             []int{32, 1024},
		DecoderReductionFactor: 1,
		SpeechPadID:            1001,
		SpeechUnkID:            1002,
		SpeechBosID:            1003,
		SpeechEosID:            1004,
		SampleRate:             16000,
		CodecFrameSamples:      1280,
	}
}

type stubAudio struct {
	samples map[string][]float32
	answers map[string][]float32
}

func (s stubAudio) LoadAudio(c corpus.Cut, sampleRate int) ([]float32, error) {
	return s.samples[c.ID], nil
}

func (s stubAudio) LoadAnswerAudio(c corpus.Cut, sampleRate int) ([]float32, error) {
	return s.answers[c.ID], nil
}

func stubCodes(codes map[string][][]int32) CodesLoader {
	return func(c corpus.Cut) ([][]int32, error) {
		return codes[c.ID], nil
	}
}

func testCut(id string, duration float64, instruction, answer string) corpus.Cut {
	return corpus.Cut{
		ID:       id,
		Duration: duration,
		Supervisions: []corpus.Supervision{
			{Speaker: "user", Text: instruction},
			{Speaker: "agent", Text: answer},
		},
	}
}

func constSamples(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestBuild_S2S(t *testing.T) {
	proc := textproc.NewWordProcessor([]string{"hi", "there", "ok", "go"})
	audio := stubAudio{samples: map[string][]float32{
		"a": constSamples(4000, 0.5),
		"b": constSamples(6000, 0.25),
	}}
	builder, err := NewBatchBuilder(testConfig(), proc, audio)
	require.NoError(t, err)
	builder.WithCodesLoader(stubCodes(map[string][][]int32{
		"a": {{11}, {12}, {13}},
		"b": {{21}, {22}, {23}, {24}, {25}},
	}))

	ca := testCut("a", 0.25, "hi", "ok")
	ca.S2S = true
	cb := testCut("b", 0.375, "hi there", "ok <|3|> go")
	cb.S2S = true

	// pass out of order: Build re-sorts ascending by duration
	batch, err := builder.Build([]corpus.Cut{cb, ca})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, batch.SampleIDs)

	// audio is padded to the longest waveform; the shorter example keeps its
	// samples as a prefix and reads zero beyond its own length
	require.Len(t, batch.AudioSignal, 2)
	require.Len(t, batch.AudioSignal[0], 6000)
	require.Len(t, batch.AudioSignal[1], 6000)
	assert.Equal(t, constSamples(4000, 0.5), batch.AudioSignal[0][:4000])
	assert.Equal(t, make([]float32, 2000), batch.AudioSignal[0][4000:])
	assert.Equal(t, constSamples(6000, 0.25), batch.AudioSignal[1])
	assert.Equal(t, []int{4000, 6000}, batch.AudioSignalLength)
	assert.Equal(t, []float32{1, 1}, batch.AudioRatio)

	// 1-D sequences pad to the batch max rounded up to a multiple of 8
	assert.Len(t, batch.TargetTexts[0], 8)
	assert.Len(t, batch.Instructions[0], 8)
	assert.Equal(t, []int{1, 2}, batch.TargetTextLengths)
	assert.Equal(t, []int{2, 3}, batch.InstructionLengths)

	// cut a: 2 instr + 1 text + marker + 3 codec + marker = 8 steps
	// cut b: 3 instr + 2 text + marker + 5 codec + marker = 12 steps
	assert.Equal(t, []int{7, 11}, batch.TokensLength)
	require.Len(t, batch.Tokens[0], 11)
	require.Len(t, batch.Labels[0], 11)

	bos, eos, unk, pad := proc.BosID(), proc.EosID(), proc.UnkID(), proc.PadID()
	rows := batch.Tokens[0]
	assert.Equal(t, []int32{bos, 1002}, rows[0])
	assert.Equal(t, []int32{proc.ID("hi"), 1002}, rows[1])
	assert.Equal(t, []int32{proc.ID("ok"), 1002}, rows[2])
	assert.Equal(t, []int32{eos, 1003}, rows[3])
	assert.Equal(t, []int32{unk, 11}, rows[4])
	assert.Equal(t, []int32{unk, 12}, rows[5])
	assert.Equal(t, []int32{unk, 13}, rows[6])
	assert.Equal(t, []int32{unk, 1004}, rows[7])
	assert.Equal(t, []int32{pad, 1001}, rows[8])

	// timestamps are stripped from non-aligned answers
	assert.Equal(t, []int32{proc.ID("ok"), proc.ID("go")}, batch.TargetTexts[1][:2])

	// labels are tokens shifted left by one step
	for i := range batch.Tokens {
		for s := 0; s+1 < len(batch.Tokens[i]); s++ {
			assert.Equal(t, batch.Tokens[i][s+1], batch.Labels[i][s])
		}
	}

	// the instruction prefix and padding carry no loss
	mask := batch.LossMask[0]
	assert.Equal(t, []bool{false, false}, mask[0])
	assert.Equal(t, []bool{true, true}, mask[2]) // eos marker row
	assert.Equal(t, []bool{true, true}, mask[3]) // codec frame
	assert.Equal(t, []bool{true, true}, mask[6]) // codec eos row
	for _, row := range mask[7:] {
		assert.Equal(t, []bool{false, false}, row)
	}
}

func TestBuild_EmptyAnswer(t *testing.T) {
	proc := textproc.NewWordProcessor([]string{"hi"})
	audio := stubAudio{samples: map[string][]float32{"a": make([]float32, 1600)}}
	builder, err := NewBatchBuilder(testConfig(), proc, audio)
	require.NoError(t, err)
	builder.WithCodesLoader(stubCodes(map[string][][]int32{"a": {{7}, {8}}}))

	cut := testCut("a", 0.1, "hi", "")
	cut.S2S = true
	batch, err := builder.Build([]corpus.Cut{cut})
	require.NoError(t, err)

	assert.Equal(t, []int{0}, batch.TargetTextLengths)
	// 2 instr + marker + 2 codec + marker, minus the label shift
	assert.Equal(t, []int{5}, batch.TokensLength)
	assert.Equal(t, []int32{proc.EosID(), 1003}, batch.Tokens[0][2])
}

func TestBuild_DirectS2S(t *testing.T) {
	proc := textproc.NewWordProcessor([]string{"hi", "ok"})
	audio := stubAudio{samples: map[string][]float32{"a": make([]float32, 1600)}}
	builder, err := NewBatchBuilder(testConfig(), proc, audio)
	require.NoError(t, err)
	builder.WithCodesLoader(stubCodes(map[string][][]int32{"a": {{31}, {32}}}))

	cut := testCut("a", 0.1, "hi", "ok")
	cut.DirectS2S = true
	batch, err := builder.Build([]corpus.Cut{cut})
	require.NoError(t, err)

	// 2 instr + bos + 2 codec + marker = 6 steps
	assert.Equal(t, []int{5}, batch.TokensLength)
	rows := batch.Tokens[0]
	assert.Equal(t, []int32{proc.BosID(), 1003}, rows[2])
	assert.Equal(t, []int32{proc.UnkID(), 31}, rows[3])
	assert.Equal(t, []int32{proc.UnkID(), 32}, rows[4])
	assert.Equal(t, []int32{proc.UnkID(), 1004}, batch.Labels[0][4])
}

func TestBuild_S2T(t *testing.T) {
	cfg := testConfig()
	cfg.LoadAnswerAudio = true
	proc := textproc.NewWordProcessor([]string{"hi", "ok", "go"})
	audio := stubAudio{
		samples: map[string][]float32{"a": make([]float32, 1600)},
		answers: map[string][]float32{"a": make([]float32, 2560)},
	}
	builder, err := NewBatchBuilder(cfg, proc, audio)
	require.NoError(t, err)

	cut := testCut("a", 0.1, "hi", "ok go")
	cut.S2T = true
	batch, err := builder.Build([]corpus.Cut{cut})
	require.NoError(t, err)

	// 2 instr + 2 text + marker = 5 steps
	assert.Equal(t, []int{4}, batch.TokensLength)

	// speech columns carry no loss in text-target batches
	for _, rows := range batch.LossMask {
		for _, row := range rows {
			for _, v := range row[1:] {
				assert.False(t, v)
			}
		}
	}
	assert.True(t, batch.LossMask[0][1][0]) // first answer token row
	assert.Len(t, batch.AnswerAudio, 1)
	assert.Equal(t, []int{2560}, batch.AnswerAudioLengths)
}

func TestBuild_S2SWithAnswerAudio(t *testing.T) {
	cfg := testConfig()
	cfg.LoadAnswerAudio = true
	proc := textproc.NewWordProcessor([]string{"hi", "ok"})
	audio := stubAudio{
		samples: map[string][]float32{"a": make([]float32, 1600)},
		answers: map[string][]float32{"a": make([]float32, 3000)},
	}
	builder, err := NewBatchBuilder(cfg, proc, audio)
	require.NoError(t, err)

	cut := testCut("a", 0.1, "hi", "ok")
	cut.S2S = true
	batch, err := builder.Build([]corpus.Cut{cut})
	require.NoError(t, err)

	// ceil(3000 / 1280) = 3 placeholder frames
	// 2 instr + 1 text + marker + 3 codec + marker = 8 steps
	assert.Equal(t, []int{7}, batch.TokensLength)
	// placeholder frames stay distinct from pad so the loss mask counts them
	assert.Equal(t, []int32{proc.UnkID(), 1000}, batch.Tokens[0][4])
	assert.Equal(t, []bool{true, true}, batch.LossMask[0][3])
}

func TestBuild_PadToMaxLength(t *testing.T) {
	cfg := testConfig()
	cfg.PadToMaxLength = true
	proc := textproc.NewWordProcessor([]string{"hi", "ok"})
	audio := stubAudio{samples: map[string][]float32{"a": make([]float32, 1600)}}
	builder, err := NewBatchBuilder(cfg, proc, audio)
	require.NoError(t, err)
	builder.WithCodesLoader(stubCodes(map[string][][]int32{"a": {{5}}}))

	cut := testCut("a", 0.1, "hi", "ok")
	cut.S2S = true
	batch, err := builder.Build([]corpus.Cut{cut})
	require.NoError(t, err)
	assert.Len(t, batch.TargetTexts[0], cfg.MaxSeqLength)
	assert.Len(t, batch.Instructions[0], cfg.MaxSeqLength)
}

func TestBuild_Preconditions(t *testing.T) {
	proc := textproc.NewWordProcessor(nil)
	audio := stubAudio{samples: map[string][]float32{}}
	builder, err := NewBatchBuilder(testConfig(), proc, audio)
	require.NoError(t, err)

	_, err = builder.Build(nil)
	assert.Error(t, err)

	swapped := testCut("a", 0.1, "hi", "ok")
	swapped.Supervisions[0].Speaker = "agent"
	_, err = builder.Build([]corpus.Cut{swapped})
	assert.Error(t, err)

	swapped = testCut("a", 0.1, "hi", "ok")
	swapped.Supervisions[1].Speaker = "user"
	_, err = builder.Build([]corpus.Cut{swapped})
	assert.Error(t, err)

	s2t := testCut("a", 0.1, "hi", "ok")
	s2t.S2T = true
	_, err = builder.Build([]corpus.Cut{s2t})
	assert.Error(t, err, "s2t requires answer audio")

	double := testCut("a", 0.1, "hi", "ok")
	double.S2S = true
	double.S2T = true
	_, err = builder.Build([]corpus.Cut{double})
	assert.Error(t, err)

	a := testCut("a", 0.1, "hi", "ok")
	a.S2S = true
	b := testCut("b", 0.2, "hi", "ok")
	b.DirectS2S = true
	_, err = builder.Build([]corpus.Cut{a, b})
	assert.Error(t, err, "mixed modes are rejected")
}

func TestBuild_AnswerAudioConfigErrors(t *testing.T) {
	proc := textproc.NewWordProcessor(nil)
	audio := stubAudio{}

	cfg := testConfig()
	cfg.LoadAnswerAudio = true
	cfg.DecoderReductionFactor = 2
	_, err := NewBatchBuilder(cfg, proc, audio)
	assert.Error(t, err, "reduction must be 1 when loading answer audio")

	cfg = testConfig()
	cfg.LoadAnswerAudio = true
	builder, err := NewBatchBuilder(cfg, proc, audio)
	require.NoError(t, err)

	direct := testCut("a", 0.1, "hi", "ok")
	direct.DirectS2S = true
	_, err = builder.Build([]corpus.Cut{direct})
	assert.Error(t, err)

	aligned := testCut("a", 0.1, "hi", "<|0|>ok<|1|>")
	aligned.S2SAlign = true
	_, err = builder.Build([]corpus.Cut{aligned})
	assert.Error(t, err)
}

func TestBuild_ReductionFactor(t *testing.T) {
	cfg := testConfig()
	cfg.DecoderReductionFactor = 2
	proc := textproc.NewWordProcessor([]string{"hi", "ok"})
	audio := stubAudio{samples: map[string][]float32{"a": make([]float32, 1600)}}
	builder, err := NewBatchBuilder(cfg, proc, audio)
	require.NoError(t, err)
	// 5 frames fold into 2 reduced steps, dropping the ragged tail
	builder.WithCodesLoader(stubCodes(map[string][][]int32{
		"a": {{41}, {42}, {43}, {44}, {45}},
	}))

	cut := testCut("a", 0.1, "hi", "ok")
	cut.S2S = true
	batch, err := builder.Build([]corpus.Cut{cut})
	require.NoError(t, err)

	// rows are 1 text column + 2 folded codec columns
	require.Len(t, batch.Tokens[0][0], 3)
	rows := batch.Tokens[0]
	assert.Equal(t, []int32{proc.UnkID(), 41, 42}, rows[4])
	assert.Equal(t, []int32{proc.UnkID(), 43, 44}, rows[5])
	assert.Equal(t, []int32{proc.UnkID(), 1004, 1004}, batch.Labels[0][5])
}
