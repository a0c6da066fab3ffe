package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordProcessor_Process(t *testing.T) {
	p := NewWordProcessor([]string{"what", "time", "is", "it", "noon"})

	proc, err := p.Process("what time is it", "noon", DefaultOptions())
	require.NoError(t, err)

	require.Len(t, proc.ContextIDs, 5) // bos + 4 words
	assert.EqualValues(t, p.BosID(), proc.ContextIDs[0])
	require.Len(t, proc.AnswerIDs, 2) // word + eos
	assert.EqualValues(t, p.EosID(), proc.AnswerIDs[len(proc.AnswerIDs)-1])
	assert.Equal(t, append(append([]int32{}, proc.ContextIDs...), proc.AnswerIDs...), proc.InputIDs)
}

func TestWordProcessor_UnknownWord(t *testing.T) {
	p := NewWordProcessor([]string{"known"})

	proc, err := p.Process("", "known mystery", Options{})
	require.NoError(t, err)
	require.Len(t, proc.AnswerIDs, 2)
	assert.EqualValues(t, p.ID("known"), proc.AnswerIDs[0])
	assert.EqualValues(t, p.UnkID(), proc.AnswerIDs[1])
}

func TestStripTimestamps(t *testing.T) {
	assert.Equal(t, "hello world", StripTimestamps("<|12|>hello<|15|> <|15|>world<|17|>"))
	assert.Equal(t, "no markers", StripTimestamps("no markers"))
}

// charProcessor tokenizes every letter separately, mimicking subword
// tokenizers that emit a word-boundary token first.
type charProcessor struct{ WordProcessor }

func (p *charProcessor) Process(context, output string, opts Options) (Processed, error) {
	var answer []int32
	for _, r := range strings.Join(strings.Fields(output), "") {
		answer = append(answer, int32(r))
	}
	if opts.AddEOS {
		answer = append(answer, p.EosID())
	}
	return Processed{InputIDs: answer, AnswerIDs: answer}, nil
}

func TestExtractTimedTokens(t *testing.T) {
	p := &charProcessor{}

	timed, err := ExtractTimedTokens(p, "<|0|>ab<|2|> <|2|>cde<|5|>")
	require.NoError(t, err)

	assert.Equal(t, []int32{0, 2}, timed.StartTimes)
	// First word keeps both tokens, second word drops its leading token.
	assert.Equal(t, []int{2, 2}, timed.WordLengths)
	assert.Equal(t, []int32{'a', 'b', 'd', 'e'}, timed.TokenIDs)
}

func TestExtractTimedTokens_MarkerMismatch(t *testing.T) {
	p := &charProcessor{}
	_, err := ExtractTimedTokens(p, "<|0|>ab<|2|> cd")
	require.Error(t, err)
}
