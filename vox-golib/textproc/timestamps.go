package textproc

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/voxlab/voxlab/vox-golib/errors"
)

// timestampPattern matches time markers of the form <|123|> interleaved with
// the words of a supervision text. Markers come in (start, end) pairs.
var timestampPattern = regexp.MustCompile(`<\|(\d+)\|>`)

// StripTimestamps removes all time markers from a supervision text and
// collapses the whitespace left behind.
func StripTimestamps(text string) string {
	out := timestampPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(out), " ")
}

// TimedTokens is the per-word alignment extracted from a timestamped
// supervision text: the concatenated word token ids (no EOS), the start-time
// token of each word, and the number of tokens each word produced.
type TimedTokens struct {
	TokenIDs    []int32
	StartTimes  []int32
	WordLengths []int
}

// ExtractTimedTokens parses a supervision text of the form
// "<|12|>hello<|15|> <|15|>world<|17|>" into word tokens and start times.
// Only the start marker of each pair is kept. Each word is tokenized
// independently; the EOS the processor appends is stripped, and for every
// word but the first the leading token is dropped so that word boundaries do
// not double-count the tokenizer's word-start marker.
func ExtractTimedTokens(p Processor, text string) (TimedTokens, error) {
	var out TimedTokens

	markers := timestampPattern.FindAllStringSubmatch(text, -1)
	for i := 0; i < len(markers); i += 2 {
		start, err := strconv.Atoi(markers[i][1])
		if err != nil {
			return TimedTokens{}, errors.Wrapf(err, "bad time marker %q", markers[i][0])
		}
		out.StartTimes = append(out.StartTimes, int32(start))
	}

	words := strings.Fields(timestampPattern.ReplaceAllString(text, ""))
	if len(words) != len(out.StartTimes) {
		return TimedTokens{}, errors.Errorf(
			"found %d words but %d start markers in %q", len(words), len(out.StartTimes), text)
	}

	for idx, word := range words {
		proc, err := p.Process("", word, Options{AddEOS: true})
		if err != nil {
			return TimedTokens{}, err
		}
		tokenIDs := proc.AnswerIDs[:len(proc.AnswerIDs)-1] // strip EOS
		if idx != 0 && len(tokenIDs) > 0 {
			tokenIDs = tokenIDs[1:]
		}
		out.TokenIDs = append(out.TokenIDs, tokenIDs...)
		out.WordLengths = append(out.WordLengths, len(tokenIDs))
	}

	return out, nil
}
