package textproc

import "strings"

// Ids reserved by WordProcessor below the word vocabulary.
const (
	wordPadID = iota
	wordUnkID
	wordBosID
	wordEosID
	wordSepID
	wordNumReserved
)

// WordProcessor is a deterministic whitespace-splitting Processor backed by a
// fixed in-memory vocabulary. It exists so that collation behavior can be
// exercised without tokenizer files on disk; ids are stable across runs.
type WordProcessor struct {
	ids map[string]int32
}

// NewWordProcessor assigns ids to words in the given order, after the
// reserved pad/unk/bos/eos/sep entries.
func NewWordProcessor(words []string) *WordProcessor {
	ids := make(map[string]int32, len(words))
	for i, w := range words {
		ids[w] = int32(wordNumReserved + i)
	}
	return &WordProcessor{ids: ids}
}

// Process splits both texts on whitespace and maps each word to its id.
// Unknown words map to the unk id.
func (p *WordProcessor) Process(context, output string, opts Options) (Processed, error) {
	contextIDs := p.encode(context)
	answerIDs := p.encode(output)

	if opts.AddBOS {
		contextIDs = append([]int32{wordBosID}, contextIDs...)
	}
	if opts.AddEOS {
		answerIDs = append(answerIDs, wordEosID)
	}

	input := make([]int32, 0, len(contextIDs)+len(answerIDs)+1)
	input = append(input, contextIDs...)
	if opts.AddSep {
		input = append(input, wordSepID)
	}
	input = append(input, answerIDs...)

	return Processed{
		InputIDs:   input,
		ContextIDs: contextIDs,
		AnswerIDs:  answerIDs,
	}, nil
}

func (p *WordProcessor) encode(text string) []int32 {
	var ids []int32
	for _, w := range strings.Fields(text) {
		id, ok := p.ids[w]
		if !ok {
			id = wordUnkID
		}
		ids = append(ids, id)
	}
	return ids
}

// ID returns the id assigned to a vocabulary word, or the unk id.
func (p *WordProcessor) ID(word string) int32 {
	if id, ok := p.ids[word]; ok {
		return id
	}
	return wordUnkID
}

// PadID ...
func (p *WordProcessor) PadID() int32 { return wordPadID }

// UnkID ...
func (p *WordProcessor) UnkID() int32 { return wordUnkID }

// BosID ...
func (p *WordProcessor) BosID() int32 { return wordBosID }

// EosID ...
func (p *WordProcessor) EosID() int32 { return wordEosID }

// VocabSize ...
func (p *WordProcessor) VocabSize() int { return wordNumReserved + len(p.ids) }
