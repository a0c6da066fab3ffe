package textproc

import (
	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	"github.com/voxlab/voxlab/vox-golib/errors"
)

// SpecialTokens names the sentinel entries the tokenizer vocabulary must
// contain. The zero value selects the conventional names.
type SpecialTokens struct {
	Pad string
	Unk string
	Bos string
	Eos string
	Sep string
}

func (s SpecialTokens) withDefaults() SpecialTokens {
	if s.Pad == "" {
		s.Pad = "<pad>"
	}
	if s.Unk == "" {
		s.Unk = "<unk>"
	}
	if s.Bos == "" {
		s.Bos = "<bos>"
	}
	if s.Eos == "" {
		s.Eos = "<eos>"
	}
	if s.Sep == "" {
		s.Sep = "<sep>"
	}
	return s
}

// BPEProcessor implements Processor on top of a HuggingFace-compatible
// tokenizer file (tokenizer.json).
type BPEProcessor struct {
	tok       *tokenizer.Tokenizer
	padID     int32
	unkID     int32
	bosID     int32
	eosID     int32
	sepID     int32
	vocabSize int
}

// NewBPEProcessor loads a tokenizer file and resolves the special ids from
// its vocabulary. The Sep token is optional; Pad/Unk/Bos/Eos are required.
func NewBPEProcessor(path string, special SpecialTokens) (*BPEProcessor, error) {
	tok, err := pretrained.FromFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load tokenizer from %s", path)
	}
	return newBPEProcessor(tok, special)
}

func newBPEProcessor(tok *tokenizer.Tokenizer, special SpecialTokens) (*BPEProcessor, error) {
	special = special.withDefaults()
	vocab := tok.GetVocab(true)

	mustID := func(name string) (int32, error) {
		id, ok := vocab[name]
		if !ok {
			return 0, errors.Errorf("tokenizer vocabulary has no %q entry", name)
		}
		return int32(id), nil
	}

	p := &BPEProcessor{tok: tok, vocabSize: len(vocab)}
	var err error
	if p.padID, err = mustID(special.Pad); err != nil {
		return nil, err
	}
	if p.unkID, err = mustID(special.Unk); err != nil {
		return nil, err
	}
	if p.bosID, err = mustID(special.Bos); err != nil {
		return nil, err
	}
	if p.eosID, err = mustID(special.Eos); err != nil {
		return nil, err
	}
	if id, ok := vocab[special.Sep]; ok {
		p.sepID = int32(id)
	} else {
		p.sepID = -1
	}
	return p, nil
}

// Process tokenizes a (context, output) pair per the given options.
func (p *BPEProcessor) Process(context, output string, opts Options) (Processed, error) {
	contextIDs, err := p.encode(context)
	if err != nil {
		return Processed{}, err
	}
	answerIDs, err := p.encode(output)
	if err != nil {
		return Processed{}, err
	}

	if opts.AddBOS {
		contextIDs = append([]int32{p.bosID}, contextIDs...)
	}
	if opts.AddEOS {
		answerIDs = append(answerIDs, p.eosID)
	}

	input := make([]int32, 0, len(contextIDs)+len(answerIDs)+1)
	input = append(input, contextIDs...)
	if opts.AddSep {
		if p.sepID < 0 {
			return Processed{}, errors.Errorf("separator requested but tokenizer has no sep entry")
		}
		input = append(input, p.sepID)
	}
	input = append(input, answerIDs...)

	return Processed{
		InputIDs:   input,
		ContextIDs: contextIDs,
		AnswerIDs:  answerIDs,
	}, nil
}

func (p *BPEProcessor) encode(text string) ([]int32, error) {
	if text == "" {
		return nil, nil
	}
	enc, err := p.tok.EncodeSingle(text)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to tokenize %q", text)
	}
	ids := make([]int32, 0, len(enc.Ids))
	for _, id := range enc.Ids {
		ids = append(ids, int32(id))
	}
	return ids, nil
}

// PadID ...
func (p *BPEProcessor) PadID() int32 { return p.padID }

// UnkID ...
func (p *BPEProcessor) UnkID() int32 { return p.unkID }

// BosID ...
func (p *BPEProcessor) BosID() int32 { return p.bosID }

// EosID ...
func (p *BPEProcessor) EosID() int32 { return p.eosID }

// VocabSize ...
func (p *BPEProcessor) VocabSize() int { return p.vocabSize }
