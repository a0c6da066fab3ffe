package textproc

// Processed holds the id sequences produced for one (context, output) pair.
// ContextIDs covers the context text, AnswerIDs the output text, and InputIDs
// is their concatenation. AnswerIDs and InputIDs end with the explicit EOS id
// when Options.AddEOS is set.
type Processed struct {
	InputIDs   []int32
	ContextIDs []int32
	AnswerIDs  []int32
}

// Options are call-time processing switches. They are passed per call rather
// than stored on the processor so that callers cannot interfere with each
// other through shared state.
type Options struct {
	// AddBOS prepends the BOS id to the context sequence.
	AddBOS bool
	// AddEOS appends the EOS id to the answer sequence.
	AddEOS bool
	// AddSep inserts the SEP id between context and answer in InputIDs.
	AddSep bool
}

// DefaultOptions matches the conventions the collation layer assumes: BOS at
// the start of the context, EOS at the end of the answer, no separator.
func DefaultOptions() Options {
	return Options{AddBOS: true, AddEOS: true}
}

// Processor turns raw conversation text into model token ids.
type Processor interface {
	// Process tokenizes a (context, output) pair. Either side may be empty.
	Process(context, output string, opts Options) (Processed, error)

	PadID() int32
	UnkID() int32
	BosID() int32
	EosID() int32
	VocabSize() int
}
