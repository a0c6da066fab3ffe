package corpus

import "sort"

// Supervision is one conversation turn attached to a cut. The corpus pairing
// contract puts the user turn first and the agent turn second.
type Supervision struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Recording describes the source waveform of a cut.
type Recording struct {
	Path       string `json:"path"`
	SampleRate int    `json:"sample_rate"`
	NumSamples int    `json:"num_samples"`
}

// Cut is one training example read from a corpus manifest: a recording, the
// two conversation turns, optional answer-side targets, and per-cut custom
// fields. Cuts are immutable once read; anything derived from them (resolved
// context, batch mode) is computed without writing back.
type Cut struct {
	ID           string        `json:"id"`
	Duration     float64       `json:"duration"`
	Recording    Recording     `json:"recording"`
	Supervisions []Supervision `json:"supervisions"`

	// TargetCodesPath points at the frame-by-codebook code matrix for the
	// spoken answer; TargetAudioPath at the answer waveform itself.
	TargetCodesPath string `json:"target_codes,omitempty"`
	TargetAudioPath string `json:"target_audio,omitempty"`

	// Custom carries free-form manifest fields, including per-cut context
	// overrides. See ResolveContext.
	Custom map[string]string `json:"custom,omitempty"`

	// Batch-assembly flags. At most one may be set per cut.
	S2S       bool `json:"s2s,omitempty"`
	S2SAlign  bool `json:"s2s_align,omitempty"`
	DirectS2S bool `json:"direct_s2s,omitempty"`
	S2T       bool `json:"s2t,omitempty"`
}

// ResolveContext returns the instruction context for a cut: the cut's own
// value under contextKey if present, the corpus-wide value under
// defaultContextKey otherwise, and defaultContext as the final fallback.
// The cut is never mutated.
func ResolveContext(c Cut, defaultContext, contextKey, defaultContextKey string) string {
	if v, ok := c.Custom[contextKey]; ok {
		return v
	}
	if v, ok := c.Custom[defaultContextKey]; ok {
		return v
	}
	return defaultContext
}

// SortByDuration sorts cuts ascending by duration, in place. Collation
// assumes this ordering so that padding waste stays small.
func SortByDuration(cuts []Cut) {
	sort.SliceStable(cuts, func(i, j int) bool {
		return cuts[i].Duration < cuts[j].Duration
	})
}
