package corpus

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
	"github.com/voxlab/voxlab/vox-golib/errors"
)

// CachingLoader memoizes decoded waveforms so that repeated passes over the
// same cuts (multiple epochs, validation sweeps) do not re-read and re-decode
// audio. Costs are tracked in samples.
type CachingLoader struct {
	loader AudioLoader
	cache  *ristretto.Cache
}

// NewCachingLoader wraps a loader with an in-memory cache bounded by
// maxSamples decoded samples across both source and answer audio.
func NewCachingLoader(loader AudioLoader, maxSamples int64) (*CachingLoader, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     maxSamples,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create audio cache")
	}
	return &CachingLoader{loader: loader, cache: cache}, nil
}

// LoadAudio ...
func (l *CachingLoader) LoadAudio(c Cut, sampleRate int) ([]float32, error) {
	return l.load(fmt.Sprintf("src/%s@%d", c.ID, sampleRate), func() ([]float32, error) {
		return l.loader.LoadAudio(c, sampleRate)
	})
}

// LoadAnswerAudio ...
func (l *CachingLoader) LoadAnswerAudio(c Cut, sampleRate int) ([]float32, error) {
	return l.load(fmt.Sprintf("ans/%s@%d", c.ID, sampleRate), func() ([]float32, error) {
		return l.loader.LoadAnswerAudio(c, sampleRate)
	})
}

func (l *CachingLoader) load(key string, fetch func() ([]float32, error)) ([]float32, error) {
	if v, ok := l.cache.Get(key); ok {
		return v.([]float32), nil
	}
	samples, err := fetch()
	if err != nil {
		return nil, err
	}
	l.cache.Set(key, samples, int64(len(samples)))
	return samples, nil
}
