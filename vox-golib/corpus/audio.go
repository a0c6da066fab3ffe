package corpus

import (
	"log"

	"github.com/voxlab/voxlab/vox-golib/errors"
	"github.com/voxlab/voxlab/vox-golib/fileutil"
)

// AudioLoader loads a cut's waveforms resampled to the given rate.
type AudioLoader interface {
	// LoadAudio loads the source (user-side) waveform.
	LoadAudio(c Cut, sampleRate int) ([]float32, error)
	// LoadAnswerAudio loads the spoken answer waveform.
	LoadAnswerAudio(c Cut, sampleRate int) ([]float32, error)
}

// DiskLoader reads WAV recordings through fileutil, so recordings may live on
// local disk, S3 or HTTP.
type DiskLoader struct{}

// LoadAudio ...
func (DiskLoader) LoadAudio(c Cut, sampleRate int) ([]float32, error) {
	return loadWAV(c.Recording.Path, sampleRate)
}

// LoadAnswerAudio ...
func (DiskLoader) LoadAnswerAudio(c Cut, sampleRate int) ([]float32, error) {
	if c.TargetAudioPath == "" {
		return nil, errors.Errorf("cut %s has no target audio", c.ID)
	}
	return loadWAV(c.TargetAudioPath, sampleRate)
}

func loadWAV(path string, sampleRate int) ([]float32, error) {
	buf, err := fileutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	samples, rate, err := decodeWAV(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode %s", path)
	}
	return Resample(samples, rate, sampleRate), nil
}

// FaultTolerant wraps a loader so that a corrupt or missing source waveform
// yields a zero-length placeholder instead of failing the whole batch.
// Answer audio errors still propagate: a missing answer target means the
// example cannot produce a label at all.
type FaultTolerant struct {
	Loader AudioLoader
}

// LoadAudio ...
func (f FaultTolerant) LoadAudio(c Cut, sampleRate int) ([]float32, error) {
	samples, err := f.Loader.LoadAudio(c, sampleRate)
	if err != nil {
		log.Printf("error loading audio for cut %s: %v", c.ID, err)
		return nil, nil
	}
	return samples, nil
}

// LoadAnswerAudio ...
func (f FaultTolerant) LoadAnswerAudio(c Cut, sampleRate int) ([]float32, error) {
	return f.Loader.LoadAnswerAudio(c, sampleRate)
}

// Resample converts samples from one rate to another by linear
// interpolation. It returns the input untouched when the rates match.
func Resample(samples []float32, from, to int) []float32 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}

	outLen := int(int64(len(samples)) * int64(to) / int64(from))
	if outLen < 1 {
		outLen = 1
	}
	out := make([]float32, outLen)
	ratio := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = samples[j]*(1-frac) + samples[j+1]*frac
	}
	return out
}
