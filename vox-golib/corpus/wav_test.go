package corpus

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeWAV(t *testing.T, samples []int16, sampleRate, numChannels int) []byte {
	t.Helper()

	var data bytes.Buffer
	for _, s := range samples {
		require.NoError(t, binary.Write(&data, binary.LittleEndian, s))
	}

	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+data.Len()))
	b.WriteString("WAVE")

	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(numChannels))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate*numChannels*2))
	binary.Write(&b, binary.LittleEndian, uint16(numChannels*2))
	binary.Write(&b, binary.LittleEndian, uint16(16))

	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(data.Len()))
	b.Write(data.Bytes())
	return b.Bytes()
}

func TestDecodeWAV(t *testing.T) {
	buf := encodeWAV(t, []int16{0, 16384, -16384, 32767}, 16000, 1)

	samples, rate, err := decodeWAV(buf)
	require.NoError(t, err)
	require.Equal(t, 16000, rate)
	require.Len(t, samples, 4)
	assert.InDelta(t, 0.0, samples[0], 1e-6)
	assert.InDelta(t, 0.5, samples[1], 1e-6)
	assert.InDelta(t, -0.5, samples[2], 1e-6)
}

func TestDecodeWAV_FirstChannelOnly(t *testing.T) {
	// Interleaved stereo: left channel carries the ramp, right is silent.
	buf := encodeWAV(t, []int16{100, 0, 200, 0, 300, 0}, 8000, 2)

	samples, rate, err := decodeWAV(buf)
	require.NoError(t, err)
	require.Equal(t, 8000, rate)
	require.Len(t, samples, 3)
	assert.InDelta(t, float32(100)/32768, samples[0], 1e-6)
	assert.InDelta(t, float32(300)/32768, samples[2], 1e-6)
}

func TestDecodeWAV_Garbage(t *testing.T) {
	_, _, err := decodeWAV([]byte("definitely not audio"))
	require.Error(t, err)
}

func TestResample(t *testing.T) {
	in := []float32{0, 1, 2, 3}

	same := Resample(in, 16000, 16000)
	assert.Equal(t, in, same)

	down := Resample(in, 16000, 8000)
	require.Len(t, down, 2)
	assert.InDelta(t, 0, down[0], 1e-6)
	assert.InDelta(t, 2, down[1], 1e-6)

	up := Resample([]float32{0, 1}, 8000, 16000)
	require.Len(t, up, 4)
	assert.InDelta(t, 0.5, up[1], 1e-6)
}

type failingLoader struct{}

func (failingLoader) LoadAudio(c Cut, sampleRate int) ([]float32, error) {
	return nil, assert.AnError
}

func (failingLoader) LoadAnswerAudio(c Cut, sampleRate int) ([]float32, error) {
	return nil, assert.AnError
}

func TestFaultTolerant(t *testing.T) {
	ft := FaultTolerant{Loader: failingLoader{}}

	samples, err := ft.LoadAudio(Cut{ID: "broken"}, 16000)
	require.NoError(t, err)
	assert.Empty(t, samples)

	_, err = ft.LoadAnswerAudio(Cut{ID: "broken"}, 16000)
	require.Error(t, err)
}
