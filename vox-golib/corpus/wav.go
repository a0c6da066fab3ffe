package corpus

import (
	"bytes"
	"encoding/binary"

	"github.com/voxlab/voxlab/vox-golib/errors"
)

// decodeWAV parses a RIFF/WAVE buffer holding 16-bit PCM and returns the
// first channel as float32 samples in [-1, 1] plus the file's sample rate.
func decodeWAV(buf []byte) ([]float32, int, error) {
	if len(buf) < 12 || !bytes.Equal(buf[0:4], []byte("RIFF")) || !bytes.Equal(buf[8:12], []byte("WAVE")) {
		return nil, 0, errors.Errorf("not a RIFF/WAVE stream")
	}

	var (
		sampleRate  int
		numChannels int
		haveFmt     bool
	)

	pos := 12
	for pos+8 <= len(buf) {
		chunkID := string(buf[pos : pos+4])
		chunkLen := int(binary.LittleEndian.Uint32(buf[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkLen > len(buf) {
			return nil, 0, errors.Errorf("truncated %s chunk", chunkID)
		}

		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return nil, 0, errors.Errorf("short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(buf[body : body+2])
			if format != 1 {
				return nil, 0, errors.Errorf("unsupported WAVE format %d, need PCM", format)
			}
			numChannels = int(binary.LittleEndian.Uint16(buf[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(buf[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(buf[body+14 : body+16])
			if bits != 16 {
				return nil, 0, errors.Errorf("unsupported sample width %d, need 16", bits)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, 0, errors.Errorf("data chunk before fmt chunk")
			}
			if numChannels < 1 {
				return nil, 0, errors.Errorf("fmt chunk has %d channels", numChannels)
			}
			frames := chunkLen / (2 * numChannels)
			samples := make([]float32, frames)
			for i := 0; i < frames; i++ {
				// Keep only the first channel.
				off := body + i*2*numChannels
				v := int16(binary.LittleEndian.Uint16(buf[off : off+2]))
				samples[i] = float32(v) / 32768
			}
			return samples, sampleRate, nil
		}

		// Chunks are word aligned.
		pos = body + chunkLen
		if chunkLen%2 == 1 {
			pos++
		}
	}

	return nil, 0, errors.Errorf("no data chunk found")
}
