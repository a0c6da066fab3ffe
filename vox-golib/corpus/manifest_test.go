package corpus

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxlab/voxlab/vox-golib/serialization"
)

func TestLoadManifest(t *testing.T) {
	dir, err := ioutil.TempDir("", "manifest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "cuts.jsonl")
	lines := `{"id":"a","duration":1.5,"supervisions":[{"speaker":"user","text":"hi"},{"speaker":"agent","text":"ok"}],"s2s":true}
{"id":"b","duration":0.5,"supervisions":[{"speaker":"user","text":"yo"},{"speaker":"agent","text":"go"}],"custom":{"context":"casual"}}
`
	require.NoError(t, ioutil.WriteFile(path, []byte(lines), 0666))

	cuts, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, cuts, 2)
	assert.Equal(t, "a", cuts[0].ID)
	assert.True(t, cuts[0].S2S)
	assert.Equal(t, "agent", cuts[0].Supervisions[1].Speaker)
	assert.Equal(t, "casual", cuts[1].Custom["context"])
}

func TestLoadManifest_RelativePaths(t *testing.T) {
	dir, err := ioutil.TempDir("", "manifest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "cuts.jsonl")
	line := `{"id":"a","recording":{"path":"audio/a.wav"},"supervisions":[{"speaker":"user","text":"hi"},{"speaker":"agent","text":"ok"}],"target_codes":"codes/a.jsonl","target_audio":"/abs/a.wav"}
`
	require.NoError(t, ioutil.WriteFile(path, []byte(line), 0666))

	cuts, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, cuts, 1)

	// relative paths resolve against the manifest dir, absolute ones pass
	assert.Equal(t, filepath.Join(dir, "audio", "a.wav"), cuts[0].Recording.Path)
	assert.Equal(t, filepath.Join(dir, "codes", "a.jsonl"), cuts[0].TargetCodesPath)
	assert.Equal(t, "/abs/a.wav", cuts[0].TargetAudioPath)
}

func TestLoadManifest_MissingSupervision(t *testing.T) {
	dir, err := ioutil.TempDir("", "manifest")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "cuts.jsonl")
	require.NoError(t, ioutil.WriteFile(path, []byte(`{"id":"a","supervisions":[{"speaker":"user","text":"hi"}]}
`), 0666))

	_, err = LoadManifest(path)
	assert.Error(t, err)
}

func TestLoadTargetCodes(t *testing.T) {
	dir, err := ioutil.TempDir("", "codes")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "a.codes.jsonl")
	enc, err := serialization.NewEncoder(path)
	require.NoError(t, err)
	for _, frame := range [][]int32{{1, 2}, {3, 4}, {5, 6}} {
		require.NoError(t, enc.Encode(frame))
	}
	require.NoError(t, enc.Close())

	codes, err := LoadTargetCodes(Cut{ID: "a", TargetCodesPath: path})
	require.NoError(t, err)
	assert.Equal(t, [][]int32{{1, 2}, {3, 4}, {5, 6}}, codes)

	_, err = LoadTargetCodes(Cut{ID: "b"})
	assert.Error(t, err)
}
