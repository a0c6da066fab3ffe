package corpus

import (
	gopath "path"
	"strings"

	"github.com/voxlab/voxlab/vox-golib/errors"
	"github.com/voxlab/voxlab/vox-golib/fileutil"
	"github.com/voxlab/voxlab/vox-golib/serialization"
)

// LoadManifest reads a cut manifest. The path may be local or an s3:// /
// http(s):// uri and may carry .jsonl, .json or .gob extensions, optionally
// gzipped. Relative recording and target paths in the manifest are resolved
// against the manifest's own directory.
func LoadManifest(path string) ([]Cut, error) {
	base := fileutil.Dir(path)
	var cuts []Cut
	err := serialization.Decode(path, func(c *Cut) error {
		if len(c.Supervisions) < 2 {
			return errors.Errorf("cut %s has %d supervisions, need 2", c.ID, len(c.Supervisions))
		}
		c.Recording.Path = resolvePath(base, c.Recording.Path)
		c.TargetCodesPath = resolvePath(base, c.TargetCodesPath)
		c.TargetAudioPath = resolvePath(base, c.TargetAudioPath)
		cuts = append(cuts, *c)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load manifest %s", path)
	}
	return cuts, nil
}

// resolvePath anchors a manifest-relative path at the manifest's directory.
// Absolute paths and full uris pass through untouched.
func resolvePath(base, p string) string {
	if p == "" || gopath.IsAbs(p) || strings.Contains(p, "://") {
		return p
	}
	return fileutil.Join(base, p)
}

// LoadTargetCodes reads the answer-side code matrix of a cut: one row per
// codec frame, one column per codebook.
func LoadTargetCodes(c Cut) ([][]int32, error) {
	if c.TargetCodesPath == "" {
		return nil, errors.Errorf("cut %s has no target codes", c.ID)
	}
	var codes [][]int32
	err := serialization.Decode(c.TargetCodesPath, func(frame *[]int32) error {
		codes = append(codes, *frame)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load target codes for cut %s", c.ID)
	}
	return codes, nil
}
