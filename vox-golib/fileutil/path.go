package fileutil

import (
	"net/url"
	"path"
	"strings"
)

// Join joins path segments under the first segment's scheme, so it works for
// local paths and for s3:// or http(s):// uris alike. The input slice is
// never modified.
func Join(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	u, err := url.Parse(parts[0])
	if err != nil || u.Scheme == "" {
		return path.Join(parts...)
	}
	rest := append([]string{u.Path}, parts[1:]...)
	u.Path = path.Join(rest...)
	return u.String()
}

// Dir returns the parent of a path or uri. For uris the scheme and host are
// preserved; the host itself has no parent.
func Dir(dir string) string {
	i := strings.Index(dir, "//")
	if i < 0 {
		return path.Dir(dir)
	}
	base := dir[:i+2]
	rest := strings.Split(dir[i+2:], "/")
	if len(rest) < 2 {
		return base
	}
	return Join(append([]string{base}, rest[:len(rest)-1]...)...)
}
