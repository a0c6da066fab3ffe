package envutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetenvDefault(t *testing.T) {
	os.Unsetenv("VOX_ENVUTIL_TEST")
	assert.Equal(t, "fallback", GetenvDefault("VOX_ENVUTIL_TEST", "fallback"))

	os.Setenv("VOX_ENVUTIL_TEST", "set")
	defer os.Unsetenv("VOX_ENVUTIL_TEST")
	assert.Equal(t, "set", GetenvDefault("VOX_ENVUTIL_TEST", "fallback"))

	os.Setenv("VOX_ENVUTIL_TEST", "")
	assert.Equal(t, "", GetenvDefault("VOX_ENVUTIL_TEST", "fallback"))
}
