package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageRoundTrip(t *testing.T) {
	s := NewFileStorage(t.TempDir())

	require.NoError(t, s.Save("out/photo_ig.png", strings.NewReader("data")))
	assert.True(t, s.Exists("out/photo_ig.png"))
	assert.False(t, s.Exists("out/other.png"))

	rc, err := s.Get("out/photo_ig.png")
	require.NoError(t, err)
	defer rc.Close()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))
}

func TestFileStorageRejectsEscape(t *testing.T) {
	s := NewFileStorage(t.TempDir())

	for _, p := range []string{"../secret", "a/../../secret", ".."} {
		_, err := s.FullPath(p)
		assert.ErrorIs(t, err, ErrOutsideBase, p)
		assert.ErrorIs(t, s.Save(p, strings.NewReader("x")), ErrOutsideBase, p)
		assert.False(t, s.Exists(p))
	}
}
