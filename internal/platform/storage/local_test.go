package storage

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallest valid GIF header is enough for content sniffing
var gifBytes = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")

func TestSaveAndDeleteImage(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocal(root)
	require.NoError(t, err)
	ctx := context.Background()

	rel, err := s.SaveImage(ctx, "events", bytes.NewReader(gifBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "events/"))
	assert.True(t, strings.HasSuffix(rel, ".gif"))

	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, rel))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	require.NoError(t, s.Delete(ctx, rel))
}

func TestSaveImageRejectsBadInput(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.SaveImage(ctx, "avatars", strings.NewReader("plain text, not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	big := append(append([]byte{}, gifBytes...), make([]byte, MaxImageSize)...)
	_, err = s.SaveImage(ctx, "avatars", bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDeleteRejectsTraversal(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, s.Delete(context.Background(), "../etc/passwd"), ErrInvalidPath)
}

func TestHandlerServesFilesOnly(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	rel, err := s.SaveImage(context.Background(), "events", bytes.NewReader(gifBytes))
	require.NoError(t, err)

	srv := httptest.NewServer(http.StripPrefix("/storage/", s.Handler()))
	t.Cleanup(srv.Close)

	cases := []struct {
		path string
		want int
	}{
		{"/storage/" + rel, http.StatusOK},
		{"/storage/events/", http.StatusNotFound},
		{"/storage/events", http.StatusNotFound},
		{"/storage/", http.StatusNotFound},
		{"/storage/events/missing.gif", http.StatusNotFound},
	}
	for _, tc := range cases {
		resp, err := http.Get(srv.URL + tc.path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, tc.want, resp.StatusCode, tc.path)
	}
}
