package securelink

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDownloadLinkMatchesNginxSecureLink(t *testing.T) {
	s := NewSigner("s3cret", "vod", "https://dl.example.com/files")

	link := s.DownloadLink("movie.mp4", 1700000000)

	sum := md5.Sum([]byte("1700000000vod/movie.mp4 s3cret"))
	token := base64.RawURLEncoding.EncodeToString(sum[:])
	expected := fmt.Sprintf("https://dl.example.com/files/movie.mp4?md5=%s&expires=1700000000", token)
	assert.Equal(t, expected, link)
}

func TestDownloadLinkEmptyFilename(t *testing.T) {
	s := NewSigner("s3cret", "vod/", "https://dl.example.com/")
	assert.Empty(t, s.DownloadLink("", 1700000000))
}

func TestDownloadLinkDiffersPerExpiry(t *testing.T) {
	s := NewSigner("s3cret", "vod/", "https://dl.example.com/")
	a := s.DownloadLink("movie.mp4", 1700000000)
	b := s.DownloadLink("movie.mp4", 1700000600)
	assert.NotEqual(t, a, b)
}
