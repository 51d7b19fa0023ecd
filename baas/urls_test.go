package baas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeObjectPath(t *testing.T) {
	assert.Equal(t, "user/media-id/caf%C3%A9%20%E2%98%95.jpg", EncodeObjectPath("user/media-id/café ☕.jpg"))
	assert.Equal(t, "a/b%3Fc/d", EncodeObjectPath("a/b?c/d"))
	assert.Equal(t, "plain.txt", EncodeObjectPath("plain.txt"))
}

func TestNormalizeSignedURL(t *testing.T) {
	base := "http://kong:8000/"

	cases := []struct {
		signed   string
		expected string
	}{
		{"/object/sign/media/a.jpg?token=x", "http://kong:8000/storage/v1/object/sign/media/a.jpg?token=x"},
		{"object/sign/media/a.jpg?token=x", "http://kong:8000/storage/v1/object/sign/media/a.jpg?token=x"},
		{"/storage/v1/object/sign/media/a.jpg?token=x", "http://kong:8000/storage/v1/object/sign/media/a.jpg?token=x"},
		{"https://public.example.com/storage/v1/object/sign/media/a.jpg?token=x", "http://kong:8000/storage/v1/object/sign/media/a.jpg?token=x"},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, NormalizeSignedURL(base, c.signed), c.signed)
	}
}

func TestNormalizeBrowserUrl(t *testing.T) {
	base := "https://photos.example.com"
	assert.Equal(t, "", NormalizeBrowserUrl(base, "   "))
	assert.Equal(t, "https://photos.example.com/storage/v1/object/public/media/t.jpg", NormalizeBrowserUrl(base, "http://kong:8000/storage/v1/object/public/media/t.jpg"))
	assert.Equal(t, "https://photos.example.com/x.jpg", NormalizeBrowserUrl(base, "/x.jpg"))
	assert.Equal(t, "https://photos.example.com/x.jpg", NormalizeBrowserUrl(base+"/", "x.jpg"))
}

func TestPublicObjectUrl(t *testing.T) {
	assert.Equal(t, "http://kong:8000/storage/v1/object/public/media/thumbnails/u/m/w320.jpg", PublicObjectUrl("http://kong:8000", "media", "thumbnails/u/m/w320.jpg"))
}

func TestParseContentRangeTotal(t *testing.T) {
	total, ok := parseContentRangeTotal("0-23/57")
	assert.True(t, ok)
	assert.Equal(t, int64(57), total)

	total, ok = parseContentRangeTotal("*/0")
	assert.True(t, ok)
	assert.Equal(t, int64(0), total)

	_, ok = parseContentRangeTotal("0-23/*")
	assert.False(t, ok)

	_, ok = parseContentRangeTotal("")
	assert.False(t, ok)
}
