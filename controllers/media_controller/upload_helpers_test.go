package media_controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"summer-trip", "beach", "v1.2_x"}, NormalizeTags(" Summer   Trip, BEACH ,beach,, v1.2_x!, ☕"))
	assert.Empty(t, NormalizeTags(""))
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "a_b.jpg", SafeFilename("a  b.jpg"))
	assert.Equal(t, "passwd", SafeFilename("../../etc/passwd"))
	assert.Equal(t, "x.txt", SafeFilename(`C:\Users\me\x.txt`))
	assert.Equal(t, "file", SafeFilename(""))
	assert.Equal(t, "file", SafeFilename(".."))
	assert.Equal(t, "file", SafeFilename("dir/"))
}

func TestIsAllowedMime(t *testing.T) {
	allowed := []string{"image/*", "application/pdf"}
	assert.True(t, isAllowedMime("image/png", allowed))
	assert.True(t, isAllowedMime("IMAGE/JPEG; charset=binary", allowed))
	assert.True(t, isAllowedMime("application/pdf", allowed))
	assert.False(t, isAllowedMime("video/mp4", allowed))
	assert.False(t, isAllowedMime("", allowed))
	assert.False(t, isAllowedMime("imagex/png", allowed))
}

func TestValidateFields(t *testing.T) {
	assert.Nil(t, ValidateFields(&UploadRequest{Title: "Trip", MediaType: "photo"}))

	err := ValidateFields(&UploadRequest{Title: " ab ", MediaType: "document"})
	assert.NotNil(t, err)
	assert.Equal(t, 400, err.StatusCode)
	assert.Contains(t, err.FieldErrors, "title")
	assert.Contains(t, err.FieldErrors, "mediaType")
}
