package readers

import (
	"io"
	"strings"
	"testing"

	"github.com/phosio/phosio/common"
	"github.com/stretchr/testify/assert"
)

func TestLimitReaderWithOverrunError(t *testing.T) {
	b, err := io.ReadAll(LimitReaderWithOverrunError(strings.NewReader("hello"), 5))
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	_, err = io.ReadAll(LimitReaderWithOverrunError(strings.NewReader("hello!"), 5))
	assert.ErrorIs(t, err, common.ErrMediaTooLarge)
}

func TestHashingReader(t *testing.T) {
	h := NewHashingReader(strings.NewReader("abc"))
	b, err := io.ReadAll(h)
	assert.NoError(t, err)
	assert.Equal(t, "abc", string(b))
	assert.Equal(t, int64(3), h.BytesRead())
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", h.Sha256Hex())
}
