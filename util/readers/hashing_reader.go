package readers

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// HashingReader computes the SHA-256 and length of everything read through it.
type HashingReader struct {
	r      io.Reader
	hasher hash.Hash
	count  int64
}

func NewHashingReader(r io.Reader) *HashingReader {
	return &HashingReader{r: r, hasher: sha256.New()}
}

func (h *HashingReader) Read(p []byte) (int, error) {
	n, err := h.r.Read(p)
	if n > 0 {
		h.hasher.Write(p[:n])
		h.count += int64(n)
	}
	return n, err
}

func (h *HashingReader) Sha256Hex() string {
	return hex.EncodeToString(h.hasher.Sum(nil))
}

func (h *HashingReader) BytesRead() int64 {
	return h.count
}
