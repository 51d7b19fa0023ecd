package readers

import (
	"io"

	"github.com/phosio/phosio/common"
)

// LimitReaderWithOverrunError reads at most n bytes from r and fails with
// common.ErrMediaTooLarge if r holds more than that.
func LimitReaderWithOverrunError(r io.Reader, n int64) io.Reader {
	return &limitedReader{r: r, n: n}
}

type limitedReader struct {
	r io.Reader
	n int64
}

func (r *limitedReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.n <= 0 {
		// See if we can read one more byte, indicating the stream is too big
		b := make([]byte, 1)
		n, err := r.r.Read(b)
		if n > 0 {
			return 0, common.ErrMediaTooLarge
		}
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	if int64(len(p)) > r.n {
		p = p[:r.n]
	}
	n, err := r.r.Read(p)
	r.n -= int64(n)
	return n, err
}
