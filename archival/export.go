package archival

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"
	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/sirupsen/logrus"
)

// TrailerName is sent after the central directory of a complete archive.
const TrailerName = "X-Phosio-Export"

const copyBufferSize = 32 * 1024

type State int

const (
	StateInitializing State = iota
	StateStreaming
	StateFinalizing
	StateSuccess
	StateAborted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateSuccess:
		return "success"
	case StateAborted:
		return "aborted"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

func (s State) Terminal() bool {
	return s >= StateSuccess
}

// URLSigner issues a fresh read URL for one file.
type URLSigner interface {
	Sign(ctx rcontext.RequestContext, file FileRef, ttl time.Duration) (*SignedTarget, error)
}

// Fetcher opens the bytes behind a signed URL. The size is -1 when unknown.
type Fetcher interface {
	Fetch(ctx rcontext.RequestContext, target *SignedTarget) (io.ReadCloser, int64, error)
}

type Options struct {
	SignedUrlTtl     time.Duration
	CompressionLevel int
}

// Session streams one manifest as a ZIP archive into one response.
type Session struct {
	Id string

	ctx      rcontext.RequestContext
	cancel   context.CancelFunc
	manifest *Manifest
	baseName string
	signer   URLSigner
	fetcher  Fetcher
	opts     Options

	lock    sync.Mutex
	state   State
	current int
	entries int
	written int64
}

func NewSession(ctx rcontext.RequestContext, manifest *Manifest, signer URLSigner, fetcher Fetcher, opts Options) (*Session, error) {
	if manifest == nil || len(manifest.Files) == 0 {
		return nil, common.ErrNoFiles
	}
	if opts.SignedUrlTtl <= 0 {
		opts.SignedUrlTtl = 120 * time.Second
	}
	if opts.CompressionLevel < flate.HuffmanOnly || opts.CompressionLevel > flate.BestCompression {
		opts.CompressionLevel = flate.BestCompression
	}

	id := uuid.NewString()
	cancelCtx, cancel := context.WithCancel(ctx.Context)
	ctx = ctx.WithContext(cancelCtx).LogWithFields(logrus.Fields{
		"export_id": id,
		"media_id":  manifest.MediaId,
	})

	return &Session{
		Id:       id,
		ctx:      ctx,
		cancel:   cancel,
		manifest: manifest,
		baseName: ArchiveBaseName(manifest.Title, manifest.MediaId),
		signer:   signer,
		fetcher:  fetcher,
		opts:     opts,
		state:    StateInitializing,
	}, nil
}

func (s *Session) BaseName() string {
	return s.baseName
}

func (s *Session) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// Current is the index of the file being streamed.
func (s *Session) Current() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.current
}

func (s *Session) Entries() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.entries
}

// BytesWritten counts archive bytes delivered to the client.
func (s *Session) BytesWritten() int64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.written
}

// Abort cancels the in-flight download and stops the producer.
func (s *Session) Abort() {
	s.cancel()
}

func (s *Session) setState(state State) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.state.Terminal() {
		return
	}
	s.state = state
}

func (s *Session) setStreaming(index int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.state.Terminal() {
		return
	}
	s.state = StateStreaming
	s.current = index
}

// WriteTo sends the headers and streams the archive into w. It returns nil
// on success, common.ErrClientAbort when the client went away and a
// *common.StreamFailure when an entry could not be produced. In the last
// two cases the response is already committed and must not be completed.
func (s *Session) WriteTo(w http.ResponseWriter) error {
	defer s.cancel()

	SetHeaders(w.Header(), s.baseName)
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)
	_ = rc.Flush()

	pr, pw := io.Pipe()
	produced := make(chan error, 1)
	go func() {
		produced <- s.produce(pw)
	}()

	writeFailed := false
	buf := make([]byte, copyBufferSize)
	for {
		n, readErr := pr.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				writeFailed = true
				s.ctx.Log.Debug("Client stopped reading the archive: ", err)
				s.cancel()
				_ = pr.CloseWithError(common.ErrClientAbort)
				break
			}
			_ = rc.Flush()
			s.lock.Lock()
			s.written += int64(n)
			s.lock.Unlock()
		}
		if readErr != nil {
			break
		}
	}
	prodErr := <-produced

	if writeFailed || s.ctx.Err() != nil {
		s.setState(StateAborted)
		s.ctx.Log.Debugf("Export aborted after %d entries", s.Entries())
		return common.ErrClientAbort
	}
	if prodErr != nil {
		s.setState(StateFailed)
		var failure *common.StreamFailure
		if !errors.As(prodErr, &failure) {
			failure = &common.StreamFailure{Entry: "", Err: prodErr}
		}
		return failure
	}

	w.Header().Set(TrailerName, fmt.Sprintf("complete; entries=%d", s.Entries()))
	s.setState(StateSuccess)
	s.ctx.Log.Infof("Export complete: %d entries, %s", s.Entries(), humanize.Bytes(uint64(s.BytesWritten())))
	return nil
}

func (s *Session) produce(pw *io.PipeWriter) error {
	zw := zip.NewWriter(pw)
	level := s.opts.CompressionLevel
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	namer := NewEntryNamer()
	for i, file := range s.manifest.Files {
		// stop before asking for another signed URL
		if err := s.ctx.Err(); err != nil {
			_ = pw.CloseWithError(err)
			return err
		}
		s.setStreaming(i)

		name := namer.Next(file.OriginalFilename)
		if err := s.appendFile(zw, file, name); err != nil {
			failure := &common.StreamFailure{Entry: name, Err: err}
			_ = pw.CloseWithError(failure)
			return failure
		}

		s.lock.Lock()
		s.entries++
		s.lock.Unlock()
	}

	s.setState(StateFinalizing)
	if err := zw.Close(); err != nil {
		failure := &common.StreamFailure{Entry: "", Err: err}
		_ = pw.CloseWithError(failure)
		return failure
	}
	return pw.Close()
}

func (s *Session) appendFile(zw *zip.Writer, file FileRef, name string) error {
	log := s.ctx.Log.WithFields(logrus.Fields{
		"entry":  name,
		"bucket": file.Bucket,
	})

	target, err := s.signer.Sign(s.ctx, file, s.opts.SignedUrlTtl)
	if err != nil {
		return err
	}

	body, length, err := s.fetcher.Fetch(s.ctx, target)
	if err != nil {
		return err
	}
	defer body.Close()

	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now().UTC(),
	}
	entry, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	copied, err := io.CopyBuffer(entry, body, make([]byte, copyBufferSize))
	if err != nil {
		return err
	}

	if length < 0 {
		log.Warn("Upstream did not declare a content length")
	} else if copied != length {
		log.Warnf("Upstream declared %d bytes but sent %d", length, copied)
	}
	if file.SizeBytes >= 0 && copied != file.SizeBytes {
		log.Warnf("Manifest declares %d bytes but %d were streamed", file.SizeBytes, copied)
	}
	log.Debugf("Appended %s", humanize.Bytes(uint64(copied)))
	return nil
}
