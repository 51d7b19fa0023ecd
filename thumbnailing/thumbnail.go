package thumbnailing

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/metrics"
	"github.com/prometheus/client_golang/prometheus"
	_ "golang.org/x/image/webp"
)

const ContentType = "image/jpeg"

var ErrUnsupported = errors.New("unsupported thumbnail type")
var ErrSourceTooLarge = errors.New("thumbnail source too large")

var supportedTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/webp",
}

type Thumbnail struct {
	Data        []byte
	Width       int
	Height      int
	ContentType string
}

func IsSupported(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for _, t := range supportedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// Generate decodes src (applying EXIF orientation) and scales it down to the
// configured width. Narrower images are never enlarged.
func Generate(ctx rcontext.RequestContext, src io.Reader, contentType string, sizeBytes int64) (*Thumbnail, error) {
	if !IsSupported(contentType) {
		return nil, ErrUnsupported
	}
	conf := ctx.Config.Thumbnails
	if sizeBytes <= 0 || (conf.MaxSourceBytes > 0 && sizeBytes > conf.MaxSourceBytes) {
		return nil, ErrSourceTooLarge
	}
	if conf.MaxSourceBytes > 0 {
		src = io.LimitReader(src, conf.MaxSourceBytes)
	}

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.New("error decoding thumbnail source: " + err.Error())
	}

	width := conf.Width
	if width <= 0 {
		width = 320
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	quality := conf.Quality
	if quality <= 0 || quality > 100 {
		quality = 78
	}
	buf := &bytes.Buffer{}
	if err = imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, errors.New("error encoding thumbnail: " + err.Error())
	}

	bounds := img.Bounds()
	return &Thumbnail{
		Data:        buf.Bytes(),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ContentType: ContentType,
	}, nil
}

// TryGenerate is Generate for callers that treat thumbnails as optional: any
// failure is logged and reported as nil.
func TryGenerate(ctx rcontext.RequestContext, src io.Reader, contentType string, sizeBytes int64) *Thumbnail {
	if !ctx.Config.Thumbnails.Enabled {
		return nil
	}
	thumb, err := Generate(ctx, src, contentType, sizeBytes)
	if err != nil {
		outcome := "failed"
		if errors.Is(err, ErrUnsupported) || errors.Is(err, ErrSourceTooLarge) {
			outcome = "skipped"
			ctx.Log.Debug("Not generating thumbnail: ", err)
		} else {
			ctx.Log.Warn("Error generating thumbnail: ", err)
		}
		metrics.ThumbnailsGenerated.With(prometheus.Labels{"outcome": outcome}).Inc()
		return nil
	}
	metrics.ThumbnailsGenerated.With(prometheus.Labels{"outcome": "generated"}).Inc()
	ctx.Log.Debugf("Generated %dx%d thumbnail", thumb.Width, thumb.Height)
	return thumb
}
