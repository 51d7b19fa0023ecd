package media_controller

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/phosio/phosio/archival"
	"github.com/phosio/phosio/baas"
	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/metrics"
	"github.com/phosio/phosio/thumbnailing"
	"github.com/phosio/phosio/util/readers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var MediaTypes = []string{"photo", "video", "audio"}

var whitespaceRegex = regexp.MustCompile(`\s+`)
var tagRejectRegex = regexp.MustCompile(`[^a-z0-9\-_.]`)

// UploadFile is one file of an upload form. Open may be called more than once.
type UploadFile struct {
	Filename    string
	ContentType string
	SizeBytes   int64
	Open        func() (io.ReadCloser, error)
}

type UploadRequest struct {
	Title       string
	Description string
	MediaType   string
	TagsCsv     string
	Files       []*UploadFile
}

// UploadError is a failure the form can show back to the user.
type UploadError struct {
	StatusCode  int
	FormError   string
	FieldErrors map[string]string
	Err         error
}

func (e *UploadError) Error() string {
	if e.FormError != "" {
		return e.FormError
	}
	return fmt.Sprintf("invalid fields: %v", e.FieldErrors)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

func formError(statusCode int, message string, err error) *UploadError {
	return &UploadError{StatusCode: statusCode, FormError: message, Err: err}
}

type uploadedFile struct {
	Bucket           string `json:"bucket"`
	Path             string `json:"path"`
	OriginalFilename string `json:"original_filename"`
	MimeType         string `json:"mime_type"`
	SizeBytes        int64  `json:"size_bytes"`
	ChecksumSha256   string `json:"checksum_sha256"`
	UploadedAt       string `json:"uploaded_at"`
}

type thumbnailInfo struct {
	Bucket      string `json:"bucket"`
	ObjectPath  string `json:"objectPath"`
	PublicUrl   string `json:"publicUrl"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	MimeType    string `json:"mime_type"`
	Variant     string `json:"variant"`
	GeneratedAt string `json:"generated_at"`
}

// ValidateFields checks the form fields that do not involve files.
func ValidateFields(req *UploadRequest) *UploadError {
	fieldErrors := make(map[string]string)
	if len([]rune(strings.TrimSpace(req.Title))) < 3 {
		fieldErrors["title"] = "Title must have at least 3 characters."
	}
	validType := false
	for _, t := range MediaTypes {
		if req.MediaType == t {
			validType = true
		}
	}
	if !validType {
		fieldErrors["mediaType"] = "Invalid type."
	}
	if len(fieldErrors) > 0 {
		return &UploadError{StatusCode: http.StatusBadRequest, FieldErrors: fieldErrors}
	}
	return nil
}

// NormalizeTags lowercases the comma separated tags, joins words with "-"
// and keeps only [a-z0-9-_.].
func NormalizeTags(csv string) []string {
	tags := make([]string, 0)
	seen := make(map[string]bool)
	for _, t := range strings.Split(csv, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		t = whitespaceRegex.ReplaceAllString(t, "-")
		t = tagRejectRegex.ReplaceAllString(t, "")
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}

// SafeFilename keeps the last path element of name with whitespace runs
// replaced by "_".
func SafeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = name[strings.LastIndex(name, "/")+1:]
	name = strings.TrimSpace(whitespaceRegex.ReplaceAllString(name, "_"))
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}

func isAllowedMime(mime string, allowed []string) bool {
	mime = strings.ToLower(strings.TrimSpace(strings.Split(mime, ";")[0]))
	if mime == "" {
		return false
	}
	for _, pattern := range allowed {
		pattern = strings.ToLower(pattern)
		if strings.HasSuffix(pattern, "/*") {
			if strings.HasPrefix(mime, strings.TrimSuffix(pattern, "*")) {
				return true
			}
		} else if mime == pattern {
			return true
		}
	}
	return false
}

// detectMime trusts the type declared by the client when it is acceptable
// and otherwise sniffs the content.
func detectMime(ctx rcontext.RequestContext, f *UploadFile) (string, error) {
	declared := strings.TrimSpace(strings.Split(f.ContentType, ";")[0])
	if isAllowedMime(declared, ctx.Config.Uploads.AllowedTypes) {
		return declared, nil
	}

	stream, err := f.Open()
	if err != nil {
		return "", err
	}
	defer stream.Close()
	detected, err := mimetype.DetectReader(stream)
	if err != nil {
		return "", err
	}
	sniffed := strings.Split(detected.String(), ";")[0]
	if isAllowedMime(sniffed, ctx.Config.Uploads.AllowedTypes) {
		ctx.Log.Debugf("Using sniffed type %s instead of declared %q", sniffed, declared)
		return sniffed, nil
	}
	if declared == "" {
		declared = "(empty)"
	}
	return "", formError(http.StatusBadRequest, "File type not allowed: "+declared, nil)
}

func validateFiles(ctx rcontext.RequestContext, files []*UploadFile) ([]string, *UploadError) {
	if len(files) == 0 {
		return nil, formError(http.StatusBadRequest, "Select at least one file to upload.", nil)
	}
	mimes := make([]string, len(files))
	for i, f := range files {
		name := f.Filename
		if name == "" {
			name = "(no name)"
		}
		if f.SizeBytes <= 0 {
			return nil, formError(http.StatusBadRequest, "Invalid file (zero size): "+name, nil)
		}
		if ctx.Config.Uploads.MaxSizeBytes > 0 && f.SizeBytes > ctx.Config.Uploads.MaxSizeBytes {
			return nil, formError(http.StatusRequestEntityTooLarge, "File is too large: "+name, common.ErrMediaTooLarge)
		}
		mime, err := detectMime(ctx, f)
		if err != nil {
			var uploadErr *UploadError
			if errors.As(err, &uploadErr) {
				return nil, uploadErr
			}
			return nil, formError(http.StatusBadRequest, "Could not read file: "+name, err)
		}
		mimes[i] = mime
	}
	return mimes, nil
}

// Upload creates a media row for the form and streams its files to storage.
// It returns the id of the new row.
func Upload(ctx rcontext.RequestContext, accessToken string, userId string, req *UploadRequest) (string, error) {
	if accessToken == "" || userId == "" {
		return "", formError(http.StatusUnauthorized, "Session expired. Please sign in again.", common.ErrAuthInvalid)
	}
	if err := ValidateFields(req); err != nil {
		return "", err
	}
	mimes, uploadErr := validateFiles(ctx, req.Files)
	if uploadErr != nil {
		return "", uploadErr
	}

	var description interface{}
	if d := strings.TrimSpace(req.Description); d != "" {
		description = d
	}
	id, err := baas.InsertMedia(ctx, accessToken, map[string]interface{}{
		"user_id":     userId,
		"title":       strings.TrimSpace(req.Title),
		"description": description,
		"media_type":  req.MediaType,
		"source_type": "file",
		"tags":        NormalizeTags(req.TagsCsv),
	})
	if err != nil {
		return "", err
	}
	ctx = ctx.LogWithFields(logrus.Fields{"mediaId": id})
	ctx.Log.Info("Created media record")

	metadata, err := baas.GetMediaMetadata(ctx, accessToken, id)
	if err != nil {
		ctx.Log.Debug("Could not load existing metadata: ", err)
		metadata = make(map[string]interface{})
	}

	bucket := ctx.Config.Storage.Bucket
	now := time.Now().UTC().Format(time.RFC3339Nano)
	namer := archival.NewEntryNamer()
	uploaded := make([]uploadedFile, 0, len(req.Files))
	for i, f := range req.Files {
		objectPath := userId + "/" + id + "/" + namer.Next(SafeFilename(f.Filename))
		checksum, size, err := uploadFile(ctx, accessToken, bucket, objectPath, mimes[i], f)
		if err != nil {
			metrics.Uploads.With(prometheus.Labels{"outcome": "failed"}).Inc()
			if errors.Is(err, common.ErrAuthInvalid) {
				return "", err
			}
			if errors.Is(err, common.ErrMediaTooLarge) {
				return "", formError(http.StatusRequestEntityTooLarge, "File is too large: "+f.Filename, err)
			}
			return "", formError(http.StatusBadGateway, "Upload to storage failed: "+err.Error(), err)
		}
		metrics.Uploads.With(prometheus.Labels{"outcome": "stored"}).Inc()
		metrics.UploadedBytes.Add(float64(size))

		originalName := f.Filename
		if originalName == "" {
			originalName = "file"
		}
		uploaded = append(uploaded, uploadedFile{
			Bucket:           bucket,
			Path:             objectPath,
			OriginalFilename: originalName,
			MimeType:         mimes[i],
			SizeBytes:        size,
			ChecksumSha256:   checksum,
			UploadedAt:       now,
		})
	}

	metadata["files"] = uploaded
	var thumbnailUrl interface{}
	if thumb := enrich(ctx, accessToken, userId, id, req.Files, mimes); thumb != nil {
		thumb.GeneratedAt = now
		metadata["thumbnail"] = thumb
		thumbnailUrl = thumb.PublicUrl
	}

	primary := uploaded[0]
	err = baas.UpdateMedia(ctx, accessToken, id, map[string]interface{}{
		"storage_bucket":      bucket,
		"storage_object_path": primary.Path,
		"directory_relpath":   userId + "/" + id,
		"file_path":           primary.Path,
		"original_filename":   primary.OriginalFilename,
		"mime_type":           primary.MimeType,
		"size_bytes":          primary.SizeBytes,
		"checksum_sha256":     primary.ChecksumSha256,
		"fs_created_at":       now,
		"fs_modified_at":      now,
		"uploaded_at":         now,
		"thumbnail_url":       thumbnailUrl,
		"metadata":            metadata,
	})
	if err != nil {
		return "", err
	}

	ctx.Log.Infof("Uploaded %d file(s)", len(uploaded))
	return id, nil
}

func uploadFile(ctx rcontext.RequestContext, accessToken string, bucket string, objectPath string, mime string, f *UploadFile) (string, int64, error) {
	stream, err := f.Open()
	if err != nil {
		return "", 0, err
	}
	defer stream.Close()

	var body io.Reader = stream
	if max := ctx.Config.Uploads.MaxSizeBytes; max > 0 {
		body = readers.LimitReaderWithOverrunError(body, max)
	}
	hashing := readers.NewHashingReader(body)
	if err = baas.UploadObject(ctx, accessToken, bucket, objectPath, mime, hashing, false); err != nil {
		return "", 0, err
	}
	return hashing.Sha256Hex(), hashing.BytesRead(), nil
}

// enrich adds a thumbnail of the first image. Thumbnails are optional, so
// every failure here is logged and swallowed.
func enrich(ctx rcontext.RequestContext, accessToken string, userId string, id string, files []*UploadFile, mimes []string) *thumbnailInfo {
	for i, f := range files {
		if !strings.HasPrefix(mimes[i], "image/") {
			continue
		}

		stream, err := f.Open()
		if err != nil {
			ctx.Log.Warn("Error reopening image for thumbnail: ", err)
			return nil
		}
		thumb := thumbnailing.TryGenerate(ctx, stream, mimes[i], f.SizeBytes)
		_ = stream.Close()
		if thumb == nil {
			return nil
		}

		bucket := ctx.Config.Storage.ThumbnailBucket
		if bucket == "" {
			bucket = ctx.Config.Storage.Bucket
		}
		objectPath := fmt.Sprintf("thumbnails/%s/%s/w%d.jpg", userId, id, ctx.Config.Thumbnails.Width)
		err = baas.UploadObject(ctx, accessToken, bucket, objectPath, thumb.ContentType, bytes.NewReader(thumb.Data), true)
		if err != nil {
			ctx.Log.Warn("Error storing thumbnail: ", err)
			return nil
		}

		return &thumbnailInfo{
			Bucket:     bucket,
			ObjectPath: objectPath,
			PublicUrl:  baas.PublicObjectUrl(ctx.Config.PublicBackendUrl(), bucket, objectPath),
			Width:      thumb.Width,
			Height:     thumb.Height,
			MimeType:   thumb.ContentType,
			Variant:    fmt.Sprintf("w%d-jpeg", ctx.Config.Thumbnails.Width),
		}
	}
	return nil
}
