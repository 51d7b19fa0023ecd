package archival

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type FileRef struct {
	Bucket           string
	Path             string
	OriginalFilename string
	MimeType         string
	SizeBytes        int64
}

type Manifest struct {
	MediaId string
	Title   string
	Files   []FileRef
}

// SignedTarget is a short-lived read URL for exactly one download.
type SignedTarget struct {
	URL       string
	ExpiresAt time.Time
}

// Record is the subset of a media row needed to build a manifest.
type Record struct {
	Id                string
	Title             string
	Metadata          json.RawMessage
	StorageBucket     string
	StorageObjectPath string
	OriginalFilename  string
	MimeType          string
	SizeBytes         int64
}

// NormalizeManifest prefers the metadata.files list and falls back to the
// single primary file of older rows. The result may have zero files.
func NormalizeManifest(rec Record, defaultBucket string) *Manifest {
	m := &Manifest{
		MediaId: rec.Id,
		Title:   rec.Title,
		Files:   make([]FileRef, 0),
	}

	bucket := strings.TrimSpace(rec.StorageBucket)
	if bucket == "" {
		bucket = defaultBucket
	}

	for i, f := range metadataFiles(rec.Metadata) {
		ref := FileRef{
			Bucket:           stringField(f, "bucket"),
			Path:             stringField(f, "path"),
			OriginalFilename: strings.TrimSpace(stringField(f, "original_filename")),
			MimeType:         stringField(f, "mime_type"),
			SizeBytes:        -1,
		}
		if ref.Bucket == "" {
			ref.Bucket = bucket
		}
		if ref.OriginalFilename == "" {
			ref.OriginalFilename = fmt.Sprintf("file-%03d", i+1)
		}
		if size, ok := f["size_bytes"].(float64); ok && size >= 0 {
			ref.SizeBytes = int64(size)
		}
		m.Files = append(m.Files, ref)
	}
	if len(m.Files) > 0 {
		return m
	}

	if rec.StorageObjectPath != "" {
		name := strings.TrimSpace(rec.OriginalFilename)
		if name == "" {
			name = rec.StorageObjectPath
		}
		size := rec.SizeBytes
		if size <= 0 {
			size = -1
		}
		m.Files = append(m.Files, FileRef{
			Bucket:           bucket,
			Path:             rec.StorageObjectPath,
			OriginalFilename: name,
			MimeType:         rec.MimeType,
			SizeBytes:        size,
		})
	}
	return m
}

// metadataFiles returns the objects of metadata.files that carry a string
// path. Anything of an unexpected shape is skipped.
func metadataFiles(raw json.RawMessage) []map[string]interface{} {
	files := make([]map[string]interface{}, 0)
	if len(raw) == 0 {
		return files
	}

	metadata := make(map[string]interface{})
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return files
	}
	list, ok := metadata["files"].([]interface{})
	if !ok {
		return files
	}
	for _, item := range list {
		f, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if stringField(f, "path") == "" {
			continue
		}
		files = append(files, f)
	}
	return files
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
