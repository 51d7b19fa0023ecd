package baas

import (
	"net/url"
	"strings"

	"github.com/phosio/phosio/util"
)

const storagePrefix = "/storage/v1"

// EncodeObjectPath escapes every segment of an object path and keeps the
// separating slashes.
func EncodeObjectPath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = util.EncodeURIComponent(s)
	}
	return strings.Join(segments, "/")
}

// NormalizeSignedURL resolves a signed URL returned by the storage service
// against base. Absolute URLs keep their path and query but take base's
// scheme and host; relative ones are placed under /storage/v1.
func NormalizeSignedURL(base string, signed string) string {
	base = strings.TrimRight(base, "/")

	if strings.HasPrefix(signed, "http://") || strings.HasPrefix(signed, "https://") {
		return rewriteHost(signed, base)
	}

	if strings.HasPrefix(signed, storagePrefix+"/") {
		return base + signed
	}
	if strings.HasPrefix(signed, "/") {
		return base + storagePrefix + signed
	}
	return base + storagePrefix + "/" + signed
}

// PublicObjectUrl is the unauthenticated URL of an object in a public bucket.
func PublicObjectUrl(base string, bucket string, path string) string {
	return strings.TrimRight(base, "/") + storagePrefix + "/object/public/" + util.EncodeURIComponent(bucket) + "/" + EncodeObjectPath(path)
}

// NormalizeBrowserUrl places a stored URL (thumbnail links and the like)
// under base so a browser can reach it. Blank input stays blank.
func NormalizeBrowserUrl(base string, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	base = strings.TrimRight(base, "/")

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return rewriteHost(raw, base)
	}
	if strings.HasPrefix(raw, "/") {
		return base + raw
	}
	return base + "/" + raw
}

func rewriteHost(raw string, base string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	b, err := url.Parse(base)
	if err != nil {
		return raw
	}
	u.Scheme = b.Scheme
	u.Host = b.Host
	return u.String()
}
