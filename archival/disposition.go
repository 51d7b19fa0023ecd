package archival

import (
	"net/http"
	"strings"

	"github.com/alioygur/is"
	"github.com/phosio/phosio/util"
)

const ContentType = "application/zip"

// ContentDisposition builds an attachment header carrying both a plain ASCII
// filename and the RFC 5987 UTF-8 variant of baseName + ".zip".
func ContentDisposition(baseName string) string {
	ascii := asciiFallback(baseName)
	return `attachment; filename="` + ascii + `.zip"; filename*=UTF-8''` + util.EncodeURIComponent(baseName+".zip")
}

func unsafeHeaderRune(r rune) bool {
	return r < 0x20 || r > 0x7e || r == '"' || r == '\\'
}

func asciiFallback(baseName string) string {
	s := baseName
	if !is.ASCII(s) || strings.IndexFunc(s, unsafeHeaderRune) >= 0 {
		s = strings.Map(func(r rune) rune {
			if unsafeHeaderRune(r) {
				return -1
			}
			return r
		}, s)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultBaseName
	}
	return s
}

// SetHeaders writes the archive response headers. The completion trailer is
// announced here because trailers must be declared before the body starts.
func SetHeaders(h http.Header, baseName string) {
	h.Set("Content-Type", ContentType)
	h.Set("Cache-Control", "no-store")
	h.Set("Content-Disposition", ContentDisposition(baseName))
	h.Set("X-Content-Type-Options", "nosniff")
	h.Add("Trailer", TrailerName)
}
