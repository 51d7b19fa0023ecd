package archival

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const maxBaseNameLength = 120
const defaultBaseName = "media"
const defaultEntryName = "file"

var forbiddenBaseChars = regexp.MustCompile(`[<>:"/\\|?*]+`)
var whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)
var volumePrefix = regexp.MustCompile(`^[A-Za-z]:`)
var hyphenRun = regexp.MustCompile(`-+`)

var reservedDeviceNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeBaseName turns a media title into something every common
// filesystem accepts as a file name (without extension). An empty result
// is returned as-is so callers can pick their own fallback.
func SanitizeBaseName(input string) string {
	s := strings.TrimSpace(norm.NFKC.String(input))
	s = stripControl(s)
	s = forbiddenBaseChars.ReplaceAllString(s, "-")
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = hyphenRun.ReplaceAllString(s, "-")
	s = strings.TrimFunc(s, func(r rune) bool {
		return r == '-' || r == '.' || unicode.IsSpace(r)
	})

	if reservedDeviceNames[strings.ToUpper(s)] {
		s = s + "-file"
	}
	if utf8.RuneCountInString(s) > maxBaseNameLength {
		s = string([]rune(s)[:maxBaseNameLength])
		s = strings.TrimRight(s, "-.")
	}
	return s
}

// ArchiveBaseName picks the outer download name: the sanitized title, the
// sanitized id when the title has nothing usable, and "media" otherwise.
func ArchiveBaseName(title string, id string) string {
	if s := SanitizeBaseName(title); s != "" {
		return s
	}
	if s := SanitizeBaseName(id); s != "" {
		return s
	}
	return defaultBaseName
}

// SanitizeEntryName produces a relative, traversal-free path for use inside
// the archive. Control characters go first so they cannot hide a ".."
// segment from the segment filter. Trailing dots and spaces are cut from
// every segment since Windows drops them on extraction.
func SanitizeEntryName(input string) string {
	s := stripControl(norm.NFKC.String(input))
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\\", "/")
	s = strings.TrimLeft(s, "/")
	s = volumePrefix.ReplaceAllString(s, "")
	s = strings.TrimLeft(s, "/")

	kept := make([]string, 0)
	for _, segment := range strings.Split(s, "/") {
		segment = strings.TrimRight(segment, ". ")
		if segment == "" || segment == "." || segment == ".." {
			continue
		}
		kept = append(kept, segment)
	}

	s = strings.Join(kept, "/")
	if s == "" {
		return defaultEntryName
	}
	return s
}

// EntryNamer hands out unique entry names for one archive. Duplicates get a
// " (n)" suffix ahead of the extension, in the order they are requested.
type EntryNamer struct {
	used map[string]bool
}

func NewEntryNamer() *EntryNamer {
	return &EntryNamer{used: make(map[string]bool)}
}

func (n *EntryNamer) Next(original string) string {
	name := SanitizeEntryName(original)
	if !n.claim(name) {
		dir, file := path.Split(name)
		ext := path.Ext(file)
		stem := strings.TrimSuffix(file, ext)
		if stem == "" {
			// dotfiles like ".env" have no stem to suffix
			stem, ext = file, ""
		}
		for i := 2; ; i++ {
			candidate := fmt.Sprintf("%s%s (%d)%s", dir, stem, i, ext)
			if n.claim(candidate) {
				name = candidate
				break
			}
		}
	}
	return name
}

func (n *EntryNamer) claim(name string) bool {
	key := strings.ToLower(name)
	if n.used[key] {
		return false
	}
	n.used[key] = true
	return true
}
