package media_controller

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	DefaultPageSize = 24
	MinPageSize     = 12
	MaxPageSize     = 48

	maxQueryLength   = 200
	maxTagsLength    = 400
	maxLegacyTagLen  = 80
	maxTagLength     = 50
	maxTagsPerFilter = 20
)

type MediaQuery struct {
	Q        *string
	Tags     []string
	Page     int
	PageSize int
}

func defaultQuery() MediaQuery {
	return MediaQuery{Q: nil, Tags: []string{}, Page: 1, PageSize: DefaultPageSize}
}

// ParseMediaQuery reads the catalog filters from the query string. Any
// parameter out of bounds discards all of them in favour of the defaults.
func ParseMediaQuery(values url.Values) MediaQuery {
	q, qOk := optionalString(values, "q", maxQueryLength)
	tags, tagsOk := optionalString(values, "tags", maxTagsLength)
	tag, tagOk := optionalString(values, "tag", maxLegacyTagLen)
	page, pageOk := optionalPositiveInt(values, "page", 0)
	pageSize, pageSizeOk := optionalPositiveInt(values, "pageSize", MaxPageSize)
	if !qOk || !tagsOk || !tagOk || !pageOk || !pageSizeOk {
		return defaultQuery()
	}

	res := defaultQuery()
	if trimmed := strings.TrimSpace(q); trimmed != "" {
		res.Q = &trimmed
	}

	seen := make(map[string]bool)
	for _, t := range append(splitTags(tags), splitTags(tag)...) {
		if seen[t] {
			continue
		}
		seen[t] = true
		res.Tags = append(res.Tags, t)
		if len(res.Tags) == maxTagsPerFilter {
			break
		}
	}

	if page > 0 {
		res.Page = page
	}
	if pageSize > 0 {
		res.PageSize = pageSize
		if res.PageSize < MinPageSize {
			res.PageSize = MinPageSize
		}
	}
	return res
}

// ToRange converts a 1-based page into inclusive row offsets.
func ToRange(page int, pageSize int) (int, int) {
	from := (page - 1) * pageSize
	to := from + pageSize - 1
	return from, to
}

func optionalString(values url.Values, name string, maxLen int) (string, bool) {
	if _, ok := values[name]; !ok {
		return "", true
	}
	v := values.Get(name)
	return v, utf8.RuneCountInString(v) <= maxLen
}

// optionalPositiveInt accepts anything that reads as a whole number above
// zero, not larger than max when max is set.
func optionalPositiveInt(values url.Values, name string, max int) (int, bool) {
	if _, ok := values[name]; !ok {
		return 0, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(values.Get(name)), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || f <= 0 {
		return 0, false
	}
	if max > 0 && f > float64(max) {
		return 0, false
	}
	if f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func splitTags(raw string) []string {
	tags := make([]string, 0)
	for _, t := range strings.Split(strings.TrimSpace(raw), ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if utf8.RuneCountInString(t) > maxTagLength {
			t = string([]rune(t)[:maxTagLength])
		}
		tags = append(tags, t)
	}
	return tags
}
