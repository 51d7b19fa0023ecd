package baas

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/util"
)

const mediaResource = "media"

// ManifestColumns are the columns an export needs.
const ManifestColumns = "id,title,metadata,storage_bucket,storage_object_path,mime_type,original_filename,size_bytes"

// ListColumns are the columns rendered by the catalog.
const ListColumns = "id,title,media_type,thumbnail_url,created_at,tags"

// DetailColumns are the columns rendered by the detail page.
const DetailColumns = "id,title,description,media_type,created_at,tags,metadata,storage_bucket,storage_object_path,mime_type,original_filename,size_bytes,thumbnail_url"

// PostgREST reports a range past the end of the result with this code.
const codeRangeNotSatisfiable = "PGRST103"

type MediaRow struct {
	Id                string          `json:"id"`
	Title             *string         `json:"title,omitempty"`
	Description       *string         `json:"description,omitempty"`
	MediaType         string          `json:"media_type,omitempty"`
	CreatedAt         string          `json:"created_at,omitempty"`
	Tags              json.RawMessage `json:"tags,omitempty"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
	StorageBucket     *string         `json:"storage_bucket,omitempty"`
	StorageObjectPath *string         `json:"storage_object_path,omitempty"`
	MimeType          *string         `json:"mime_type,omitempty"`
	OriginalFilename  *string         `json:"original_filename,omitempty"`
	SizeBytes         *int64          `json:"size_bytes,omitempty"`
	ThumbnailUrl      *string         `json:"thumbnail_url,omitempty"`
}

// TagList decodes the jsonb tags column, ignoring anything that is not a
// list of strings.
func (r *MediaRow) TagList() []string {
	tags := make([]string, 0)
	if len(r.Tags) == 0 {
		return tags
	}
	raw := make([]interface{}, 0)
	if err := json.Unmarshal(r.Tags, &raw); err != nil {
		return tags
	}
	for _, t := range raw {
		if s, ok := t.(string); ok {
			tags = append(tags, s)
		}
	}
	return tags
}

type ListMediaOptions struct {
	TitleContains string
	Tags          []string
	From          int
	To            int
}

type ListMediaResult struct {
	Rows       []*MediaRow
	Total      int64
	OutOfRange bool
}

func restUrl(ctx rcontext.RequestContext, query url.Values) string {
	u := util.MakeUrl(ctx.Config.Backend.Url, "/rest/v1", mediaResource)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// GetMedia fetches one row by id. A missing (or invisible) row is
// common.ErrMediaNotFound.
func GetMedia(ctx rcontext.RequestContext, accessToken string, id string, columns string) (*MediaRow, error) {
	query := url.Values{}
	query.Set("id", "eq."+id)
	query.Set("select", columns)
	query.Set("limit", "1")

	rows := make([]*MediaRow, 0)
	_, err := doBreakerRequest(ctx, ServiceRest, &request{
		method:      http.MethodGet,
		url:         restUrl(ctx, query),
		accessToken: accessToken,
	}, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0] == nil {
		return nil, common.ErrMediaNotFound
	}
	return rows[0], nil
}

// GetMediaMetadata returns the metadata object of a row, or an empty map.
func GetMediaMetadata(ctx rcontext.RequestContext, accessToken string, id string) (map[string]interface{}, error) {
	row, err := GetMedia(ctx, accessToken, id, "metadata")
	if err != nil {
		return nil, err
	}
	metadata := make(map[string]interface{})
	if len(row.Metadata) > 0 {
		if err = json.Unmarshal(row.Metadata, &metadata); err != nil || metadata == nil {
			metadata = make(map[string]interface{})
		}
	}
	return metadata, nil
}

// ListMedia runs the catalog query with an exact count, newest first.
func ListMedia(ctx rcontext.RequestContext, accessToken string, opts ListMediaOptions) (*ListMediaResult, error) {
	query := url.Values{}
	query.Set("select", ListColumns)
	query.Set("order", "created_at.desc")
	query.Set("offset", strconv.Itoa(opts.From))
	query.Set("limit", strconv.Itoa(opts.To-opts.From+1))
	if opts.TitleContains != "" {
		query.Set("title", "ilike.%"+opts.TitleContains+"%")
	}
	if len(opts.Tags) > 0 {
		b, err := json.Marshal(opts.Tags)
		if err != nil {
			return nil, err
		}
		query.Set("tags", "cs."+string(b))
	}

	rows := make([]*MediaRow, 0)
	headers, err := doBreakerRequest(ctx, ServiceRest, &request{
		method:      http.MethodGet,
		url:         restUrl(ctx, query),
		accessToken: accessToken,
		headers:     map[string]string{"Prefer": "count=exact"},
	}, &rows)
	if err != nil {
		var httpErr *ErrorResponse
		if errors.As(err, &httpErr) && httpErr.Code == codeRangeNotSatisfiable {
			return &ListMediaResult{Rows: []*MediaRow{}, Total: 0, OutOfRange: true}, nil
		}
		return nil, err
	}

	total := int64(len(rows))
	if headers != nil {
		if t, ok := parseContentRangeTotal(headers.Get("Content-Range")); ok {
			total = t
		}
	}
	return &ListMediaResult{Rows: rows, Total: total}, nil
}

// parseContentRangeTotal reads the total out of "0-23/57" or "*/0".
func parseContentRangeTotal(header string) (int64, bool) {
	idx := strings.LastIndex(header, "/")
	if idx < 0 {
		return 0, false
	}
	totalStr := strings.TrimSpace(header[idx+1:])
	if totalStr == "*" || totalStr == "" {
		return 0, false
	}
	total, err := strconv.ParseInt(totalStr, 10, 64)
	if err != nil || total < 0 {
		return 0, false
	}
	return total, true
}

// InsertMedia creates a row and returns its id.
func InsertMedia(ctx rcontext.RequestContext, accessToken string, row map[string]interface{}) (string, error) {
	created := make([]*MediaRow, 0)
	_, err := doBreakerRequest(ctx, ServiceRest, &request{
		method:      http.MethodPost,
		url:         restUrl(ctx, nil),
		body:        row,
		accessToken: accessToken,
		headers:     map[string]string{"Prefer": "return=representation"},
	}, &created)
	if err != nil {
		return "", err
	}
	if len(created) == 0 || created[0] == nil || created[0].Id == "" {
		return "", common.NewBackendError(ServiceRest, http.StatusOK, "insert response without id")
	}
	return created[0].Id, nil
}

// UpdateMedia patches the row with the given id.
func UpdateMedia(ctx rcontext.RequestContext, accessToken string, id string, patch map[string]interface{}) error {
	query := url.Values{}
	query.Set("id", "eq."+id)
	_, err := doBreakerRequest(ctx, ServiceRest, &request{
		method:      http.MethodPatch,
		url:         restUrl(ctx, query),
		body:        patch,
		accessToken: accessToken,
		headers:     map[string]string{"Prefer": "return=minimal"},
	}, nil)
	return err
}
