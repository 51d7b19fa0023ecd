package media_controller

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/phosio/phosio/baas"
	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/config"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testMediaId = "0f8fad5b-d9cb-469f-a165-70867728950e"

type ControllerTestSuite struct {
	suite.Suite
	server  *httptest.Server
	handler http.HandlerFunc
	ctx     rcontext.RequestContext

	lock    sync.Mutex
	objects map[string][]byte
	patches []map[string]interface{}
	inserts []map[string]interface{}
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}

func (s *ControllerTestSuite) SetupTest() {
	s.objects = make(map[string][]byte)
	s.patches = make([]map[string]interface{}, 0)
	s.inserts = make([]map[string]interface{}, 0)
	s.handler = s.fakeBackend
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handler(w, r)
	}))
	s.ctx = rcontext.ForTesting(config.NewTestConfig(s.server.URL))
}

func (s *ControllerTestSuite) TearDownTest() {
	s.server.Close()
	baas.ResetBreakers()
}

func writeJson(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// fakeBackend answers the rest and storage calls made by an upload.
func (s *ControllerTestSuite) fakeBackend(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	switch {
	case r.URL.Path == "/rest/v1/media" && r.Method == http.MethodPost:
		row := make(map[string]interface{})
		_ = json.NewDecoder(r.Body).Decode(&row)
		s.inserts = append(s.inserts, row)
		writeJson(w, http.StatusCreated, []map[string]string{{"id": testMediaId}})
	case r.URL.Path == "/rest/v1/media" && r.Method == http.MethodGet:
		writeJson(w, http.StatusOK, []map[string]interface{}{{"id": testMediaId, "metadata": map[string]string{"source": "web"}}})
	case r.URL.Path == "/rest/v1/media" && r.Method == http.MethodPatch:
		patch := make(map[string]interface{})
		_ = json.NewDecoder(r.Body).Decode(&patch)
		s.patches = append(s.patches, patch)
		w.WriteHeader(http.StatusNoContent)
	case strings.HasPrefix(r.URL.Path, "/storage/v1/object/") && r.Method == http.MethodPost:
		b, _ := io.ReadAll(r.Body)
		s.objects[strings.TrimPrefix(r.URL.Path, "/storage/v1/object/")] = b
		writeJson(w, http.StatusOK, map[string]string{"Key": r.URL.Path})
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func memoryFile(name string, contentType string, content []byte) *UploadFile {
	return &UploadFile{
		Filename:    name,
		ContentType: contentType,
		SizeBytes:   int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

func makePng(t *testing.T, w int, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func (s *ControllerTestSuite) TestUpload() {
	t := s.T()
	photo := makePng(t, 640, 480)
	req := &UploadRequest{
		Title:       "  Summer trip ",
		Description: "",
		MediaType:   "photo",
		TagsCsv:     "Beach Day, family",
		Files: []*UploadFile{
			memoryFile("my photo.png", "image/png", photo),
			memoryFile("dir/my photo.png", "", photo),
		},
	}

	id, err := Upload(s.ctx, "tok", "u1", req)
	require.NoError(t, err)
	assert.Equal(t, testMediaId, id)

	require.Len(t, s.inserts, 1)
	assert.Equal(t, "Summer trip", s.inserts[0]["title"])
	assert.Nil(t, s.inserts[0]["description"])
	assert.Equal(t, "file", s.inserts[0]["source_type"])
	assert.Equal(t, []interface{}{"beach-day", "family"}, s.inserts[0]["tags"])

	assert.Equal(t, photo, s.objects["media/u1/"+testMediaId+"/my_photo.png"])
	assert.Equal(t, photo, s.objects["media/u1/"+testMediaId+"/my_photo (2).png"])
	assert.Contains(t, s.objects, "media/thumbnails/u1/"+testMediaId+"/w320.jpg")

	require.Len(t, s.patches, 1)
	patch := s.patches[0]
	assert.Equal(t, "u1/"+testMediaId+"/my_photo.png", patch["storage_object_path"])
	assert.Equal(t, "image/png", patch["mime_type"])
	assert.Equal(t, float64(len(photo)), patch["size_bytes"])
	assert.Len(t, patch["checksum_sha256"], 64)
	assert.Equal(t, s.server.URL+"/storage/v1/object/public/media/thumbnails/u1/"+testMediaId+"/w320.jpg", patch["thumbnail_url"])

	metadata := patch["metadata"].(map[string]interface{})
	assert.Equal(t, "web", metadata["source"])
	files := metadata["files"].([]interface{})
	require.Len(t, files, 2)
	second := files[1].(map[string]interface{})
	assert.Equal(t, "dir/my photo.png", second["original_filename"])
	assert.Equal(t, "image/png", second["mime_type"])
	thumb := metadata["thumbnail"].(map[string]interface{})
	assert.Equal(t, float64(320), thumb["width"])
	assert.Equal(t, float64(240), thumb["height"])
}

func (s *ControllerTestSuite) TestUpload_ValidatesBeforeInsert() {
	t := s.T()
	cases := []struct {
		req    *UploadRequest
		status int
	}{
		{&UploadRequest{Title: "x", MediaType: "photo", Files: []*UploadFile{memoryFile("a.png", "image/png", []byte("x"))}}, 400},
		{&UploadRequest{Title: "Trip", MediaType: "photo"}, 400},
		{&UploadRequest{Title: "Trip", MediaType: "photo", Files: []*UploadFile{memoryFile("a.png", "image/png", []byte{})}}, 400},
		{&UploadRequest{Title: "Trip", MediaType: "photo", Files: []*UploadFile{memoryFile("a.txt", "text/plain", []byte("hello"))}}, 400},
	}
	for i, c := range cases {
		_, err := Upload(s.ctx, "tok", "u1", c.req)
		var uploadErr *UploadError
		require.ErrorAs(t, err, &uploadErr, "case %d", i)
		assert.Equal(t, c.status, uploadErr.StatusCode, "case %d", i)
	}

	s.ctx.Config.Uploads.MaxSizeBytes = 2
	_, err := Upload(s.ctx, "tok", "u1", &UploadRequest{Title: "Trip", MediaType: "photo", Files: []*UploadFile{memoryFile("a.png", "image/png", []byte("abc"))}})
	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, http.StatusRequestEntityTooLarge, uploadErr.StatusCode)
	assert.ErrorIs(t, err, common.ErrMediaTooLarge)

	assert.Empty(t, s.inserts)
	assert.Empty(t, s.objects)
}

func (s *ControllerTestSuite) TestUpload_SniffsMissingType() {
	t := s.T()
	photo := makePng(t, 4, 4)
	s.ctx.Config.Thumbnails.Enabled = false
	_, err := Upload(s.ctx, "tok", "u1", &UploadRequest{Title: "Trip", MediaType: "photo", Files: []*UploadFile{memoryFile("a", "application/octet-stream", photo)}})
	require.NoError(t, err)
	require.Len(t, s.patches, 1)
	assert.Equal(t, "image/png", s.patches[0]["mime_type"])
	assert.Nil(t, s.patches[0]["thumbnail_url"])
}

func (s *ControllerTestSuite) TestUpload_RequiresSession() {
	_, err := Upload(s.ctx, "", "", &UploadRequest{})
	assert.ErrorIs(s.T(), err, common.ErrAuthInvalid)
}

func (s *ControllerTestSuite) TestUpload_StorageFailure() {
	t := s.T()
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/storage/") {
			writeJson(w, http.StatusInternalServerError, map[string]string{"message": "disk full"})
			return
		}
		s.fakeBackend(w, r)
	}
	_, err := Upload(s.ctx, "tok", "u1", &UploadRequest{Title: "Trip", MediaType: "audio", Files: []*UploadFile{memoryFile("a.mp3", "audio/mpeg", []byte("ID3"))}})
	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, http.StatusBadGateway, uploadErr.StatusCode)
	assert.Empty(t, s.patches)
}

func (s *ControllerTestSuite) TestList() {
	t := s.T()
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12", r.URL.Query().Get("offset"))
		w.Header().Set("Content-Range", "12-12/13")
		writeJson(w, http.StatusOK, []map[string]interface{}{{"id": testMediaId, "thumbnail_url": "http://kong:8000/storage/v1/object/public/media/t.jpg"}})
	}
	s.ctx.Config.Backend.PublicUrl = "https://media.example.org"

	res, err := List(s.ctx, "tok", MediaQuery{Page: 2, PageSize: 12, Tags: []string{}})
	require.NoError(t, err)
	assert.Equal(t, int64(13), res.Total)
	assert.Equal(t, 2, res.PageCount)
	assert.True(t, res.HasPrev)
	assert.False(t, res.HasNext)
	require.Len(t, res.Items, 1)
	assert.True(t, strings.HasPrefix(*res.Items[0].ThumbnailUrl, "https://media.example.org/"))
}

func (s *ControllerTestSuite) TestList_OutOfRange() {
	t := s.T()
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, http.StatusRequestedRangeNotSatisfiable, map[string]string{"code": "PGRST103", "message": "Requested range not satisfiable"})
	}
	res, err := List(s.ctx, "tok", MediaQuery{Page: 50, PageSize: 24, Tags: []string{}})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.True(t, res.HasPrev)
	assert.False(t, res.HasNext)
}

func (s *ControllerTestSuite) TestDetail() {
	t := s.T()
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/v1/media":
			writeJson(w, http.StatusOK, []map[string]interface{}{{
				"id":                  testMediaId,
				"title":               "Trip",
				"storage_bucket":      "media",
				"storage_object_path": "u1/" + testMediaId + "/a.jpg",
				"size_bytes":          2048,
				"metadata":            map[string]interface{}{"files": []interface{}{map[string]string{"path": "a"}, map[string]string{"path": "b"}}},
			}})
		default:
			writeJson(w, http.StatusOK, map[string]string{"signedURL": "/object/sign/media/a.jpg?token=t"})
		}
	}

	detail, err := Detail(s.ctx, "tok", "u1", testMediaId)
	require.NoError(t, err)
	assert.Equal(t, "2.0 KiB", detail.SizeHuman)
	assert.Equal(t, 2, detail.FileCount)
	assert.Equal(t, s.server.URL+"/storage/v1/object/sign/media/a.jpg?token=t", detail.SignedUrl)

	_, err = Detail(s.ctx, "tok", "u1", "not-an-id")
	assert.ErrorIs(t, err, common.ErrInvalidId)
}

func (s *ControllerTestSuite) TestDetail_NoPrimaryFile() {
	t := s.T()
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/media", r.URL.Path)
		writeJson(w, http.StatusOK, []map[string]interface{}{{"id": testMediaId, "title": "Trip"}})
	}
	detail, err := Detail(s.ctx, "tok", "u1", testMediaId)
	require.NoError(t, err)
	assert.Equal(t, "", detail.SignedUrl)
	assert.Equal(t, "-", detail.SizeHuman)
	assert.Equal(t, 0, detail.FileCount)
}
