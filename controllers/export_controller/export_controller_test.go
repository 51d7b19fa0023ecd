package export_controller

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phosio/phosio/archival"
	"github.com/phosio/phosio/baas"
	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/config"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMediaId = "0f8fad5b-d9cb-469f-a165-70867728950e"

func writeJson(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func testBackend(t *testing.T, handler http.HandlerFunc) rcontext.RequestContext {
	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		baas.ResetBreakers()
	})
	return rcontext.ForTesting(config.NewTestConfig(server.URL))
}

func TestIsValidMediaId(t *testing.T) {
	assert.True(t, IsValidMediaId(testMediaId))
	assert.True(t, IsValidMediaId(strings.ToUpper(testMediaId)))
	assert.False(t, IsValidMediaId("0f8fad5b-d9cb-669f-a165-70867728950e"))
	assert.False(t, IsValidMediaId("0f8fad5b-d9cb-469f-c165-70867728950e"))
	assert.False(t, IsValidMediaId("not-an-id"))
	assert.False(t, IsValidMediaId(""))
}

func TestResolveManifest(t *testing.T) {
	rows := []map[string]interface{}{}
	ctx := testBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, baas.ManifestColumns, r.URL.Query().Get("select"))
		writeJson(w, http.StatusOK, rows)
	})

	_, err := ResolveManifest(ctx, "tok", "nope")
	assert.ErrorIs(t, err, common.ErrInvalidId)

	_, err = ResolveManifest(ctx, "tok", testMediaId)
	assert.ErrorIs(t, err, common.ErrMediaNotFound)

	rows = []map[string]interface{}{{"id": testMediaId, "title": "Trip", "metadata": map[string]interface{}{"files": []interface{}{}}}}
	_, err = ResolveManifest(ctx, "tok", testMediaId)
	assert.ErrorIs(t, err, common.ErrNoFiles)

	rows = []map[string]interface{}{{
		"id":                  testMediaId,
		"title":               "Trip",
		"storage_object_path": "u1/" + testMediaId + "/a.jpg",
		"original_filename":   "a.jpg",
		"size_bytes":          3,
	}}
	manifest, err := ResolveManifest(ctx, "tok", testMediaId)
	require.NoError(t, err)
	assert.Equal(t, "Trip", manifest.Title)
	assert.Equal(t, []archival.FileRef{{Bucket: "media", Path: "u1/" + testMediaId + "/a.jpg", OriginalFilename: "a.jpg", SizeBytes: 3}}, manifest.Files)
}

func TestStream_UpstreamFailure(t *testing.T) {
	ctx := testBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	manifest := &archival.Manifest{MediaId: testMediaId, Title: "Trip", Files: []archival.FileRef{
		{Bucket: "media", Path: "u1/m/a.txt", OriginalFilename: "a.txt", SizeBytes: -1},
	}}
	session, err := StartExport(ctx, "tok", "u1", manifest)
	require.NoError(t, err)
	assert.Equal(t, "Trip", session.BaseName())

	rec := httptest.NewRecorder()
	err = Stream(ctx, session, rec)
	var failure *common.StreamFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "a.txt", failure.Entry)
	assert.Equal(t, archival.StateFailed, session.State())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", rec.Result().Trailer.Get(archival.TrailerName))
}

func TestStream_Success(t *testing.T) {
	ctx := testBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			name := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
			writeJson(w, http.StatusOK, map[string]string{"signedURL": "/object/sign/media/u1/m/" + name + "?token=t"})
			return
		}
		assert.Equal(t, "t", r.URL.Query().Get("token"))
		_, _ = io.WriteString(w, "hello "+r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
	})

	manifest := &archival.Manifest{MediaId: testMediaId, Title: "Trip", Files: []archival.FileRef{
		{Bucket: "media", Path: "u1/m/a.txt", OriginalFilename: "a.txt", SizeBytes: -1},
		{Bucket: "media", Path: "u1/m/b.txt", OriginalFilename: "a.txt", SizeBytes: -1},
	}}
	session, err := StartExport(ctx, "tok", "u1", manifest)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, Stream(ctx, session, rec))
	assert.Equal(t, archival.StateSuccess, session.State())

	body := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "a.txt", zr.File[0].Name)
	assert.Equal(t, "a (2).txt", zr.File[1].Name)
	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "hello b.txt", string(b))
}
