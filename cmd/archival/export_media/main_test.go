package main

import (
	"archive/zip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/phosio/phosio/baas"
	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/config"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMediaId = "0f8fad5b-d9cb-469f-a165-70867728950e"

type fakeBackend struct {
	lock        sync.Mutex
	rows        []map[string]interface{}
	failObjects bool
	logouts     int
}

func writeJson(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.lock.Lock()
	defer b.lock.Unlock()

	switch {
	case r.URL.Path == "/auth/v1/token":
		writeJson(w, http.StatusOK, map[string]interface{}{
			"access_token":  "tok",
			"refresh_token": "refresh",
			"user":          map[string]string{"id": "u1", "email": "a@example.org"},
		})
	case r.URL.Path == "/auth/v1/logout":
		b.logouts++
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/rest/v1/media":
		writeJson(w, http.StatusOK, b.rows)
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/storage/v1/object/sign/"):
		name := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		writeJson(w, http.StatusOK, map[string]string{"signedURL": "/object/sign/media/u1/" + testMediaId + "/" + name + "?token=t"})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/storage/v1/object/sign/"):
		if b.failObjects {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, "contents")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (b *fakeBackend) logoutCount() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.logouts
}

func testContext(t *testing.T, backend *fakeBackend) rcontext.RequestContext {
	server := httptest.NewServer(backend)
	t.Cleanup(func() {
		server.Close()
		baas.ResetBreakers()
	})
	return rcontext.ForTesting(config.NewTestConfig(server.URL))
}

func mediaRow() map[string]interface{} {
	return map[string]interface{}{
		"id":    testMediaId,
		"title": "Trip",
		"metadata": map[string]interface{}{"files": []interface{}{
			map[string]interface{}{"path": "u1/" + testMediaId + "/a.jpg", "original_filename": "a.jpg"},
		}},
	}
}

func TestRun(t *testing.T) {
	backend := &fakeBackend{rows: []map[string]interface{}{mediaRow()}}
	ctx := testContext(t, backend)
	dir := t.TempDir()

	target, err := run(ctx, "a@example.org", "hunter22", testMediaId, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Trip.zip"), target)
	assert.Equal(t, 1, backend.logoutCount())

	zr, err := zip.OpenReader(target)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "a.jpg", zr.File[0].Name)
}

func TestRun_SignsOutWhenMediaIsMissing(t *testing.T) {
	backend := &fakeBackend{rows: []map[string]interface{}{}}
	ctx := testContext(t, backend)
	dir := t.TempDir()

	_, err := run(ctx, "a@example.org", "hunter22", testMediaId, dir)
	assert.ErrorIs(t, err, common.ErrMediaNotFound)
	assert.Equal(t, 1, backend.logoutCount())
}

func TestRun_RemovesPartialArchive(t *testing.T) {
	backend := &fakeBackend{rows: []map[string]interface{}{mediaRow()}, failObjects: true}
	ctx := testContext(t, backend)
	dir := t.TempDir()

	_, err := run(ctx, "a@example.org", "hunter22", testMediaId, dir)
	var failure *common.StreamFailure
	assert.ErrorAs(t, err, &failure)
	assert.Equal(t, 1, backend.logoutCount())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
