package baas

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/config"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type BackendTestSuite struct {
	suite.Suite
	server  *httptest.Server
	handler http.HandlerFunc
	ctx     rcontext.RequestContext
}

func (s *BackendTestSuite) SetupTest() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handler(w, r)
	}))
	s.ctx = rcontext.ForTesting(config.NewTestConfig(s.server.URL))
}

func (s *BackendTestSuite) TearDownTest() {
	s.server.Close()
	ResetBreakers()
}

func writeJson(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *BackendTestSuite) TestCreateSignedUrl() {
	t := s.T()
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/sign/media/u1/m1/caf%C3%A9%20%E2%98%95.jpg", r.URL.EscapedPath())
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		body := make(map[string]int)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 120, body["expiresIn"])

		writeJson(w, http.StatusOK, map[string]string{"signedURL": "/object/sign/media/u1/m1/x?token=abc"})
	}

	signed, err := CreateSignedUrl(s.ctx, "token-1", "media", "u1/m1/café ☕.jpg", 120*time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "/object/sign/media/u1/m1/x?token=abc", signed)
}

func (s *BackendTestSuite) TestCreateSignedUrl_Errors() {
	t := s.T()

	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, http.StatusUnauthorized, map[string]string{"message": "jwt expired"})
	}
	_, err := CreateSignedUrl(s.ctx, "token-1", "media", "a.jpg", time.Minute)
	assert.ErrorIs(t, err, common.ErrAuthInvalid)

	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, http.StatusBadRequest, map[string]string{"statusCode": "400", "error": "InvalidJWT", "message": "invalid JWT: token is expired"})
	}
	_, err = CreateSignedUrl(s.ctx, "token-1", "media", "a.jpg", time.Minute)
	assert.ErrorIs(t, err, common.ErrAuthInvalid)

	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}
	_, err = CreateSignedUrl(s.ctx, "token-1", "media", "a.jpg", time.Minute)
	var be *common.BackendError
	assert.True(t, errors.As(err, &be))
	assert.Equal(t, http.StatusInternalServerError, be.Status)
	assert.Equal(t, "boom", be.Body)

	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, http.StatusOK, map[string]string{"somethingElse": "x"})
	}
	_, err = CreateSignedUrl(s.ctx, "token-1", "media", "a.jpg", time.Minute)
	assert.True(t, errors.As(err, &be))
	assert.Equal(t, "malformed response", be.Body)
}

func (s *BackendTestSuite) TestGetMedia() {
	t := s.T()
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/media", r.URL.Path)
		assert.Equal(t, "eq.0f8fad5b-d9cb-469f-a165-70867728950e", r.URL.Query().Get("id"))
		assert.Equal(t, ManifestColumns, r.URL.Query().Get("select"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		writeJson(w, http.StatusOK, []map[string]interface{}{{
			"id":    "0f8fad5b-d9cb-469f-a165-70867728950e",
			"title": "Trip",
			"metadata": map[string]interface{}{
				"files": []interface{}{map[string]interface{}{"path": "a.jpg"}},
			},
		}})
	}

	row, err := GetMedia(s.ctx, "tok", "0f8fad5b-d9cb-469f-a165-70867728950e", ManifestColumns)
	assert.NoError(t, err)
	assert.Equal(t, "Trip", *row.Title)
	assert.Contains(t, string(row.Metadata), "a.jpg")

	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, http.StatusOK, []interface{}{})
	}
	_, err = GetMedia(s.ctx, "tok", "0f8fad5b-d9cb-469f-a165-70867728950e", ManifestColumns)
	assert.ErrorIs(t, err, common.ErrMediaNotFound)

	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, http.StatusForbidden, map[string]string{"message": "nope"})
	}
	_, err = GetMedia(s.ctx, "tok", "0f8fad5b-d9cb-469f-a165-70867728950e", ManifestColumns)
	assert.ErrorIs(t, err, common.ErrAuthInvalid)
}

func (s *BackendTestSuite) TestListMedia() {
	t := s.T()
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
		assert.Equal(t, "created_at.desc", q.Get("order"))
		assert.Equal(t, "24", q.Get("offset"))
		assert.Equal(t, "24", q.Get("limit"))
		assert.Equal(t, "ilike.%trip%", q.Get("title"))
		assert.Equal(t, `cs.["family","beach"]`, q.Get("tags"))
		w.Header().Set("Content-Range", "24-24/25")
		writeJson(w, http.StatusOK, []map[string]interface{}{{"id": "x", "tags": []string{"family", "beach"}}})
	}

	res, err := ListMedia(s.ctx, "tok", ListMediaOptions{TitleContains: "trip", Tags: []string{"family", "beach"}, From: 24, To: 47})
	assert.NoError(t, err)
	assert.Equal(t, int64(25), res.Total)
	assert.Len(t, res.Rows, 1)
	assert.Equal(t, []string{"family", "beach"}, res.Rows[0].TagList())

	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, http.StatusRequestedRangeNotSatisfiable, map[string]string{"code": "PGRST103", "message": "Requested range not satisfiable"})
	}
	res, err = ListMedia(s.ctx, "tok", ListMediaOptions{From: 240, To: 263})
	assert.NoError(t, err)
	assert.True(t, res.OutOfRange)
	assert.Empty(t, res.Rows)
}

func (s *BackendTestSuite) TestInsertAndUpdateMedia() {
	t := s.T()
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		writeJson(w, http.StatusCreated, []map[string]string{{"id": "new-id"}})
	}
	id, err := InsertMedia(s.ctx, "tok", map[string]interface{}{"title": "x"})
	assert.NoError(t, err)
	assert.Equal(t, "new-id", id)

	s.handler = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.new-id", r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNoContent)
	}
	assert.NoError(t, UpdateMedia(s.ctx, "tok", "new-id", map[string]interface{}{"title": "y"}))
}

func (s *BackendTestSuite) TestSignInWithPassword() {
	t := s.T()
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		body := make(map[string]string)
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "hunter22" {
			writeJson(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "Invalid login credentials"})
			return
		}
		writeJson(w, http.StatusOK, map[string]interface{}{
			"access_token":  "a",
			"refresh_token": "r",
			"user":          map[string]string{"id": "u1", "email": "a@example.org"},
		})
	}

	session, err := SignInWithPassword(s.ctx, "a@example.org", "hunter22")
	assert.NoError(t, err)
	assert.Equal(t, "a", session.AccessToken)
	assert.Equal(t, "u1", session.User.Id)

	_, err = SignInWithPassword(s.ctx, "a@example.org", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func (s *BackendTestSuite) TestGetUser() {
	t := s.T()
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			writeJson(w, http.StatusUnauthorized, map[string]string{"msg": "invalid JWT"})
			return
		}
		writeJson(w, http.StatusOK, map[string]string{"id": "u1"})
	}

	user, err := GetUser(s.ctx, "good")
	assert.NoError(t, err)
	assert.Equal(t, "u1", user.Id)

	_, err = GetUser(s.ctx, "bad")
	assert.ErrorIs(t, err, common.ErrAuthInvalid)

	_, err = GetUser(s.ctx, "")
	assert.ErrorIs(t, err, common.ErrAuthInvalid)
}

func (s *BackendTestSuite) TestUploadAndOpenObject() {
	t := s.T()
	stored := ""
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/storage/v1/object/media/u1/m1/a_b.jpg", r.URL.EscapedPath())
			assert.Equal(t, "true", r.Header.Get("x-upsert"))
			assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
			b, _ := io.ReadAll(r.Body)
			stored = string(b)
			writeJson(w, http.StatusOK, map[string]string{"Key": "media/u1/m1/a_b.jpg"})
		case http.MethodGet:
			_, _ = w.Write([]byte(stored))
		}
	}

	err := UploadObject(s.ctx, "tok", "media", "u1/m1/a_b.jpg", "image/jpeg", strings.NewReader("pixels"), true)
	assert.NoError(t, err)

	body, _, err := OpenObject(s.ctx, s.server.URL+"/storage/v1/object/sign/media/u1/m1/a_b.jpg?token=x")
	assert.NoError(t, err)
	b, _ := io.ReadAll(body)
	_ = body.Close()
	assert.Equal(t, "pixels", string(b))
}

func TestBackendTestSuite(t *testing.T) {
	suite.Run(t, new(BackendTestSuite))
}
