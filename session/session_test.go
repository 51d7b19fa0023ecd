package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phosio/phosio/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	cfg := config.NewTestConfig("http://backend.invalid")
	raw, err := Encode(cfg, Data{AccessToken: "at", RefreshToken: "rt", UserId: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 5, len(strings.Split(raw, ".")))

	data, err := Decode(cfg, raw)
	require.NoError(t, err)
	assert.Equal(t, &Data{AccessToken: "at", RefreshToken: "rt", UserId: "u1"}, data)
}

func TestDecode_Rotation(t *testing.T) {
	old := config.NewTestConfig("http://backend.invalid")
	old.Session.Secrets = []string{"old-secret"}
	raw, err := Encode(old, Data{AccessToken: "at"})
	require.NoError(t, err)

	rotated := config.NewTestConfig("http://backend.invalid")
	rotated.Session.Secrets = []string{"new-secret", "old-secret"}
	data, err := Decode(rotated, raw)
	require.NoError(t, err)
	assert.Equal(t, "at", data.AccessToken)

	dropped := config.NewTestConfig("http://backend.invalid")
	dropped.Session.Secrets = []string{"new-secret"}
	_, err = Decode(dropped, raw)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestDecode_Garbage(t *testing.T) {
	cfg := config.NewTestConfig("http://backend.invalid")
	for _, raw := range []string{"", "abc", "a.b.c.d.e"} {
		_, err := Decode(cfg, raw)
		assert.ErrorIs(t, err, ErrInvalidSession, raw)
	}
}

func TestEncode_NoSecret(t *testing.T) {
	cfg := config.NewTestConfig("http://backend.invalid")
	cfg.Session.Secrets = []string{}
	_, err := Encode(cfg, Data{})
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestCookies(t *testing.T) {
	cfg := config.NewTestConfig("http://backend.invalid")
	c, err := Cookie(cfg, Data{AccessToken: "at", UserId: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "__phosio_session", c.Name)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 30*24*3600, c.MaxAge)

	r := httptest.NewRequest(http.MethodGet, "/app", nil)
	r.AddCookie(c)
	data := FromRequest(cfg, r)
	assert.True(t, data.HasAccessToken())
	assert.Equal(t, "u1", data.UserId)

	d := DestroyCookie(cfg)
	assert.Equal(t, -1, d.MaxAge)
	assert.Equal(t, "", d.Value)

	r = httptest.NewRequest(http.MethodGet, "/app", nil)
	assert.False(t, FromRequest(cfg, r).HasAccessToken())

	cfg.General.Environment = "production"
	assert.True(t, DestroyCookie(cfg).Secure)
}
