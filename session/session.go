package session

import (
	"crypto/sha256"
	"errors"
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/phosio/phosio/common/config"
)

var ErrNoSecret = errors.New("no session secret configured")
var ErrInvalidSession = errors.New("invalid session cookie")

// Data is everything kept about a signed-in user. It lives only inside the
// encrypted cookie.
type Data struct {
	AccessToken  string `json:"at,omitempty"`
	RefreshToken string `json:"rt,omitempty"`
	UserId       string `json:"uid,omitempty"`
}

func (d *Data) HasAccessToken() bool {
	return d != nil && d.AccessToken != ""
}

func deriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

func maxAge(cfg *config.MainRepoConfig) time.Duration {
	days := cfg.Session.MaxAgeDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// Encode seals data with the first configured secret.
func Encode(cfg *config.MainRepoConfig, data Data) (string, error) {
	if len(cfg.Session.Secrets) == 0 {
		return "", ErrNoSecret
	}

	enc, err := jose.NewEncrypter(jose.A256GCM, jose.Recipient{
		Algorithm: jose.DIRECT,
		Key:       deriveKey(cfg.Session.Secrets[0]),
	}, (&jose.EncrypterOptions{}).WithType("JWT"))
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.Claims{
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(maxAge(cfg))),
	}
	return jwt.Encrypted(enc).Claims(claims).Claims(data).Serialize()
}

// Decode opens a cookie value with any of the configured secrets, so older
// secrets keep working while they are being rotated out.
func Decode(cfg *config.MainRepoConfig, raw string) (*Data, error) {
	if raw == "" {
		return nil, ErrInvalidSession
	}
	tok, err := jwt.ParseEncrypted(raw, []jose.KeyAlgorithm{jose.DIRECT}, []jose.ContentEncryption{jose.A256GCM})
	if err != nil {
		return nil, ErrInvalidSession
	}

	for _, secret := range cfg.Session.Secrets {
		claims := jwt.Claims{}
		data := &Data{}
		if err = tok.Claims(deriveKey(secret), &claims, data); err != nil {
			continue
		}
		if err = claims.ValidateWithLeeway(jwt.Expected{Time: time.Now()}, time.Minute); err != nil {
			return nil, ErrInvalidSession
		}
		return data, nil
	}
	return nil, ErrInvalidSession
}

// FromRequest never fails: a missing or unreadable cookie is an empty session.
func FromRequest(cfg *config.MainRepoConfig, r *http.Request) *Data {
	c, err := r.Cookie(cfg.Session.CookieName)
	if err != nil {
		return &Data{}
	}
	data, err := Decode(cfg, c.Value)
	if err != nil {
		return &Data{}
	}
	return data
}

func baseCookie(cfg *config.MainRepoConfig) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.Session.CookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
}

func Cookie(cfg *config.MainRepoConfig, data Data) (*http.Cookie, error) {
	value, err := Encode(cfg, data)
	if err != nil {
		return nil, err
	}
	c := baseCookie(cfg)
	c.Value = value
	c.MaxAge = int(maxAge(cfg) / time.Second)
	return c, nil
}

// DestroyCookie expires the session cookie in the browser.
func DestroyCookie(cfg *config.MainRepoConfig) *http.Cookie {
	c := baseCookie(cfg)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}
