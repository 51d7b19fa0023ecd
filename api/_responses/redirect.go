package _responses

import (
	"net/http"

	"github.com/phosio/phosio/common/config"
	"github.com/phosio/phosio/session"
)

type RedirectResponse struct {
	ToUrl      string
	StatusCode int
}

func Redirect(toUrl string) *RedirectResponse {
	return &RedirectResponse{ToUrl: toUrl, StatusCode: http.StatusFound}
}

func SeeOther(toUrl string) *RedirectResponse {
	return &RedirectResponse{ToUrl: toUrl, StatusCode: http.StatusSeeOther}
}

// LoginRedirect sends the visitor to the login page and expires the session
// cookie they carried.
func LoginRedirect(cfg *config.MainRepoConfig) *WithCookiesResponse {
	return WithCookies(Redirect("/login"), session.DestroyCookie(cfg))
}
