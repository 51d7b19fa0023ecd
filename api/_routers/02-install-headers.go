package _routers

import (
	"net/http"
)

type InstallHeadersRouter struct {
	next http.Handler
}

func NewInstallHeadersRouter(next http.Handler) *InstallHeadersRouter {
	return &InstallHeadersRouter{next: next}
}

func (i *InstallHeadersRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	headers := w.Header()
	headers.Set("X-Content-Type-Options", "nosniff")
	headers.Set("X-Frame-Options", "DENY")
	headers.Set("Referrer-Policy", "same-origin")
	headers.Set("X-Robots-Tag", "noindex, nofollow, noarchive, noimageindex")
	headers.Set("Server", "phosio")

	if i.next != nil {
		i.next.ServeHTTP(w, r)
	}
}
