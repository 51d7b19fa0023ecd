package _routers

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/config"
	"github.com/sebest/xff"
)

// RemoteAddressRouter replaces r.RemoteAddr with the client address, looking
// through trusted proxies.
type RemoteAddressRouter struct {
	next http.Handler
}

func NewRemoteAddressRouter(next http.Handler) *RemoteAddressRouter {
	return &RemoteAddressRouter{next: next}
}

func (h *RemoteAddressRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var raddr string
	if config.Get().General.TrustAnyForward {
		raddr = strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-For"), ",")[0])
	} else {
		raddr = xff.GetRemoteAddr(r)
	}
	if raddr == "" {
		raddr = r.RemoteAddr
	}
	host, _, err := net.SplitHostPort(raddr)
	if err != nil {
		host = raddr
	}
	r.RemoteAddr = host

	logger := GetLogger(r).WithField("remoteAddr", host)
	r = r.WithContext(context.WithValue(r.Context(), common.ContextLogger, logger))

	if h.next != nil {
		h.next.ServeHTTP(w, r)
	}
}
