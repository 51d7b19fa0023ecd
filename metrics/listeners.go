package metrics

import (
	"net/http"
	"sync"
)

var beforeLock = new(sync.Mutex)
var beforeMetricsCalledFns = make([]func(), 0)

// OnBeforeMetricsRequested registers fn to refresh gauges right before a
// scrape.
func OnBeforeMetricsRequested(fn func()) {
	beforeLock.Lock()
	defer beforeLock.Unlock()
	beforeMetricsCalledFns = append(beforeMetricsCalledFns, fn)
}

func runBeforeFns() {
	beforeLock.Lock()
	fns := append([]func(){}, beforeMetricsCalledFns...)
	beforeLock.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func beforeScrape(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runBeforeFns()
		next.ServeHTTP(w, r)
	})
}
