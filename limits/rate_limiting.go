package limits

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/phosio/phosio/api/_responses"
	"github.com/phosio/phosio/common/config"
	"github.com/phosio/phosio/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var requestLimiter *limiter.Limiter

func init() {
	requestLimiter = tollbooth.NewLimiter(0, nil)
	requestLimiter.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
	requestLimiter.SetTokenBucketExpirationTTL(time.Hour)

	b, _ := json.Marshal(_responses.RateLimitReached())
	requestLimiter.SetMessage(string(b))
	requestLimiter.SetMessageContentType("application/json")
	requestLimiter.SetOnLimitReached(func(w http.ResponseWriter, r *http.Request) {
		metrics.InvalidHttpRequests.With(prometheus.Labels{"action": "rate_limited", "method": r.Method}).Inc()
		logrus.WithField("resource", r.URL.Path).Debug("Rate limited request")
	})
}

// GetRequestLimiter applies the current rate limit settings to the shared
// limiter.
func GetRequestLimiter() *limiter.Limiter {
	conf := config.Get().RateLimit
	requestLimiter.SetBurst(conf.BurstCount)
	requestLimiter.SetMax(conf.RequestsPerSecond)

	return requestLimiter
}
