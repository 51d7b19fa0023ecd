package _auth_cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/phosio/phosio/baas"
	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

const cacheName = "access_tokens"

var tokenCache = cache.New(cache.NoExpiration, 30*time.Second)
var rwLock = &sync.RWMutex{}
var lookups = &singleflight.Group{}

type cachedToken struct {
	user *baas.User
	err  error
}

func init() {
	metrics.OnBeforeMetricsRequested(func() {
		rwLock.RLock()
		defer rwLock.RUnlock()
		metrics.CacheNumItems.With(prometheus.Labels{"cache": cacheName}).Set(float64(tokenCache.ItemCount()))
	})
}

// cacheKey keeps raw tokens out of the cache's keyspace.
func cacheKey(accessToken string) string {
	h := sha256.Sum256([]byte(accessToken))
	return hex.EncodeToString(h[:])
}

func FlushCache() {
	rwLock.Lock()
	tokenCache.Flush()
	rwLock.Unlock()
}

// ForgetToken drops whatever is remembered about accessToken.
func ForgetToken(accessToken string) {
	rwLock.Lock()
	tokenCache.Delete(cacheKey(accessToken))
	rwLock.Unlock()
}

// GetUser verifies accessToken with the identity provider. Answers, including
// rejections, are remembered for accessTokens.maxCacheTimeSeconds.
func GetUser(ctx rcontext.RequestContext, accessToken string) (*baas.User, error) {
	if accessToken == "" {
		return nil, common.ErrAuthInvalid
	}

	if ctx.Config.AccessTokens.MaxCacheTimeSeconds <= 0 {
		ctx.Log.Debug("Access token cache is disabled")
		return baas.GetUser(ctx, accessToken)
	}

	key := cacheKey(accessToken)
	rwLock.RLock()
	record, ok := tokenCache.Get(key)
	rwLock.RUnlock()
	if ok {
		metrics.CacheHits.With(prometheus.Labels{"cache": cacheName}).Inc()
		token := record.(cachedToken)
		if token.err != nil {
			return nil, token.err
		}
		ctx.Log.Debugf("Access token belongs to %s", token.user.Id)
		return token.user, nil
	}
	metrics.CacheMisses.With(prometheus.Labels{"cache": cacheName}).Inc()

	v, err, _ := lookups.Do(key, func() (interface{}, error) {
		return checkTokenWithBackend(ctx, key, accessToken)
	})
	if err != nil {
		return nil, err
	}
	return v.(*baas.User), nil
}

func checkTokenWithBackend(ctx rcontext.RequestContext, key string, accessToken string) (*baas.User, error) {
	ctx.Log.Debug("Checking access token with the identity provider")
	user, err := baas.GetUser(ctx, accessToken)
	if err != nil && !errors.Is(err, common.ErrAuthInvalid) {
		// transient failures are not remembered
		return nil, err
	}
	cacheToken(ctx, key, user, err)
	return user, err
}

func cacheToken(ctx rcontext.RequestContext, key string, user *baas.User, err error) {
	v := cachedToken{
		user: user,
		err:  err,
	}
	t := time.Duration(ctx.Config.AccessTokens.MaxCacheTimeSeconds) * time.Second
	rwLock.Lock()
	tokenCache.Set(key, v, t)
	rwLock.Unlock()
}
