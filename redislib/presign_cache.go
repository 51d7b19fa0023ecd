package redislib

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "signedurl:"
const cacheName = "signed_url"

// UrlKey scopes a cached URL to the user who was allowed to sign it.
func UrlKey(userId string, bucket string, path string) string {
	return userId + "/" + bucket + "/" + path
}

func StoreURL(ctx rcontext.RequestContext, key string, url string, expiration time.Duration) error {
	makeConnection(ctx.Config.Redis)
	if ring == nil || expiration <= 0 {
		return nil
	}

	if err := ring.ForEachShard(ctx.Context, func(ctx2 context.Context, client *redis.Client) error {
		res := client.Set(ctx2, keyPrefix+key, url, expiration)
		return res.Err()
	}); err != nil {
		if delErr := DeleteURL(ctx, key); delErr != nil {
			ctx.Log.Warn("Error while attempting to clean up url cache during another error: ", delErr)
			sentry.CaptureException(delErr)
		}
		return err
	}

	return nil
}

// TryGetURL returns "" on a miss or when no cache is configured.
func TryGetURL(ctx rcontext.RequestContext, key string) (string, error) {
	makeConnection(ctx.Config.Redis)
	if ring == nil {
		return "", nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx.Context, 5*time.Second)
	defer cancel()

	ctx.Log.Debugf("Getting cached signed url for %s", keyPrefix+key)
	s, err := ring.Get(timeoutCtx, keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheMisses.With(prometheus.Labels{"cache": cacheName}).Inc()
			return "", nil
		}
		return "", err
	}

	metrics.CacheHits.With(prometheus.Labels{"cache": cacheName}).Inc()
	return s, nil
}

func DeleteURL(ctx rcontext.RequestContext, key string) error {
	makeConnection(ctx.Config.Redis)
	if ring == nil {
		return nil
	}

	return ring.ForEachShard(ctx, func(ctx2 context.Context, client *redis.Client) error {
		return client.Del(ctx2, keyPrefix+key).Err()
	})
}
