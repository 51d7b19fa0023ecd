package datastores

import (
	"time"

	"github.com/phosio/phosio/archival"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/redislib"
)

// ViewerUrl returns a browser-facing signed URL for one object, reusing a
// cached one while more than half of its lifetime is left.
func ViewerUrl(ctx rcontext.RequestContext, accessToken string, userId string, file archival.FileRef) (string, error) {
	key := redislib.UrlKey(userId, file.Bucket, file.Path)
	cached, err := redislib.TryGetURL(ctx, key)
	if err != nil {
		ctx.Log.Warn("Error reading signed url cache: ", err)
	} else if cached != "" {
		return cached, nil
	}

	ttl := time.Duration(ctx.Config.Viewer.SignedUrlTtlSeconds) * time.Second
	if ttl <= 0 {
		ttl = 120 * time.Second
	}
	target, err := NewViewerSigner(ctx, accessToken, userId).Sign(ctx, file, ttl)
	if err != nil {
		return "", err
	}

	if err = redislib.StoreURL(ctx, key, target.URL, ttl/2); err != nil {
		ctx.Log.Warn("Error caching signed url: ", err)
	}
	return target.URL, nil
}
