package datastores

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/phosio/phosio/common/config"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/pkg/errors"
)

var s3clients = &sync.Map{}

type s3 struct {
	client *minio.Client
}

func ResetS3Clients() {
	s3clients = &sync.Map{}
}

func getS3(conf config.S3SignerConfig) (*s3, error) {
	key := conf.Endpoint + "|" + conf.AccessKeyId + "|" + conf.Region
	if val, ok := s3clients.Load(key); ok {
		return val.(*s3), nil
	}

	if conf.Endpoint == "" {
		return nil, errors.New("storage.s3.endpoint is required for the s3 signer")
	}

	lookup := minio.BucketLookupAuto
	switch strings.ToLower(conf.BucketLookup) {
	case "path":
		lookup = minio.BucketLookupPath
	case "dns":
		lookup = minio.BucketLookupDNS
	}

	client, err := minio.New(conf.Endpoint, &minio.Options{
		Region:       conf.Region,
		Secure:       conf.UseSSL,
		Creds:        credentials.NewStaticV4(conf.AccessKeyId, conf.AccessSecret, ""),
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, err
	}

	s3c := &s3{client: client}
	val, _ := s3clients.LoadOrStore(key, s3c)
	return val.(*s3), nil
}

// presignGet signs a plain GET for bucket/path directly against the object
// store. No request leaves the process when a region is configured.
func presignGet(ctx rcontext.RequestContext, bucket string, path string, ttl time.Duration) (string, error) {
	s3c, err := getS3(ctx.Config.Storage.S3)
	if err != nil {
		return "", err
	}
	u, err := s3c.client.PresignedGetObject(ctx, bucket, path, ttl, url.Values{})
	if err != nil {
		return "", errors.Wrap(err, "presign failed")
	}
	return u.String(), nil
}

// Prepare builds the s3 client up front when that signer is configured and
// reports buckets the credentials cannot see.
func Prepare(ctx rcontext.RequestContext) error {
	if ctx.Config.Storage.Signer != SignerS3 {
		ctx.Log.Info("Signing storage URLs through the backend storage API")
		return nil
	}

	s3c, err := getS3(ctx.Config.Storage.S3)
	if err != nil {
		return err
	}
	ctx.Log.Infof("Signing storage URLs locally against %s", ctx.Config.Storage.S3.Endpoint)
	for _, bucket := range []string{ctx.Config.Storage.Bucket, ctx.Config.Storage.ThumbnailBucket} {
		exists, err := s3c.client.BucketExists(ctx, bucket)
		if err != nil {
			ctx.Log.Warnf("Could not check bucket %s: %v", bucket, err)
		} else if !exists {
			ctx.Log.Warnf("Bucket %s does not exist", bucket)
		}
	}
	return nil
}
