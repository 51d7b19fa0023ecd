package runtime

import (
	"github.com/getsentry/sentry-go"
	"github.com/phosio/phosio/common/config"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/common/version"
	"github.com/phosio/phosio/datastores"
	"github.com/sirupsen/logrus"
)

func RunStartupSequence() {
	version.Print(true)
	PrintBackendInfo()
	LoadDatastores()
}

func PrintBackendInfo() {
	conf := config.Get()
	logrus.Info("Backend: ", conf.Backend.Url)
	if conf.Backend.PublicUrl != "" && conf.Backend.PublicUrl != conf.Backend.Url {
		logrus.Info("Backend (browser facing): ", conf.Backend.PublicUrl)
	}
	logrus.Infof("Storage buckets: media=%s thumbnails=%s", conf.Storage.Bucket, conf.Storage.ThumbnailBucket)
	if !conf.IsProduction() {
		logrus.Warn("Running in ", conf.General.Environment, " mode: session cookies are not marked secure")
	}
}

func LoadDatastores() {
	logrus.Info("Preparing storage signer...")
	if err := datastores.Prepare(rcontext.Initial()); err != nil {
		sentry.CaptureException(err)
		logrus.Fatal(err)
	}
}
