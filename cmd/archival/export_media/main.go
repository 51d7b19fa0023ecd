package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/phosio/phosio/common/config"
	"github.com/phosio/phosio/common/logging"
	"github.com/phosio/phosio/common/rcontext"
	"github.com/phosio/phosio/common/runtime"
	"github.com/phosio/phosio/controllers/auth_controller"
	"github.com/phosio/phosio/controllers/export_controller"
	"github.com/sirupsen/logrus"
)

// fileResponse lets the archive writer target a file instead of a client.
type fileResponse struct {
	f       *os.File
	headers http.Header
	status  int
}

func (r *fileResponse) Header() http.Header {
	return r.headers
}

func (r *fileResponse) Write(b []byte) (int, error) {
	return r.f.Write(b)
}

func (r *fileResponse) WriteHeader(statusCode int) {
	r.status = statusCode
}

func main() {
	configPath := flag.String("config", "phosio.yaml", "The path to the configuration")
	email := flag.String("email", "", "The account to sign in as")
	mediaId := flag.String("media", "", "The media item to export")
	destination := flag.String("destination", ".", "The directory the archive is written to")
	flag.Parse()

	// Override config path with config for Docker users
	configEnv := os.Getenv("PHOSIO_CONFIG")
	if configEnv != "" {
		configPath = &configEnv
	}

	password := os.Getenv("PHOSIO_PASSWORD")
	if *email == "" || *mediaId == "" || password == "" {
		logrus.Error("-email, -media and the PHOSIO_PASSWORD environment variable are required")
		flag.Usage()
		os.Exit(1)
		return
	}

	config.Path = *configPath
	err := logging.Setup(
		config.Get().General.LogDirectory,
		config.Get().General.LogColors,
		config.Get().General.JsonLogs,
		config.Get().General.LogLevel,
	)
	if err != nil {
		panic(err)
	}

	logrus.Info("Starting up...")
	runtime.RunStartupSequence()

	ctx := rcontext.Initial().LogWithFields(logrus.Fields{"mediaId": *mediaId})
	target, err := run(ctx, *email, password, *mediaId, *destination)
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
		return
	}
	logrus.Info("Export complete! Archive written to ", target)
}

// run signs in, writes the archive and signs out again, whatever happened
// in between. It returns the path of the written archive.
func run(ctx rcontext.RequestContext, email string, password string, mediaId string, destination string) (string, error) {
	data, err := auth_controller.Login(ctx, email, password)
	if err != nil {
		return "", fmt.Errorf("error signing in: %w", err)
	}
	defer auth_controller.Logout(ctx, data)

	manifest, err := export_controller.ResolveManifest(ctx, data.AccessToken, mediaId)
	if err != nil {
		return "", fmt.Errorf("error resolving media: %w", err)
	}
	session, err := export_controller.StartExport(ctx, data.AccessToken, data.UserId, manifest)
	if err != nil {
		return "", fmt.Errorf("error starting export: %w", err)
	}

	target := filepath.Join(destination, session.BaseName()+".zip")
	f, err := os.Create(target)
	if err != nil {
		return "", err
	}
	err = export_controller.Stream(ctx, session, &fileResponse{f: f, headers: make(http.Header)})
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("export failed: %w", err)
	}
	if closeErr != nil {
		_ = os.Remove(target)
		return "", closeErr
	}

	ctx.Log.Infof("Wrote %d files (%s)", session.Entries(), humanize.Bytes(uint64(session.BytesWritten())))
	return target, nil
}
