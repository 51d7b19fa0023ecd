package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/getsentry/sentry-go"
	"github.com/phosio/phosio/api"
	"github.com/phosio/phosio/common/config"
	"github.com/phosio/phosio/common/logging"
	"github.com/phosio/phosio/common/runtime"
	"github.com/phosio/phosio/common/version"
	"github.com/phosio/phosio/metrics"
	"github.com/sirupsen/logrus"
)

// dropAbortedStreams keeps intentionally aborted responses out of Sentry.
func dropAbortedStreams(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if hint != nil && hint.RecoveredException == http.ErrAbortHandler {
		return nil
	}
	return event
}

func main() {
	configPath := flag.String("config", "phosio.yaml", "The path to the configuration")
	versionFlag := flag.Bool("version", false, "Prints the version and exits")
	flag.Parse()

	if *versionFlag {
		version.Print(false)
		return // exit 0
	}

	// Override config path with config for Docker users
	configEnv := os.Getenv("PHOSIO_CONFIG")
	if configEnv != "" {
		configPath = &configEnv
	}

	config.Path = *configPath
	if config.Get().Sentry.Enabled {
		logrus.Info("Setting up Sentry for debugging...")
		version.SetDefaults()
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.Get().Sentry.Dsn,
			Environment: config.Get().Sentry.Environment,
			Debug:       config.Get().Sentry.Debug,
			Release:     fmt.Sprintf("%s-%s", version.Version, version.GitCommit),
			BeforeSend:  dropAbortedStreams,
		})
		if err != nil {
			panic(err)
		}
	}
	defer sentry.Flush(2 * time.Second)
	defer sentry.Recover()

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

	logrus.Info("Starting config watcher...")
	watcher := config.Watch()
	defer func(watcher *fsnotify.Watcher) {
		_ = watcher.Close()
	}(watcher)
	setupReloads()

	logrus.Info("Starting phosio...")
	metrics.Init()
	web := api.Init()

	// Set up a function to stop everything
	stopAllButWeb := func() {
		logrus.Info("Stopping reload watchers...")
		stopReloads()

		logrus.Info("Stopping metrics...")
		metrics.Stop()
	}

	// Set up a listener for SIGINT
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	selfStop := false
	go func() {
		defer close(stop)
		<-stop
		selfStop = true

		logrus.Warn("Stop signal received")
		stopAllButWeb()

		logrus.Info("Stopping web server...")
		api.Stop()
	}()

	// Wait for the web server to exit nicely
	web.Add(1)
	web.Wait()

	// Stop everything else if we have to
	if !selfStop {
		stopAllButWeb()
	}

	// For debugging
	logrus.Info("Goodbye!")
}
