package config

import (
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/phosio/phosio/common/globals"
	"github.com/sirupsen/logrus"
)

func Watch() *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logrus.Fatal(err)
	}

	err = watcher.Add(Path)
	if err != nil {
		logrus.Fatal(err)
	}

	go func() {
		debounced := debounce.New(1 * time.Second)
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				debounced(onFileChanged)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.Error("error in config watcher:", err)
			}
		}
	}()

	return watcher
}

func onFileChanged() {
	logrus.Info("Config file change detected - reloading")
	configNow := Get()
	configNew, err := reloadConfig()
	if err != nil {
		logrus.Error("Error reloading configuration - ignoring")
		logrus.Error(err)
		return
	}

	logrus.Info("Applying reloaded config live")
	instance = configNew

	bindAddressChange := configNew.General.BindAddress != configNow.General.BindAddress
	bindPortChange := configNew.General.Port != configNow.General.Port
	forwardAddressChange := configNew.General.TrustAnyForward != configNow.General.TrustAnyForward
	rateLimitChange := configNew.RateLimit.Enabled != configNow.RateLimit.Enabled
	if bindAddressChange || bindPortChange || forwardAddressChange || rateLimitChange {
		logrus.Warn("Webserver configuration changed - remounting")
		globals.WebReloadChan <- true
	}

	metricsEnableChange := configNew.Metrics.Enabled != configNow.Metrics.Enabled
	metricsBindAddressChange := configNew.Metrics.BindAddress != configNow.Metrics.BindAddress
	metricsBindPortChange := configNew.Metrics.Port != configNow.Metrics.Port
	if metricsEnableChange || metricsBindAddressChange || metricsBindPortChange {
		logrus.Warn("Metrics configuration changed - remounting")
		globals.MetricsReloadChan <- true
	}

	if hasBackendChanged(configNew, configNow) {
		logrus.Warn("Backend configuration changed - resetting clients")
		globals.BackendReloadChan <- true
	}

	if configNew.AccessTokens.MaxCacheTimeSeconds != configNow.AccessTokens.MaxCacheTimeSeconds {
		logrus.Warn("Access token cache configuration changed - flushing")
		globals.AccessTokenReloadChan <- true
	}

	if hasRedisChanged(configNew, configNow) {
		logrus.Warn("Redis configuration changed - reconnecting")
		globals.CacheReplaceChan <- true
	}

	logChange := configNew.General.LogDirectory != configNow.General.LogDirectory
	if logChange {
		logrus.Warn("Log configuration changed - restart phosio to apply changes")
	}
}

func hasBackendChanged(configNew *MainRepoConfig, configNow *MainRepoConfig) bool {
	if configNew.Backend != configNow.Backend {
		return true
	}
	if configNew.Storage != configNow.Storage {
		return true
	}
	return false
}

func hasRedisChanged(configNew *MainRepoConfig, configNow *MainRepoConfig) bool {
	if configNew.Redis.Enabled != configNow.Redis.Enabled || configNew.Redis.DbNum != configNow.Redis.DbNum {
		return true
	}
	if len(configNew.Redis.Shards) != len(configNow.Redis.Shards) {
		return true
	}
	for i := range configNew.Redis.Shards {
		if configNew.Redis.Shards[i] != configNow.Redis.Shards[i] {
			return true
		}
	}
	return false
}
