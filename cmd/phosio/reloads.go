package main

import (
	"github.com/phosio/phosio/api"
	"github.com/phosio/phosio/api/_auth_cache"
	"github.com/phosio/phosio/baas"
	"github.com/phosio/phosio/common/globals"
	"github.com/phosio/phosio/common/runtime"
	"github.com/phosio/phosio/datastores"
	"github.com/phosio/phosio/metrics"
	"github.com/phosio/phosio/redislib"
	"github.com/sirupsen/logrus"
)

func setupReloads() {
	reloadWebOnChan(globals.WebReloadChan)
	reloadMetricsOnChan(globals.MetricsReloadChan)
	reloadBackendOnChan(globals.BackendReloadChan)
	reloadAccessTokensOnChan(globals.AccessTokenReloadChan)
	reloadCacheOnChan(globals.CacheReplaceChan)
}

func stopReloads() {
	// send stop signal to reload fns
	logrus.Debug("Stopping WebReloadChan")
	globals.WebReloadChan <- false
	logrus.Debug("Stopping MetricsReloadChan")
	globals.MetricsReloadChan <- false
	logrus.Debug("Stopping BackendReloadChan")
	globals.BackendReloadChan <- false
	logrus.Debug("Stopping AccessTokenReloadChan")
	globals.AccessTokenReloadChan <- false
	logrus.Debug("Stopping CacheReplaceChan")
	globals.CacheReplaceChan <- false
}

// onReload runs fn for every true received on reloadChan. A false stops
// the loop after running stopFn, when there is one.
func onReload(reloadChan chan bool, fn func(), stopFn func()) {
	go func() {
		defer close(reloadChan)
		for {
			shouldReload := <-reloadChan
			if shouldReload {
				fn()
			} else {
				if stopFn != nil {
					stopFn()
				}
				return // received stop
			}
		}
	}()
}

func reloadWebOnChan(reloadChan chan bool) {
	onReload(reloadChan, api.Reload, nil)
}

func reloadMetricsOnChan(reloadChan chan bool) {
	onReload(reloadChan, metrics.Reload, nil)
}

func reloadBackendOnChan(reloadChan chan bool) {
	onReload(reloadChan, func() {
		baas.ResetBreakers()
		datastores.ResetS3Clients()
		_auth_cache.FlushCache()
		runtime.LoadDatastores()
	}, nil)
}

func reloadAccessTokensOnChan(reloadChan chan bool) {
	onReload(reloadChan, _auth_cache.FlushCache, nil)
}

func reloadCacheOnChan(reloadChan chan bool) {
	onReload(reloadChan, redislib.Reconnect, redislib.Stop)
}
