package redislib

import (
	"sync"
	"time"

	"github.com/phosio/phosio/common/config"
	"github.com/phosio/phosio/common/logging"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var connectionLock = &sync.Once{}
var ring *redis.Ring

func makeConnection(conf config.RedisConfig) {
	if ring != nil {
		return
	}

	connectionLock.Do(func() {
		if !conf.Enabled || len(conf.Shards) == 0 {
			return
		}
		redis.SetLogger(&logging.SendToDebugLogger{})

		addresses := make(map[string]string)
		for _, c := range conf.Shards {
			addresses[c.Name] = c.Address
		}
		ring = redis.NewRing(&redis.RingOptions{
			Addrs:       addresses,
			DialTimeout: 10 * time.Second,
			DB:          conf.DbNum,
		})
		logrus.Infof("Using %d redis shard(s) for the signed URL cache", len(addresses))
	})
}

func Reconnect() {
	Stop()
	makeConnection(config.Get().Redis)
}

func Stop() {
	if ring != nil {
		_ = ring.Close()
	}
	ring = nil
	connectionLock = &sync.Once{}
}
