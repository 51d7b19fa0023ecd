package baas

import (
	"sync"

	"github.com/phosio/phosio/common/rcontext"
	"github.com/rubyist/circuitbreaker"
)

var breakers = &sync.Map{}

func getBreaker(ctx rcontext.RequestContext, service string) *circuit.Breaker {
	key := ctx.Config.Backend.Url + "|" + service

	var cb *circuit.Breaker
	cbRaw, hasCb := breakers.Load(key)
	if !hasCb {
		backoffAt := int64(ctx.Config.Backend.BackoffAt)
		if backoffAt <= 0 {
			backoffAt = 10 // default to 10 for those who don't have this set
		}
		cb = circuit.NewConsecutiveBreaker(backoffAt)
		cbRaw, _ = breakers.LoadOrStore(key, cb)
	}
	cb = cbRaw.(*circuit.Breaker)

	return cb
}

// ResetBreakers forgets all breaker state, used when the backend config changes.
func ResetBreakers() {
	breakers.Range(func(key, value any) bool {
		breakers.Delete(key)
		return true
	})
}
