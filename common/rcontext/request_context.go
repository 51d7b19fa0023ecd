package rcontext

import (
	"context"
	"net/http"

	"github.com/phosio/phosio/common"
	"github.com/phosio/phosio/common/config"
	"github.com/sirupsen/logrus"
)

func Initial() RequestContext {
	return RequestContext{
		Context: context.Background(),
		Log:     logrus.WithFields(logrus.Fields{"nocontext": true}),
		Config:  config.Get(),
		Request: nil,
	}.populate()
}

type RequestContext struct {
	context.Context

	// These are also stored on the context object itself
	Log     *logrus.Entry          // phosio.logger
	Config  *config.MainRepoConfig // phosio.config
	Request *http.Request          // phosio.request
}

func (c RequestContext) populate() RequestContext {
	c.Context = context.WithValue(c.Context, common.ContextLogger, c.Log)
	c.Context = context.WithValue(c.Context, common.ContextConfig, c.Config)
	c.Context = context.WithValue(c.Context, common.ContextRequest, c.Request)
	return c
}

func (c RequestContext) ReplaceLogger(log *logrus.Entry) RequestContext {
	ctx := context.WithValue(c.Context, common.ContextLogger, log)
	return RequestContext{
		Context: ctx,
		Log:     log,
		Config:  c.Config,
		Request: c.Request,
	}
}

func (c RequestContext) LogWithFields(fields logrus.Fields) RequestContext {
	return c.ReplaceLogger(c.Log.WithFields(fields))
}

// WithContext swaps the underlying context, keeping logger and config.
func (c RequestContext) WithContext(ctx context.Context) RequestContext {
	return RequestContext{
		Context: ctx,
		Log:     c.Log,
		Config:  c.Config,
		Request: c.Request,
	}.populate()
}

// ForTesting builds a context around cfg without touching the global config.
func ForTesting(cfg *config.MainRepoConfig) RequestContext {
	return RequestContext{
		Context: context.Background(),
		Log:     logrus.WithFields(logrus.Fields{"test": true}),
		Config:  cfg,
	}.populate()
}
