package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/phosio/phosio/api/_routers"
	"github.com/phosio/phosio/api/web"
	"github.com/sirupsen/logrus"
)

func buildRoutes() http.Handler {
	counter := &_routers.RequestCounter{}
	router := buildPrimaryRouter()

	// Pages
	register("GET", "/", router, makeRoute(_routers.OptionalSession(web.Landing), "landing", counter))
	register("GET", "/login", router, makeRoute(_routers.OptionalSession(web.LoginForm), "login_form", counter))
	register("POST", "/login", router, makeRoute(_routers.OptionalSession(web.Login), "login", counter))
	register("GET", "/signup", router, makeRoute(_routers.OptionalSession(web.SignupForm), "signup_form", counter))
	register("POST", "/signup", router, makeRoute(_routers.OptionalSession(web.Signup), "signup", counter))
	register("GET", "/verify-email", router, makeRoute(_routers.OptionalSession(web.VerifyEmail), "verify_email", counter))
	register("POST", "/logout", router, makeRoute(_routers.OptionalSession(web.Logout), "logout", counter))

	// Library
	register("GET", "/app", router, makeRoute(_routers.RequireSession(web.Catalog), "catalog", counter))
	register("GET", "/app/upload", router, makeRoute(_routers.RequireSession(web.UploadForm), "upload_form", counter))
	register("POST", "/app/upload", router, makeRoute(_routers.RequireSession(web.Upload), "upload", counter))
	register("GET", "/app/media/:id", router, makeRoute(_routers.OptionalSession(web.MediaDetail), "media_detail", counter))
	register("GET", "/app/media/:id/zip", router, makeRoute(_routers.OptionalSession(web.ExportMedia), "export_zip", counter))

	// Top-level
	register("GET", "/env.js", router, makeRoute(_routers.OptionalSession(web.ClientEnv), "env_js", counter))
	healthzRoute := makeRoute(_routers.OptionalSession(web.GetHealthz), "healthz", counter)
	register("GET", "/healthz", router, healthzRoute)
	register("HEAD", "/healthz", router, healthzRoute)

	return router
}

func makeRoute(generator _routers.GeneratorFn, name string, counter *_routers.RequestCounter) http.Handler {
	return _routers.NewInstallMetadataRouter(name, counter,
		_routers.NewInstallHeadersRouter(
			_routers.NewRemoteAddressRouter(
				_routers.NewMetricsRequestRouter(
					_routers.NewRContextRouter(generator, _routers.NewMetricsResponseRouter(nil)),
				),
			),
		))
}

func register(method string, path string, router *httprouter.Router, handler http.Handler) {
	router.Handler(method, path, handler)
	logrus.Debug("Registering route: ", method, " ", path)
}
