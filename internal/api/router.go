package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "qrpack/internal/api/context"
	"qrpack/internal/api/handlers"
	"qrpack/internal/api/middleware"
	"qrpack/internal/pkg/errors"
	"qrpack/internal/web"
)

type Dependencies struct {
	GenerateHandler   *handlers.GenerateHandler
	ArtifactHandler   *handlers.ArtifactHandler
	HealthHandler     *handlers.HealthHandler
	MetricsHandler    *handlers.MetricsHandler
	SessionMiddleware *middleware.SessionMiddleware
	RateLimiter       *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	sessionMid := deps.SessionMiddleware.Handle
	readLimit := deps.RateLimiter.Handle(middleware.LimitRead)
	generateLimit := deps.RateLimiter.Handle(middleware.LimitGenerate)

	// UI
	router.GET("/", wrap(web.Index))

	// Operational
	router.GET("/healthz", wrap(deps.HealthHandler.Check))
	router.GET("/metrics", wrap(deps.MetricsHandler.Export))

	// Session lifecycle
	router.GET("/api/v1/session",
		chain(deps.GenerateHandler.Current, readLimit, sessionMid))
	router.POST("/api/v1/generate",
		chain(deps.GenerateHandler.Generate, generateLimit, sessionMid))
	router.POST("/api/v1/reset",
		chain(deps.GenerateHandler.Reset, readLimit, sessionMid))

	// Artifacts
	router.GET("/api/v1/artifacts/:artifact_id",
		chain(deps.ArtifactHandler.Download, readLimit, sessionMid))
	router.POST("/api/v1/inspect",
		chain(deps.ArtifactHandler.Inspect, generateLimit))

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Not found", nil)
	})

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
