package middleware

import (
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

const unmatchedRoute = "unmatched"

// RequestObserver receives one sample per served request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Metrics reports every request to obs, labelled with the route pattern
// (not the raw path) so task ids do not explode label cardinality. The
// router must run with SaveMatchedRoutePath enabled.
func Metrics(obs RequestObserver) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		if obs == nil {
			return next
		}
		return func(ctx *fasthttp.RequestCtx) {
			started := time.Now()
			next(ctx)

			route, _ := ctx.UserValue(router.MatchedRoutePathParam).(string)
			if route == "" {
				route = unmatchedRoute
			}
			obs.ObserveRequest(string(ctx.Method()), route, ctx.Response.StatusCode(), time.Since(started))
		}
	}
}
