package obs

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type routeKey struct{}

// route is filled in once chi has matched the request, which happens after
// the outer middleware have already captured the context.
type route struct {
	pattern string
}

// WithRoutePattern stores a route pattern on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	return context.WithValue(ctx, routeKey{}, &route{pattern: pattern})
}

// RoutePatternFromContext returns the stored route pattern, or "" when the
// request has not been routed yet.
func RoutePatternFromContext(ctx context.Context) string {
	if rt, ok := ctx.Value(routeKey{}).(*route); ok {
		return rt.pattern
	}
	return ""
}

// routeLabel names a finished request for metrics, spans and logs.
func routeLabel(r *http.Request, fallback string) string {
	if pattern := RoutePatternFromContext(r.Context()); pattern != "" {
		return pattern
	}
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return fallback
}
