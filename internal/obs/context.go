package obs

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
)

type routePatternKey struct{}

type annotationsKey struct{}

// annotations collects values discovered by inner handlers so outer middleware can log them
// once the request completes.
type annotations struct {
	mu     sync.Mutex
	userID string
}

// WithRoutePattern stores the matched router pattern on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext extracts the route pattern from context if present.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(routePatternKey{}).(string)
	return v
}

// RouteLabel returns the route pattern of r for use as a low-cardinality label. It checks the
// stored pattern, then chi's routing context, and returns "" when neither matched.
func RouteLabel(r *http.Request) string {
	if route := RoutePatternFromContext(r.Context()); route != "" {
		return route
	}
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

func withAnnotations(ctx context.Context) (context.Context, *annotations) {
	if a, ok := ctx.Value(annotationsKey{}).(*annotations); ok {
		return ctx, a
	}
	a := &annotations{}
	return context.WithValue(ctx, annotationsKey{}, a), a
}

// AnnotateUser records the authenticated user on the request log line. It is a no-op when
// the request did not pass through RequestLogger.
func AnnotateUser(ctx context.Context, userID string) {
	if a, ok := ctx.Value(annotationsKey{}).(*annotations); ok {
		a.mu.Lock()
		a.userID = userID
		a.mu.Unlock()
	}
}

func (a *annotations) user() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID
}
