package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	airlock "github.com/goliatone/go-airlock"
)

// Option configures the request middleware.
type Option func(*config)

type config struct {
	scopeOpts   []airlock.ScopeOption
	shouldFlush func(*gin.Context) bool
}

// WithScopeOptions applies options to every request scope, e.g. a policy,
// an executor, or activity hooks.
func WithScopeOptions(opts ...airlock.ScopeOption) Option {
	return func(cfg *config) {
		cfg.scopeOpts = append(cfg.scopeOpts, opts...)
	}
}

// WithShouldFlush overrides the flush decision. The default flushes when the
// response status is below 400.
func WithShouldFlush(decide func(*gin.Context) bool) Option {
	return func(cfg *config) {
		cfg.shouldFlush = decide
	}
}

// Middleware wraps each request in its own scope. Handlers enqueue through
// the request context; after the handler chain finishes, the scope flushes
// when the flush decision approves the response and discards otherwise. A
// panic discards before it continues up to the recovery middleware. Flush
// errors are attached to the gin context's error list.
func Middleware(opts ...Option) gin.HandlerFunc {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	decide := cfg.shouldFlush
	if decide == nil {
		decide = func(c *gin.Context) bool {
			return c.Writer.Status() < http.StatusBadRequest
		}
	}

	return func(c *gin.Context) {
		base := c.Request.Context()
		scope := airlock.NewScope(cfg.scopeOpts...)
		inner, err := scope.Enter(base)
		if err != nil {
			_ = c.Error(err)
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(inner)

		completed := false
		defer func() {
			if completed {
				return
			}
			if scope.IsActive() {
				_ = scope.Exit()
			}
			if !scope.State().Terminal() {
				_, _ = scope.Discard()
			}
		}()

		c.Next()
		completed = true

		if err := scope.Exit(); err != nil {
			_ = c.Error(err)
			return
		}
		if decide(c) {
			if _, err := scope.Flush(base); err != nil {
				_ = c.Error(err)
			}
			return
		}
		_, _ = scope.Discard()
	}
}

// ScopeFrom returns the request's scope for handlers that want to inspect
// buffered intents or finalize early.
func ScopeFrom(c *gin.Context) (*airlock.Scope, bool) {
	return airlock.FromContext(c.Request.Context())
}
