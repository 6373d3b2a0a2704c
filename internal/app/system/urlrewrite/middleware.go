package urlrewrite

import (
	"net/http"

	"github.com/dalemusser/preemhub/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Middleware rewrites matching request URLs before routing, so the router
// only ever sees page targets. Unmatched requests pass through untouched.
func Middleware(rw *Rewriter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := rw.Rewrite(r.URL)
			if ok {
				logger.Debug("url rewritten",
					zap.String("from", r.URL.Path),
					zap.String("to", u.Path),
					zap.String("path", u.Query().Get(PathParam)))
				r2 := r.Clone(r.Context())
				r2.URL = u
				r2.RequestURI = u.RequestURI()
				r = r2
				metrics.URLRewrites.WithLabelValues("rewritten").Inc()
			} else {
				metrics.URLRewrites.WithLabelValues("passthrough").Inc()
			}
			next.ServeHTTP(w, r)
		})
	}
}
