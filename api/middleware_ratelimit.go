package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/linesmerrill/clinic-api/config"
)

var errRateLimited = errors.New("rate limit exceeded")

// RateLimit allows perSecond requests per second through next with the given burst. A
// non-positive rate disables limiting.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	if burst < 1 {
		burst = 1
	}
	return func(next http.Handler) http.Handler {
		if perSecond <= 0 {
			return next
		}
		limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				zap.S().Debugw("rate limited", "path", r.URL.Path)
				w.Header().Set("Retry-After", "1")
				config.ErrorStatus("too many requests", http.StatusTooManyRequests, w, errRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
